package notify

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onton/reconciler/src/utils/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCsv(t *testing.T) {
	out, err := renderCsv([]*UnreconciledRecord{
		{
			TrxHash: "abc",
			Lt:      42,
			Sender:  "0:11",
			Comment: "onton_order=deadbeef",
			Reason:  "order not found",
		},
		{
			TrxHash: "def",
			Lt:      43,
			Sender:  "0:22",
			Comment: "has,comma",
			Reason:  "amount mismatch",
		},
	})
	require.NoError(t, err)

	expected := "trx_hash,lt,sender,comment,reason\n" +
		"abc,42,0:11,onton_order=deadbeef,order not found\n" +
		"def,43,0:22,\"has,comma\",amount mismatch\n"
	assert.Equal(t, expected, string(out))
}

func TestFlushSendsDocument(t *testing.T) {
	var gotChatId, gotFilename string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotChatId = r.FormValue("chat_id")

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotBody, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	conf := config.Default()
	conf.Notifier.BotApiUrl = server.URL
	conf.Notifier.BotToken = "token"
	conf.Notifier.ChatId = "-100"
	conf.Notifier.RequestTimeout = time.Second

	notifier := NewNotifier(conf)
	out, err := notifier.flush([]*UnreconciledRecord{
		{TrxHash: "abc", Lt: 1, Sender: "0:11", Comment: "c", Reason: "r"},
	})
	require.NoError(t, err)
	assert.Nil(t, out)

	assert.Equal(t, "-100", gotChatId)
	assert.Equal(t, "unreconciled.csv", gotFilename)
	assert.Contains(t, string(gotBody), "trx_hash,lt,sender,comment,reason")
}

func TestFlushWithoutCredentialsDrops(t *testing.T) {
	conf := config.Default()
	conf.Notifier.BotToken = ""
	conf.Notifier.ChatId = ""

	notifier := NewNotifier(conf)
	out, err := notifier.flush([]*UnreconciledRecord{{TrxHash: "abc"}})
	require.NoError(t, err)
	assert.Nil(t, out)
}
