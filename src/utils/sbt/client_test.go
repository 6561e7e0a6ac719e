package sbt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onton/reconciler/src/utils/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(&config.Rewards{
		ApiUrl:         url,
		ApiKey:         "secret",
		RequestTimeout: 5 * time.Second,
	})
}

func TestBuildRecipientsCsv(t *testing.T) {
	out, err := BuildRecipientsCsv([]int64{1, 22, 333})
	require.NoError(t, err)
	assert.Equal(t, "telegram_user_id\n1\n22\n333\n", string(out))
}

func TestSubmitRewardBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/activities/act-1/rewards/batch", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		err := r.ParseMultipartForm(1 << 20)
		require.NoError(t, err)
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "recipients.csv", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reward_link": "https://rewards.example/b/xyz"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	link, err := client.SubmitRewardBatch(context.Background(), "act-1", []byte("telegram_user_id\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://rewards.example/b/xyz", link)
}

func TestSubmitRewardBatchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SubmitRewardBatch(context.Background(), "act-1", []byte("telegram_user_id\n1\n"))
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestCreateRewardLinkRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateRewardLink(context.Background(), "act-1", 42, nil)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestUpdateActivity(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/activities/act-1", r.URL.Path)
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	endDate := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := client.UpdateActivity(context.Background(), "act-1", endDate)
	require.NoError(t, err)
	assert.Contains(t, gotBody, "2026-03-01T12:00:00Z")
}
