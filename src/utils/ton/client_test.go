package ton

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onton/reconciler/src/utils/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

type ClientTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *ClientTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

func (s *ClientTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *ClientTestSuite) newClient(url string) *Client {
	return NewClient(&config.Ton{
		IndexerUrl:            url,
		IndexerApiKeys:        []string{"test-key"},
		IndexerRequestTimeout: 5 * time.Second,
		IndexerMaxAttempts:    3,
		IndexerRetryDelay:     time.Millisecond,
		IndexerPageLimit:      100,
	})
}

const transactionsPayload = `{
	"transactions": [
		{
			"hash": "hash-1",
			"lt": "1001",
			"now": 1700000000,
			"in_msg": {
				"source": "0:1111111111111111111111111111111111111111111111111111111111111111",
				"value": "2500000000",
				"message_content": {
					"decoded": {
						"type": "text_comment",
						"comment": "onton_order=123e4567-e89b-12d3-a456-426614174000"
					}
				}
			}
		},
		{
			"hash": "hash-2",
			"lt": "1002",
			"now": 1700000060,
			"in_msg": {
				"source": "0:2222222222222222222222222222222222222222222222222222222222222222",
				"value": "50000000",
				"opcode": "0x7362d09c",
				"message_content": {
					"decoded": {
						"type": "jetton_transfer_notification",
						"jetton_amount": "1500000",
						"jetton_sender": "0:3333333333333333333333333333333333333333333333333333333333333333",
						"forward_comment": "onton_order=223e4567-e89b-12d3-a456-426614174000"
					}
				}
			}
		}
	]
}`

func (s *ClientTestSuite) TestGetTransactionsNormalization() {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"account":  r.URL.Query().Get("account"),
			"start_lt": r.URL.Query().Get("start_lt"),
			"sort":     r.URL.Query().Get("sort"),
		}
		assert.Equal(s.T(), "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(transactionsPayload))
	}))
	defer server.Close()

	client := s.newClient(server.URL)
	transactions, err := client.GetTransactions(s.ctx, "wallet", 1000, 0, 100, 0)
	require.NoError(s.T(), err)
	require.Len(s.T(), transactions, 2)

	// The cursor is exclusive
	assert.Equal(s.T(), "1001", gotQuery["start_lt"])
	assert.Equal(s.T(), "asc", gotQuery["sort"])
	assert.Equal(s.T(), "wallet", gotQuery["account"])

	native := transactions[0]
	assert.Equal(s.T(), uint64(1001), native.Lt)
	require.NotNil(s.T(), native.In)
	assert.Equal(s.T(), PaymentKindNative, native.In.Kind)
	assert.Equal(s.T(), uint64(2500000000), native.In.Value)
	assert.Equal(s.T(), "onton_order=123e4567-e89b-12d3-a456-426614174000", native.In.Comment)

	jetton := transactions[1]
	require.NotNil(s.T(), jetton.In)
	assert.Equal(s.T(), PaymentKindJetton, jetton.In.Kind)
	assert.Equal(s.T(), uint64(1500000), jetton.In.JettonAmount)
	assert.Equal(s.T(), "0:3333333333333333333333333333333333333333333333333333333333333333", jetton.In.JettonSender)
	// Comment comes from the forward payload
	assert.Equal(s.T(), "onton_order=223e4567-e89b-12d3-a456-426614174000", jetton.In.Comment)
}

func (s *ClientTestSuite) TestGetTransactionsFallbackWindow() {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"start_lt":    r.URL.Query().Get("start_lt"),
			"start_utime": r.URL.Query().Get("start_utime"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transactions": []}`))
	}))
	defer server.Close()

	client := s.newClient(server.URL)
	transactions, err := client.GetTransactions(s.ctx, "wallet", 0, 1700000000, 100, 0)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), transactions)

	// Without a cursor the time window is used instead
	assert.Equal(s.T(), "", gotQuery["start_lt"])
	assert.Equal(s.T(), "1700000000", gotQuery["start_utime"])
}

func (s *ClientTestSuite) TestGetTransactionsRetries() {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transactions": []}`))
	}))
	defer server.Close()

	client := s.newClient(server.URL)
	_, err := client.GetTransactions(s.ctx, "wallet", 1000, 0, 100, 0)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, calls)
}

func (s *ClientTestSuite) TestGetTransactionsExhaustsAttempts() {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := s.newClient(server.URL)
	_, err := client.GetTransactions(s.ctx, "wallet", 1000, 0, 100, 0)
	require.Error(s.T(), err)
	assert.Equal(s.T(), 3, calls)
}

func (s *ClientTestSuite) TestGetJettonWallet() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(s.T(), "some-wallet", r.URL.Query().Get("address"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"jetton_wallets": [
				{
					"address": "some-wallet",
					"owner": "0:1111111111111111111111111111111111111111111111111111111111111111",
					"jetton": "0:2222222222222222222222222222222222222222222222222222222222222222",
					"decimals": 6
				}
			]
		}`))
	}))
	defer server.Close()

	client := s.newClient(server.URL)
	wallet, err := client.GetJettonWallet(s.ctx, "some-wallet")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "0:2222222222222222222222222222222222222222222222222222222222222222", wallet.Jetton)
	assert.Equal(s.T(), 6, wallet.Decimals)
}

func (s *ClientTestSuite) TestGetJettonWalletNotFound() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jetton_wallets": []}`))
	}))
	defer server.Close()

	client := s.newClient(server.URL)
	_, err := client.GetJettonWallet(s.ctx, "some-wallet")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}
