package payments

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/model"
	monitor_payments "github.com/onton/reconciler/src/utils/monitoring/payments"
	"github.com/onton/reconciler/src/utils/ton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const fetchWallet = "0:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestFetcherTestSuite(t *testing.T) {
	suite.Run(t, new(FetcherTestSuite))
}

type FetcherTestSuite struct {
	suite.Suite
	config  *config.Config
	db      *gorm.DB
	server  *httptest.Server
	monitor *monitor_payments.Monitor
	fetcher *Fetcher

	// Per-test canned indexer page and the queries it received
	response string
	queries  []url.Values
}

func (s *FetcherTestSuite) SetupSuite() {
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.queries = append(s.queries, r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(s.response))
	}))
}

func (s *FetcherTestSuite) TearDownSuite() {
	s.server.Close()
}

func (s *FetcherTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.Ton.IndexerUrl = s.server.URL
	s.config.Ton.IndexerMaxAttempts = 1
	s.config.Ton.IndexerRetryDelay = time.Millisecond
	s.config.Payments.WalletAddress = fetchWallet

	s.response = `{"transactions": []}`
	s.queries = nil

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(s.T(), err)
	sqlDb, err := db.DB()
	require.NoError(s.T(), err)
	sqlDb.SetMaxOpenConns(1)

	err = db.AutoMigrate(&model.Order{}, &model.Registrant{}, &model.WalletCheck{})
	require.NoError(s.T(), err)
	s.db = db

	s.monitor = monitor_payments.NewMonitor()

	matcher := NewMatcher(s.config).
		WithDb(db).
		WithResolver(&fakeResolver{}).
		WithMonitor(s.monitor)

	s.fetcher = NewFetcher(s.config).
		WithClient(ton.NewClient(&s.config.Ton)).
		WithStore(NewStore(db)).
		WithMatcher(matcher).
		WithMonitor(s.monitor)
}

func (s *FetcherTestSuite) pageWithPayment(lt uint64, comment string) string {
	return fmt.Sprintf(`{"transactions": [{
		"hash": "page-hash",
		"lt": "%d",
		"now": 1700000000,
		"in_msg": {
			"source": %q,
			"value": "2500000000",
			"message_content": {"decoded": {"type": "text_comment", "comment": %q}}
		}
	}]}`, lt, testPayer, comment)
}

func (s *FetcherTestSuite) loadCursor() (check model.WalletCheck, found bool) {
	err := s.db.Where("wallet_address = ?", fetchWallet).First(&check).Error
	if err == gorm.ErrRecordNotFound {
		return check, false
	}
	require.NoError(s.T(), err)
	return check, true
}

func (s *FetcherTestSuite) TestSuccessfulPassAdvancesCursor() {
	err := s.db.Create(&model.Order{
		Id:           testOrderId,
		EventId:      7,
		UserId:       42,
		TotalPrice:   2.5,
		PaymentToken: "TON",
		State:        model.OrderStateNew,
	}).Error
	require.NoError(s.T(), err)

	s.response = s.pageWithPayment(2001, "onton_order="+testOrderId)

	require.NoError(s.T(), s.fetcher.reconcile())

	var order model.Order
	require.NoError(s.T(), s.db.Where("id = ?", testOrderId).First(&order).Error)
	assert.Equal(s.T(), model.OrderStateProcessing, order.State)

	cursor, found := s.loadCursor()
	require.True(s.T(), found)
	assert.Equal(s.T(), uint64(2001), cursor.CheckedLt)

	// First pass for the wallet scans by time, not by lt
	require.Len(s.T(), s.queries, 1)
	assert.Empty(s.T(), s.queries[0].Get("start_lt"))
	assert.NotEmpty(s.T(), s.queries[0].Get("start_utime"))
}

func (s *FetcherTestSuite) TestExistingCursorIsExclusiveStart() {
	require.NoError(s.T(), s.db.Create(&model.WalletCheck{
		WalletAddress: fetchWallet,
		CheckedLt:     1500,
	}).Error)

	require.NoError(s.T(), s.fetcher.reconcile())

	require.Len(s.T(), s.queries, 1)
	assert.Equal(s.T(), "1501", s.queries[0].Get("start_lt"))
	assert.Equal(s.T(), fetchWallet, s.queries[0].Get("account"))
}

func (s *FetcherTestSuite) TestInfraErrorLeavesCursorUnchanged() {
	require.NoError(s.T(), s.db.Create(&model.WalletCheck{
		WalletAddress: fetchWallet,
		CheckedLt:     1500,
	}).Error)

	// Break the order lookup mid-batch; the pass must abort without moving
	// the cursor so the transaction is replayed next time
	require.NoError(s.T(), s.db.Migrator().DropTable(&model.Order{}))

	s.response = s.pageWithPayment(2001, "onton_order="+testOrderId)

	err := s.fetcher.reconcile()
	require.Error(s.T(), err)

	cursor, found := s.loadCursor()
	require.True(s.T(), found)
	assert.Equal(s.T(), uint64(1500), cursor.CheckedLt)
}

func (s *FetcherTestSuite) TestEmptyPageLeavesNoCursor() {
	require.NoError(s.T(), s.fetcher.reconcile())

	_, found := s.loadCursor()
	assert.False(s.T(), found)
}
