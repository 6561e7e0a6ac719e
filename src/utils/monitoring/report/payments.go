package report

import (
	"go.uber.org/atomic"
)

type PaymentsErrors struct {
	IndexerFetchErrors    atomic.Int64 `json:"indexer_fetch"`
	JettonResolveErrors   atomic.Int64 `json:"jetton_resolve"`
	DbOrderUpdateErrors   atomic.Int64 `json:"db_order_update"`
	DbCursorAdvanceErrors atomic.Int64 `json:"db_cursor_advance"`
}

type PaymentsState struct {
	LastCheckedLt               atomic.Uint64 `json:"last_checked_lt"`
	LastPassTimestamp           atomic.Int64  `json:"last_pass_timestamp"`
	TransactionsFetched         atomic.Uint64 `json:"transactions_fetched"`
	OrdersConfirmed             atomic.Uint64 `json:"orders_confirmed"`
	UnmatchedTransactions       atomic.Uint64 `json:"unmatched_transactions"`
	AlreadyProcessedCorrelation atomic.Uint64 `json:"already_processed_correlation"`
}

type PaymentsReport struct {
	State  PaymentsState  `json:"state"`
	Errors PaymentsErrors `json:"errors"`
}
