package monitor_payments

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	StartTimestamp              *prometheus.Desc
	UpForSeconds                *prometheus.Desc
	LastCheckedLt               *prometheus.Desc
	LastPassTimestamp           *prometheus.Desc
	TransactionsFetched         *prometheus.Desc
	OrdersConfirmed             *prometheus.Desc
	UnmatchedTransactions       *prometheus.Desc
	AlreadyProcessedCorrelation *prometheus.Desc

	IndexerFetchErrors    *prometheus.Desc
	JettonResolveErrors   *prometheus.Desc
	DbOrderUpdateErrors   *prometheus.Desc
	DbCursorAdvanceErrors *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "payments",
	}

	return &Collector{
		StartTimestamp:              prometheus.NewDesc("start_timestamp", "", nil, labels),
		UpForSeconds:                prometheus.NewDesc("up_for_seconds", "", nil, labels),
		LastCheckedLt:               prometheus.NewDesc("last_checked_lt", "", nil, labels),
		LastPassTimestamp:           prometheus.NewDesc("last_pass_timestamp", "", nil, labels),
		TransactionsFetched:         prometheus.NewDesc("transactions_fetched", "", nil, labels),
		OrdersConfirmed:             prometheus.NewDesc("orders_confirmed", "", nil, labels),
		UnmatchedTransactions:       prometheus.NewDesc("unmatched_transactions", "", nil, labels),
		AlreadyProcessedCorrelation: prometheus.NewDesc("already_processed_correlation", "", nil, labels),

		// Errors
		IndexerFetchErrors:    prometheus.NewDesc("error_indexer_fetch", "", nil, labels),
		JettonResolveErrors:   prometheus.NewDesc("error_jetton_resolve", "", nil, labels),
		DbOrderUpdateErrors:   prometheus.NewDesc("error_db_order_update", "", nil, labels),
		DbCursorAdvanceErrors: prometheus.NewDesc("error_db_cursor_advance", "", nil, labels),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.StartTimestamp
	ch <- self.UpForSeconds
	ch <- self.LastCheckedLt
	ch <- self.LastPassTimestamp
	ch <- self.TransactionsFetched
	ch <- self.OrdersConfirmed
	ch <- self.UnmatchedTransactions
	ch <- self.AlreadyProcessedCorrelation

	// Errors
	ch <- self.IndexerFetchErrors
	ch <- self.JettonResolveErrors
	ch <- self.DbOrderUpdateErrors
	ch <- self.DbCursorAdvanceErrors
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(self.StartTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.StartTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))
	ch <- prometheus.MustNewConstMetric(self.LastCheckedLt, prometheus.GaugeValue, float64(self.monitor.Report.Payments.State.LastCheckedLt.Load()))
	ch <- prometheus.MustNewConstMetric(self.LastPassTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Payments.State.LastPassTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransactionsFetched, prometheus.CounterValue, float64(self.monitor.Report.Payments.State.TransactionsFetched.Load()))
	ch <- prometheus.MustNewConstMetric(self.OrdersConfirmed, prometheus.CounterValue, float64(self.monitor.Report.Payments.State.OrdersConfirmed.Load()))
	ch <- prometheus.MustNewConstMetric(self.UnmatchedTransactions, prometheus.CounterValue, float64(self.monitor.Report.Payments.State.UnmatchedTransactions.Load()))
	ch <- prometheus.MustNewConstMetric(self.AlreadyProcessedCorrelation, prometheus.CounterValue, float64(self.monitor.Report.Payments.State.AlreadyProcessedCorrelation.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.IndexerFetchErrors, prometheus.CounterValue, float64(self.monitor.Report.Payments.Errors.IndexerFetchErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.JettonResolveErrors, prometheus.CounterValue, float64(self.monitor.Report.Payments.Errors.JettonResolveErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.DbOrderUpdateErrors, prometheus.CounterValue, float64(self.monitor.Report.Payments.Errors.DbOrderUpdateErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.DbCursorAdvanceErrors, prometheus.CounterValue, float64(self.monitor.Report.Payments.Errors.DbCursorAdvanceErrors.Load()))
}
