package monitor_merge

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	StartTimestamp    *prometheus.Desc
	UpForSeconds      *prometheus.Desc
	LastCheckedLt     *prometheus.Desc
	LastPassTimestamp *prometheus.Desc
	MergesCompleted   *prometheus.Desc
	MergesTimedOut    *prometheus.Desc
	MergesRejected    *prometheus.Desc
	PlatinumMinted    *prometheus.Desc

	IndexerFetchErrors  *prometheus.Desc
	MetadataUploadError *prometheus.Desc
	MintErrors          *prometheus.Desc
	DbMergeUpdateErrors *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "merge",
	}

	return &Collector{
		StartTimestamp:    prometheus.NewDesc("start_timestamp", "", nil, labels),
		UpForSeconds:      prometheus.NewDesc("up_for_seconds", "", nil, labels),
		LastCheckedLt:     prometheus.NewDesc("last_checked_lt", "", nil, labels),
		LastPassTimestamp: prometheus.NewDesc("last_pass_timestamp", "", nil, labels),
		MergesCompleted:   prometheus.NewDesc("merges_completed", "", nil, labels),
		MergesTimedOut:    prometheus.NewDesc("merges_timed_out", "", nil, labels),
		MergesRejected:    prometheus.NewDesc("merges_rejected", "", nil, labels),
		PlatinumMinted:    prometheus.NewDesc("platinum_minted", "", nil, labels),

		// Errors
		IndexerFetchErrors:  prometheus.NewDesc("error_indexer_fetch", "", nil, labels),
		MetadataUploadError: prometheus.NewDesc("error_metadata_upload", "", nil, labels),
		MintErrors:          prometheus.NewDesc("error_mint", "", nil, labels),
		DbMergeUpdateErrors: prometheus.NewDesc("error_db_merge_update", "", nil, labels),
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
	ch <- self.MergesCompleted
	ch <- self.MergesTimedOut
	ch <- self.MergesRejected
	ch <- self.PlatinumMinted

	// Errors
	ch <- self.IndexerFetchErrors
	ch <- self.MetadataUploadError
	ch <- self.MintErrors
	ch <- self.DbMergeUpdateErrors
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(self.StartTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.StartTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))
	ch <- prometheus.MustNewConstMetric(self.LastCheckedLt, prometheus.GaugeValue, float64(self.monitor.Report.Merge.State.LastCheckedLt.Load()))
	ch <- prometheus.MustNewConstMetric(self.LastPassTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Merge.State.LastPassTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.MergesCompleted, prometheus.CounterValue, float64(self.monitor.Report.Merge.State.MergesCompleted.Load()))
	ch <- prometheus.MustNewConstMetric(self.MergesTimedOut, prometheus.CounterValue, float64(self.monitor.Report.Merge.State.MergesTimedOut.Load()))
	ch <- prometheus.MustNewConstMetric(self.MergesRejected, prometheus.CounterValue, float64(self.monitor.Report.Merge.State.MergesRejected.Load()))
	ch <- prometheus.MustNewConstMetric(self.PlatinumMinted, prometheus.CounterValue, float64(self.monitor.Report.Merge.State.PlatinumMinted.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.IndexerFetchErrors, prometheus.CounterValue, float64(self.monitor.Report.Merge.Errors.IndexerFetchErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.MetadataUploadError, prometheus.CounterValue, float64(self.monitor.Report.Merge.Errors.MetadataUploadError.Load()))
	ch <- prometheus.MustNewConstMetric(self.MintErrors, prometheus.CounterValue, float64(self.monitor.Report.Merge.Errors.MintErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.DbMergeUpdateErrors, prometheus.CounterValue, float64(self.monitor.Report.Merge.Errors.DbMergeUpdateErrors.Load()))
}
