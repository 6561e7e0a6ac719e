package monitor_rewards

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	StartTimestamp    *prometheus.Desc
	UpForSeconds      *prometheus.Desc
	LastPassTimestamp *prometheus.Desc
	EventsProcessed   *prometheus.Desc
	BatchesSubmitted  *prometheus.Desc
	RewardsCreated    *prometheus.Desc
	RateLimitHits     *prometheus.Desc

	ApiRequestErrors      *prometheus.Desc
	ActivityUpdateErrors  *prometheus.Desc
	DbRewardUpdateErrors  *prometheus.Desc
	PermanentRewardErrors *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "rewards",
	}

	return &Collector{
		StartTimestamp:    prometheus.NewDesc("start_timestamp", "", nil, labels),
		UpForSeconds:      prometheus.NewDesc("up_for_seconds", "", nil, labels),
		LastPassTimestamp: prometheus.NewDesc("last_pass_timestamp", "", nil, labels),
		EventsProcessed:   prometheus.NewDesc("events_processed", "", nil, labels),
		BatchesSubmitted:  prometheus.NewDesc("batches_submitted", "", nil, labels),
		RewardsCreated:    prometheus.NewDesc("rewards_created", "", nil, labels),
		RateLimitHits:     prometheus.NewDesc("rate_limit_hits", "", nil, labels),

		// Errors
		ApiRequestErrors:      prometheus.NewDesc("error_api_request", "", nil, labels),
		ActivityUpdateErrors:  prometheus.NewDesc("error_activity_update", "", nil, labels),
		DbRewardUpdateErrors:  prometheus.NewDesc("error_db_reward_update", "", nil, labels),
		PermanentRewardErrors: prometheus.NewDesc("error_permanent_reward", "", nil, labels),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.StartTimestamp
	ch <- self.UpForSeconds
	ch <- self.LastPassTimestamp
	ch <- self.EventsProcessed
	ch <- self.BatchesSubmitted
	ch <- self.RewardsCreated
	ch <- self.RateLimitHits

	// Errors
	ch <- self.ApiRequestErrors
	ch <- self.ActivityUpdateErrors
	ch <- self.DbRewardUpdateErrors
	ch <- self.PermanentRewardErrors
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(self.StartTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.StartTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))
	ch <- prometheus.MustNewConstMetric(self.LastPassTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Rewards.State.LastPassTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsProcessed, prometheus.CounterValue, float64(self.monitor.Report.Rewards.State.EventsProcessed.Load()))
	ch <- prometheus.MustNewConstMetric(self.BatchesSubmitted, prometheus.CounterValue, float64(self.monitor.Report.Rewards.State.BatchesSubmitted.Load()))
	ch <- prometheus.MustNewConstMetric(self.RewardsCreated, prometheus.CounterValue, float64(self.monitor.Report.Rewards.State.RewardsCreated.Load()))
	ch <- prometheus.MustNewConstMetric(self.RateLimitHits, prometheus.CounterValue, float64(self.monitor.Report.Rewards.State.RateLimitHits.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.ApiRequestErrors, prometheus.CounterValue, float64(self.monitor.Report.Rewards.Errors.ApiRequestErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.ActivityUpdateErrors, prometheus.CounterValue, float64(self.monitor.Report.Rewards.Errors.ActivityUpdateErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.DbRewardUpdateErrors, prometheus.CounterValue, float64(self.monitor.Report.Rewards.Errors.DbRewardUpdateErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.PermanentRewardErrors, prometheus.CounterValue, float64(self.monitor.Report.Rewards.Errors.PermanentRewardErrors.Load()))
}
