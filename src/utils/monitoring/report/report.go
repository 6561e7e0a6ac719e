package report

type Report struct {
	Run      *RunReport      `json:"run,omitempty"`
	Payments *PaymentsReport `json:"payments,omitempty"`
	Rewards  *RewardsReport  `json:"rewards,omitempty"`
	Merge    *MergeReport    `json:"merge,omitempty"`
}
