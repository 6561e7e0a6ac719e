package report

import (
	"go.uber.org/atomic"
)

type RewardsErrors struct {
	ApiRequestErrors      atomic.Int64 `json:"api_request"`
	ActivityUpdateErrors  atomic.Int64 `json:"activity_update"`
	DbRewardUpdateErrors  atomic.Int64 `json:"db_reward_update"`
	PermanentRewardErrors atomic.Int64 `json:"permanent_reward"`
}

type RewardsState struct {
	LastPassTimestamp atomic.Int64  `json:"last_pass_timestamp"`
	EventsProcessed   atomic.Uint64 `json:"events_processed"`
	BatchesSubmitted  atomic.Uint64 `json:"batches_submitted"`
	RewardsCreated    atomic.Uint64 `json:"rewards_created"`
	RateLimitHits     atomic.Uint64 `json:"rate_limit_hits"`
}

type RewardsReport struct {
	State  RewardsState  `json:"state"`
	Errors RewardsErrors `json:"errors"`
}
