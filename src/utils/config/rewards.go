package config

import (
	"time"

	"github.com/spf13/viper"
)

type Rewards struct {
	// Rewards platform base URL
	ApiUrl string

	// Rewards platform API key
	ApiKey string

	// Single request timeout
	RequestTimeout time.Duration

	// How often the issuance pass runs
	PollInterval time.Duration

	// Rewards submitted per CSV batch
	BatchSize int

	// Cooldown after a 429 response, retried indefinitely
	RateLimitCooldown time.Duration

	// Attempts for non-rate-limited errors before a reward is marked failed
	MaxAttempts int

	// Fixed delay between failed attempts
	RetryDelay time.Duration

	// How far an elapsed activity window is temporarily extended
	ActivityExtension time.Duration

	// Workers issuing individual rewards
	NumWorkers int

	// Max number of rewards waiting in the worker queue
	WorkerQueueSize int
}

func setRewardsDefaults() {
	viper.SetDefault("Rewards.ApiUrl", "")
	viper.SetDefault("Rewards.ApiKey", "")
	viper.SetDefault("Rewards.RequestTimeout", "30s")
	viper.SetDefault("Rewards.PollInterval", "1m")
	viper.SetDefault("Rewards.BatchSize", "300")
	viper.SetDefault("Rewards.RateLimitCooldown", "10s")
	viper.SetDefault("Rewards.MaxAttempts", "3")
	viper.SetDefault("Rewards.RetryDelay", "2s")
	viper.SetDefault("Rewards.ActivityExtension", "24h")
	viper.SetDefault("Rewards.NumWorkers", "5")
	viper.SetDefault("Rewards.WorkerQueueSize", "100")
}
