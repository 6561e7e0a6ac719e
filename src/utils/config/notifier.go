package config

import (
	"time"

	"github.com/spf13/viper"
)

type Notifier struct {
	// Telegram bot API base URL
	BotApiUrl string

	// Bot token
	BotToken string

	// Operations chat receiving summary reports
	ChatId string

	// Single request timeout
	RequestTimeout time.Duration

	// Max unreconciled records buffered before a report is flushed
	BatchSize int

	// After this time buffered records are flushed regardless of count
	FlushInterval time.Duration

	// Max time between failed send retries
	MaxBackoffInterval time.Duration
}

func setNotifierDefaults() {
	viper.SetDefault("Notifier.BotApiUrl", "https://api.telegram.org")
	viper.SetDefault("Notifier.BotToken", "")
	viper.SetDefault("Notifier.ChatId", "")
	viper.SetDefault("Notifier.RequestTimeout", "30s")
	viper.SetDefault("Notifier.BatchSize", "100")
	viper.SetDefault("Notifier.FlushInterval", "5m")
	viper.SetDefault("Notifier.MaxBackoffInterval", "1m")
}
