package config

import (
	"time"

	"github.com/spf13/viper"
)

type Payments struct {
	// Wallet receiving order payments
	WalletAddress string

	// How often the reconciliation pass runs
	PollInterval time.Duration

	// Time window scanned on the first run for a wallet, when no cursor exists yet
	FallbackWindow time.Duration

	// Comment prefix that marks a transaction as an order payment
	CommentPrefix string

	// Accepted difference between the paid and the expected amount,
	// after decimal normalization
	AmountEpsilon float64
}

func setPaymentsDefaults() {
	viper.SetDefault("Payments.WalletAddress", "")
	viper.SetDefault("Payments.PollInterval", "30s")
	viper.SetDefault("Payments.FallbackWindow", "12h")
	viper.SetDefault("Payments.CommentPrefix", "onton_order=")
	viper.SetDefault("Payments.AmountEpsilon", "0.000001")
}
