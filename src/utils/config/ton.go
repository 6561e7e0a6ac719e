package config

import (
	"time"

	"github.com/spf13/viper"
)

type Ton struct {
	// Chain indexer base URL
	IndexerUrl string

	// API keys used round-robin to spread rate limits
	IndexerApiKeys []string

	// Single request timeout
	IndexerRequestTimeout time.Duration

	// Number of fetch attempts before the batch is aborted
	IndexerMaxAttempts int

	// Fixed delay between failed fetch attempts
	IndexerRetryDelay time.Duration

	// Page size for transaction listing
	IndexerPageLimit int

	// Liteserver-backed wallet used for minting
	MinterWalletMnemonic string
	MinterWalletVersion  string

	// Amount of nanocoins attached to a mint message
	MintAmount uint64

	// How long to wait for a mint message to be accepted
	MintSendTimeout time.Duration
}

func setTonDefaults() {
	viper.SetDefault("Ton.IndexerUrl", "https://toncenter.com/api/v3")
	viper.SetDefault("Ton.IndexerApiKeys", "")
	viper.SetDefault("Ton.IndexerRequestTimeout", "30s")
	viper.SetDefault("Ton.IndexerMaxAttempts", "3")
	viper.SetDefault("Ton.IndexerRetryDelay", "2s")
	viper.SetDefault("Ton.IndexerPageLimit", "100")
	viper.SetDefault("Ton.MinterWalletMnemonic", "")
	viper.SetDefault("Ton.MinterWalletVersion", "v4r2")
	viper.SetDefault("Ton.MintAmount", "50000000")
	viper.SetDefault("Ton.MintSendTimeout", "60s")
}
