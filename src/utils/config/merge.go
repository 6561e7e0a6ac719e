package config

import (
	"time"

	"github.com/spf13/viper"
)

type Merge struct {
	// Wallet receiving merge requests
	MinterWalletAddress string

	// Platinum collection contract
	PlatinumCollectionAddress string

	// How often the merge detection pass runs
	PollInterval time.Duration

	// How often the mint sweep runs
	MintInterval time.Duration

	// Pending merge requests older than this are failed
	PendingTimeout time.Duration

	// Comment prefix that marks a transaction as a merge request
	CommentPrefix string

	// Bucket for composite NFT metadata
	MetadataBucket string

	// Time window scanned on the first run, when no cursor exists yet
	FallbackWindow time.Duration
}

func setMergeDefaults() {
	viper.SetDefault("Merge.MinterWalletAddress", "")
	viper.SetDefault("Merge.PlatinumCollectionAddress", "")
	viper.SetDefault("Merge.PollInterval", "30s")
	viper.SetDefault("Merge.MintInterval", "1m")
	viper.SetDefault("Merge.PendingTimeout", "150s")
	viper.SetDefault("Merge.CommentPrefix", "onton_merge=")
	viper.SetDefault("Merge.MetadataBucket", "onton-nft-metadata")
	viper.SetDefault("Merge.FallbackWindow", "12h")
}
