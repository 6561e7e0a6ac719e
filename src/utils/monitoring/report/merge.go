package report

import (
	"go.uber.org/atomic"
)

type MergeErrors struct {
	IndexerFetchErrors  atomic.Int64 `json:"indexer_fetch"`
	MetadataUploadError atomic.Int64 `json:"metadata_upload"`
	MintErrors          atomic.Int64 `json:"mint"`
	DbMergeUpdateErrors atomic.Int64 `json:"db_merge_update"`
}

type MergeState struct {
	LastCheckedLt     atomic.Uint64 `json:"last_checked_lt"`
	LastPassTimestamp atomic.Int64  `json:"last_pass_timestamp"`
	MergesCompleted   atomic.Uint64 `json:"merges_completed"`
	MergesTimedOut    atomic.Uint64 `json:"merges_timed_out"`
	MergesRejected    atomic.Uint64 `json:"merges_rejected"`
	PlatinumMinted    atomic.Uint64 `json:"platinum_minted"`
}

type MergeReport struct {
	State  MergeState  `json:"state"`
	Errors MergeErrors `json:"errors"`
}
