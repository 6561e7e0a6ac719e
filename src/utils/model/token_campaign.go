package model

import (
	"time"

	"github.com/jackc/pgtype"
)

const TableMergeTransactions = "token_campaign_merge_transactions"
const TableNftItems = "token_campaign_nft_items"
const TableNftCollections = "token_campaign_nft_collections"

type MergeStatus string

const (
	MergeStatusPending   MergeStatus = "pending"
	MergeStatusCompleted MergeStatus = "completed"
	MergeStatusFailed    MergeStatus = "failed"
)

type NftMergeStatus string

const (
	NftNotAllowedToMerge     NftMergeStatus = "not_allowed_to_merge"
	NftAbleToMerge           NftMergeStatus = "able_to_merge"
	NftWaitingForTransaction NftMergeStatus = "waiting_for_transaction"
	NftMerging               NftMergeStatus = "merging"
	NftMerged                NftMergeStatus = "merged"
	NftBurned                NftMergeStatus = "burned"
)

// Collection ids double as merge tiers
const (
	CollectionBronze   int64 = 1
	CollectionSilver   int64 = 2
	CollectionGold     int64 = 3
	CollectionPlatinum int64 = 4
)

// MergeTransaction records a user's intent to merge three tiered NFTs into
// one platinum NFT. PlatinumNftAddress being empty is the idempotency gate
// for the mint sweep.
type MergeTransaction struct {
	Id            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	WalletAddress string `json:"wallet_address"`

	GoldNftAddress   string `json:"gold_nft_address"`
	SilverNftAddress string `json:"silver_nft_address"`
	BronzeNftAddress string `json:"bronze_nft_address"`

	Status             MergeStatus `json:"status"`
	TrxHash            string      `json:"trx_hash"`
	PlatinumNftAddress string      `json:"platinum_nft_address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MergeTransaction) TableName() string {
	return TableMergeTransactions
}

// NftItem is one on-chain NFT unit participating in the campaign
type NftItem struct {
	Id           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Address      string `json:"address"`
	CollectionId int64  `json:"collection_id"`
	ItemIndex    int64  `json:"item_index"`
	OwnerAddress string `json:"owner_address"`

	MergeStatus NftMergeStatus `json:"merge_status"`

	// NFT this item was merged into, once merged
	MergedIntoAddress string `json:"merged_into_address"`

	// Raw metadata published for the item
	Metadata pgtype.JSONB `gorm:"type:jsonb" json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (NftItem) TableName() string {
	return TableNftItems
}

// NftCollection tracks the strictly increasing per-collection item index,
// reserved only inside the mint transaction
type NftCollection struct {
	Id            int64  `gorm:"primaryKey" json:"id"`
	Address       string `json:"address"`
	Name          string `json:"name"`
	NextItemIndex int64  `json:"next_item_index"`
}

func (NftCollection) TableName() string {
	return TableNftCollections
}
