package merge

import (
	"fmt"

	"github.com/onton/reconciler/src/utils/model"
)

// Offchain metadata published for a composite NFT. Attributes record the
// provenance: which three items were given up and in which transaction.
type nftMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Attributes  []metadataAttribute `json:"attributes"`
}

type metadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

func buildPlatinumMetadata(row *model.MergeTransaction, index int64) *nftMetadata {
	return &nftMetadata{
		Name:        fmt.Sprintf("ONTON Platinum #%d", index),
		Description: "Composite NFT minted by merging a gold, a silver and a bronze event NFT",
		Attributes: []metadataAttribute{
			{TraitType: "tier", Value: "platinum"},
			{TraitType: "gold_source", Value: row.GoldNftAddress},
			{TraitType: "silver_source", Value: row.SilverNftAddress},
			{TraitType: "bronze_source", Value: row.BronzeNftAddress},
			{TraitType: "merge_transaction", Value: row.TrxHash},
		},
	}
}

func metadataKey(index int64) string {
	return fmt.Sprintf("platinum/%d.json", index)
}
