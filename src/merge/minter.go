package merge

import (
	"errors"
	"fmt"

	"github.com/onton/reconciler/src/utils/bucket"
	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/locker"
	"github.com/onton/reconciler/src/utils/model"
	"github.com/onton/reconciler/src/utils/monitoring"
	"github.com/onton/reconciler/src/utils/task"
	"github.com/onton/reconciler/src/utils/ton"

	"github.com/jackc/pgtype"
	"gorm.io/gorm"
)

const mintLockKey = "merge-mint"

// Minter sweeps completed merges that still lack their platinum NFT and
// mints it: metadata goes to object storage, the mint message on chain, and
// the bookkeeping lands in one DB transaction. The empty platinum address is
// the idempotency gate, a crash between mint and bookkeeping re-runs the row.
type Minter struct {
	*task.Task

	db       *gorm.DB
	wallet   *ton.Minter
	uploader *bucket.Uploader
	locker   *locker.Locker
	monitor  monitoring.Monitor

	mergeConfig *config.Merge
}

func NewMinter(config *config.Config) (self *Minter) {
	self = new(Minter)
	self.mergeConfig = &config.Merge

	self.Task = task.NewTask(config, "minter").
		WithPeriodicSubtaskFunc(config.Merge.MintInterval, self.runPass)

	return
}

func (self *Minter) WithDb(v *gorm.DB) *Minter {
	self.db = v
	return self
}

func (self *Minter) WithWallet(v *ton.Minter) *Minter {
	self.wallet = v
	return self
}

func (self *Minter) WithUploader(v *bucket.Uploader) *Minter {
	self.uploader = v
	return self
}

func (self *Minter) WithLocker(v *locker.Locker) *Minter {
	self.locker = v
	return self
}

func (self *Minter) WithMonitor(v monitoring.Monitor) *Minter {
	self.monitor = v
	return self
}

func (self *Minter) runPass() (err error) {
	acquired, err := self.locker.AcquireLock(self.Ctx, mintLockKey)
	if err != nil {
		self.Log.WithError(err).Error("Failed to acquire job lock")
		return nil
	}
	if !acquired {
		// Another instance is minting
		return nil
	}
	defer self.locker.ReleaseLock(self.Ctx, mintLockKey)

	var rows []model.MergeTransaction
	err = self.db.WithContext(self.Ctx).
		Where("status = ? AND (platinum_nft_address IS NULL OR platinum_nft_address = '')", model.MergeStatusCompleted).
		Order("id ASC").
		Find(&rows).
		Error
	if err != nil {
		self.Log.WithError(err).Error("Failed to list completed merges")
		self.monitor.GetReport().Merge.Errors.DbMergeUpdateErrors.Inc()
		return nil
	}

	for i := range rows {
		err = self.mint(&rows[i])
		if err != nil {
			// The row stays gated and is retried on the next sweep
			self.Log.
				WithError(err).
				WithField("merge_id", rows[i].Id).
				Error("Failed to mint platinum NFT")
			continue
		}
	}
	return nil
}

func (self *Minter) mint(row *model.MergeTransaction) (err error) {
	sources := []string{row.GoldNftAddress, row.SilverNftAddress, row.BronzeNftAddress}

	// The sources must still be held in merging, anything else means the
	// state was tampered with outside this job
	var merging int64
	err = self.db.WithContext(self.Ctx).
		Model(&model.NftItem{}).
		Where("address IN ? AND merge_status = ?", sources, model.NftMerging).
		Count(&merging).
		Error
	if err != nil {
		self.monitor.GetReport().Merge.Errors.DbMergeUpdateErrors.Inc()
		return
	}
	if merging != int64(len(sources)) {
		return fmt.Errorf("expected %d merging source items, found %d", len(sources), merging)
	}

	var collection model.NftCollection
	err = self.db.WithContext(self.Ctx).
		Where("id = ?", model.CollectionPlatinum).
		First(&collection).
		Error
	if err != nil {
		self.monitor.GetReport().Merge.Errors.DbMergeUpdateErrors.Inc()
		return
	}

	err = self.checkCollection(&collection)
	if err != nil {
		return
	}
	index := collection.NextItemIndex

	metadataUrl, err := self.uploader.UploadJson(self.Ctx, self.mergeConfig.MetadataBucket, metadataKey(index), buildPlatinumMetadata(row, index))
	if err != nil {
		self.monitor.GetReport().Merge.Errors.MetadataUploadError.Inc()
		return
	}

	nftAddress, err := self.wallet.MintNFT(self.Ctx, row.WalletAddress, collection.Address, index, metadataUrl)
	if err != nil {
		self.monitor.GetReport().Merge.Errors.MintErrors.Inc()
		return
	}

	err = self.record(row, &collection, index, nftAddress)
	if err != nil {
		self.monitor.GetReport().Merge.Errors.DbMergeUpdateErrors.Inc()
		return
	}

	self.Log.
		WithField("merge_id", row.Id).
		WithField("nft_address", nftAddress).
		Info("Platinum NFT minted")
	self.monitor.GetReport().Merge.State.PlatinumMinted.Inc()
	return nil
}

// checkCollection verifies the database's platinum collection row against the
// configured contract address. A mismatch means the config and the database
// point at different deployments; minting into the wrong collection is
// unrecoverable, so the sweep leaves the row gated.
func (self *Minter) checkCollection(collection *model.NftCollection) (err error) {
	configured := self.mergeConfig.PlatinumCollectionAddress
	if configured == "" {
		return nil
	}
	if !ton.AddressesEqual(collection.Address, configured) {
		return fmt.Errorf("platinum collection address mismatch: db has %s, config has %s",
			collection.Address, configured)
	}
	return nil
}

// record books the mint: the collection index is consumed, the new item
// inserted, the sources closed out and the merge row stamped, atomically
func (self *Minter) record(row *model.MergeTransaction, collection *model.NftCollection, index int64, nftAddress string) (err error) {
	sources := []string{row.GoldNftAddress, row.SilverNftAddress, row.BronzeNftAddress}

	var metadata pgtype.JSONB
	err = metadata.Set(buildPlatinumMetadata(row, index))
	if err != nil {
		return
	}

	return self.db.WithContext(self.Ctx).
		Transaction(func(dbTx *gorm.DB) error {
			result := dbTx.
				Model(&model.NftCollection{}).
				Where("id = ? AND next_item_index = ?", collection.Id, index).
				Update("next_item_index", index+1)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errors.New("collection index moved concurrently")
			}

			err := dbTx.
				Create(&model.NftItem{
					Address:      nftAddress,
					CollectionId: collection.Id,
					ItemIndex:    index,
					OwnerAddress: row.WalletAddress,
					MergeStatus:  model.NftNotAllowedToMerge,
					Metadata:     metadata,
				}).
				Error
			if err != nil {
				return err
			}

			result = dbTx.
				Model(&model.NftItem{}).
				Where("address IN ? AND merge_status = ?", sources, model.NftMerging).
				Updates(map[string]interface{}{
					"merge_status":        model.NftMerged,
					"merged_into_address": nftAddress,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected != int64(len(sources)) {
				return errors.New("source nft changed state concurrently")
			}

			result = dbTx.
				Model(&model.MergeTransaction{}).
				Where("id = ? AND (platinum_nft_address IS NULL OR platinum_nft_address = '')", row.Id).
				Update("platinum_nft_address", nftAddress)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errors.New("merge row already stamped")
			}
			return nil
		})
}
