package merge

import (
	"errors"
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/locker"
	"github.com/onton/reconciler/src/utils/model"
	"github.com/onton/reconciler/src/utils/monitoring"
	"github.com/onton/reconciler/src/utils/task"
	"github.com/onton/reconciler/src/utils/ton"

	"gorm.io/gorm"
)

const detectLockKey = "merge-detect"

// Detector watches the minter wallet for merge payment transactions. A valid
// transaction names the requester and the three NFTs being given up; the
// matching pending merge row is completed and the NFTs move to merging.
type Detector struct {
	*task.Task

	db      *gorm.DB
	client  *ton.Client
	locker  *locker.Locker
	monitor monitoring.Monitor

	mergeConfig *config.Merge
	tonConfig   *config.Ton
}

func NewDetector(config *config.Config) (self *Detector) {
	self = new(Detector)
	self.mergeConfig = &config.Merge
	self.tonConfig = &config.Ton

	self.Task = task.NewTask(config, "detector").
		WithPeriodicSubtaskFunc(config.Merge.PollInterval, self.runPass)

	return
}

func (self *Detector) WithDb(v *gorm.DB) *Detector {
	self.db = v
	return self
}

func (self *Detector) WithClient(v *ton.Client) *Detector {
	self.client = v
	return self
}

func (self *Detector) WithLocker(v *locker.Locker) *Detector {
	self.locker = v
	return self
}

func (self *Detector) WithMonitor(v monitoring.Monitor) *Detector {
	self.monitor = v
	return self
}

func (self *Detector) runPass() (err error) {
	acquired, err := self.locker.AcquireLock(self.Ctx, detectLockKey)
	if err != nil {
		self.Log.WithError(err).Error("Failed to acquire job lock")
		return nil
	}
	if !acquired {
		// Another instance is detecting
		return nil
	}
	defer self.locker.ReleaseLock(self.Ctx, detectLockKey)

	err = self.detect()
	if err != nil {
		// Retried from the unchanged cursor on the next tick
		self.Log.WithError(err).Error("Merge detection pass failed")
	}

	self.monitor.GetReport().Merge.State.LastPassTimestamp.Store(time.Now().Unix())
	return nil
}

func (self *Detector) detect() (err error) {
	wallet := self.mergeConfig.MinterWalletAddress

	checkedLt, found, err := model.GetCheckedLt(self.Ctx, self.db, wallet)
	if err != nil {
		return
	}

	var startUtime int64
	if !found {
		startUtime = time.Now().Add(-self.mergeConfig.FallbackWindow).Unix()
	}

	for {
		transactions, err := self.client.GetTransactions(self.Ctx, wallet, checkedLt, startUtime, self.tonConfig.IndexerPageLimit, 0)
		if err != nil {
			self.monitor.GetReport().Merge.Errors.IndexerFetchErrors.Inc()
			return err
		}
		if len(transactions) == 0 {
			return nil
		}

		for i := range transactions {
			err = self.handleTransaction(&transactions[i])
			if err != nil {
				return err
			}
		}

		checkedLt = transactions[len(transactions)-1].Lt
		startUtime = 0

		err = model.AdvanceCheckedLt(self.Ctx, self.db, wallet, checkedLt)
		if err != nil {
			self.monitor.GetReport().Merge.Errors.DbMergeUpdateErrors.Inc()
			return err
		}
		self.monitor.GetReport().Merge.State.LastCheckedLt.Store(checkedLt)

		if len(transactions) < self.tonConfig.IndexerPageLimit {
			return nil
		}
	}
}

func (self *Detector) handleTransaction(trx *ton.Transaction) (err error) {
	if trx.In == nil || trx.In.Comment == "" {
		return
	}

	request, ok := ton.ParseMergeComment(trx.In.Comment, self.mergeConfig.CommentPrefix)
	if !ok {
		return
	}

	log := self.Log.
		WithField("trx_hash", trx.Hash).
		WithField("wallet", request.WalletAddress)

	items, reason, err := self.loadMergeItems(request)
	if err != nil {
		return
	}
	if reason != "" {
		log.WithField("reason", reason).Warn("Rejecting merge request")
		self.monitor.GetReport().Merge.State.MergesRejected.Inc()
		return nil
	}

	mergeRow, err := self.findPendingMerge(request, items)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("No pending merge row matches the transaction")
		self.monitor.GetReport().Merge.State.MergesRejected.Inc()
		return nil
	}
	if err != nil {
		self.monitor.GetReport().Merge.Errors.DbMergeUpdateErrors.Inc()
		return
	}

	err = self.completeMerge(mergeRow, items, trx.Hash)
	if err != nil {
		log.WithError(err).Error("Failed to complete merge")
		self.monitor.GetReport().Merge.Errors.DbMergeUpdateErrors.Inc()
		return
	}

	log.WithField("merge_id", mergeRow.Id).Info("Merge request confirmed")
	self.monitor.GetReport().Merge.State.MergesCompleted.Inc()
	return nil
}

// loadMergeItems resolves the requested indices to NFT rows. The request is
// only valid when it names exactly one gold, one silver and one bronze item,
// all owned by the requester and all still able to merge.
func (self *Detector) loadMergeItems(request *ton.MergeRequest) (items []model.NftItem, reason string, err error) {
	lookups := []struct {
		collectionId int64
		index        int64
	}{
		{model.CollectionGold, request.GoldIndex},
		{model.CollectionSilver, request.SilverIndex},
		{model.CollectionBronze, request.BronzeIndex},
	}

	for _, lookup := range lookups {
		var item model.NftItem
		err = self.db.WithContext(self.Ctx).
			Where("collection_id = ? AND item_index = ?", lookup.collectionId, lookup.index).
			First(&item).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "nft item not found", nil
		}
		if err != nil {
			self.monitor.GetReport().Merge.Errors.DbMergeUpdateErrors.Inc()
			return
		}

		if item.MergeStatus != model.NftAbleToMerge {
			return nil, "nft item not able to merge", nil
		}
		if !ton.AddressesEqual(item.OwnerAddress, request.WalletAddress) {
			return nil, "nft item not owned by requester", nil
		}

		items = append(items, item)
	}
	return items, "", nil
}

// findPendingMerge correlates the transaction to a pending merge row. The
// wallet may be stored in either its raw or user-friendly form.
func (self *Detector) findPendingMerge(request *ton.MergeRequest, items []model.NftItem) (row *model.MergeTransaction, err error) {
	walletForms := []string{request.WalletAddress}
	if raw, err := ton.NormalizeAddress(request.WalletAddress); err == nil {
		walletForms = append(walletForms, raw)
	}
	if friendly, err := ton.ToFriendlyAddress(request.WalletAddress); err == nil {
		walletForms = append(walletForms, friendly)
	}

	row = new(model.MergeTransaction)
	err = self.db.WithContext(self.Ctx).
		Where("status = ?", model.MergeStatusPending).
		Where("wallet_address IN ?", walletForms).
		Where("gold_nft_address = ? AND silver_nft_address = ? AND bronze_nft_address = ?",
			items[0].Address, items[1].Address, items[2].Address).
		Order("created_at ASC").
		First(row).
		Error
	return
}

// completeMerge flips the merge row and its three source items in one
// transaction. Any row already moved by a concurrent writer aborts the whole
// update.
func (self *Detector) completeMerge(row *model.MergeTransaction, items []model.NftItem, trxHash string) (err error) {
	addresses := make([]string, 0, len(items))
	for _, item := range items {
		addresses = append(addresses, item.Address)
	}

	return self.db.WithContext(self.Ctx).
		Transaction(func(dbTx *gorm.DB) error {
			result := dbTx.
				Model(&model.MergeTransaction{}).
				Where("id = ? AND status = ?", row.Id, model.MergeStatusPending).
				Updates(map[string]interface{}{
					"status":   model.MergeStatusCompleted,
					"trx_hash": trxHash,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errors.New("merge row no longer pending")
			}

			result = dbTx.
				Model(&model.NftItem{}).
				Where("address IN ? AND merge_status = ?", addresses, model.NftAbleToMerge).
				Update("merge_status", model.NftMerging)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected != int64(len(addresses)) {
				return errors.New("source nft changed state concurrently")
			}
			return nil
		})
}
