package payments

import (
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/locker"
	"github.com/onton/reconciler/src/utils/monitoring"
	"github.com/onton/reconciler/src/utils/task"
	"github.com/onton/reconciler/src/utils/ton"
)

const jobLockKey = "payments"

// Fetcher periodically pulls new transactions of the payment wallet from the
// indexer and feeds them through the matcher. The cursor is advanced only
// after the whole batch is durably reconciled, so a crash replays the batch.
type Fetcher struct {
	*task.Task

	client  *ton.Client
	store   *Store
	matcher *Matcher
	locker  *locker.Locker
	monitor monitoring.Monitor

	paymentsConfig *config.Payments
	tonConfig      *config.Ton
}

func NewFetcher(config *config.Config) (self *Fetcher) {
	self = new(Fetcher)
	self.paymentsConfig = &config.Payments
	self.tonConfig = &config.Ton

	self.Task = task.NewTask(config, "fetcher").
		WithPeriodicSubtaskFunc(config.Payments.PollInterval, self.runPass)

	return
}

func (self *Fetcher) WithClient(v *ton.Client) *Fetcher {
	self.client = v
	return self
}

func (self *Fetcher) WithStore(v *Store) *Fetcher {
	self.store = v
	return self
}

func (self *Fetcher) WithMatcher(v *Matcher) *Fetcher {
	self.matcher = v
	return self
}

func (self *Fetcher) WithLocker(v *locker.Locker) *Fetcher {
	self.locker = v
	return self
}

func (self *Fetcher) WithMonitor(v monitoring.Monitor) *Fetcher {
	self.monitor = v
	return self
}

func (self *Fetcher) runPass() (err error) {
	acquired, err := self.locker.AcquireLock(self.Ctx, jobLockKey)
	if err != nil {
		self.Log.WithError(err).Error("Failed to acquire job lock")
		return nil
	}
	if !acquired {
		// Another instance is reconciling
		return nil
	}
	defer self.locker.ReleaseLock(self.Ctx, jobLockKey)

	err = self.reconcile()
	if err != nil {
		// The pass is retried from the unchanged cursor on the next tick
		self.Log.WithError(err).Error("Reconciliation pass failed")
	}

	self.monitor.GetReport().Payments.State.LastPassTimestamp.Store(time.Now().Unix())
	return nil
}

func (self *Fetcher) reconcile() (err error) {
	wallet := self.paymentsConfig.WalletAddress

	checkedLt, found, err := self.store.GetCheckedLt(self.Ctx, wallet)
	if err != nil {
		return
	}

	var startUtime int64
	if !found {
		// First run for this wallet, scan a limited recent window
		startUtime = time.Now().Add(-self.paymentsConfig.FallbackWindow).Unix()
	}

	for {
		transactions, err := self.client.GetTransactions(self.Ctx, wallet, checkedLt, startUtime, self.tonConfig.IndexerPageLimit, 0)
		if err != nil {
			self.monitor.GetReport().Payments.Errors.IndexerFetchErrors.Inc()
			return err
		}
		if len(transactions) == 0 {
			return nil
		}

		self.monitor.GetReport().Payments.State.TransactionsFetched.Add(uint64(len(transactions)))

		for i := range transactions {
			_, err = self.matcher.Match(self.Ctx, &transactions[i])
			if err != nil {
				// Abort without advancing, the batch is replayed next pass
				return err
			}
		}

		checkedLt = transactions[len(transactions)-1].Lt
		startUtime = 0

		err = self.store.AdvanceCheckedLt(self.Ctx, wallet, checkedLt)
		if err != nil {
			self.monitor.GetReport().Payments.Errors.DbCursorAdvanceErrors.Inc()
			return err
		}
		self.monitor.GetReport().Payments.State.LastCheckedLt.Store(checkedLt)

		if len(transactions) < self.tonConfig.IndexerPageLimit {
			// Short page, caught up with the chain
			return nil
		}
	}
}
