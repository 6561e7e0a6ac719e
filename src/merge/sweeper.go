package merge

import (
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/model"
	"github.com/onton/reconciler/src/utils/monitoring"
	"github.com/onton/reconciler/src/utils/task"

	"gorm.io/gorm"
)

// Sweeper fails merge requests whose payment never arrived. A pending row
// only waits for its transaction for a bounded time, afterwards the user is
// free to start over.
type Sweeper struct {
	*task.Task

	db      *gorm.DB
	monitor monitoring.Monitor

	mergeConfig *config.Merge
}

func NewSweeper(config *config.Config) (self *Sweeper) {
	self = new(Sweeper)
	self.mergeConfig = &config.Merge

	self.Task = task.NewTask(config, "sweeper").
		WithPeriodicSubtaskFunc(config.Merge.PollInterval, self.sweep)

	return
}

func (self *Sweeper) WithDb(v *gorm.DB) *Sweeper {
	self.db = v
	return self
}

func (self *Sweeper) WithMonitor(v monitoring.Monitor) *Sweeper {
	self.monitor = v
	return self
}

func (self *Sweeper) sweep() (err error) {
	deadline := time.Now().Add(-self.mergeConfig.PendingTimeout)

	result := self.db.WithContext(self.Ctx).
		Model(&model.MergeTransaction{}).
		Where("status = ? AND created_at < ?", model.MergeStatusPending, deadline).
		Update("status", model.MergeStatusFailed)
	if result.Error != nil {
		self.Log.WithError(result.Error).Error("Failed to time out pending merges")
		self.monitor.GetReport().Merge.Errors.DbMergeUpdateErrors.Inc()
		return nil
	}

	if result.RowsAffected > 0 {
		self.Log.WithField("count", result.RowsAffected).Info("Timed out pending merge requests")
		self.monitor.GetReport().Merge.State.MergesTimedOut.Add(uint64(result.RowsAffected))
	}
	return nil
}
