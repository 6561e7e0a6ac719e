package rewards

import (
	"time"

	"github.com/onton/reconciler/src/utils/locker"
	"github.com/onton/reconciler/src/utils/model"
	"github.com/onton/reconciler/src/utils/monitoring"
	"github.com/onton/reconciler/src/utils/task"

	"github.com/onton/reconciler/src/utils/config"

	"gorm.io/gorm"
)

const jobLockKey = "rewards"

// Poller periodically picks events that still have pending rewards and runs
// them through the sender. Events closer to their end date go first, their
// campaign windows are about to close.
type Poller struct {
	*task.Task

	db      *gorm.DB
	sender  *Sender
	locker  *locker.Locker
	monitor monitoring.Monitor
}

func NewPoller(config *config.Config) (self *Poller) {
	self = new(Poller)

	self.Task = task.NewTask(config, "poller").
		WithPeriodicSubtaskFunc(config.Rewards.PollInterval, self.runPass)

	return
}

func (self *Poller) WithDb(v *gorm.DB) *Poller {
	self.db = v
	return self
}

func (self *Poller) WithSender(v *Sender) *Poller {
	self.sender = v
	return self
}

func (self *Poller) WithLocker(v *locker.Locker) *Poller {
	self.locker = v
	return self
}

func (self *Poller) WithMonitor(v monitoring.Monitor) *Poller {
	self.monitor = v
	return self
}

func (self *Poller) runPass() (err error) {
	acquired, err := self.locker.AcquireLock(self.Ctx, jobLockKey)
	if err != nil {
		self.Log.WithError(err).Error("Failed to acquire job lock")
		return nil
	}
	if !acquired {
		// Another instance is issuing rewards
		return nil
	}
	defer self.locker.ReleaseLock(self.Ctx, jobLockKey)

	events, err := self.pendingEvents()
	if err != nil {
		self.Log.WithError(err).Error("Failed to list events with pending rewards")
		self.monitor.GetReport().Rewards.Errors.DbRewardUpdateErrors.Inc()
		return nil
	}

	for i := range events {
		err = self.sender.ProcessEvent(&events[i])
		if err != nil {
			// One event's failure must not starve the others
			self.Log.
				WithError(err).
				WithField("event_id", events[i].Id).
				Error("Failed to issue rewards for event")
			continue
		}
		self.monitor.GetReport().Rewards.State.EventsProcessed.Inc()
	}

	self.monitor.GetReport().Rewards.State.LastPassTimestamp.Store(time.Now().Unix())
	return nil
}

func (self *Poller) pendingEvents() (events []model.Event, err error) {
	err = self.db.WithContext(self.Ctx).
		Model(&model.Event{}).
		Joins("JOIN rewards ON rewards.event_id = events.id").
		Where("rewards.status = ?", model.RewardStatusPendingCreation).
		Group("events.id").
		Order("events.end_date DESC").
		Find(&events).
		Error
	return
}
