package rewards

import (
	"errors"
	"sync"
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/model"
	"github.com/onton/reconciler/src/utils/monitoring"
	"github.com/onton/reconciler/src/utils/sbt"
	"github.com/onton/reconciler/src/utils/task"

	"gorm.io/gorm"
)

// Sender issues the pending rewards of a single event. Direct SBT rewards go
// out in CSV batches, ticket-bound ones one request each through the worker
// pool.
type Sender struct {
	*task.Task

	db      *gorm.DB
	client  *sbt.Client
	window  *ActivityWindow
	monitor monitoring.Monitor

	rewardsConfig *config.Rewards
}

func NewSender(config *config.Config) (self *Sender) {
	self = new(Sender)
	self.rewardsConfig = &config.Rewards

	self.Task = task.NewTask(config, "sender").
		WithSubtaskFunc(self.run).
		WithWorkerPool(config.Rewards.NumWorkers, config.Rewards.WorkerQueueSize)

	return
}

// run keeps the task alive until stop. The worker pool is only torn down
// after the last subtask exits, so ProcessEvent may submit work any time
// before Stop.
func (self *Sender) run() (err error) {
	<-self.StopChannel
	return nil
}

func (self *Sender) WithDb(v *gorm.DB) *Sender {
	self.db = v
	return self
}

func (self *Sender) WithClient(v *sbt.Client) *Sender {
	self.client = v
	return self
}

func (self *Sender) WithActivityWindow(v *ActivityWindow) *Sender {
	self.window = v
	return self
}

func (self *Sender) WithMonitor(v monitoring.Monitor) *Sender {
	self.monitor = v
	return self
}

// ProcessEvent issues every pending reward of the event within one open
// activity window
func (self *Sender) ProcessEvent(event *model.Event) (err error) {
	var pending []model.Reward
	err = self.db.WithContext(self.Ctx).
		Where("event_id = ? AND status = ?", event.Id, model.RewardStatusPendingCreation).
		Order("id ASC").
		Find(&pending).
		Error
	if err != nil {
		self.monitor.GetReport().Rewards.Errors.DbRewardUpdateErrors.Inc()
		return
	}
	if len(pending) == 0 {
		return
	}

	self.Log.
		WithField("event_id", event.Id).
		WithField("pending", len(pending)).
		Info("Issuing rewards for event")

	var batchable, individual []model.Reward
	for _, reward := range pending {
		if reward.Kind == model.RewardKindSbt {
			batchable = append(batchable, reward)
		} else {
			individual = append(individual, reward)
		}
	}

	return self.window.WithOpenWindow(self.Ctx, event.ActivityId, func() error {
		err := self.sendBatches(event.ActivityId, batchable)
		if err != nil {
			return err
		}

		self.sendIndividual(event.ActivityId, individual)
		return nil
	})
}

// sendBatches pages the rewards into CSV submissions. Every row of a
// successful batch is marked created with the returned link; one row's
// update failure does not block the others.
func (self *Sender) sendBatches(activityId string, rewards []model.Reward) (err error) {
	for start := 0; start < len(rewards); start += self.rewardsConfig.BatchSize {
		end := start + self.rewardsConfig.BatchSize
		if end > len(rewards) {
			end = len(rewards)
		}
		page := rewards[start:end]

		telegramUserIds := make([]int64, 0, len(page))
		for _, reward := range page {
			telegramUserIds = append(telegramUserIds, reward.TelegramUserId)
		}

		payload, err := sbt.BuildRecipientsCsv(telegramUserIds)
		if err != nil {
			return err
		}

		var link string
		err = self.callWithRetry(func() error {
			var err error
			link, err = self.client.SubmitRewardBatch(self.Ctx, activityId, payload)
			return err
		})
		if err != nil {
			self.monitor.GetReport().Rewards.Errors.ApiRequestErrors.Inc()
			return err
		}

		self.monitor.GetReport().Rewards.State.BatchesSubmitted.Inc()

		for _, reward := range page {
			self.markCreated(reward.Id, link)
		}
	}
	return nil
}

// sendIndividual issues one reward per request through the worker pool and
// waits for the whole event to finish. Failures are per-reward.
func (self *Sender) sendIndividual(activityId string, rewards []model.Reward) {
	var wg sync.WaitGroup
	for i := range rewards {
		reward := rewards[i]
		wg.Add(1)
		self.SubmitToWorker(func() {
			defer wg.Done()

			var link string
			err := self.callWithRetry(func() error {
				var err error
				link, err = self.client.CreateRewardLink(self.Ctx, activityId, reward.TelegramUserId, map[string]string{
					"kind": string(reward.Kind),
				})
				return err
			})
			if err != nil {
				self.Log.
					WithError(err).
					WithField("reward_id", reward.Id).
					Error("Reward permanently failed")
				self.monitor.GetReport().Rewards.Errors.PermanentRewardErrors.Inc()
				self.markFailed(reward.Id)
				return
			}

			self.markCreated(reward.Id, link)
		})
	}
	wg.Wait()
}

// callWithRetry applies the platform's error contract: rate limits wait a
// fixed cooldown and retry indefinitely, anything else gets a bounded number
// of attempts.
func (self *Sender) callWithRetry(f func() error) (err error) {
	attempts := 0
	for {
		err = f()
		if err == nil {
			return nil
		}

		if errors.Is(err, sbt.ErrRateLimited) {
			self.monitor.GetReport().Rewards.State.RateLimitHits.Inc()
			self.Log.Debug("Rewards API rate limited, cooling down")

			select {
			case <-self.Ctx.Done():
				return self.Ctx.Err()
			case <-time.After(self.rewardsConfig.RateLimitCooldown):
			}
			continue
		}

		attempts++
		if attempts >= self.rewardsConfig.MaxAttempts {
			return err
		}

		select {
		case <-self.Ctx.Done():
			return self.Ctx.Err()
		case <-time.After(self.rewardsConfig.RetryDelay):
		}
	}
}

func (self *Sender) markCreated(rewardId int64, link string) {
	err := self.db.WithContext(self.Ctx).
		Model(&model.Reward{}).
		Where("id = ? AND status = ?", rewardId, model.RewardStatusPendingCreation).
		Updates(map[string]interface{}{
			"status":      model.RewardStatusCreated,
			"reward_link": link,
		}).
		Error
	if err != nil {
		self.Log.WithError(err).WithField("reward_id", rewardId).Error("Failed to mark reward created")
		self.monitor.GetReport().Rewards.Errors.DbRewardUpdateErrors.Inc()
		return
	}
	self.monitor.GetReport().Rewards.State.RewardsCreated.Inc()
}

func (self *Sender) markFailed(rewardId int64) {
	err := self.db.WithContext(self.Ctx).
		Model(&model.Reward{}).
		Where("id = ? AND status = ?", rewardId, model.RewardStatusPendingCreation).
		Update("status", model.RewardStatusFailed).
		Error
	if err != nil {
		self.Log.WithError(err).WithField("reward_id", rewardId).Error("Failed to mark reward failed")
		self.monitor.GetReport().Rewards.Errors.DbRewardUpdateErrors.Inc()
	}
}
