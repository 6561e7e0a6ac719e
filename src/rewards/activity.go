package rewards

import (
	"context"
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/logger"
	"github.com/onton/reconciler/src/utils/sbt"

	"github.com/sirupsen/logrus"
)

// ActivityWindow temporarily reopens an elapsed reward campaign so that
// late issuances still go through. The original end date is always restored
// afterwards, even when the wrapped operation failed.
type ActivityWindow struct {
	client *sbt.Client
	config *config.Rewards
	log    *logrus.Entry
}

func NewActivityWindow(config *config.Config, client *sbt.Client) (self *ActivityWindow) {
	self = new(ActivityWindow)
	self.client = client
	self.config = &config.Rewards
	self.log = logger.NewSublogger("activity-window")
	return
}

// WithOpenWindow runs f with the activity's campaign window guaranteed open.
// A still-running campaign is passed through untouched.
func (self *ActivityWindow) WithOpenWindow(ctx context.Context, activityId string, f func() error) (err error) {
	activity, err := self.client.GetActivity(ctx, activityId)
	if err != nil {
		return
	}

	if activity.EndDate.After(time.Now()) {
		return f()
	}

	originalEndDate := activity.EndDate
	extendedEndDate := time.Now().Add(self.config.ActivityExtension)

	self.log.
		WithField("activity_id", activityId).
		WithField("end_date", extendedEndDate).
		Info("Extending elapsed activity window")

	err = self.client.UpdateActivity(ctx, activityId, extendedEndDate)
	if err != nil {
		return
	}

	defer func() {
		// Best effort revert. Reward issuance already happened, a left-open
		// window is less harmful than a lost reward.
		revertErr := self.client.UpdateActivity(ctx, activityId, originalEndDate)
		if revertErr != nil {
			self.log.
				WithError(revertErr).
				WithField("activity_id", activityId).
				Error("Failed to revert activity window extension")
		}
	}()

	return f()
}
