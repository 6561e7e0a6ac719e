package rewards

import (
	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/locker"
	"github.com/onton/reconciler/src/utils/model"
	"github.com/onton/reconciler/src/utils/monitoring"
	monitor_rewards "github.com/onton/reconciler/src/utils/monitoring/rewards"
	"github.com/onton/reconciler/src/utils/sbt"
	"github.com/onton/reconciler/src/utils/task"
)

type Controller struct {
	*task.Task
}

// NewController sets up the reward issuance job: event poller, batch and
// per-reward senders, activity window handling and monitoring
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "rewards")

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "rewards")
	if err != nil {
		return
	}

	// Monitoring
	monitor := monitor_rewards.NewMonitor()
	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Rewards platform client
	client := sbt.NewClient(&config.Rewards)

	// Single-flight lock shared between instances
	lock := locker.NewLocker(config, "rewards")
	err = lock.Connect(self.Ctx)
	if err != nil {
		self.Log.WithError(err).Error("Could not connect to redis")
		return
	}

	// Reopens elapsed campaign windows for the duration of an issuance
	window := NewActivityWindow(config, client)

	// Issues an event's pending rewards
	sender := NewSender(config).
		WithDb(db).
		WithClient(client).
		WithActivityWindow(window).
		WithMonitor(monitor)

	// Periodically finds events with pending rewards
	poller := NewPoller(config).
		WithDb(db).
		WithSender(sender).
		WithLocker(lock).
		WithMonitor(monitor)

	// Setup everything, will start upon calling Controller.Start()
	self.Task.
		WithSubtask(sender.Task).
		WithSubtask(poller.Task).
		WithSubtask(monitor.Task).
		WithSubtask(server.Task).
		WithOnAfterStop(lock.Disconnect)
	return
}
