package payments

import (
	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/locker"
	"github.com/onton/reconciler/src/utils/model"
	"github.com/onton/reconciler/src/utils/monitoring"
	monitor_payments "github.com/onton/reconciler/src/utils/monitoring/payments"
	"github.com/onton/reconciler/src/utils/notify"
	"github.com/onton/reconciler/src/utils/task"
	"github.com/onton/reconciler/src/utils/ton"
)

type Controller struct {
	*task.Task
}

// NewController sets up the payment reconciliation job: indexer fetcher,
// matcher, cursor store, unreconciled-transactions notifier and monitoring
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "payments")

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "payments")
	if err != nil {
		return
	}

	// Monitoring
	monitor := monitor_payments.NewMonitor()
	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Chain indexer client
	client := ton.NewClient(&config.Ton)

	// Single-flight lock shared between instances
	lock := locker.NewLocker(config, "payments")
	err = lock.Connect(self.Ctx)
	if err != nil {
		self.Log.WithError(err).Error("Could not connect to redis")
		return
	}

	// Reports transactions that carried the payment comment but could not
	// be reconciled
	unmatched := make(chan *notify.UnreconciledRecord)
	notifier := notify.NewNotifier(config).
		WithInputChannel(unmatched)

	matcher := NewMatcher(config).
		WithDb(db).
		WithResolver(NewCachedResolver(client, lock)).
		WithMonitor(monitor).
		WithOutputChannel(unmatched)

	store := NewStore(db)

	// Periodically pulls new wallet transactions and reconciles them
	fetcher := NewFetcher(config).
		WithClient(client).
		WithStore(store).
		WithMatcher(matcher).
		WithLocker(lock).
		WithMonitor(monitor)

	// The matcher writes to the channel only from inside the fetcher's pass
	// loop, so once the fetcher is fully stopped the channel can be closed
	// and the notifier drains whatever is left
	fetcher.Task.WithOnAfterStop(func() {
		close(unmatched)
	})

	// Setup everything, will start upon calling Controller.Start()
	self.Task.
		WithSubtask(fetcher.Task).
		WithSubtask(notifier.Task).
		WithSubtask(monitor.Task).
		WithSubtask(server.Task).
		WithOnAfterStop(lock.Disconnect)
	return
}
