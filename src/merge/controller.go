package merge

import (
	"github.com/onton/reconciler/src/utils/bucket"
	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/locker"
	"github.com/onton/reconciler/src/utils/model"
	"github.com/onton/reconciler/src/utils/monitoring"
	monitor_merge "github.com/onton/reconciler/src/utils/monitoring/merge"
	"github.com/onton/reconciler/src/utils/task"
	"github.com/onton/reconciler/src/utils/ton"
)

type Controller struct {
	*task.Task
}

// NewController sets up the NFT merge job: pending-timeout sweeper, merge
// transaction detector, platinum mint sweep and monitoring
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "merge")

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "merge")
	if err != nil {
		return
	}

	// Monitoring
	monitor := monitor_merge.NewMonitor()
	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Chain indexer client
	client := ton.NewClient(&config.Ton)

	// Minting wallet backed by a liteserver connection
	wallet, err := ton.NewMinter(&config.Ton, client)
	if err != nil {
		self.Log.WithError(err).Error("Could not set up minting wallet")
		return
	}

	// Metadata object storage
	uploader, err := bucket.NewUploader(self.Ctx, &config.Bucket)
	if err != nil {
		self.Log.WithError(err).Error("Could not set up bucket uploader")
		return
	}

	// Single-flight lock shared between instances
	lock := locker.NewLocker(config, "merge")
	err = lock.Connect(self.Ctx)
	if err != nil {
		self.Log.WithError(err).Error("Could not connect to redis")
		return
	}

	// Fails pending merges whose payment never arrived
	sweeper := NewSweeper(config).
		WithDb(db).
		WithMonitor(monitor)

	// Watches the minter wallet for merge payments
	detector := NewDetector(config).
		WithDb(db).
		WithClient(client).
		WithLocker(lock).
		WithMonitor(monitor)

	// Mints the platinum NFT for completed merges
	minter := NewMinter(config).
		WithDb(db).
		WithWallet(wallet).
		WithUploader(uploader).
		WithLocker(lock).
		WithMonitor(monitor)

	// Setup everything, will start upon calling Controller.Start()
	self.Task.
		WithSubtask(sweeper.Task).
		WithSubtask(detector.Task).
		WithSubtask(minter.Task).
		WithSubtask(monitor.Task).
		WithSubtask(server.Task).
		WithOnAfterStop(lock.Disconnect)
	return
}
