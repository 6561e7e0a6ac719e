package cmd

import (
	"github.com/onton/reconciler/src/rewards"
	"github.com/onton/reconciler/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(rewardsCmd)
}

var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Issue pending event rewards through the SBT platform",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := rewards.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		<-applicationCtx.Done()

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished rewards command")
		return
	},
}
