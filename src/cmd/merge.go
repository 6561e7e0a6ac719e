package cmd

import (
	"github.com/onton/reconciler/src/merge"
	"github.com/onton/reconciler/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Detect NFT merge payments and mint the composite NFTs",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := merge.NewController(conf)
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
		log.Debug("Finished merge command")
		return
	},
}
