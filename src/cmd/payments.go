package cmd

import (
	"github.com/onton/reconciler/src/payments"
	"github.com/onton/reconciler/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(paymentsCmd)
}

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Reconcile incoming wallet transactions with ticket orders",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := payments.NewController(conf)
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
		log.Debug("Finished payments command")
		return
	},
}
