package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rif-marketplace/placements/src/gateway"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the placement market: REST gateway, settlement engine and event publisher",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := gateway.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		<-ctx.Done()

		controller.StopWait()

		return
	},
}
