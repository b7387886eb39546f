package cmd

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/rif-marketplace/placements/src/placements"
	"github.com/rif-marketplace/placements/src/utils/logger"
	"github.com/rif-marketplace/placements/src/utils/model"
)

var (
	initNftToken string
	initOwner    string
)

func init() {
	initCmd.Flags().StringVar(&initNftToken, "nft-token", "", "address of the traded NFT collection")
	initCmd.Flags().StringVar(&initOwner, "owner", "", "address of the initial administrator")
	RootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "One-time market initialization, sets the traded collection and the administrator",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("init-cmd")

		if !common.IsHexAddress(initNftToken) {
			return errors.New("--nft-token is not a valid address")
		}
		if !common.IsHexAddress(initOwner) {
			return errors.New("--owner is not a valid address")
		}

		db, err := model.NewConnection(context.Background(), conf, "placements")
		if err != nil {
			return
		}

		engine := placements.NewEngine(conf).
			WithLedger(placements.NewStore(db))

		err = engine.Initialize(ctx, common.HexToAddress(initNftToken), common.HexToAddress(initOwner))
		if err != nil {
			return
		}

		log.WithField("nft_token", initNftToken).
			WithField("owner", initOwner).
			Info("Market initialized")
		return
	},
}
