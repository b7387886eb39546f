package gateway

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rif-marketplace/placements/src/placements"
	"github.com/rif-marketplace/placements/src/rns"
	"github.com/rif-marketplace/placements/src/utils/config"
	"github.com/rif-marketplace/placements/src/utils/eth"
	"github.com/rif-marketplace/placements/src/utils/model"
	monitor_market "github.com/rif-marketplace/placements/src/utils/monitoring/market"
	"github.com/rif-marketplace/placements/src/utils/publisher"
	"github.com/rif-marketplace/placements/src/utils/task"
)

type Controller struct {
	*task.Task

	Engine *placements.Engine
}

// Main class that orchestrates the market: ledger, engine, REST server,
// event publisher and the stale placement probe.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	self.Task = task.NewTask(config, "controller")

	monitor := monitor_market.NewMonitor().
		WithMaxHistorySize(30)

	var ledger placements.Ledger
	if config.IsDevelopment {
		ledger = placements.NewMemoryLedger()
	} else {
		db, dbErr := model.NewConnection(context.Background(), config, "placements")
		if dbErr != nil {
			return nil, dbErr
		}
		ledger = placements.NewStore(db)
	}

	client, err := eth.NewClient(config)
	if err != nil {
		return
	}

	self.Engine = placements.NewEngine(config).
		WithLedger(ledger).
		WithNFT(eth.NewERC721(client, common.HexToAddress(config.Engine.NFTTokenAddress))).
		WithTokens(NewTokenResolver(client)).
		WithBank(eth.NewBank(client)).
		WithMonitor(monitor)

	if config.Engine.RNSRegistryAddress != "" {
		registry := eth.NewRegistry(client, common.HexToAddress(config.Engine.RNSRegistryAddress))
		rns.NewEngine(config, self.Engine).
			WithRegistry(registry)
	}

	server := NewServer(config).
		WithEngine(self.Engine).
		WithMonitor(monitor)

	watched := func() *task.Task {
		probe := task.NewTask(config, "stale-probe").
			WithPeriodicSubtaskFunc(config.Engine.StaleProbePeriod, func() error {
				err := self.Engine.ProbeStalePlacements(self.Ctx)
				if err != nil {
					self.Log.WithError(err).Error("Stale placement probe failed")
				}
				// Probe failures don't bring the process down
				return nil
			})

		out := task.NewTask(config, "watched").
			WithSubtask(probe)

		if config.Redis.Enabled {
			events := publisher.NewPublisher[*placements.Event](config, "event-publisher").
				WithInputChannel(self.Engine.Output).
				WithMonitor(monitor)
			out = out.WithSubtask(events.Task)
		}
		return out
	}

	watchdog := task.NewWatchdog(config).
		WithTask(watched).
		WithIsOK(monitor.IsOK)

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(server.Task).
		WithSubtask(watchdog.Task)

	return
}
