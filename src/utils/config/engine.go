package config

import (
	"time"

	"github.com/spf13/viper"
)

type Engine struct {
	// Address of the ERC-721 token whose placements are managed
	NFTTokenAddress string

	// Account the engine pulls payments into and forwards payouts from
	AccountAddress string

	// RNS registry address. Empty disables the name service extension.
	RNSRegistryAddress string

	// Root node (hex) the name service extension derives nodes from
	RNSRootNode string

	// How often the read-only stale placement probe runs
	StaleProbePeriod time.Duration

	// Buffered size of the event output channel
	EventChannelSize int
}

func setEngineDefaults() {
	viper.SetDefault("Engine.NFTTokenAddress", "")
	viper.SetDefault("Engine.AccountAddress", "")
	viper.SetDefault("Engine.RNSRegistryAddress", "")
	viper.SetDefault("Engine.RNSRootNode", "")
	viper.SetDefault("Engine.StaleProbePeriod", "60s")
	viper.SetDefault("Engine.EventChannelSize", "100")
}
