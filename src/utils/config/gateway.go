package config

import (
	"time"

	"github.com/spf13/viper"
)

type Gateway struct {
	// REST API address. Serves engine operations and monitoring.
	RESTListenAddress string

	// Max duration of a single request
	ServerRequestTimeout time.Duration

	// How long placement reads are served from cache
	PlacementCacheTTL time.Duration
}

func setGatewayDefaults() {
	viper.SetDefault("Gateway.RESTListenAddress", "0.0.0.0:4000")
	viper.SetDefault("Gateway.ServerRequestTimeout", "30s")
	viper.SetDefault("Gateway.PlacementCacheTTL", "2s")
}
