package config

import (
	"time"

	"github.com/spf13/viper"
)

type Eth struct {
	// JSON-RPC endpoint of the host chain node
	RpcProviderUrl string

	// Chain id used when signing transactions
	ChainId int64

	// Private key (hex) of the engine account
	PrivateKey string

	// Timeout for a single RPC call
	CallTimeout time.Duration
}

func setEthDefaults() {
	viper.SetDefault("Eth.RpcProviderUrl", "https://public-node.rsk.co")
	viper.SetDefault("Eth.ChainId", "30")
	viper.SetDefault("Eth.PrivateKey", "")
	viper.SetDefault("Eth.CallTimeout", "30s")
}
