package common

import (
	"context"

	"github.com/rif-marketplace/placements/src/utils/config"
)

type contextKey int

const configKey contextKey = iota

func SetConfig(ctx context.Context, config *config.Config) context.Context {
	return context.WithValue(ctx, configKey, config)
}

func GetConfig(ctx context.Context) *config.Config {
	value := ctx.Value(configKey)
	if value == nil {
		return nil
	}
	return value.(*config.Config)
}
