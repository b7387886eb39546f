package config

import (
	"bytes"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config stores global configuration
type Config struct {
	// Is development mode on
	IsDevelopment bool

	// Maximum time the service will be closing before stop is forced.
	StopTimeout time.Duration

	// Logging level
	LogLevel string

	Database Database
	Engine   Engine
	Eth      Eth
	Gateway  Gateway
	Redis    Redis
}

func setDefaults() {
	viper.SetDefault("IsDevelopment", "false")
	viper.SetDefault("LogLevel", "DEBUG")
	viper.SetDefault("StopTimeout", "30s")

	setDatabaseDefaults()
	setEngineDefaults()
	setEthDefaults()
	setGatewayDefaults()
	setRedisDefaults()
}

func Default() (config *Config) {
	config, _ = Load("")
	return
}

// Visits every field and registers an upper snake case ENV name for it.
// Works with embedded structs.
func BindEnv(path []string, val reflect.Value) {
	if val.Kind() != reflect.Struct {
		// Base types
		key := strings.ToLower(strings.Join(path, "."))
		env := "PLACEMENTS_" + strcase.ToScreamingSnake(strings.Join(path, "_"))
		err := viper.BindEnv(key, env)
		if err != nil {
			panic(err)
		}
	} else {
		for i := 0; i < val.NumField(); i++ {
			newPath := make([]string, len(path))
			copy(newPath, path)
			newPath = append(newPath, val.Type().Field(i).Name)
			BindEnv(newPath, val.Field(i))
		}
	}
}

// Load configuration from file and env
func Load(filename string) (config *Config, err error) {
	viper.SetConfigType("json")

	setDefaults()

	BindEnv([]string{}, reflect.ValueOf(Config{}))

	// Empty filename means we use default values
	if filename != "" {
		var content []byte
		/* #nosec */
		content, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		err = viper.ReadConfig(bytes.NewBuffer(content))
		if err != nil {
			return nil, err
		}
	}

	config = new(Config)
	err = viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	return
}
