package config

import (
	"time"

	"github.com/spf13/viper"
)

type Database struct {
	Port              uint16
	Host              string
	User              string
	Password          string
	Name              string
	SslMode           string
	PingTimeout       time.Duration
	ClientKey         string
	ClientCert        string
	CaCert            string
	ClientKeyPath     string
	ClientCertPath    string
	CaCertPath        string
	MigrationUser     string
	MigrationPassword string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

func setDatabaseDefaults() {
	viper.SetDefault("Database.Port", "5432")
	viper.SetDefault("Database.Host", "127.0.0.1")
	viper.SetDefault("Database.User", "postgres")
	viper.SetDefault("Database.Password", "postgres")
	viper.SetDefault("Database.Name", "placements")
	viper.SetDefault("Database.SslMode", "disable")
	viper.SetDefault("Database.PingTimeout", "15s")
	viper.SetDefault("Database.MigrationUser", "postgres")
	viper.SetDefault("Database.MigrationPassword", "postgres")
	viper.SetDefault("Database.MaxOpenConns", "10")
	viper.SetDefault("Database.MaxIdleConns", "5")
	viper.SetDefault("Database.ConnMaxIdleTime", "30m")
	viper.SetDefault("Database.ConnMaxLifetime", "1h")
}
