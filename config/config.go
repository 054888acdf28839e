/*
config.go - Server configuration

PURPOSE:
  Loads server configuration from (in order of precedence):
  1. Environment variables with the BOOKING_ prefix
  2. An optional config file (booking-ledger.yaml) in the working
     directory or /etc/booking-ledger/
  3. Built-in defaults

KEYS:
  port            HTTP server port           (default: 8080)
  db_path         SQLite database path       (default: booking.db)
  sweep_interval  Overdue sweep interval     (default: 1h)
  sweep_enabled   Run the background sweeper (default: true)
  log_level       zap level: debug/info/warn (default: info)

EXAMPLES:
  BOOKING_PORT=3000 BOOKING_DB_PATH=":memory:" ./server

SEE ALSO:
  - cmd/server/main.go: flags override whatever is loaded here
*/
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server binary needs to start.
type Config struct {
	Port          int           `mapstructure:"port"`
	DBPath        string        `mapstructure:"db_path"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SweepEnabled  bool          `mapstructure:"sweep_enabled"`
	LogLevel      string        `mapstructure:"log_level"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "booking.db")
	v.SetDefault("sweep_interval", time.Hour)
	v.SetDefault("sweep_enabled", true)
	v.SetDefault("log_level", "info")

	v.SetConfigName("booking-ledger")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/booking-ledger/")

	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; everything has a default.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
