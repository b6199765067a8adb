package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dispatcher. The mapstructure tags
// are used by Viper to unmarshal the data.
type Config struct {
	HttpListenAddr string `mapstructure:"http_listen_addr"`
	// APIToken protects the inbound API; empty disables auth (dev only).
	APIToken string `mapstructure:"api_token"`

	// Outbound notification gateway.
	GatewayURL             string          `mapstructure:"gateway_url"`
	GatewayToken           string          `mapstructure:"gateway_token"`
	DeliveryBackoff        []time.Duration `mapstructure:"delivery_backoff"`
	DeliveryRequestTimeout time.Duration   `mapstructure:"delivery_request_timeout"`
	DeliveryConnectTimeout time.Duration   `mapstructure:"delivery_connect_timeout"`
	DeliveryLedgerTTL      time.Duration   `mapstructure:"delivery_ledger_ttl"`

	// Optional expiry policy for jobs that never get assigned.
	ExpireJobs     bool   `mapstructure:"expire_jobs"`
	ExpireSchedule string `mapstructure:"expire_schedule"`

	// Multi-node coordination (both optional; empty means single node).
	EtcdEndpoints     []string      `mapstructure:"etcd_endpoints"`
	EtcdTimeout       time.Duration `mapstructure:"etcd_timeout"`
	LeaderElectionTTL time.Duration `mapstructure:"leader_election_ttl"`
	RedisURL          string        `mapstructure:"redis_url"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetDefault("http_listen_addr", ":8080")
	viper.SetDefault("delivery_backoff", []string{"0s", "1s", "2s", "4s"})
	viper.SetDefault("delivery_request_timeout", "8s")
	viper.SetDefault("delivery_connect_timeout", "3s")
	viper.SetDefault("delivery_ledger_ttl", "24h")
	viper.SetDefault("expire_jobs", false)
	viper.SetDefault("expire_schedule", "@every 1m")
	viper.SetDefault("etcd_timeout", "5s")
	viper.SetDefault("leader_election_ttl", "10s")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file; defaults and env vars are enough.
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
