package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel  string          `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	Node      NodeConfig      `mapstructure:"node" json:"node" yaml:"node"`
	API       APIConfig       `mapstructure:"api" json:"api" yaml:"api"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" json:"telemetry" yaml:"telemetry"`
}

// NodeConfig parametrizes the external consensus node process and the
// wrapper that supervises it
type NodeConfig struct {
	// Binary is the node executable launched by the supervisor
	Binary string `mapstructure:"binary" json:"binary" yaml:"binary"`

	// DataDir is the node's persistent data directory
	DataDir string `mapstructure:"data_dir" json:"data_dir" yaml:"data_dir"`

	// GenesisPath is where the immutable genesis document is expected
	GenesisPath string `mapstructure:"genesis_path" json:"genesis_path" yaml:"genesis_path"`

	// EndpointAddr is the node's data-plane API binding
	EndpointAddr string `mapstructure:"endpoint_addr" json:"endpoint_addr" yaml:"endpoint_addr"`

	// GossipAddr is the node's peer gossip binding
	GossipAddr string `mapstructure:"gossip_addr" json:"gossip_addr" yaml:"gossip_addr"`

	// SettleDelay is the minimum wait after node start before the first
	// readiness probe
	SettleDelay time.Duration `mapstructure:"settle_delay" json:"settle_delay" yaml:"settle_delay"`

	// ReadyTimeout bounds how long the supervisor waits for the node to
	// report healthy before giving up
	ReadyTimeout time.Duration `mapstructure:"ready_timeout" json:"ready_timeout" yaml:"ready_timeout"`

	// ReadyInterval is the pause between readiness probes
	ReadyInterval time.Duration `mapstructure:"ready_interval" json:"ready_interval" yaml:"ready_interval"`

	// StopGrace is how long a stopping node gets between SIGTERM and SIGKILL
	StopGrace time.Duration `mapstructure:"stop_grace" json:"stop_grace" yaml:"stop_grace"`

	// CatchpointInterval is the round interval for catchpoint generation
	CatchpointInterval uint64 `mapstructure:"catchpoint_interval" json:"catchpoint_interval" yaml:"catchpoint_interval"`

	// CatchpointFileHistoryLength is how many catchpoint files are retained
	CatchpointFileHistoryLength int `mapstructure:"catchpoint_file_history_length" json:"catchpoint_file_history_length" yaml:"catchpoint_file_history_length"`
}

// APIConfig parametrizes the companion credential API process
type APIConfig struct {
	Host string `mapstructure:"host" json:"host" yaml:"host"`
	Port int    `mapstructure:"port" json:"port" yaml:"port"`

	// Workers caps the number of concurrently handled requests
	Workers int `mapstructure:"workers" json:"workers" yaml:"workers"`

	// RateLimit is the number of requests allowed per client IP per RateWindow
	RateLimit  int           `mapstructure:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window" json:"rate_window" yaml:"rate_window"`

	// ConfirmationRounds bounds the wait for transfer confirmation
	ConfirmationRounds uint64 `mapstructure:"confirmation_rounds" json:"confirmation_rounds" yaml:"confirmation_rounds"`
}

// TelemetryConfig holds the config details for metric services
type TelemetryConfig struct {
	PrometheusAddr string `mapstructure:"prometheus_addr" json:"prometheus_addr" yaml:"prometheus_addr"`
}

// DefaultConfig returns the default deployment unit configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "INFO",
		Node: NodeConfig{
			Binary:                      "algod",
			DataDir:                     "/algod/data",
			GenesisPath:                 "/algod/genesis.json",
			EndpointAddr:                "127.0.0.1:8080",
			GossipAddr:                  ":4160",
			SettleDelay:                 2 * time.Second,
			ReadyTimeout:                60 * time.Second,
			ReadyInterval:               time.Second,
			StopGrace:                   10 * time.Second,
			CatchpointInterval:          10000,
			CatchpointFileHistoryLength: 365,
		},
		API: APIConfig{
			Host:               "0.0.0.0",
			Port:               3000,
			Workers:            4,
			RateLimit:          100,
			RateWindow:         time.Hour,
			ConfirmationRounds: 10,
		},
		Telemetry: TelemetryConfig{},
	}
}

// Load reads the configuration from config.yaml (if present), the
// environment, and built-in defaults, in ascending order of precedence
func Load() (*Config, error) {
	godotenv.Load()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("solarnode")
	viper.AutomaticEnv()

	setDefaults(DefaultConfig())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, nil
}

func setDefaults(defaults *Config) {
	viper.SetDefault("log_level", defaults.LogLevel)

	viper.SetDefault("node.binary", defaults.Node.Binary)
	viper.SetDefault("node.data_dir", defaults.Node.DataDir)
	viper.SetDefault("node.genesis_path", defaults.Node.GenesisPath)
	viper.SetDefault("node.endpoint_addr", defaults.Node.EndpointAddr)
	viper.SetDefault("node.gossip_addr", defaults.Node.GossipAddr)
	viper.SetDefault("node.settle_delay", defaults.Node.SettleDelay)
	viper.SetDefault("node.ready_timeout", defaults.Node.ReadyTimeout)
	viper.SetDefault("node.ready_interval", defaults.Node.ReadyInterval)
	viper.SetDefault("node.stop_grace", defaults.Node.StopGrace)
	viper.SetDefault("node.catchpoint_interval", defaults.Node.CatchpointInterval)
	viper.SetDefault("node.catchpoint_file_history_length", defaults.Node.CatchpointFileHistoryLength)

	viper.SetDefault("api.host", defaults.API.Host)
	viper.SetDefault("api.port", defaults.API.Port)
	viper.SetDefault("api.workers", defaults.API.Workers)
	viper.SetDefault("api.rate_limit", defaults.API.RateLimit)
	viper.SetDefault("api.rate_window", defaults.API.RateWindow)
	viper.SetDefault("api.confirmation_rounds", defaults.API.ConfirmationRounds)

	viper.SetDefault("telemetry.prometheus_addr", defaults.Telemetry.PrometheusAddr)
}
