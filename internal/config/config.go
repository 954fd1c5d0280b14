// Package config loads the application configuration from environment
// variables. All variables are prefixed with "TXRECON_".
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the prefix shared by every configuration variable.
const envPrefix = "txrecon"

// Config is the full application configuration.
type Config struct {
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `split_words:"true" default:"info"`

	// TelemetryEnabled turns on the OpenTelemetry pipelines. Exporter
	// endpoints are read from the standard OTEL_* environment variables.
	TelemetryEnabled bool `split_words:"true" default:"false"`

	// RPCEndpoints maps canonical network names to JSON-RPC provider
	// endpoints, e.g. "ethereum:https://node.example,sepolia:https://...".
	RPCEndpoints map[string]string `envconfig:"RPC_ENDPOINTS" required:"true"`

	// NATSURL enables transition publishing when set.
	NATSURL string `envconfig:"NATS_URL"`

	// PollInterval is the fixed delay between reconciliation polls.
	PollInterval time.Duration `split_words:"true" default:"2s"`

	// DiscoveryMaxAttempts bounds discovery polling per record.
	DiscoveryMaxAttempts int `split_words:"true" default:"30"`

	// ConfirmationMaxAttempts bounds confirmation polling per record.
	ConfirmationMaxAttempts int `split_words:"true" default:"10"`

	// ConfirmationThreshold is the confirmation count required to complete
	// a record. Raise it on networks with weaker finality assumptions.
	ConfirmationThreshold int64 `split_words:"true" default:"1"`

	Redis RedisConfig
}

// RedisConfig holds the record and wallet storage connection settings.
type RedisConfig struct {
	Addr     string `default:"localhost:6379"`
	Username string
	Password string
	DB       int `default:"0"`
}

// Load reads the configuration from the environment, applying defaults and
// validating required variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
