// Package config provides the top-level configuration for execution-body.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/execution-body/pkg/ethereum"
	"github.com/ethpandaops/execution-body/pkg/processor"
	"github.com/ethpandaops/execution-body/pkg/redis"
)

// DefaultFile is read when no config file is given.
const DefaultFile = "config.yaml"

// Config is the main configuration for execution-body.
type Config struct {
	// MetricsAddr is the address to listen on for metrics.
	MetricsAddr string `yaml:"metricsAddr" default:":9090"`
	// HealthCheckAddr is the address to listen on for healthcheck.
	HealthCheckAddr *string `yaml:"healthCheckAddr"`
	// PProfAddr is the address to listen on for pprof.
	PProfAddr *string `yaml:"pprofAddr"`
	// APIAddr is the address to listen on for the API server.
	APIAddr *string `yaml:"apiAddr"`
	// LoggingLevel is the logging level to use.
	LoggingLevel string `yaml:"logging" default:"info"`
	// Ethereum is the ethereum network configuration.
	Ethereum ethereum.Config `yaml:"ethereum"`
	// Redis is the redis configuration.
	Redis *redis.Config `yaml:"redis"`
	// Processor is the range processor configuration.
	Processor processor.Config `yaml:"processor"`
	// ShutdownTimeout is the timeout for shutting down the server.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"10s"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Redis == nil {
		return fmt.Errorf("redis configuration is required")
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("invalid redis configuration: %w", err)
	}

	if err := c.Ethereum.Validate(); err != nil {
		return fmt.Errorf("invalid ethereum configuration: %w", err)
	}

	if err := c.Processor.Validate(); err != nil {
		return fmt.Errorf("invalid processor configuration: %w", err)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdownTimeout must be positive")
	}

	return nil
}

// Load reads a YAML config file on top of the defaults. Defaults are applied
// again after decoding so list entries (execution nodes) receive theirs too.
func Load(file string) (*Config, error) {
	if file == "" {
		file = DefaultFile
	}

	config := &Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	type plain Config

	if err := yaml.Unmarshal(yamlFile, (*plain)(config)); err != nil {
		return nil, err
	}

	for _, node := range config.Ethereum.Execution {
		if node == nil {
			continue
		}

		if err := defaults.Set(node); err != nil {
			return nil, err
		}
	}

	return config, nil
}
