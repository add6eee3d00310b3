package execution

import (
	"fmt"
	"time"
)

// Config describes one execution client endpoint.
type Config struct {
	// Name identifies the node in logs and metrics.
	Name string `yaml:"name"`
	// NodeAddress is the JSON-RPC HTTP endpoint.
	NodeAddress string `yaml:"nodeAddress"`
	// NodeHeaders are added to every request (e.g. authorization).
	NodeHeaders map[string]string `yaml:"nodeHeaders"`
	// Timeout bounds a single RPC call.
	Timeout time.Duration `yaml:"timeout" default:"30s"`
	// RetryMaxElapsed bounds the total time spent retrying one RPC call. Zero
	// retries until the context is done.
	RetryMaxElapsed time.Duration `yaml:"retryMaxElapsed" default:"1m"`
	// HealthCheckInterval is the period of the eth_chainId health poll.
	HealthCheckInterval time.Duration `yaml:"healthCheckInterval" default:"15s"`
}

func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}

	if c.NodeAddress == "" {
		return fmt.Errorf("nodeAddress is required")
	}

	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}

	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = defaultHealthCheckInterval
	}

	if c.RetryMaxElapsed < 0 {
		return fmt.Errorf("retryMaxElapsed must not be negative")
	}

	return nil
}
