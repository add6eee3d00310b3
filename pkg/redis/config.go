package redis

import (
	"fmt"
	"time"
)

type Config struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix"`
	// TTL expires stored bodies. Zero keeps them forever.
	TTL time.Duration `yaml:"ttl"`
}

func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Prefix == "" {
		c.Prefix = "execution-body"
	}

	if c.TTL < 0 {
		return fmt.Errorf("redis ttl must not be negative")
	}

	return nil
}
