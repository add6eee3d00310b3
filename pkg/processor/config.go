package processor

import "fmt"

// Config holds the range processor configuration.
type Config struct {
	// Maximum concurrent block fetches
	Concurrency int `yaml:"concurrency" default:"4"`
}

func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}

	return nil
}
