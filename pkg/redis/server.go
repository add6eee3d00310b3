package redis

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// New creates a new Redis client from configuration. Addresses may be given
// as host:port or as a redis:// URL.
func New(config *Config) (*redis.Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	opts, err := redis.ParseURL(config.Address)
	if err != nil {
		opts = &redis.Options{Addr: config.Address}
	}

	return redis.NewClient(opts), nil
}
