// Package cache opens the shared Redis used for cross-process rate limiting.
package cache

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// New parses a redis:// or rediss:// URL into a client without dialing. An empty url returns (nil, nil).
func New(rawURL string) (*redis.Client, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.MaxRetries = 1
	return redis.NewClient(opts), nil
}
