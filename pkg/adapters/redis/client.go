package redis

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Dial connects to Redis and checks the connection with PING.
func Dial(ctx context.Context, cfg Config) (*backend.Client, error) {
	client := backend.NewClient(&backend.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Close closes the client the Store was created with.
func (s *Store) Close() error {
	return s.client.Close()
}

// Close closes the client the Tracker was created with.
func (t *Tracker) Close() error {
	return t.client.Close()
}
