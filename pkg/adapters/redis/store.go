// Package redis stores run artifacts and tracking metadata in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/logging"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/artifact"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "mcontrib:"

// Store implements artifact.Sink using Redis strings. Every stored name is
// also added to a sorted index scored by upload time.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Store or a Tracker.
type Option func(*settings)

type settings struct {
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// WithPrefix sets the key prefix. Defaults to "mcontrib:".
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

// WithTTL expires stored keys after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.ttl = ttl
	}
}

// WithLogger sets the logger used for failures that do not fail the call.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func newSettings(opts []Option) settings {
	s := settings{prefix: defaultPrefix, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// NewFromClient creates a Store using an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := newSettings(opts)
	return &Store{client: client, prefix: s.prefix, ttl: s.ttl, logger: s.logger}
}

// Upload stores the content of localPath under name.
func (s *Store) Upload(ctx context.Context, level artifact.Level, name, localPath string, overwrite bool) error {
	if err := artifact.ValidateName(name); err != nil {
		return err
	}
	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read artifact source: %w", err)
	}

	key := s.key(name)
	if overwrite {
		if err := s.client.Set(ctx, key, content, s.ttl).Err(); err != nil {
			return fmt.Errorf("redis error storing artifact: %w", err)
		}
	} else {
		stored, err := s.client.SetNX(ctx, key, content, s.ttl).Result()
		if err != nil {
			return fmt.Errorf("redis error storing artifact: %w", err)
		}
		if !stored {
			return fmt.Errorf("%s: %w", name, artifact.ErrArtifactExists)
		}
	}

	err = s.client.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(time.Now().Unix()),
		Member: name,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis error indexing artifact: %w", err)
	}
	return nil
}

// Read returns the stored bytes of an artifact.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("artifact %q not found", name)
		}
		return nil, fmt.Errorf("redis error reading artifact: %w", err)
	}
	return data, nil
}

// List returns the indexed artifact names, oldest first. Names whose key
// has expired are dropped from the index.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error listing artifacts: %w", err)
	}

	live := make([]string, 0, len(names))
	for _, name := range names {
		n, err := s.client.Exists(ctx, s.key(name)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error listing artifacts: %w", err)
		}
		if n == 0 {
			if err := s.client.ZRem(ctx, s.indexKey(), name).Err(); err != nil {
				s.logger.Warn("Failed to prune expired artifact from index", "artifact", name, "error", err)
			}
			continue
		}
		live = append(live, name)
	}
	return live, nil
}

func (s *Store) key(name string) string {
	return s.prefix + "artifact:" + name
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}
