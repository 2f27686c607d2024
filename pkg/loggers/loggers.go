// Package loggers registers the run loggers: artifact sinks and experiment
// trackers that a configuration lists under "loggers".
package loggers

import (
	"context"
	"fmt"
	"time"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/adapters/file"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/adapters/memory"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/adapters/redis"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/trainer"
)

type redisParams struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	TTL      string `mapstructure:"ttl"`
	Enabled  bool   `mapstructure:"enabled"`
}

func (p redisParams) options() ([]redis.Option, error) {
	opts := []redis.Option{redis.WithPrefix(p.Prefix)}
	if p.TTL != "" {
		ttl, err := time.ParseDuration(p.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid ttl: %w", err)
		}
		opts = append(opts, redis.WithTTL(ttl))
	}
	return opts, nil
}

// ttlType accepts a positive Go duration string such as "24h".
func ttlType() schema.Type {
	return schema.Custom("duration (e.g. 24h)", func(value any) error {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected duration string, got %T", value)
		}
		ttl, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		if ttl <= 0 {
			return fmt.Errorf("expected a positive duration, got %s", s)
		}
		return nil
	})
}

func redisSchema() schema.Schema {
	return schema.Schema{
		"addr":     schema.Optional(schema.String(), "localhost:6379"),
		"password": schema.Optional(schema.String(), ""),
		"db":       schema.Optional(schema.IntRange(schema.Inclusive(0), schema.Unbounded()), 0),
		"prefix":   schema.Optional(schema.String(), "mcontrib:"),
		"ttl":      schema.Optional(ttlType(), nil),
	}
}

// RegisterAll adds every logger to reg and returns their names.
func RegisterAll(reg *registry.Registry) []string {
	trackerSchema := redisSchema()
	trackerSchema["enabled"] = schema.Optional(schema.Bool(), true)

	comps := []registry.Component{
		{
			Name:        "file_artifacts",
			Description: "Store artifacts in a local directory",
			Params: schema.Schema{
				"dir": schema.Optional(schema.String(), ".mcontrib/artifacts"),
			},
			New: func(ctx context.Context, params map[string]any) (any, error) {
				var p struct {
					Dir string `mapstructure:"dir"`
				}
				if err := registry.Decode(params, &p); err != nil {
					return nil, err
				}
				return file.New(p.Dir), nil
			},
		},
		{
			Name:        "memory_artifacts",
			Description: "Keep artifacts in process memory",
			New: func(ctx context.Context, params map[string]any) (any, error) {
				return memory.NewStore(), nil
			},
		},
		{
			Name:        "redis_artifacts",
			Description: "Store artifacts in Redis",
			Params:      redisSchema(),
			New: func(ctx context.Context, params map[string]any) (any, error) {
				var p redisParams
				if err := registry.Decode(params, &p); err != nil {
					return nil, err
				}
				opts, err := p.options()
				if err != nil {
					return nil, err
				}
				client, err := redis.Dial(ctx, redis.Config{Addr: p.Addr, Password: p.Password, DB: p.DB})
				if err != nil {
					return nil, err
				}
				return redis.NewFromClient(client, opts...), nil
			},
		},
		{
			Name:        "redis_tracker",
			Description: "Mirror run metadata into Redis hashes",
			Params:      trackerSchema,
			New: func(ctx context.Context, params map[string]any) (any, error) {
				var p redisParams
				if err := registry.Decode(params, &p); err != nil {
					return nil, err
				}
				opts, err := p.options()
				if err != nil {
					return nil, err
				}
				client, err := redis.Dial(ctx, redis.Config{Addr: p.Addr, Password: p.Password, DB: p.DB})
				if err != nil {
					return nil, err
				}
				return redis.NewTracker(client, p.Enabled, opts...), nil
			},
		},
	}

	names := make([]string, 0, len(comps))
	for _, c := range comps {
		c.Kind = trainer.KindLoggers
		reg.Register(c)
		names = append(names, c.Name)
	}
	return names
}
