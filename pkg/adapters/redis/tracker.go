package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// Tracker implements tracking.SideChannel by merging run metadata into a
// Redis hash per run.
type Tracker struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	active bool
}

// NewTracker creates a Tracker. An inactive tracker accepts no updates.
func NewTracker(client *backend.Client, active bool, opts ...Option) *Tracker {
	s := newSettings(opts)
	return &Tracker{client: client, prefix: s.prefix, ttl: s.ttl, active: active}
}

func (t *Tracker) IsActive() bool { return t.active }

// UpdateRunMetadata stores each entry as a hash field. Strings are kept
// verbatim; every other value is JSON encoded.
func (t *Tracker) UpdateRunMetadata(ctx context.Context, run string, metadata map[string]any) error {
	if !t.active {
		return fmt.Errorf("tracker is not active")
	}
	if run == "" {
		return fmt.Errorf("run name cannot be empty")
	}
	if len(metadata) == 0 {
		return nil
	}

	fields := make(map[string]any, len(metadata))
	for k, v := range metadata {
		encoded, err := encodeField(v)
		if err != nil {
			return fmt.Errorf("failed to encode metadata %q: %w", k, err)
		}
		fields[k] = encoded
	}

	key := t.runKey(run)
	_, err := t.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if t.ttl > 0 {
			pipe.Expire(ctx, key, t.ttl)
		}
		pipe.ZAdd(ctx, t.prefix+"runs", backend.Z{
			Score:  float64(time.Now().Unix()),
			Member: run,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error updating run metadata: %w", err)
	}
	return nil
}

// Metadata returns the raw hash fields stored for run.
func (t *Tracker) Metadata(ctx context.Context, run string) (map[string]string, error) {
	fields, err := t.client.HGetAll(ctx, t.runKey(run)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error reading run metadata: %w", err)
	}
	return fields, nil
}

func (t *Tracker) runKey(run string) string {
	return t.prefix + "run:" + run
}

func encodeField(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
