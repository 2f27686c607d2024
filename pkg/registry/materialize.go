package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/logging"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/metrics"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
)

// Materializer replaces the object references of a normalized configuration
// tree with constructed components, building nested references first.
type Materializer struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*Materializer)

// WithLogger sets the logger used to trace constructions.
func WithLogger(logger *slog.Logger) MaterializerOption {
	return func(m *Materializer) {
		m.logger = logger
	}
}

// WithMetrics records construction outcomes.
func WithMetrics(mt *metrics.Metrics) MaterializerOption {
	return func(m *Materializer) {
		m.metrics = mt
	}
}

// NewMaterializer creates a Materializer backed by reg.
func NewMaterializer(reg *Registry, opts ...MaterializerOption) *Materializer {
	m := &Materializer{registry: reg, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Build walks tree according to s and returns a copy in which every
// reference is replaced by the object its factory produced. The first
// failure aborts the walk and is returned as a *ConstructionError; objects
// already built that implement io.Closer are closed before returning.
func (m *Materializer) Build(ctx context.Context, s schema.Schema, tree map[string]any) (map[string]any, error) {
	var built []any
	result, err := m.walk(ctx, &built, "", schema.Object(s), tree)
	if err != nil {
		if cerr := closeAll(built); cerr != nil {
			m.logger.Warn("Failed to release partially built components", "error", cerr)
		}
		return nil, err
	}
	out, _ := result.(map[string]any)
	return out, nil
}

func closeAll(objs []any) error {
	var errs []error
	for i := len(objs) - 1; i >= 0; i-- {
		if c, ok := objs[i].(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func (m *Materializer) walk(ctx context.Context, built *[]any, path string, t schema.Type, value any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch typ := schema.Unwrap(t).(type) {
	case *schema.RefType:
		return m.buildRef(ctx, built, path, typ.Kind(), value)

	case *schema.SliceType:
		items, ok := value.([]any)
		if !ok {
			return value, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := m.walk(ctx, built, fmt.Sprintf("%s[%d]", path, i), typ.Elem(), item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case *schema.ObjectType:
		fields, ok := value.(map[string]any)
		if !ok {
			return value, nil
		}
		return m.walkFields(ctx, built, path, typ.Fields(), fields)

	default:
		return value, nil
	}
}

func (m *Materializer) walkFields(ctx context.Context, built *[]any, path string, s schema.Schema, fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	// Sorted keys give every rank the same construction order.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, key := range keys {
		value := fields[key]
		fieldType, declared := s[key]
		if !declared {
			out[key] = value
			continue
		}
		v, err := m.walk(ctx, built, joinPath(path, key), fieldType, value)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func (m *Materializer) buildRef(ctx context.Context, built *[]any, path, kind string, value any) (any, error) {
	ref, ok := value.(map[string]any)
	if !ok {
		return nil, &ConstructionError{Kind: kind, Path: path, Err: fmt.Errorf("expected reference mapping, got %T", value)}
	}
	name, _ := ref[schema.RefNameKey].(string)

	c, ok := m.registry.Lookup(kind, name)
	if !ok {
		err := &ConstructionError{Kind: kind, Name: name, Path: path, Err: ErrUnknownComponent}
		m.metrics.ObserveConstruction(kind, err)
		return nil, err
	}

	params := make(map[string]any, len(ref))
	for k, v := range ref {
		if k != schema.RefNameKey {
			params[k] = v
		}
	}

	// Leaves first: nested references become objects before the factory runs.
	params, err := m.walkFields(ctx, built, path, c.Params, params)
	if err != nil {
		return nil, err
	}

	obj, err := m.registry.Build(ctx, kind, name, params)
	m.metrics.ObserveConstruction(kind, err)
	if err != nil {
		if ce, ok := err.(*ConstructionError); ok {
			ce.Path = path
		}
		return nil, err
	}
	*built = append(*built, obj)

	m.logger.Debug("Component constructed", "kind", kind, "name", name, "path", path)
	return obj, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
