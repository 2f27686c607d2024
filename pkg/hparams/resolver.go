package hparams

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/logging"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/metrics"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
)

// Resolver merges configuration sources and validates the result.
// It holds no state between calls; the same inputs always produce the same
// Config.
type Resolver struct {
	schema  schema.Schema
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMetrics records resolution outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a Resolver validating against s.
func NewResolver(s schema.Schema, opts ...Option) *Resolver {
	r := &Resolver{schema: s, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve loads the YAML document at sourcePath (if not empty) and overlays
// the CLI tokens on top of it.
func (r *Resolver) Resolve(sourcePath string, tokens []string) (*Config, error) {
	var sources []Source
	if sourcePath != "" {
		sources = append(sources, FileSource(sourcePath))
	}
	sources = append(sources, TokenSource(tokens))
	return r.ResolveSources(sources...)
}

// ResolveSources merges sources in order, later ones winning, then validates.
func (r *Resolver) ResolveSources(sources ...Source) (*Config, error) {
	cfg, err := r.resolve(sources)
	r.metrics.ObserveResolve(err)
	return cfg, err
}

func (r *Resolver) resolve(sources []Source) (*Config, error) {
	merged := map[string]any{}
	for _, src := range sources {
		layer, err := src.Load()
		if err != nil {
			return nil, &ConfigurationError{Source: src.String(), Err: err}
		}
		merged = Merge(merged, layer)
		r.logger.Debug("Config source loaded", "source", src.String(), "keys", len(layer))
	}

	tree, err := schema.Normalize(r.schema, merged)
	if err != nil {
		return nil, newValidationFailure(err)
	}

	if _, declared := r.schema[RunNameKey]; declared {
		if name, _ := tree[RunNameKey].(string); name == "" {
			derived, err := deriveRunName(tree)
			if err != nil {
				return nil, &ConfigurationError{Err: err}
			}
			tree[RunNameKey] = derived
		}
	}

	return &Config{tree: tree}, nil
}

// deriveRunName names a run after its configuration, so every rank computes
// the same name from the same inputs.
func deriveRunName(tree map[string]any) (string, error) {
	data, err := marshalCanonical(tree)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "run-" + hex.EncodeToString(sum[:4]), nil
}
