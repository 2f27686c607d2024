package trainer_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/adapters/memory"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/algorithms"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/components"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/loggers"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/tracking"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/trainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runYAML = `
run_name: baseline
max_duration: 2ep
batch_size: 64
train_subset_num_batches: 3
model:
  name: mlp
  in_features: 8
  num_classes: 2
optimizer:
  name: sgd
  lr: 0.1
  momentum: 0.9
schedulers:
  - cosine_decay
algorithms:
  - name: label_smoothing
    smoothing: 0.05
  - name: ema
    update_interval: 3ba
loggers:
  - memory_artifacts
`

func newRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	components.Register(reg)
	algorithms.RegisterAll(reg)
	loggers.RegisterAll(reg)
	return reg
}

func resolve(t *testing.T, reg *registry.Registry, tokens ...string) *hparams.Config {
	t.Helper()
	cfg, err := hparams.NewResolver(trainer.Schema(reg)).ResolveSources(
		hparams.BytesSource(runYAML),
		hparams.TokenSource(tokens),
	)
	require.NoError(t, err)
	return cfg
}

func TestSchema_Defaults(t *testing.T) {
	reg := newRegistry()
	cfg := resolve(t, reg)

	seed, _ := cfg.Get("seed")
	assert.Equal(t, 17, seed)
	precision, _ := cfg.Get("precision")
	assert.Equal(t, "fp32", precision)
	dropLast, _ := cfg.Get("dataloader.drop_last")
	assert.Equal(t, true, dropLast)
	lr, _ := cfg.Get("optimizer.lr")
	assert.Equal(t, 0.1, lr)
	wd, _ := cfg.Get("optimizer.weight_decay")
	assert.Equal(t, 0.0, wd)
}

func TestSchema_Errors(t *testing.T) {
	reg := newRegistry()
	_, err := hparams.NewResolver(trainer.Schema(reg)).ResolveSources(hparams.MapSource{
		"max_duration": "forever",
		"batch_size":   0,
		"model":        map[string]any{"name": "mlp", "in_features": 8, "num_classes": 2},
		"optimizer":    map[string]any{"name": "sgd", "lr": -1.0},
		"precision":    "fp8",
	})

	var cerr *hparams.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"batch_size", "max_duration", "optimizer.lr", "precision"}, cerr.Keys())
}

func TestMaterialize(t *testing.T) {
	reg := newRegistry()
	cfg := resolve(t, reg, "--optimizer.lr", "0.05")

	run, err := trainer.NewMaterializer(reg).Materialize(context.Background(), cfg)
	require.NoError(t, err)
	defer run.Close()

	require.NotNil(t, run.Trainer)
	assert.Equal(t, "baseline", run.Trainer.RunName())
	assert.Equal(t, 1, run.Artifacts.Len())
	assert.Nil(t, run.SideChannel)

	state := run.Trainer.State()
	assert.Equal(t, 0.05, state.BaseLR)
	assert.Equal(t, 6, state.MaxBatches)
	assert.IsType(t, &components.SGD{}, state.Optimizer)

	require.NoError(t, run.Trainer.Fit(context.Background()))
	assert.Equal(t, 6, state.Optimizer.(*components.SGD).Steps())
	assert.Equal(t, 0.05, state.Extras[algorithms.ExtraLabelSmoothing])
	assert.Equal(t, 2, state.Extras[algorithms.ExtraEMAUpdates])
}

func TestMaterialize_UnknownOptimizer(t *testing.T) {
	reg := newRegistry()
	cfg := resolve(t, reg, "--optimizer.name", "foo_optimizer")

	run, err := trainer.NewMaterializer(reg).Materialize(context.Background(), cfg)
	assert.Nil(t, run)

	var ce *registry.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, trainer.KindOptimizers, ce.Kind)
	assert.Equal(t, "foo_optimizer", ce.Name)
	assert.ErrorIs(t, err, registry.ErrUnknownComponent)
}

func TestMaterialize_SideChannel(t *testing.T) {
	reg := newRegistry()
	tracker := memory.NewTracker(true)
	reg.Register(registry.Component{
		Kind: trainer.KindLoggers,
		Name: "test_tracker",
		New: func(ctx context.Context, params map[string]any) (any, error) {
			return tracker, nil
		},
	})
	cfg := resolve(t, reg, "--loggers", "[memory_artifacts, test_tracker]")

	run, err := trainer.NewMaterializer(reg).Materialize(context.Background(), cfg)
	require.NoError(t, err)
	defer run.Close()

	require.NotNil(t, run.SideChannel)
	unwrapped, ok := run.SideChannel.(interface{ Unwrap() tracking.SideChannel })
	require.True(t, ok, "side channels are wrapped with secret redaction")
	assert.Same(t, tracker, unwrapped.Unwrap())
	assert.Equal(t, 1, run.Artifacts.Len())
}

type failingCloser struct{ closed bool }

func (c *failingCloser) Close() error {
	c.closed = true
	return errors.New("connection already gone")
}

func TestMaterialize_AssemblyFailureReleasesLoggers(t *testing.T) {
	reg := newRegistry()
	closer := &failingCloser{}
	reg.Register(registry.Component{
		Kind: trainer.KindLoggers,
		Name: "closing",
		New: func(ctx context.Context, params map[string]any) (any, error) {
			return closer, nil
		},
	})
	reg.Register(registry.Component{
		Kind: trainer.KindOptimizers,
		Name: "not_an_optimizer",
		New: func(ctx context.Context, params map[string]any) (any, error) {
			return struct{}{}, nil
		},
	})
	cfg := resolve(t, reg, "--loggers", "[closing]", "--optimizer", "not_an_optimizer")

	var logs bytes.Buffer
	m := trainer.NewMaterializer(reg, trainer.WithMaterializerLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	run, err := m.Materialize(context.Background(), cfg)
	assert.Nil(t, run)

	var ce *registry.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "trainer", ce.Kind)
	assert.True(t, closer.closed)
	assert.Contains(t, logs.String(), "Failed to release loggers")
	assert.Contains(t, logs.String(), "connection already gone")
}
