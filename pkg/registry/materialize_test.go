package registry_test

import (
	"context"
	"testing"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduler struct{ name string }

type wrapped struct {
	inner *scheduler
}

func TestMaterializer_BottomUp(t *testing.T) {
	reg := registry.NewRegistry()
	var order []string

	reg.Register(registry.Component{
		Kind: "schedulers",
		Name: "constant",
		New: func(ctx context.Context, params map[string]any) (any, error) {
			order = append(order, "constant")
			return &scheduler{name: "constant"}, nil
		},
	})
	reg.Register(registry.Component{
		Kind:   "schedulers",
		Name:   "warmup",
		Params: schema.Schema{"after": schema.Ref("schedulers", reg)},
		New: func(ctx context.Context, params map[string]any) (any, error) {
			// The nested reference arrives already built.
			inner, ok := params["after"].(*scheduler)
			require.True(t, ok, "nested reference must be constructed first")
			order = append(order, "warmup")
			return &wrapped{inner: inner}, nil
		},
	})

	s := schema.Schema{
		"batch_size": schema.Int(),
		"schedulers": schema.Slice(schema.Ref("schedulers", reg)),
	}
	tree := map[string]any{
		"batch_size": 128,
		"schedulers": []any{
			map[string]any{"name": "warmup", "after": map[string]any{"name": "constant"}},
		},
	}

	built, err := registry.NewMaterializer(reg).Build(context.Background(), s, tree)
	require.NoError(t, err)

	assert.Equal(t, 128, built["batch_size"])
	items := built["schedulers"].([]any)
	require.Len(t, items, 1)
	w, ok := items[0].(*wrapped)
	require.True(t, ok)
	assert.Equal(t, "constant", w.inner.name)
	assert.Equal(t, []string{"constant", "warmup"}, order)

	// The input tree is left untouched.
	assert.IsType(t, map[string]any{}, tree["schedulers"].([]any)[0])
}

func TestMaterializer_UnknownComponent(t *testing.T) {
	reg := registry.NewRegistry()
	s := schema.Schema{"optimizer": schema.Ref("optimizers", reg)}
	tree := map[string]any{"optimizer": map[string]any{"name": "foo_optimizer", "lr": 0.1}}

	built, err := registry.NewMaterializer(reg).Build(context.Background(), s, tree)
	assert.Nil(t, built)

	var ce *registry.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "optimizers", ce.Kind)
	assert.Equal(t, "foo_optimizer", ce.Name)
	assert.Equal(t, "optimizer", ce.Path)
	assert.ErrorIs(t, err, registry.ErrUnknownComponent)
}

func TestMaterializer_CancelledContext(t *testing.T) {
	reg := registry.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := registry.NewMaterializer(reg).Build(ctx, schema.Schema{}, map[string]any{})
	assert.ErrorIs(t, err, context.Canceled)
}

type closer struct{ closed bool }

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestMaterializer_ClosesPartialBuild(t *testing.T) {
	reg := registry.NewRegistry()
	opened := &closer{}
	reg.Register(registry.Component{
		Kind: "loggers",
		Name: "conn",
		New: func(ctx context.Context, params map[string]any) (any, error) {
			return opened, nil
		},
	})

	s := schema.Schema{
		"loggers":   schema.Slice(schema.Ref("loggers", reg)),
		"optimizer": schema.Ref("optimizers", reg),
	}
	tree := map[string]any{
		"loggers":   []any{map[string]any{"name": "conn"}},
		"optimizer": map[string]any{"name": "foo_optimizer"},
	}

	_, err := registry.NewMaterializer(reg).Build(context.Background(), s, tree)
	require.Error(t, err)
	// "loggers" sorts before "optimizer", so the logger was built first.
	assert.True(t, opened.closed)
}

func TestDecode(t *testing.T) {
	type opts struct {
		LR       float64 `mapstructure:"lr"`
		Nesterov bool    `mapstructure:"nesterov"`
	}

	var o opts
	require.NoError(t, registry.Decode(map[string]any{"lr": 0.1, "nesterov": true}, &o))
	assert.Equal(t, opts{LR: 0.1, Nesterov: true}, o)

	err := registry.Decode(map[string]any{"lr": 0.1, "betas": []any{0.9}}, &o)
	assert.ErrorContains(t, err, "betas")
}
