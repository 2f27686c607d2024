package hparams_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookup map[string]schema.Schema

func (l lookup) Schema(kind, name string) (schema.Schema, bool) {
	s, ok := l[kind+"/"+name]
	return s, ok
}

func testSchema() schema.Schema {
	components := lookup{
		"optimizers/sgd": {
			"lr":       schema.FloatRange(schema.Exclusive(0), schema.Unbounded()),
			"momentum": schema.Optional(schema.FloatRange(schema.Inclusive(0), schema.Exclusive(1)), 0.0),
		},
		"algorithms/label_smoothing": {
			"smoothing": schema.FloatRange(schema.Inclusive(0), schema.Exclusive(1)),
		},
	}
	return schema.Schema{
		"run_name":   schema.Optional(schema.String(), nil),
		"batch_size": schema.IntRange(schema.Exclusive(0), schema.Unbounded()),
		"precision":  schema.Optional(schema.OneOf("fp32", "amp", "bf16"), "fp32"),
		"optimizer":  schema.Ref("optimizers", components),
		"algorithms": schema.Optional(schema.Slice(schema.Ref("algorithms", components)), []any{}),
		"tags":       schema.Optional(schema.Freeform(), nil),
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const baseYAML = `
# comments are allowed
batch_size: 128
optimizer:
  name: sgd
  lr: 0.1
`

func TestResolve_CLIOverridesNestedKey(t *testing.T) {
	r := hparams.NewResolver(testSchema())

	cfg, err := r.Resolve(writeYAML(t, baseYAML), []string{"--optimizer.lr", "0.05"})
	require.NoError(t, err)

	batch, _ := cfg.Get("batch_size")
	name, _ := cfg.Get("optimizer.name")
	lr, _ := cfg.Get("optimizer.lr")
	assert.Equal(t, 128, batch)
	assert.Equal(t, "sgd", name)
	assert.Equal(t, 0.05, lr)
}

func TestResolve_OverridePrecedence(t *testing.T) {
	r := hparams.NewResolver(testSchema())
	path := writeYAML(t, baseYAML+"precision: amp\n")

	tests := []struct {
		tokens []string
		key    string
		want   any
	}{
		{[]string{"--batch_size", "64"}, "batch_size", 64},
		{[]string{"--batch_size=32"}, "batch_size", 32},
		{[]string{"--precision", "bf16"}, "precision", "bf16"},
		{[]string{"--optimizer.momentum", "0.9"}, "optimizer.momentum", 0.9},
		{[]string{"--optimizer.lr", "1"}, "optimizer.lr", 1.0},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.tokens, " "), func(t *testing.T) {
			cfg, err := r.Resolve(path, tt.tokens)
			require.NoError(t, err)
			got, ok := cfg.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_MissingRequiredKey(t *testing.T) {
	r := hparams.NewResolver(testSchema())

	cfg, err := r.Resolve(writeYAML(t, "optimizer: {name: sgd, lr: 0.1}\n"), nil)
	assert.Nil(t, cfg)

	var ce *hparams.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"batch_size"}, ce.Keys())
	assert.Contains(t, err.Error(), `"batch_size"`)
	assert.Contains(t, err.Error(), "int in (0, +inf)")
}

func TestResolve_CollectsEveryProblem(t *testing.T) {
	r := hparams.NewResolver(testSchema())

	_, err := r.Resolve("", []string{
		"--batch_size", "0",
		"--optimizer.name", "sgd",
		"--optimizer.lr", "fast",
		"--algorithms", "[{name: label_smoothing, smoothing: 1.5}]",
		"--epochs", "3",
	})

	var ce *hparams.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{
		"algorithms[0].smoothing",
		"batch_size",
		"epochs",
		"optimizer.lr",
	}, ce.Keys())
}

func TestResolve_CLIOnly(t *testing.T) {
	r := hparams.NewResolver(testSchema())

	cfg, err := r.Resolve("", []string{"--batch_size", "8", "--optimizer", "{name: sgd, lr: 0.5}"})
	require.NoError(t, err)
	assert.Equal(t, "fp32", cfg.Tree()["precision"])
}

func TestResolve_UnreadableFile(t *testing.T) {
	r := hparams.NewResolver(testSchema())

	_, err := r.Resolve(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	var ce *hparams.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Source, "missing.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_Deterministic(t *testing.T) {
	r := hparams.NewResolver(testSchema())
	path := writeYAML(t, baseYAML+"tags: {team: vision, owners: [a, b]}\n")
	tokens := []string{"--optimizer.lr", "0.05", "--algorithms", "[label_smoothing]", "--algorithms", "[{name: label_smoothing, smoothing: 0.1}]"}

	first, err := r.Resolve(path, tokens)
	require.NoError(t, err)
	second, err := r.Resolve(path, tokens)
	require.NoError(t, err)

	a, err := first.ToYAML()
	require.NoError(t, err)
	b, err := second.ToYAML()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.True(t, first.Equal(second))
}

func TestResolve_RoundTrip(t *testing.T) {
	r := hparams.NewResolver(testSchema())

	cfg, err := r.Resolve(writeYAML(t, baseYAML), []string{"--optimizer.lr", "2", "--algorithms", "[{name: label_smoothing, smoothing: 0.1}]"})
	require.NoError(t, err)

	data, err := cfg.ToYAML()
	require.NoError(t, err)

	again, err := r.ResolveSources(hparams.BytesSource(data))
	require.NoError(t, err)

	if diff := cmp.Diff(cfg.Tree(), again.Tree()); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestResolve_DerivedRunName(t *testing.T) {
	r := hparams.NewResolver(testSchema())
	path := writeYAML(t, baseYAML)

	cfg, err := r.Resolve(path, nil)
	require.NoError(t, err)
	assert.Regexp(t, `^run-[0-9a-f]{8}$`, cfg.RunName())

	same, err := r.Resolve(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.RunName(), same.RunName())

	named, err := r.Resolve(path, []string{"--run_name", "baseline"})
	require.NoError(t, err)
	assert.Equal(t, "baseline", named.RunName())
}

func TestConfig_IsReadOnly(t *testing.T) {
	r := hparams.NewResolver(testSchema())
	cfg, err := r.Resolve(writeYAML(t, baseYAML), nil)
	require.NoError(t, err)

	tree := cfg.Tree()
	tree["batch_size"] = 1
	tree["optimizer"].(map[string]any)["lr"] = 9.0

	batch, _ := cfg.Get("batch_size")
	lr, _ := cfg.Get("optimizer.lr")
	assert.Equal(t, 128, batch)
	assert.Equal(t, 0.1, lr)
}

func TestConfig_Flatten(t *testing.T) {
	r := hparams.NewResolver(testSchema())
	cfg, err := r.Resolve(writeYAML(t, baseYAML), []string{
		"--run_name", "baseline",
		"--algorithms", "[{name: label_smoothing, smoothing: 0.1}]",
		"--tags.owners", "[a, b]",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"run_name":                "baseline",
		"batch_size":              128,
		"precision":               "fp32",
		"optimizer.name":          "sgd",
		"optimizer.lr":            0.1,
		"optimizer.momentum":      0.0,
		"algorithms[0].name":      "label_smoothing",
		"algorithms[0].smoothing": 0.1,
		"tags.owners":             []any{"a", "b"},
	}, cfg.Flatten())
}
