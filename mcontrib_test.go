package mcontrib_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jayhusemi/mosaicml-mcontrib"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/dist"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/hparams"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/publish"
	"github.com/jayhusemi/mosaicml-mcontrib/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRun(t *testing.T, artifacts string) string {
	t.Helper()
	doc := fmt.Sprintf(`
max_duration: 1ep
batch_size: 128
model: {name: mlp, in_features: 4, num_classes: 2}
optimizer: {name: sgd, lr: 0.1}
loggers:
  - name: file_artifacts
    dir: %q
`, artifacts)
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestLaunch(t *testing.T) {
	artifacts := t.TempDir()
	src := writeRun(t, artifacts)
	var banner bytes.Buffer

	l := mcontrib.New(mcontrib.NewRegistry(), mcontrib.WithBanner(&banner))
	inv := hparams.Invocation{SourcePath: src, Overrides: []string{"--optimizer.lr", "0.05", "--run_name", "smoke"}}
	require.NoError(t, l.Launch(context.Background(), inv, dist.Single))

	data, err := os.ReadFile(filepath.Join(artifacts, "smoke", publish.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "lr: 0.05")
	assert.Contains(t, string(data), "batch_size: 128")
	assert.Contains(t, banner.String(), "Config:")

	// The published document resolves to the same configuration.
	cfg, err := l.Resolve(inv)
	require.NoError(t, err)
	republished, err := hparams.NewResolver(l.Schema()).ResolveSources(hparams.BytesSource(data))
	require.NoError(t, err)
	assert.True(t, cfg.Equal(republished))
}

func TestLaunch_NonLeaderDoesNotPublish(t *testing.T) {
	artifacts := t.TempDir()
	src := writeRun(t, artifacts)
	var banner bytes.Buffer

	l := mcontrib.New(mcontrib.NewRegistry(), mcontrib.WithBanner(&banner))
	id := dist.Identity{GlobalRank: 1, LocalRank: 1, WorldSize: 2}
	require.NoError(t, l.Launch(context.Background(), hparams.Invocation{SourcePath: src}, id))

	entries, err := os.ReadDir(artifacts)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, banner.String(), "only local rank 0 prints the configuration")
}

func TestLaunch_UnknownOptimizer(t *testing.T) {
	artifacts := t.TempDir()
	src := writeRun(t, artifacts)

	l := mcontrib.New(mcontrib.NewRegistry())
	err := l.Launch(context.Background(), hparams.Invocation{
		SourcePath: src,
		Overrides:  []string{"--optimizer.name", "foo_optimizer"},
	}, dist.Single)

	var ce *registry.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "foo_optimizer", ce.Name)

	entries, err := os.ReadDir(artifacts)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is published when construction fails")
}

func TestLaunch_ConfigurationError(t *testing.T) {
	l := mcontrib.New(mcontrib.NewRegistry())
	err := l.Launch(context.Background(), hparams.Invocation{Overrides: []string{"--batch_size", "128"}}, dist.Single)

	var cerr *hparams.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Keys(), "max_duration")
	assert.Contains(t, cerr.Keys(), "optimizer")
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, mcontrib.Version)
}
