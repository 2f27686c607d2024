package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jayhusemi/mosaicml-mcontrib/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func execute(t *testing.T, lookup func(string) (string, bool), args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, lookup)
	return code, stdout.String(), stderr.String()
}

func writeConfig(t *testing.T, artifacts string) string {
	t.Helper()
	doc := fmt.Sprintf(`
max_duration: 2ba
batch_size: 128
model: {name: mlp, in_features: 4, num_classes: 2}
optimizer: {name: sgd, lr: 0.1}
loggers:
  - {name: file_artifacts, dir: %q}
`, artifacts)
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestRun_NoArgsPrintsHelp(t *testing.T) {
	code, stdout, _ := execute(t, noEnv)

	assert.Equal(t, cli.ExitOK, code)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "--key.nested value")
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := execute(t, noEnv, "version")

	assert.Equal(t, cli.ExitOK, code)
	assert.Contains(t, stdout, "mcontrib version")
}

func TestRun_Validate(t *testing.T) {
	src := writeConfig(t, t.TempDir())
	code, stdout, stderr := execute(t, noEnv, "validate", "-f", src, "--batch_size", "256", "--optimizer.lr", "0.05")

	require.Equal(t, cli.ExitOK, code, stderr)
	assert.Contains(t, stdout, "batch_size: 256")
	assert.Contains(t, stdout, "lr: 0.05")
}

func TestRun_Train(t *testing.T) {
	artifacts := t.TempDir()
	src := writeConfig(t, artifacts)

	code, stdout, stderr := execute(t, noEnv, "-f", src, "--run_name", "cli-run")
	require.Equal(t, cli.ExitOK, code, stderr)
	assert.Contains(t, stdout, "Config:")

	_, err := os.Stat(filepath.Join(artifacts, "cli-run", "hparams.yaml"))
	assert.NoError(t, err)

	code, _, stderr = execute(t, noEnv, "train", "--file="+src, "--run_name", "cli-run-2")
	require.Equal(t, cli.ExitOK, code, stderr)
	_, err = os.Stat(filepath.Join(artifacts, "cli-run-2", "hparams.yaml"))
	assert.NoError(t, err)
}

func TestRun_Errors(t *testing.T) {
	artifacts := t.TempDir()
	src := writeConfig(t, artifacts)

	tests := []struct {
		name   string
		lookup func(string) (string, bool)
		args   []string
		want   int
	}{
		{"missing key", noEnv, []string{"--batch_size", "128"}, cli.ExitConfig},
		{"bad value", noEnv, []string{"-f", src, "--batch_size", "big"}, cli.ExitConfig},
		{"file flag without path", noEnv, []string{"-f"}, cli.ExitConfig},
		{"nan learning rate", noEnv, []string{"-f", src, "--optimizer.lr", ".nan"}, cli.ExitConfig},
		{"infinite learning rate", noEnv, []string{"-f", src, "--optimizer.lr", ".inf"}, cli.ExitConfig},
		{"nan momentum", noEnv, []string{"-f", src, "--optimizer.momentum", ".nan"}, cli.ExitConfig},
		{"seed beyond int", noEnv, []string{"-f", src, "--seed", "18446744073709551615"}, cli.ExitConfig},
		{"adamw with one beta", noEnv, []string{"-f", src, "--optimizer", "{name: adamw, lr: 0.001, betas: [0.9]}"}, cli.ExitConfig},
		{"nesterov without momentum", noEnv, []string{"-f", src, "--optimizer.nesterov"}, cli.ExitConfig},
		{"malformed ttl", noEnv, []string{"-f", src, "--loggers", "[{name: redis_tracker, ttl: forever}]"}, cli.ExitConfig},
		{"duration overflow", noEnv, []string{"-f", src, "--max_duration", "99999999999999999999ba"}, cli.ExitConfig},
		{"unknown optimizer", noEnv, []string{"-f", src, "--optimizer.name", "foo_optimizer"}, cli.ExitConstruction},
		{"bad rank", func(k string) (string, bool) {
			if k == "RANK" {
				return "nope", true
			}
			return "", false
		}, []string{"-f", src}, cli.ExitConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.lookup, tt.args...)
			assert.Equal(t, tt.want, code, stderr)
			assert.Contains(t, stderr, "Error:")
		})
	}

	entries, err := os.ReadDir(artifacts)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed launches publish nothing")
}

func TestRun_ValidateRejectsWhatTrainRejects(t *testing.T) {
	src := writeConfig(t, t.TempDir())

	code, stdout, stderr := execute(t, noEnv, "validate", "-f", src, "--optimizer.name", "adamw", "--optimizer.betas", "[0.9]")
	assert.Equal(t, cli.ExitConfig, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "optimizer.betas")
}

func TestRun_HelpTokenAsValue(t *testing.T) {
	artifacts := t.TempDir()
	src := writeConfig(t, artifacts)

	code, stdout, stderr := execute(t, noEnv, "validate", "-f", src, "--run_name", "-h")
	require.Equal(t, cli.ExitOK, code, stderr)
	assert.Regexp(t, `run_name: "?-h"?\n`, stdout)
	assert.NotContains(t, stdout, "Usage:")
}

func TestRun_Components(t *testing.T) {
	code, stdout, _ := execute(t, noEnv, "components", "optimizers")
	assert.Equal(t, cli.ExitOK, code)
	assert.Contains(t, stdout, "sgd")
	assert.Contains(t, stdout, "adamw")
	assert.NotContains(t, stdout, "mlp")

	code, _, _ = execute(t, noEnv, "components", "widgets")
	assert.Equal(t, cli.ExitUnexpected, code)
}
