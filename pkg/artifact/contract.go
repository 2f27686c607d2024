package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ReadFunc returns the stored bytes of an artifact.
type ReadFunc func(ctx context.Context, name string) ([]byte, error)

// RunSinkContract runs a suite of tests to verify that a Sink implementation
// adheres to the upload contract.
func RunSinkContract(t *testing.T, sink Sink, read ReadFunc) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	write := func(content string) string {
		f, err := os.CreateTemp(dir, "artifact-*.yaml")
		require.NoError(t, err)
		_, err = f.WriteString(content)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		return f.Name()
	}

	t.Run("Upload and Read", func(t *testing.T) {
		err := sink.Upload(ctx, LevelFit, "contract-run/hparams.yaml", write("batch_size: 128\n"), true)
		require.NoError(t, err, "Upload should not return error")

		data, err := read(ctx, "contract-run/hparams.yaml")
		require.NoError(t, err)
		assert.Equal(t, "batch_size: 128\n", string(data))
	})

	t.Run("Overwrite replaces", func(t *testing.T) {
		require.NoError(t, sink.Upload(ctx, LevelFit, "contract-run/overwrite.yaml", write("v1"), true))
		require.NoError(t, sink.Upload(ctx, LevelFit, "contract-run/overwrite.yaml", write("v2"), true))

		data, err := read(ctx, "contract-run/overwrite.yaml")
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
	})

	t.Run("No overwrite keeps existing", func(t *testing.T) {
		require.NoError(t, sink.Upload(ctx, LevelFit, "contract-run/keep.yaml", write("first"), false))

		err := sink.Upload(ctx, LevelFit, "contract-run/keep.yaml", write("second"), false)
		assert.ErrorIs(t, err, ErrArtifactExists)

		data, err := read(ctx, "contract-run/keep.yaml")
		require.NoError(t, err)
		assert.Equal(t, "first", string(data))
	})

	t.Run("Missing local file", func(t *testing.T) {
		err := sink.Upload(ctx, LevelFit, "contract-run/missing.yaml", filepath.Join(dir, "nope.yaml"), true)
		assert.Error(t, err)
	})
}
