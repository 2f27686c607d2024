package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintConfig_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintConfig(&buf, []byte("batch_size: 128\nseed: 17")))

	assert.Equal(t, rule+"\nConfig:\nbatch_size: 128\nseed: 17\n"+rule+"\n", buf.String())
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(80)
	require.NoError(t, err)

	out, err := render("```yaml\na: 1\n```\n")
	require.NoError(t, err)
	assert.Contains(t, out, "a")
}
