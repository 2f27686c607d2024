package hparams

import (
	"fmt"
	"os"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Source is one layer of raw configuration.
type Source interface {
	Load() (map[string]any, error)
	String() string
}

// FileSource is a YAML document on disk.
type FileSource string

func (f FileSource) String() string { return string(f) }

// Load reads and decodes the document. An empty document is an empty tree.
func (f FileSource) Load() (map[string]any, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decodeYAML(data)
}

// MapSource is an in-memory tree, typically built by a caller or a test.
type MapSource map[string]any

func (m MapSource) String() string { return "in-memory mapping" }

func (m MapSource) Load() (map[string]any, error) {
	out, _ := schema.Clone(map[string]any(m)).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// TokenSource is a sequence of CLI override tokens.
type TokenSource []string

func (t TokenSource) String() string { return "command line" }

func (t TokenSource) Load() (map[string]any, error) {
	return ParseOverrides(t)
}

// BytesSource is a YAML document held in memory.
type BytesSource []byte

func (b BytesSource) String() string { return "yaml document" }

func (b BytesSource) Load() (map[string]any, error) {
	return decodeYAML(b)
}

func decodeYAML(data []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	tree, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping at the top level, got %T", doc)
	}
	return tree, nil
}
