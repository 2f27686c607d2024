package hparams

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
	"gopkg.in/yaml.v3"
)

// RunNameKey is the top-level key holding the run's name.
const RunNameKey = "run_name"

// Config is a resolved, validated configuration tree. It is read-only:
// every accessor returns a copy.
type Config struct {
	tree map[string]any
}

// Tree returns a deep copy of the configuration tree.
func (c *Config) Tree() map[string]any {
	out, _ := schema.Clone(c.tree).(map[string]any)
	return out
}

// Get returns the value at a dotted path such as "optimizer.lr".
func (c *Config) Get(path string) (any, bool) {
	var node any = c.tree
	for _, seg := range strings.Split(path, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return schema.Clone(node), true
}

// RunName returns the run's name, or "" when the schema has none.
func (c *Config) RunName() string {
	name, _ := c.tree[RunNameKey].(string)
	return name
}

// ToYAML returns the canonical serialization: sorted keys, two-space indent.
// Equal configurations always serialize to identical bytes.
func (c *Config) ToYAML() ([]byte, error) {
	return marshalCanonical(c.tree)
}

// Flatten returns a single-level mapping keyed by dotted path. Sequences of
// mappings are indexed ("algorithms[0].name"); other sequences are kept as
// leaves.
func (c *Config) Flatten() map[string]any {
	out := make(map[string]any)
	flatten("", c.tree, out)
	return out
}

// Equal reports whether both configurations hold the same tree.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return reflect.DeepEqual(c.tree, other.tree)
}

func flatten(prefix string, value any, out map[string]any) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 && prefix != "" {
			out[prefix] = map[string]any{}
			return
		}
		for key, child := range v {
			flatten(joinKey(prefix, key), child, out)
		}
	case []any:
		if !containsMapping(v) {
			out[prefix] = schema.Clone(v)
			return
		}
		for i, child := range v {
			flatten(fmt.Sprintf("%s[%d]", prefix, i), child, out)
		}
	default:
		out[prefix] = v
	}
}

func containsMapping(items []any) bool {
	for _, item := range items {
		if _, ok := item.(map[string]any); ok {
			return true
		}
	}
	return false
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func marshalCanonical(tree map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
