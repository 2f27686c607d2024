package hparams

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var keySegment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Invocation is a command line split into its parts.
type Invocation struct {
	SourcePath string   // -f/--file
	Overrides  []string // every other token, in order
	Help       bool     // -h/--help was present
}

// ParseArgs separates the YAML source flag and help flags from override tokens.
// A token following a bare `--key` is that key's value, as in ParseOverrides,
// so `--run_name -h` sets run_name rather than asking for help.
func ParseArgs(args []string) (Invocation, error) {
	var inv Invocation
	for i := 0; i < len(args); i++ {
		tok := args[i]
		switch {
		case tok == "-h" || tok == "--help":
			inv.Help = true
		case tok == "-f" || tok == "--file":
			if i+1 >= len(args) {
				return inv, &ConfigurationError{Source: "command line", Err: fmt.Errorf("%s requires a path", tok)}
			}
			i++
			inv.SourcePath = args[i]
		case strings.HasPrefix(tok, "-f="):
			inv.SourcePath = strings.TrimPrefix(tok, "-f=")
		case strings.HasPrefix(tok, "--file="):
			inv.SourcePath = strings.TrimPrefix(tok, "--file=")
		default:
			inv.Overrides = append(inv.Overrides, tok)
			if takesValue(tok) && i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				i++
				inv.Overrides = append(inv.Overrides, args[i])
			}
		}
	}
	return inv, nil
}

func takesValue(tok string) bool {
	return strings.HasPrefix(tok, "--") && len(tok) > 2 && !strings.Contains(tok, "=")
}

// ParseOverrides turns `--key value`, `--a.b value`, `--key=value` and bare
// `--flag` tokens into a nested tree. Values are decoded as YAML, so `0.05`
// is a float, `[1, 2]` a list and `sgd` a string. Later tokens win.
func ParseOverrides(tokens []string) (map[string]any, error) {
	tree := map[string]any{}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") || len(tok) == 2 {
			return nil, fmt.Errorf("unexpected argument %q: overrides take the form --key value", tok)
		}

		key := tok[2:]
		var value any = true
		if k, raw, ok := strings.Cut(key, "="); ok {
			key = k
			value = parseValue(raw)
		} else if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "--") {
			i++
			value = parseValue(tokens[i])
		}

		if err := setPath(tree, key, value); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func parseValue(raw string) any {
	if raw == "" {
		return ""
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func setPath(tree map[string]any, key string, value any) error {
	segments := strings.Split(key, ".")
	for _, seg := range segments {
		if !keySegment.MatchString(seg) {
			return fmt.Errorf("invalid override key %q", key)
		}
	}

	node := tree
	for _, seg := range segments[:len(segments)-1] {
		next, exists := node[seg]
		if !exists {
			child := map[string]any{}
			node[seg] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("override %q conflicts with the value already set for %q", key, seg)
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
	return nil
}
