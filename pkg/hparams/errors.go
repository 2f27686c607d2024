package hparams

import (
	"fmt"
	"strings"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/schema"
)

// ConfigurationError reports a configuration that could not be resolved:
// an unreadable source, a malformed override or a schema violation.
type ConfigurationError struct {
	Source   string                    // Source that failed to load, if any
	Problems []*schema.ValidationError // Every offending key, sorted by path
	Err      error
}

func (e *ConfigurationError) Error() string {
	if len(e.Problems) == 0 {
		if e.Source == "" {
			return fmt.Sprintf("configuration error: %v", e.Err)
		}
		return fmt.Sprintf("configuration error in %s: %v", e.Source, e.Err)
	}

	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Error()
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Keys returns the offending key paths.
func (e *ConfigurationError) Keys() []string {
	keys := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		keys[i] = p.Key
	}
	return keys
}

func newValidationFailure(err error) *ConfigurationError {
	ce := &ConfigurationError{Err: err}
	for _, e := range schema.ValidationErrors(err) {
		if ve, ok := e.(*schema.ValidationError); ok {
			ce.Problems = append(ce.Problems, ve)
		}
	}
	return ce
}
