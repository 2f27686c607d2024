package registry

import "fmt"

// ConstructionError reports a component that could not be built.
type ConstructionError struct {
	Kind string // Component kind, e.g. "optimizers"
	Name string // Registered name, e.g. "sgd"
	Path string // Key path of the reference in the configuration
	Err  error
}

func (e *ConstructionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot construct %s %q: %v", e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("cannot construct %s %q at %q: %v", e.Kind, e.Name, e.Path, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
