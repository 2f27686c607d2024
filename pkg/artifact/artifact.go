// Package artifact defines the durable artifact store a run uploads files to.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrArtifactExists is returned by a Sink when overwrite is false and the
// artifact is already stored.
var ErrArtifactExists = errors.New("artifact already exists")

// Level is the granularity at which an artifact is logged.
type Level int

const (
	LevelFit Level = iota + 1
	LevelEpoch
	LevelBatch
)

func (l Level) String() string {
	switch l {
	case LevelFit:
		return "fit"
	case LevelEpoch:
		return "epoch"
	case LevelBatch:
		return "batch"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Sink stores a local file under a slash-separated artifact name.
type Sink interface {
	Upload(ctx context.Context, level Level, name, localPath string, overwrite bool) error
}

// ValidateName rejects names that are empty, absolute or escape their root.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("artifact name cannot be empty")
	}
	if path.IsAbs(name) || strings.Contains(name, `\`) {
		return fmt.Errorf("artifact name %q must be a relative slash-separated path", name)
	}
	for _, seg := range strings.Split(path.Clean(name), "/") {
		if seg == ".." {
			return fmt.Errorf("artifact name %q escapes the artifact root", name)
		}
	}
	return nil
}
