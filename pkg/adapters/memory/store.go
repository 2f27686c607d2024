package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/artifact"
)

// Upload records a single call to Store.Upload.
type Upload struct {
	Level     artifact.Level
	Name      string
	Overwrite bool
}

// Store implements artifact.Sink in memory.
// Safe for concurrent use.
type Store struct {
	data    map[string][]byte
	uploads []Upload
	mu      sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Upload reads localPath and keeps its content under name.
func (s *Store) Upload(ctx context.Context, level artifact.Level, name, localPath string, overwrite bool) error {
	if err := artifact.ValidateName(name); err != nil {
		return err
	}
	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read artifact source: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, Upload{Level: level, Name: name, Overwrite: overwrite})
	if _, exists := s.data[name]; exists && !overwrite {
		return fmt.Errorf("%s: %w", name, artifact.ErrArtifactExists)
	}
	s.data[name] = content
	return nil
}

// Read returns a copy of the stored content.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("artifact %q not found", name)
	}
	return append([]byte(nil), content...), nil
}

// Uploads returns every upload attempt in call order, including rejected ones.
func (s *Store) Uploads() []Upload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Upload(nil), s.uploads...)
}

// List returns the stored artifact names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
