package memory

import (
	"context"
	"maps"
	"sync"
)

// Tracker implements tracking.SideChannel in memory.
type Tracker struct {
	active bool
	// Err, when set, is returned by every UpdateRunMetadata call.
	Err error

	mu   sync.Mutex
	runs map[string]map[string]any
	n    int
}

// NewTracker creates a tracker that reports the given activity.
func NewTracker(active bool) *Tracker {
	return &Tracker{active: active, runs: make(map[string]map[string]any)}
}

func (t *Tracker) IsActive() bool { return t.active }

func (t *Tracker) UpdateRunMetadata(ctx context.Context, run string, metadata map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n++
	if t.Err != nil {
		return t.Err
	}
	rec, ok := t.runs[run]
	if !ok {
		rec = make(map[string]any, len(metadata))
		t.runs[run] = rec
	}
	maps.Copy(rec, metadata)
	return nil
}

// Metadata returns a copy of the merged metadata of run.
func (t *Tracker) Metadata(run string) map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.runs[run])
}

// Calls returns how many times UpdateRunMetadata was invoked.
func (t *Tracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n
}
