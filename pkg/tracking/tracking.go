// Package tracking defines the optional live experiment-tracking side channel.
//
// A side channel is independent of the durable artifact store: a run works
// without one, but when one is active its failures are reported like any
// other error.
package tracking

import "context"

// SideChannel receives run metadata while the run is live.
type SideChannel interface {
	// IsActive reports whether the channel is connected for this process.
	IsActive() bool
	// UpdateRunMetadata merges metadata into the run's record.
	UpdateRunMetadata(ctx context.Context, run string, metadata map[string]any) error
}
