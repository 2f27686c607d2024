package tracking

import (
	"context"
	"maps"
	"regexp"
)

// Mask replaces redacted values.
const Mask = "***"

// SecretPatterns match the flattened keys of credentials that must not
// leave the process through a tracker.
var SecretPatterns = []string{
	`(^|\.)password$`,
	`(^|\.)(api_)?token$`,
	`(^|\.)secret(_key)?$`,
}

type redacted struct {
	next     SideChannel
	patterns []*regexp.Regexp
}

// Redact wraps next so that metadata values whose key matches one of the
// patterns are replaced by Mask. The caller's map is not modified.
func Redact(next SideChannel, patterns ...string) SideChannel {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return &redacted{next: next, patterns: compiled}
}

func (r *redacted) IsActive() bool { return r.next.IsActive() }

func (r *redacted) UpdateRunMetadata(ctx context.Context, run string, metadata map[string]any) error {
	masked := maps.Clone(metadata)
	for k := range masked {
		for _, p := range r.patterns {
			if p.MatchString(k) {
				masked[k] = Mask
				break
			}
		}
	}
	return r.next.UpdateRunMetadata(ctx, run, masked)
}

// Unwrap returns the wrapped side channel.
func (r *redacted) Unwrap() SideChannel { return r.next }
