package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jayhusemi/mosaicml-mcontrib/pkg/dist"
)

// New creates a configured application logger.
// It writes to Stderr (to keep Stdout for the config banner and help).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithRank tags every record with the worker's ranks and process id, so
// interleaved output from several workers can be told apart.
func WithRank(logger *slog.Logger, id dist.Identity) *slog.Logger {
	return logger.With(
		slog.Int("rank", id.GlobalRank),
		slog.Int("local_rank", id.LocalRank),
		slog.Int("pid", os.Getpid()),
	)
}

// ParseLevel parses a slog level name such as "debug" or "warn+2", with
// "warning" accepted as an alias of "warn". Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return slog.LevelInfo, nil
	case strings.EqualFold(s, "warning"):
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q: %w", s, err)
	}
	return level, nil
}
