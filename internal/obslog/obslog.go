// Package obslog provides the structured logging convention shared by every
// OMC subsystem: a zerolog.Logger attached at construction time, gated
// verbosity controlled by environment variables, and an optional sink file
// for the debug logs spec.md names explicitly (context-window-recovery and
// session-recovery debug logs).
package obslog

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Component names used as the "component" field across subsystems.
const (
	Swarm      = "swarm"
	Recovery   = "recovery"
	Compaction = "compaction"
	Hooks      = "hooks"
	Routing    = "routing"
	Memory     = "memory"
	Worktree   = "worktree"
)

var (
	once     sync.Once
	baseOnce zerolog.Logger
)

// debugEnabled reports whether OMC_DEBUG (or an extra subsystem-specific
// variable name) is set to a truthy value. Mirrors spec.md §6/§7: diagnostic
// logs are gated on OMC_DEBUG so production does not accumulate noise.
func debugEnabled(extra ...string) bool {
	if truthy(os.Getenv("OMC_DEBUG")) {
		return true
	}
	for _, name := range extra {
		if truthy(os.Getenv(name)) {
			return true
		}
	}
	return false
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func base() zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		baseOnce = zerolog.New(io.Discard).With().Timestamp().Logger()
	})
	return baseOnce
}

// New returns a component-scoped logger. When debug is disabled the logger
// writes to io.Discard, so callers can log liberally without incurring I/O
// cost in the common case. extraDebugVars lists additional environment
// variables (besides OMC_DEBUG) that also enable this component's logging,
// e.g. PREEMPTIVE_COMPACTION_DEBUG for the compaction subsystem.
func New(component string, extraDebugVars ...string) zerolog.Logger {
	l := base().With().Str("component", component).Logger()
	if debugEnabled(extraDebugVars...) {
		l = l.Level(zerolog.DebugLevel)
		return l.Output(os.Stderr)
	}
	return l.Level(zerolog.Disabled)
}

// NewFileSink opens (creating if absent) a debug log file and returns a
// logger that writes JSON lines to it, for the fixed debug log paths
// spec.md §6 names. Returns a discarding logger if debug is not enabled for
// this component, and never returns an error — a failure to open the sink
// degrades to silence rather than propagating, per the "degrade silently"
// contract in spec.md §7.
func NewFileSink(component, path string, extraDebugVars ...string) zerolog.Logger {
	if !debugEnabled(extraDebugVars...) {
		return base().With().Str("component", component).Logger().Level(zerolog.Disabled)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return base().With().Str("component", component).Logger().Level(zerolog.Disabled)
	}
	return zerolog.New(f).With().Timestamp().Str("component", component).Logger()
}
