// Package compaction implements preemptive context-window compaction
// warnings: it warns before, not after, the host exceeds the model's
// context window. Generalizes the teacher's internal/context
// (BudgetTracker, per-session JSON persistence, 4-chars-per-token
// estimation) from a single-session tracker into the per-session
// warning/critical/debounce/cooldown engine spec.md §4.4 describes.
package compaction

import (
	"sync"
	"time"
)

// CharsPerToken is the teacher's internal/context.EstimateTokens
// convention, carried forward unchanged.
const CharsPerToken = 4

// Config holds the tunable thresholds from spec.md §4.4, all given
// explicit defaults matching the spec's defaults.
type Config struct {
	ContextLimit      int
	WarningThreshold  float64
	CriticalThreshold float64
	CooldownMs        time.Duration
	DebounceMs        time.Duration
	MaxWarnings       int
	StaleAfter        time.Duration
}

// DefaultConfig matches the defaults named in spec.md §4.4 and §5.
var DefaultConfig = Config{
	ContextLimit:      200_000,
	WarningThreshold:  0.85,
	CriticalThreshold: 0.95,
	CooldownMs:        60 * time.Second,
	DebounceMs:        500 * time.Millisecond,
	MaxWarnings:       3,
	StaleAfter:        30 * time.Minute,
}

// Level is the severity of a compaction notice.
type Level string

const (
	LevelNone     Level = ""
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Notice is the result of one Accumulate call.
type Notice struct {
	Level        Level
	UsageRatio   float64
	Accumulated  int
	Message      string
	Suppressed   bool
	SuppressWhy  string
}

type sessionState struct {
	accumulatedTokens int
	lastAnalysis      time.Time
	lastWarningTime   time.Time
	warningCount      int
	lastTouched       time.Time
}

// Engine is the long-lived, mutex-guarded per-session compaction tracker.
// Per spec.md §9's "global mutable state" design note, state lives on this
// object (never a module-scope map) so a background pruner can hold a
// reference and stop cleanly when the engine does.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	sessions map[string]*sessionState
}

// NewEngine constructs an Engine with the given config. Pass DefaultConfig
// for spec.md's defaults.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, sessions: make(map[string]*sessionState)}
}

func (e *Engine) stateLocked(sessionID string, now time.Time) *sessionState {
	s, ok := e.sessions[sessionID]
	if !ok {
		s = &sessionState{}
		e.sessions[sessionID] = s
	}
	s.lastTouched = now
	return s
}

// EstimateTokens estimates a token count from raw output text, using the
// teacher's fixed 4-chars-per-token convention.
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// Accumulate records tool output tokens for a session and returns the
// notice (if any) to surface to the host, per the algorithm in spec.md
// §4.4. now is passed explicitly so callers (and tests) control time.
func (e *Engine) Accumulate(sessionID string, tokens int, now time.Time) Notice {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.stateLocked(sessionID, now)
	s.accumulatedTokens += tokens

	if !s.lastAnalysis.IsZero() && now.Sub(s.lastAnalysis) < e.cfg.DebounceMs {
		return Notice{Accumulated: s.accumulatedTokens, Suppressed: true, SuppressWhy: "debounce"}
	}
	s.lastAnalysis = now

	ratio := float64(s.accumulatedTokens) / float64(e.cfg.ContextLimit)

	var level Level
	switch {
	case ratio >= e.cfg.CriticalThreshold:
		level = LevelCritical
	case ratio >= e.cfg.WarningThreshold:
		level = LevelWarning
	default:
		return Notice{Accumulated: s.accumulatedTokens, UsageRatio: ratio}
	}

	if !s.lastWarningTime.IsZero() && now.Sub(s.lastWarningTime) < e.cfg.CooldownMs {
		return Notice{Accumulated: s.accumulatedTokens, UsageRatio: ratio, Level: level, Suppressed: true, SuppressWhy: "cooldown"}
	}
	if s.warningCount >= e.cfg.MaxWarnings {
		return Notice{Accumulated: s.accumulatedTokens, UsageRatio: ratio, Level: level, Suppressed: true, SuppressWhy: "max_warnings"}
	}

	s.lastWarningTime = now
	s.warningCount++

	return Notice{
		Accumulated: s.accumulatedTokens,
		UsageRatio:  ratio,
		Level:       level,
		Message:     noticeMessage(level, ratio),
	}
}

func noticeMessage(level Level, ratio float64) string {
	switch level {
	case LevelCritical:
		return "Context usage is critical; summarize or end the session soon."
	case LevelWarning:
		return "Context usage is high; consider summarizing the conversation."
	default:
		return ""
	}
}

// OnStop implements spec.md §4.4 step 5: on a host stop event, reset
// warningCount and clear the debounce entry, but never reset the
// accumulator (the next turn may continue the same logical conversation).
func (e *Engine) OnStop(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return
	}
	s.warningCount = 0
	s.lastAnalysis = time.Time{}
}

// PruneStale removes session entries whose last warning fired longer ago
// than cfg.StaleAfter (a session that never warned is judged by its last
// update instead), per spec.md §4.4's "stale session entries pruned by
// a 5-minute timer." Returns the count removed.
func (e *Engine) PruneStale(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	removed := 0
	for id, s := range e.sessions {
		reference := s.lastWarningTime
		if reference.IsZero() {
			reference = s.lastTouched
		}
		if now.Sub(reference) > e.cfg.StaleAfter {
			delete(e.sessions, id)
			removed++
		}
	}
	return removed
}

// Reset clears all session state. Test-only gate.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions = make(map[string]*sessionState)
}
