package recovery

import (
	"sync"
	"time"
)

// RetryConfig mirrors spec.md §4.3.3's RETRY_CONFIG.
type RetryConfig struct {
	MaxAttempts int
}

// TruncateConfig mirrors spec.md §4.3.3's TRUNCATE_CONFIG.
type TruncateConfig struct {
	MaxTruncateAttempts int
	MinOutputSize       int
	TargetRatio         float64
}

var (
	// DefaultRetryConfig is RETRY_CONFIG from spec.md §4.3.3.
	DefaultRetryConfig = RetryConfig{MaxAttempts: 2}

	// DefaultTruncateConfig is TRUNCATE_CONFIG from spec.md §4.3.3.
	DefaultTruncateConfig = TruncateConfig{
		MaxTruncateAttempts: 20,
		MinOutputSize:       500,
		TargetRatio:         0.5,
	}
)

const ledgerTTL = 5 * time.Minute

type ledgerKey struct {
	sessionID string
	kind      Kind
}

type ledgerEntry struct {
	attempts   int
	lastAccess time.Time
}

// Ledger is the long-lived, mutex-guarded per-session retry counter set
// spec.md §9's "global mutable state" design note calls for: carried as
// fields on a long-lived object rather than a module-scope map, safe for
// concurrent recoveries across sessions per spec.md §5.
type Ledger struct {
	mu             sync.Mutex
	retryConfig    RetryConfig
	truncateConfig TruncateConfig
	attempts       map[ledgerKey]*ledgerEntry
	truncates      map[string]*ledgerEntry
}

// NewLedger constructs a Ledger with the default retry/truncate budgets.
func NewLedger() *Ledger {
	return &Ledger{
		retryConfig:    DefaultRetryConfig,
		truncateConfig: DefaultTruncateConfig,
		attempts:       make(map[ledgerKey]*ledgerEntry),
		truncates:      make(map[string]*ledgerEntry),
	}
}

func (l *Ledger) evictExpiredLocked(now time.Time) {
	for k, e := range l.attempts {
		if now.Sub(e.lastAccess) > ledgerTTL {
			delete(l.attempts, k)
		}
	}
	for k, e := range l.truncates {
		if now.Sub(e.lastAccess) > ledgerTTL {
			delete(l.truncates, k)
		}
	}
}

// Attempt records one recovery attempt for (sessionID, kind) and reports
// whether the attempt is permitted, per spec.md §4.3.3's global maximum of
// maxAttempts per error category. Call only when an attempt is actually
// about to be made; exceeding the budget returns ErrExhausted and does not
// increment further.
func (l *Ledger) Attempt(sessionID string, kind Kind, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictExpiredLocked(now)

	key := ledgerKey{sessionID: sessionID, kind: kind}
	e, ok := l.attempts[key]
	if !ok {
		e = &ledgerEntry{}
		l.attempts[key] = e
	}
	if e.attempts >= l.retryConfig.MaxAttempts {
		e.lastAccess = now
		return ErrExhausted
	}
	e.attempts++
	e.lastAccess = now
	return nil
}

// AttemptTruncate records one truncation-based recovery attempt for a
// session, independent of the per-kind ledger, capped at
// TruncateConfig.MaxTruncateAttempts.
func (l *Ledger) AttemptTruncate(sessionID string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictExpiredLocked(now)

	e, ok := l.truncates[sessionID]
	if !ok {
		e = &ledgerEntry{}
		l.truncates[sessionID] = e
	}
	if e.attempts >= l.truncateConfig.MaxTruncateAttempts {
		e.lastAccess = now
		return ErrExhausted
	}
	e.attempts++
	e.lastAccess = now
	return nil
}

// TruncateTarget computes the target output size for a truncation attempt,
// never going below MinOutputSize, per spec.md §4.3.3.
func (l *Ledger) TruncateTarget(currentSize int) int {
	target := int(float64(currentSize) * l.truncateConfig.TargetRatio)
	if target < l.truncateConfig.MinOutputSize {
		target = l.truncateConfig.MinOutputSize
	}
	return target
}

// Reset clears all recorded attempts for a session, across every kind and
// the truncate counter. Test-only gate per spec.md §9.
func (l *Ledger) Reset(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k := range l.attempts {
		if k.sessionID == sessionID {
			delete(l.attempts, k)
		}
	}
	delete(l.truncates, sessionID)
}
