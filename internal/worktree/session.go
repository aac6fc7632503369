package worktree

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// sessionIDPattern matches safe session id characters. Mirrors the
// teacher's pool.validIDPattern, reused for a different namespace: no path
// separators, no "..", just [A-Za-z0-9_-].
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var (
	sessionOnce sync.Once
	sessionID   string
)

// ProcessSessionID returns the stable, lazily generated session id for this
// process, in the format pid-<pid>-<startTimestampMillis>, per spec.md §3.
func ProcessSessionID() string {
	sessionOnce.Do(func() {
		sessionID = fmt.Sprintf("pid-%d-%d", os.Getpid(), time.Now().UnixMilli())
	})
	return sessionID
}

// ResetProcessSessionIDForTest clears the memoized session id. Test-only
// gate, per spec.md §4.1.
func ResetProcessSessionIDForTest() {
	sessionOnce = sync.Once{}
	sessionID = ""
}

// ValidateSessionID rejects any session id containing characters outside
// [A-Za-z0-9_-] or containing ".." or a path separator, per spec.md §3 and
// §5 ("validateSessionId is called on any user-controlled component of a
// path before concatenation").
func ValidateSessionID(id string) error {
	if id == "" {
		return ErrInvalidSessionID
	}
	if strings.Contains(id, "..") {
		return ErrInvalidSessionID
	}
	if strings.ContainsAny(id, "/\\") {
		return ErrInvalidSessionID
	}
	if !sessionIDPattern.MatchString(id) {
		return ErrInvalidSessionID
	}
	return nil
}

// SessionStatePath returns the `.omc/`-relative path for a given session's
// mode-scoped state file, validating the session id first.
func SessionStatePath(sessionID, mode string) (string, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	if err := ValidateSessionID(mode); err != nil {
		return "", err
	}
	return fmt.Sprintf("state/sessions/%s/%s-state.json", sessionID, mode), nil
}
