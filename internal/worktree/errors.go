package worktree

import "errors"

// Sentinel errors for the worktree package. Matched with errors.Is so
// callers can distinguish a PathEscape from an ordinary I/O failure without
// string matching, the same convention the teacher's storage and pool
// packages use.
var (
	// ErrPathEscape is returned when a resolved path would leave the
	// worktree root.
	ErrPathEscape = errors.New("path escapes worktree root")

	// ErrNotGitRepo is returned when no version-control root can be found
	// by walking upward from the starting directory.
	ErrNotGitRepo = errors.New("not inside a git repository")

	// ErrInvalidSessionID is returned when a session id fails validation.
	ErrInvalidSessionID = errors.New("invalid session id")
)
