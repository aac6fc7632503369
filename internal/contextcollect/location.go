package contextcollect

import (
	"encoding/json"

	"github.com/boshu2/omc/internal/worktree"
)

// StateLocator resolves per-session, per-mode scratch state files under
// .omc/state/sessions/<id>/<mode>-state.json, adapting the teacher's
// internal/ratchet.Locator (multi-location search with a priority order)
// down to the single-location shape this state actually has: there is
// exactly one place a session's mode state lives, so SearchOrder
// collapses to the one resolved path, but the Locate/Load/Save method
// split mirrors the teacher's Locator/FindFirst/ResolveArtifactPath
// split between "where is it" and "read it."
type StateLocator struct{}

// NewStateLocator constructs a StateLocator.
func NewStateLocator() *StateLocator {
	return &StateLocator{}
}

// Locate returns the `.omc/`-relative path for a session's mode state,
// validating both the session id and the mode name via
// worktree.SessionStatePath.
func (l *StateLocator) Locate(sessionID, mode string) (string, error) {
	return worktree.SessionStatePath(sessionID, mode)
}

// Load reads and unmarshals a session's mode state into out. A missing or
// unparsable file returns (false, nil), matching
// worktree.SafeReadJSON's "absence means defaults" contract.
func (l *StateLocator) Load(sessionID, mode string, out any) (bool, error) {
	rel, err := l.Locate(sessionID, mode)
	if err != nil {
		return false, err
	}
	return worktree.SafeReadJSON(rel, out)
}

// Save atomically persists a session's mode state.
func (l *StateLocator) Save(sessionID, mode string, v any) error {
	rel, err := l.Locate(sessionID, mode)
	if err != nil {
		return err
	}
	return worktree.WriteJSON(rel, v)
}

// Exists reports whether a session's mode state file has been written.
func (l *StateLocator) Exists(sessionID, mode string) (bool, error) {
	var raw json.RawMessage
	return l.Load(sessionID, mode, &raw)
}
