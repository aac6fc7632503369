package contextcollect

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boshu2/omc/internal/worktree"
)

// AcquireMode creates a mutual-exclusion marker file for the named mode
// under .omc/state/, generalizing internal/swarm's acquireModeMarker (the
// first and, until now, only caller of this primitive) to any mode name a
// subsystem picks, per SPEC_FULL.md §4.8. Returns (false, nil) if another
// session already holds the mode.
func AcquireMode(mode string) (bool, error) {
	rel := fmt.Sprintf("state/.mode-%s.lock", mode)
	abs, err := worktree.ResolveOmcPath(rel)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return false, err
	}
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	_, _ = fmt.Fprintf(f, "%d", time.Now().UnixMilli())
	return true, nil
}

// ReleaseMode removes the mode marker file, if present.
func ReleaseMode(mode string) error {
	rel := fmt.Sprintf("state/.mode-%s.lock", mode)
	abs, err := worktree.ResolveOmcPath(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ModeHeld reports whether mode currently has a live marker, without
// attempting to acquire it.
func ModeHeld(mode string) (bool, error) {
	rel := fmt.Sprintf("state/.mode-%s.lock", mode)
	abs, err := worktree.ResolveOmcPath(rel)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
