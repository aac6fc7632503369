package worktree

import (
	"os"
	"path/filepath"
	"strings"
)

// relWithin returns the cleaned absolute form of path (a relative path is
// taken relative to root) if and only if it stays within root, and
// ErrPathEscape otherwise. Used both for user-supplied working
// directories (ValidateWorkingDirectory) and for every `.omc/`-relative
// request (ResolveOmcPath).
func relWithin(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	var absPath string
	if filepath.IsAbs(path) {
		absPath = filepath.Clean(path)
	} else {
		absPath = filepath.Join(absRoot, path)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", ErrPathEscape
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", ErrPathEscape
	}
	return absPath, nil
}

// ResolveOmcPath returns the absolute path for a `.omc/`-relative request,
// failing with ErrPathEscape when the normalized path would leave the
// worktree, per spec.md §4.1.
func ResolveOmcPath(rel string) (string, error) {
	root, err := ProcessRoot()
	if err != nil {
		return "", err
	}
	omcRoot := filepath.Join(root, OmcDirName)
	joined := filepath.Join(omcRoot, rel)
	abs, err := relWithin(omcRoot, joined)
	if err != nil {
		return "", ErrPathEscape
	}
	return abs, nil
}

// EnsureOmcDir creates the parent directories for a `.omc/`-relative path
// with default permissions. Idempotent.
func EnsureOmcDir(rel string) (string, error) {
	abs, err := ResolveOmcPath(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", err
	}
	return abs, nil
}

// EnsureLayout creates the full fixed .omc/ directory layout. Safe to call
// repeatedly.
func EnsureLayout() error {
	for _, dir := range Layout {
		if _, err := EnsureOmcDir(dir); err != nil {
			return err
		}
	}
	return nil
}
