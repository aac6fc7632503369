package worktree

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriteFile writes bytes to a temp file in the same directory as path,
// fsyncs it, renames it over path, then fsyncs the parent directory so the
// rename itself is durable. On any failure the temp file is removed and the
// error is returned; callers never observe a partially written file at
// path. Grounded on the teacher's storage.FileStorage.atomicWrite, extended
// with the parent-directory fsync spec.md §4.1 requires.
func AtomicWriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, 0o700); mkErr != nil {
		return fmt.Errorf("ensure parent dir: %w", mkErr)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}
	if dirErr := fsyncDir(dir); dirErr != nil {
		// Data is safely renamed; a failed directory fsync only risks the
		// rename itself surviving a crash on some filesystems. Surface it
		// but do not attempt to undo the rename.
		err = fmt.Errorf("fsync parent dir: %w", dirErr)
		success = true
		return err
	}

	success = true
	return nil
}

func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// SafeReadJSON reads and unmarshals a JSON file at a `.omc/`-relative path
// into out. Absent files and parse errors both return (false, nil) — per
// spec.md §4.1 this primitive never throws upward; callers treat a false
// "ok" as "use defaults".
func SafeReadJSON(rel string, out any) (ok bool, err error) {
	abs, err := ResolveOmcPath(rel)
	if err != nil {
		return false, err
	}
	data, readErr := os.ReadFile(abs)
	if readErr != nil {
		return false, nil
	}
	if jsonErr := json.Unmarshal(data, out); jsonErr != nil {
		return false, nil
	}
	return true, nil
}

// WriteJSON marshals v and atomically writes it to a `.omc/`-relative path.
func WriteJSON(rel string, v any) error {
	abs, err := ResolveOmcPath(rel)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return AtomicWriteFile(abs, data)
}
