package worktree

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "pid-123-456", false},
		{"empty", "", true},
		{"traversal", "../etc/passwd", true},
		{"slash", "foo/bar", true},
		{"backslash", "foo\\bar", true},
		{"bad chars", "foo bar!", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSessionID(%q) err=%v, wantErr=%v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestProcessSessionIDStable(t *testing.T) {
	ResetProcessSessionIDForTest()
	defer ResetProcessSessionIDForTest()

	a := ProcessSessionID()
	b := ProcessSessionID()
	if a != b {
		t.Fatalf("ProcessSessionID not memoized: %q != %q", a, b)
	}
	if err := ValidateSessionID(a); err != nil {
		t.Fatalf("generated session id fails validation: %v", err)
	}
}

func TestAtomicWriteFileNoPartialContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.json")

	if err := AtomicWriteFile(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("AtomicWriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("unexpected content: %s", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" || e.Name()[0] == '.' && e.Name() != filepath.Base(path) {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}

func TestResolveOmcPathRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	oldWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(oldWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	ResetProcessRootForTest()
	defer ResetProcessRootForTest()

	if _, err := ResolveOmcPath("../../etc/passwd"); err == nil {
		t.Fatal("expected ErrPathEscape for traversal path")
	}

	abs, err := ResolveOmcPath("state/swarm.db")
	if err != nil {
		t.Fatalf("ResolveOmcPath: %v", err)
	}
	if filepath.Dir(filepath.Dir(abs)) != filepath.Join(dir, OmcDirName) {
		t.Fatalf("unexpected resolved path: %s", abs)
	}
}
