package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/boshu2/omc/internal/worktree"
)

func chdirTempRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWd)
		worktree.ResetProcessRootForTest()
	})
	worktree.ResetProcessRootForTest()
	return dir
}

func TestDetectTechStackGoModule(t *testing.T) {
	dir := chdirTempRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stack := DetectTechStack(dir)
	if len(stack) != 1 || stack[0] != "go" {
		t.Fatalf("expected [go], got %v", stack)
	}
}

func TestDetectCommandsFromPackageJSON(t *testing.T) {
	dir := chdirTempRepo(t)
	pkg := `{"scripts": {"build": "tsc", "test": "jest", "lint": "eslint ."}}`
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(pkg), 0o644); err != nil {
		t.Fatal(err)
	}
	cmds := DetectCommands(dir)
	if cmds.Build != "tsc" || cmds.Test != "jest" || cmds.Lint != "eslint ." {
		t.Fatalf("unexpected commands: %+v", cmds)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := chdirTempRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p.AddUserDirective("always run tests before committing")
	p.RecordHotPath("internal/memory/memory.go")

	if err := Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.UserDirectives.Items) != 1 {
		t.Fatalf("expected 1 user directive, got %v", reloaded.UserDirectives.Items)
	}
	if reloaded.HotPaths.Capacity != hotPathsCapacity {
		t.Fatalf("expected capacity restored to %d, got %d", hotPathsCapacity, reloaded.HotPaths.Capacity)
	}
}

func TestRingBufferEvictsOldest(t *testing.T) {
	r := NewRingBuffer(2)
	r.Push("a")
	r.Push("b")
	r.Push("c")
	if len(r.Items) != 2 || r.Items[0] != "b" || r.Items[1] != "c" {
		t.Fatalf("expected [b c], got %v", r.Items)
	}
}

func TestSummaryIncludesDetectedStack(t *testing.T) {
	p := New()
	p.TechStack = []string{"go"}
	p.Commands.Build = "go build ./..."
	summary := p.Summary()
	if summary == "" {
		t.Fatal("expected a non-empty summary")
	}
}
