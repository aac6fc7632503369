package contextcollect

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/boshu2/omc/internal/worktree"
)

// chdirTempRepo roots ProcessRoot() at a fresh temp directory for the
// duration of the test, matching the teacher's pattern of t.TempDir()-rooted
// filesystem fixtures (internal/swarm/coordinator_test.go).
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

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	comp := NewComponentFunc("git-status", func() (string, error) { return "clean", nil })
	if err := r.Register(comp); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(comp); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestCollectJoinsInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(NewComponentFunc("a", func() (string, error) { return "first", nil }))
	_ = r.Register(NewComponentFunc("b", func() (string, error) { return "second", nil }))

	text, sections := NewCollector(r).Collect()
	if text != "first\n\nsecond" {
		t.Fatalf("unexpected combined text: %q", text)
	}
	if len(sections) != 2 || sections[0].Name != "a" || sections[1].Name != "b" {
		t.Fatalf("unexpected sections: %+v", sections)
	}
}

func TestCollectSkipsEmptyAndErroredComponents(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	_ = r.Register(NewComponentFunc("empty", func() (string, error) { return "  ", nil }))
	_ = r.Register(NewComponentFunc("erroring", func() (string, error) { return "", boom }))
	_ = r.Register(NewComponentFunc("good", func() (string, error) { return "hello", nil }))

	text, sections := NewCollector(r).Collect()
	if text != "hello" {
		t.Fatalf("expected only the good component's text, got %q", text)
	}
	if len(sections) != 3 {
		t.Fatalf("expected all components reported, got %d", len(sections))
	}
	if !errors.Is(sections[1].Err, boom) {
		t.Fatalf("expected erroring section to carry its error, got %v", sections[1].Err)
	}
}

func TestAcquireModeIsExclusive(t *testing.T) {
	chdirTempRepo(t)

	ok, err := AcquireMode("setup")
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got ok=%v err=%v", ok, err)
	}

	held, err := ModeHeld("setup")
	if err != nil || !held {
		t.Fatalf("expected mode to be held, got held=%v err=%v", held, err)
	}

	ok, err = AcquireMode("setup")
	if err != nil || ok {
		t.Fatalf("expected second acquire to fail, got ok=%v err=%v", ok, err)
	}

	if err := ReleaseMode("setup"); err != nil {
		t.Fatalf("release: %v", err)
	}

	held, err = ModeHeld("setup")
	if err != nil || held {
		t.Fatalf("expected mode to be released, got held=%v err=%v", held, err)
	}

	ok, err = AcquireMode("setup")
	if err != nil || !ok {
		t.Fatalf("expected re-acquire after release to succeed, got ok=%v err=%v", ok, err)
	}
}

func TestReleaseModeNotHeldIsNoop(t *testing.T) {
	chdirTempRepo(t)
	if err := ReleaseMode("never-acquired"); err != nil {
		t.Fatalf("expected releasing an unheld mode to be a no-op, got %v", err)
	}
}

func TestStateLocatorRoundTrip(t *testing.T) {
	chdirTempRepo(t)
	loc := NewStateLocator()

	type fixture struct {
		Step int `json:"step"`
	}

	exists, err := loc.Exists("sess-1", "setup")
	if err != nil {
		t.Fatalf("exists before save: %v", err)
	}
	if exists {
		t.Fatal("expected no state before a save")
	}

	if err := loc.Save("sess-1", "setup", &fixture{Step: 3}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out fixture
	ok, err := loc.Load("sess-1", "setup", &out)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok || out.Step != 3 {
		t.Fatalf("expected step 3, got ok=%v out=%+v", ok, out)
	}
}

func TestStateLocatorRejectsInvalidSessionID(t *testing.T) {
	chdirTempRepo(t)
	loc := NewStateLocator()
	if _, err := loc.Locate("../escape", "setup"); err == nil {
		t.Fatal("expected path-escaping session id to be rejected")
	}
}
