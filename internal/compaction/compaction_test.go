package compaction

import (
	"testing"
	"time"
)

func TestAccumulateWarningThenCritical(t *testing.T) {
	cfg := DefaultConfig
	cfg.ContextLimit = 1000
	cfg.DebounceMs = 0
	e := NewEngine(cfg)

	now := time.Now()
	n := e.Accumulate("s1", 860, now)
	if n.Level != LevelWarning {
		t.Fatalf("expected warning, got %+v", n)
	}

	now = now.Add(2 * time.Minute)
	n = e.Accumulate("s1", 100, now)
	if n.Level != LevelCritical {
		t.Fatalf("expected critical, got %+v", n)
	}
}

func TestAccumulateDebounceSuppressesAnalysis(t *testing.T) {
	cfg := DefaultConfig
	cfg.ContextLimit = 1000
	e := NewEngine(cfg)

	now := time.Now()
	n1 := e.Accumulate("s1", 900, now)
	if n1.Suppressed {
		t.Fatalf("first call should not be debounced: %+v", n1)
	}

	n2 := e.Accumulate("s1", 10, now.Add(100*time.Millisecond))
	if !n2.Suppressed || n2.SuppressWhy != "debounce" {
		t.Fatalf("expected debounce suppression, got %+v", n2)
	}
	if n2.Accumulated != 910 {
		t.Fatalf("expected accumulation to still happen during debounce, got %d", n2.Accumulated)
	}
}

func TestAccumulateCooldownSuppressesRepeatWarning(t *testing.T) {
	cfg := DefaultConfig
	cfg.ContextLimit = 1000
	cfg.DebounceMs = 0
	cfg.CooldownMs = time.Minute
	e := NewEngine(cfg)

	now := time.Now()
	n1 := e.Accumulate("s1", 900, now)
	if n1.Suppressed {
		t.Fatalf("expected first warning to fire: %+v", n1)
	}

	n2 := e.Accumulate("s1", 10, now.Add(10*time.Second))
	if !n2.Suppressed || n2.SuppressWhy != "cooldown" {
		t.Fatalf("expected cooldown suppression, got %+v", n2)
	}
}

func TestAccumulateMaxWarningsCaps(t *testing.T) {
	cfg := DefaultConfig
	cfg.ContextLimit = 1000
	cfg.DebounceMs = 0
	cfg.CooldownMs = 0
	cfg.MaxWarnings = 2
	e := NewEngine(cfg)

	now := time.Now()
	for i := 0; i < 2; i++ {
		n := e.Accumulate("s1", 900, now.Add(time.Duration(i)*time.Second))
		if n.Suppressed {
			t.Fatalf("expected warning %d to fire, got %+v", i, n)
		}
	}
	n := e.Accumulate("s1", 900, now.Add(5*time.Second))
	if !n.Suppressed || n.SuppressWhy != "max_warnings" {
		t.Fatalf("expected max_warnings suppression, got %+v", n)
	}
}

func TestOnStopResetsWarningCountNotAccumulator(t *testing.T) {
	cfg := DefaultConfig
	cfg.ContextLimit = 1000
	cfg.DebounceMs = 0
	cfg.CooldownMs = 0
	cfg.MaxWarnings = 1
	e := NewEngine(cfg)

	now := time.Now()
	e.Accumulate("s1", 900, now)
	e.OnStop("s1")

	n := e.Accumulate("s1", 10, now.Add(time.Second))
	if n.Suppressed {
		t.Fatalf("expected warning budget to be refreshed after stop, got %+v", n)
	}
	if n.Accumulated != 910 {
		t.Fatalf("expected accumulator preserved across stop, got %d", n.Accumulated)
	}
}

func TestPruneStaleRemovesOldSessions(t *testing.T) {
	cfg := DefaultConfig
	cfg.StaleAfter = time.Minute
	e := NewEngine(cfg)

	now := time.Now()
	e.Accumulate("old", 100, now)
	e.Accumulate("fresh", 100, now)

	removed := e.PruneStale(now.Add(2 * time.Minute))
	if removed != 2 {
		t.Fatalf("expected both pruned when touched long ago, got %d", removed)
	}
}

func TestIsAccountedTool(t *testing.T) {
	cases := map[string]bool{
		"Read":      true,
		"grep":      true,
		"Glob":      true,
		"Bash":      true,
		"WebFetch":  true,
		"Task":      true,
		"Edit":      false,
		"Write":     false,
	}
	for tool, want := range cases {
		if got := IsAccountedTool(tool); got != want {
			t.Errorf("IsAccountedTool(%q) = %v, want %v", tool, got, want)
		}
	}
}
