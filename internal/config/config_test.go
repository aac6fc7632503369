package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Output != "table" {
		t.Errorf("Default Output = %q, want %q", cfg.Output, "table")
	}
	if cfg.Compaction.ContextLimit <= 0 {
		t.Errorf("Default Compaction.ContextLimit = %d, want > 0", cfg.Compaction.ContextLimit)
	}
	if cfg.Swarm.LeaseTimeoutMinutes <= 0 {
		t.Errorf("Default Swarm.LeaseTimeoutMinutes = %d, want > 0", cfg.Swarm.LeaseTimeoutMinutes)
	}
}

func TestMerge(t *testing.T) {
	dst := Default()
	src := &Config{
		Output: "json",
		Swarm:  SwarmConfig{LeaseTimeoutMinutes: 45},
	}

	result := merge(dst, src)

	if result.Output != "json" {
		t.Errorf("merge Output = %q, want %q", result.Output, "json")
	}
	if result.Swarm.LeaseTimeoutMinutes != 45 {
		t.Errorf("merge Swarm.LeaseTimeoutMinutes = %d, want 45", result.Swarm.LeaseTimeoutMinutes)
	}
}

func TestMerge_PreservesDefaultsWhenZero(t *testing.T) {
	dst := Default()
	wantContextLimit := dst.Compaction.ContextLimit

	src := &Config{Output: "json"}
	result := merge(dst, src)

	if result.Compaction.ContextLimit != wantContextLimit {
		t.Errorf("merge preserved ContextLimit = %d, want %d", result.Compaction.ContextLimit, wantContextLimit)
	}
}

func TestMerge_CompactionOverrides(t *testing.T) {
	dst := Default()
	src := &Config{
		Compaction: CompactionConfig{
			ContextLimit:      50000,
			WarningThreshold:  0.6,
			CriticalThreshold: 0.85,
			MaxWarnings:       3,
			StaleAfterMinutes: 20,
		},
	}

	result := merge(dst, src)

	if result.Compaction.ContextLimit != 50000 {
		t.Errorf("merge Compaction.ContextLimit = %d, want 50000", result.Compaction.ContextLimit)
	}
	if result.Compaction.WarningThreshold != 0.6 {
		t.Errorf("merge Compaction.WarningThreshold = %v, want 0.6", result.Compaction.WarningThreshold)
	}
	if result.Compaction.CriticalThreshold != 0.85 {
		t.Errorf("merge Compaction.CriticalThreshold = %v, want 0.85", result.Compaction.CriticalThreshold)
	}
	if result.Compaction.MaxWarnings != 3 {
		t.Errorf("merge Compaction.MaxWarnings = %d, want 3", result.Compaction.MaxWarnings)
	}
	if result.Compaction.StaleAfterMinutes != 20 {
		t.Errorf("merge Compaction.StaleAfterMinutes = %d, want 20", result.Compaction.StaleAfterMinutes)
	}
}

func TestApplyEnv(t *testing.T) {
	for _, key := range []string{"OMC_OUTPUT", "OMC_CONTEXT_LIMIT", "OMC_WARNING_THRESHOLD", "OMC_CRITICAL_THRESHOLD", "OMC_SWARM_LEASE_MINUTES"} {
		t.Setenv(key, "")
	}
	t.Setenv("OMC_OUTPUT", "json")
	t.Setenv("OMC_CONTEXT_LIMIT", "8000")
	t.Setenv("OMC_WARNING_THRESHOLD", "0.7")
	t.Setenv("OMC_SWARM_LEASE_MINUTES", "30")

	cfg := applyEnv(Default())

	if cfg.Output != "json" {
		t.Errorf("applyEnv Output = %q, want %q", cfg.Output, "json")
	}
	if cfg.Compaction.ContextLimit != 8000 {
		t.Errorf("applyEnv Compaction.ContextLimit = %d, want 8000", cfg.Compaction.ContextLimit)
	}
	if cfg.Compaction.WarningThreshold != 0.7 {
		t.Errorf("applyEnv Compaction.WarningThreshold = %v, want 0.7", cfg.Compaction.WarningThreshold)
	}
	if cfg.Swarm.LeaseTimeoutMinutes != 30 {
		t.Errorf("applyEnv Swarm.LeaseTimeoutMinutes = %d, want 30", cfg.Swarm.LeaseTimeoutMinutes)
	}
}

func TestApplyEnv_IgnoresUnparseable(t *testing.T) {
	for _, key := range []string{"OMC_OUTPUT", "OMC_CONTEXT_LIMIT", "OMC_WARNING_THRESHOLD", "OMC_CRITICAL_THRESHOLD", "OMC_SWARM_LEASE_MINUTES"} {
		t.Setenv(key, "")
	}
	t.Setenv("OMC_CONTEXT_LIMIT", "not-a-number")

	want := Default().Compaction.ContextLimit
	cfg := applyEnv(Default())

	if cfg.Compaction.ContextLimit != want {
		t.Errorf("applyEnv with garbage OMC_CONTEXT_LIMIT = %d, want unchanged default %d", cfg.Compaction.ContextLimit, want)
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
output: json
compaction:
  context_limit: 12000
  warning_threshold: 0.65
swarm:
  lease_timeout_minutes: 25
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromPath(configPath)
	if err != nil {
		t.Fatalf("loadFromPath() error = %v", err)
	}

	if cfg.Output != "json" {
		t.Errorf("loadFromPath Output = %q, want %q", cfg.Output, "json")
	}
	if cfg.Compaction.ContextLimit != 12000 {
		t.Errorf("loadFromPath Compaction.ContextLimit = %d, want 12000", cfg.Compaction.ContextLimit)
	}
	if cfg.Swarm.LeaseTimeoutMinutes != 25 {
		t.Errorf("loadFromPath Swarm.LeaseTimeoutMinutes = %d, want 25", cfg.Swarm.LeaseTimeoutMinutes)
	}
}

func TestLoadFromPath_NotExists(t *testing.T) {
	cfg, err := loadFromPath("/nonexistent/config.yaml")
	if cfg != nil {
		t.Errorf("loadFromPath for nonexistent file should return nil config")
	}
	if err == nil {
		t.Errorf("loadFromPath for nonexistent file should return error")
	}
}

func TestLoadFromPath_Empty(t *testing.T) {
	cfg, err := loadFromPath("")
	if cfg != nil || err != nil {
		t.Errorf("loadFromPath(\"\") = %v, %v; want nil, nil", cfg, err)
	}
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("{{{invalid yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromPath(configPath)
	if err == nil {
		t.Error("loadFromPath for invalid YAML should return error")
	}
	if cfg != nil {
		t.Error("loadFromPath for invalid YAML should return nil config")
	}
}

func TestProjectConfigPath_UsesOMCConfigEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.yaml")
	t.Setenv("OMC_CONFIG", configPath)

	got := projectConfigPath()
	if got != configPath {
		t.Fatalf("projectConfigPath() = %q, want %q", got, configPath)
	}
}

func TestProjectConfigPath_DefaultFromCwd(t *testing.T) {
	t.Setenv("OMC_CONFIG", "")
	got := projectConfigPath()
	cwd, _ := os.Getwd()
	expected := filepath.Join(cwd, ".omc", "config.yaml")
	if got != expected {
		t.Errorf("projectConfigPath() = %q, want %q", got, expected)
	}
}

func TestLoad_EnvOverridesProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := `
output: yaml
compaction:
  context_limit: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OMC_CONFIG", configPath)
	t.Setenv("OMC_OUTPUT", "csv")
	t.Setenv("OMC_CONTEXT_LIMIT", "")
	t.Setenv("OMC_WARNING_THRESHOLD", "")
	t.Setenv("OMC_CRITICAL_THRESHOLD", "")
	t.Setenv("OMC_SWARM_LEASE_MINUTES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Output != "csv" {
		t.Errorf("Load() Output = %q, want %q (env should beat project config)", cfg.Output, "csv")
	}
	if cfg.Compaction.ContextLimit != 9000 {
		t.Errorf("Load() Compaction.ContextLimit = %d, want 9000 (from project config)", cfg.Compaction.ContextLimit)
	}
}

func TestLoad_DefaultsWhenNoProjectConfig(t *testing.T) {
	t.Setenv("OMC_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	for _, key := range []string{"OMC_OUTPUT", "OMC_CONTEXT_LIMIT", "OMC_WARNING_THRESHOLD", "OMC_CRITICAL_THRESHOLD", "OMC_SWARM_LEASE_MINUTES"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if cfg.Output != want.Output {
		t.Errorf("Load() Output = %q, want default %q", cfg.Output, want.Output)
	}
	if cfg.Compaction.ContextLimit != want.Compaction.ContextLimit {
		t.Errorf("Load() Compaction.ContextLimit = %d, want default %d", cfg.Compaction.ContextLimit, want.Compaction.ContextLimit)
	}
}

func TestCompactionEngineConfigRoundTrips(t *testing.T) {
	cfg := &Config{
		Compaction: CompactionConfig{
			ContextLimit:         10000,
			WarningThreshold:     0.5,
			CriticalThreshold:    0.9,
			CooldownSeconds:      120,
			DebounceMilliseconds: 500,
			MaxWarnings:          4,
			StaleAfterMinutes:    15,
		},
	}

	engineCfg := cfg.CompactionEngineConfig()

	if engineCfg.ContextLimit != 10000 {
		t.Errorf("CompactionEngineConfig ContextLimit = %d, want 10000", engineCfg.ContextLimit)
	}
	if engineCfg.CooldownMs != 120*time.Second {
		t.Errorf("CompactionEngineConfig CooldownMs = %v, want %v", engineCfg.CooldownMs, 120*time.Second)
	}
	if engineCfg.DebounceMs != 500*time.Millisecond {
		t.Errorf("CompactionEngineConfig DebounceMs = %v, want %v", engineCfg.DebounceMs, 500*time.Millisecond)
	}
	if engineCfg.StaleAfter != 15*time.Minute {
		t.Errorf("CompactionEngineConfig StaleAfter = %v, want %v", engineCfg.StaleAfter, 15*time.Minute)
	}
}
