package hooks

import (
	"os"
	"strings"
	"sync"
)

// killSwitchOnce and skipSet cache the parsed OMC_SKIP_HOOKS set, per spec.md §4.5:
// "the parsed skip set is cached; a test-only reset exists."
var (
	killSwitchOnce sync.Once
	skipSet        map[string]bool
)

func parsedSkipSet() map[string]bool {
	killSwitchOnce.Do(func() {
		skipSet = make(map[string]bool)
		raw := os.Getenv("OMC_SKIP_HOOKS")
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				skipSet[name] = true
			}
		}
	})
	return skipSet
}

// ResetKillSwitchForTest clears the memoized OMC_SKIP_HOOKS set. Test-only
// gate, per spec.md §4.5.
func ResetKillSwitchForTest() {
	killSwitchOnce = sync.Once{}
	skipSet = nil
}

func disableOMC() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DISABLE_OMC"))) {
	case "1", "true":
		return true
	default:
		return false
	}
}

// killSwitched reports whether hookType is suppressed by either
// kill-switch, per spec.md §4.5: "DISABLE_OMC dominates OMC_SKIP_HOOKS."
func killSwitched(hookType Type) bool {
	if disableOMC() {
		return true
	}
	return parsedSkipSet()[string(hookType)]
}
