package hooks

import (
	"time"

	"github.com/boshu2/omc/internal/compaction"
	"github.com/boshu2/omc/internal/obslog"
	"github.com/boshu2/omc/internal/recovery"
)

var hooksLog = obslog.New(obslog.Hooks, "OMC_DEBUG")

// Dispatcher routes a normalized hook payload to exactly one handler. Its
// subsystem fields are optional collaborators (nil-safe) so the hook
// dispatcher can be exercised standalone or wired to the rest of the core.
type Dispatcher struct {
	compaction *compaction.Engine
	recovery   *recovery.Ledger
	nowFn      func() time.Time
}

// NewDispatcher constructs a Dispatcher. Pass a nil compaction engine or
// recovery ledger to run hooks without that subsystem's wiring (e.g. in
// isolated tests).
func NewDispatcher(compactionEngine *compaction.Engine, recoveryLedger *recovery.Ledger) *Dispatcher {
	return &Dispatcher{compaction: compactionEngine, recovery: recoveryLedger, nowFn: time.Now}
}

func (d *Dispatcher) now() time.Time {
	if d.nowFn != nil {
		return d.nowFn()
	}
	return time.Now()
}

// Process is the single entry point described by spec.md §4.5: accept a
// JSON hook payload (already decoded into a map), normalize it, check
// kill-switches, validate required keys, dispatch to exactly one handler,
// and always return a well-formed Response. It never panics: any handler
// panic is recovered, logged, and converted into {continue: true}, per
// spec.md §4.5's "hooks must never crash the host."
func (d *Dispatcher) Process(hookType string, raw map[string]any) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			hooksLog.Debug().Interface("panic", r).Str("hookType", hookType).Msg("hook handler panicked")
			resp = continueResponse()
		}
	}()

	t := Type(hookType)

	if len(raw) == 0 {
		return continueResponse()
	}
	if killSwitched(t) {
		return continueResponse()
	}
	if !recognizedTypes[t] {
		hooksLog.Debug().Str("hookType", hookType).Msg("unrecognized hook type")
		return continueResponse()
	}

	normalized := normalizePayload(raw)
	if missing := missingKeys(t, normalized); len(missing) > 0 {
		hooksLog.Debug().Str("hookType", hookType).Strs("missing", missing).Msg("missing keys")
		return continueResponse()
	}

	input := toHookInput(normalized)

	switch t {
	case TypeKeywordDetector:
		return handleKeywordDetector(input)
	case TypePreToolUse:
		return d.handlePreToolUse(input)
	case TypePostToolUse:
		return d.handlePostToolUse(input)
	case TypeSessionStart:
		return handleSessionStart(input)
	case TypeSessionEnd:
		return d.handleSessionEnd(input)
	case TypeSubagentStart:
		return handleSubagentStart(input)
	case TypeStopContinuation:
		return d.handleStopContinuation(input)
	case TypePreCompact:
		return d.handlePreCompact(input)
	default:
		return handleDefault(input)
	}
}
