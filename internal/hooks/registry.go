package hooks

import "github.com/go-playground/validator/v10"

var requiredValidator = validator.New()

// requiredKeys is the per-hook-type required-field table from spec.md
// §4.5: "session-end, subagent-start, subagent-stop, pre-compact,
// setup-init, setup-maintenance require [sessionId, directory];
// permission-request requires [sessionId, directory, toolName]; others
// require nothing beyond what the handler consumes."
var requiredKeys = map[Type][]string{
	TypeSessionEnd:        {"sessionId", "directory"},
	TypeSubagentStart:     {"sessionId", "directory"},
	TypeSubagentStop:      {"sessionId", "directory"},
	TypePreCompact:        {"sessionId", "directory"},
	TypeSetupInit:         {"sessionId", "directory"},
	TypeSetupMaintenance:  {"sessionId", "directory"},
	TypePermissionRequest: {"sessionId", "directory", "toolName"},
}

// recognizedTypes is the closed set from spec.md §4.5; anything else is
// "unknown" and returns {continue: true} without error.
var recognizedTypes = map[Type]bool{
	TypeKeywordDetector:   true,
	TypeStopContinuation:  true,
	TypeRalph:             true,
	TypePersistentMode:    true,
	TypeSessionStart:      true,
	TypeSessionEnd:        true,
	TypePreToolUse:        true,
	TypePostToolUse:       true,
	TypeAutopilot:         true,
	TypeSubagentStart:     true,
	TypeSubagentStop:      true,
	TypePreCompact:        true,
	TypeSetupInit:         true,
	TypeSetupMaintenance:  true,
	TypePermissionRequest: true,
}

// missingKeys returns the required keys for hookType absent from
// normalized, in declaration order.
func missingKeys(hookType Type, normalized map[string]any) []string {
	var missing []string
	for _, key := range requiredKeys[hookType] {
		v, ok := normalized[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		if requiredValidator.Var(v, "required") != nil {
			missing = append(missing, key)
		}
	}
	return missing
}
