// Package hooks implements the host-facing hook dispatcher: accept a JSON
// payload from the host, normalize it, route it to exactly one handler, and
// return a JSON response of the fixed shape spec.md §4.5/§6 describe. Input
// validation walks a per-hook-type table of required keys and checks each
// value with github.com/go-playground/validator/v10's "required" rule; the
// HookInput struct itself carries no validate tags.
package hooks

// Type is the closed set of recognized hook type names from spec.md §4.5.
type Type string

const (
	TypeKeywordDetector    Type = "keyword-detector"
	TypeStopContinuation   Type = "stop-continuation"
	TypeRalph              Type = "ralph"
	TypePersistentMode     Type = "persistent-mode"
	TypeSessionStart       Type = "session-start"
	TypeSessionEnd         Type = "session-end"
	TypePreToolUse         Type = "pre-tool-use"
	TypePostToolUse        Type = "post-tool-use"
	TypeAutopilot          Type = "autopilot"
	TypeSubagentStart      Type = "subagent-start"
	TypeSubagentStop       Type = "subagent-stop"
	TypePreCompact         Type = "pre-compact"
	TypeSetupInit          Type = "setup-init"
	TypeSetupMaintenance   Type = "setup-maintenance"
	TypePermissionRequest  Type = "permission-request"
)

// HookInput is the canonical, camelCase, post-normalization shape every
// handler reads from. Fields absent from the incoming payload are left at
// their zero value; per-hook required-key validation decides whether that
// is acceptable.
type HookInput struct {
	SessionID  string         `json:"sessionId" validate:"omitempty"`
	Directory  string         `json:"directory" validate:"omitempty"`
	Prompt     string         `json:"prompt" validate:"omitempty"`
	ToolName   string         `json:"toolName" validate:"omitempty"`
	ToolInput  map[string]any `json:"toolInput" validate:"omitempty"`
	ToolOutput string         `json:"toolOutput" validate:"omitempty"`

	// Raw carries the full normalized payload, including hook-specific keys
	// beyond the fixed set above (e.g. ralph's iteration counters).
	Raw map[string]any `json:"-"`
}

// Response is the fixed output shape spec.md §6 defines for every hook
// invocation.
type Response struct {
	Continue       bool   `json:"continue"`
	Message        string `json:"message,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Stop           bool   `json:"stop,omitempty"`
	SuppressOutput bool   `json:"suppressOutput,omitempty"`
}

// continueResponse is the default, unconditional "do nothing" response
// used by kill-switches, unknown types, and malformed input.
func continueResponse() Response {
	return Response{Continue: true}
}
