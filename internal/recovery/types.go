// Package recovery turns a user-visible API rejection into either a
// repaired on-disk conversation that will succeed on retry, or a structured
// recovery message emitted to the host for the model to read.
//
// Text-source extraction from an opaque error value is grounded on the
// Design Note in spec.md §9 ("a small inspection utility ... do not
// pre-declare the universe of vendor error schemas") and mirrors the shape
// of the teacher's internal/parser, which extracts structured fields from
// heterogeneous transcript JSON without assuming a fixed schema.
//
// The on-disk conversation-parts model is grounded on the teacher's
// internal/provenance (one JSONL record per artifact relationship) and
// internal/types.TranscriptMessage (message/part shape read from disk).
package recovery

// Kind is the fixed, priority-ordered error taxonomy from spec.md §4.3.1.
type Kind string

const (
	KindContextWindowLimit       Kind = "context_window_limit"
	KindToolResultMissing        Kind = "tool_result_missing"
	KindThinkingBlockOrder       Kind = "thinking_block_order"
	KindThinkingDisabledViolation Kind = "thinking_disabled_violation"
	KindEmptyContent             Kind = "empty_content"
	KindEditError                Kind = "edit_error"
)

// PartType enumerates the fixed part type vocabulary from spec.md §3.
type PartType string

const (
	PartText             PartType = "text"
	PartThinking         PartType = "thinking"
	PartRedactedThinking PartType = "redacted_thinking"
	PartToolUse          PartType = "tool_use"
	PartToolResult       PartType = "tool_result"
	PartTool             PartType = "tool"
	PartStepStart        PartType = "step-start"
	PartStepFinish       PartType = "step-finish"
	PartFile             PartType = "file"
)

// Part is one constituent of a message, persisted inside its Message in
// the session's .omc/state/sessions/<id>/conversation.json.
type Part struct {
	ID        string   `json:"id"`
	Type      PartType `json:"type"`
	MessageID string   `json:"message_id"`
	SessionID string   `json:"session_id"`

	// Text carries the content for text/thinking parts.
	Text string `json:"text,omitempty"`

	// ToolUseID links a tool_result part back to its tool_use part.
	ToolUseID string `json:"tool_use_id,omitempty"`

	// ToolOutput carries the payload for tool_result/tool parts.
	ToolOutput string `json:"tool_output,omitempty"`
}

// TokenLimitInfo is the result of parsing a context-window error's token
// counts, per spec.md §4.3.1 concrete scenario 4.
type TokenLimitInfo struct {
	CurrentTokens int
	MaxTokens     int
	ErrorType     string
}

// Attempt is the result of a single recovery attempt, per spec.md §4.3.4.
type Attempt struct {
	Attempted bool
	Success   bool
	Message   string
	ErrorType Kind
}
