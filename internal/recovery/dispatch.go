package recovery

import (
	"os"
	"path/filepath"
	"time"

	"github.com/boshu2/omc/internal/obslog"
	"github.com/boshu2/omc/internal/provenance"
)

// provenancePath is the fixed JSONL lineage file every successful conversation
// repair is appended to, mirroring contextWindowDebugLog/sessionDebugLog's
// OS-temp-dir convention.
var provenancePath = filepath.Join(os.TempDir(), "recovery-provenance.jsonl")

func recordProvenance(sessionID string, kind Kind, artifactPath string) {
	rec := provenance.Record{
		ID:           sessionID + ":" + string(kind) + ":" + time.Now().UTC().Format(time.RFC3339Nano),
		ArtifactPath: artifactPath,
		ArtifactType: string(kind),
		SourcePath:   sessionID,
		SourceType:   "recovery-attempt",
		SessionID:    sessionID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := provenance.Append(provenancePath, rec); err != nil {
		sessionDebugLog.Debug().Str("session", sessionID).Str("kind", string(kind)).Err(err).Msg("provenance append failed")
	}
}

// Input is the unified input to HandleRecovery: an opaque error value plus
// enough context to locate the conversation artifacts a repair mutates.
type Input struct {
	SessionID string

	// ErrorValue is the opaque error value probed by ExtractTextSources.
	ErrorValue any

	// FromToolOutput marks errors surfaced from a tool invocation result;
	// only such errors are eligible for EditError classification, per
	// spec.md §4.3.1 item 6.
	FromToolOutput bool

	// MessageIndex is the index extracted from an error's "messages.<n>"
	// reference, or -1 when none was found.
	MessageIndex int

	// FailedMessageID is the id of the message the host reported as
	// rejected, used by the EmptyContent fallback chain.
	FailedMessageID string

	// ToolOutput is the text of the failed tool's output, consumed by the
	// non-mutating EditError repair.
	ToolOutput string
}

// contextWindowDebugLog and sessionDebugLog are the two fixed debug log
// sinks spec.md §6 names: context-window-recovery-debug.log and
// session-recovery-debug.log under the OS temp directory.
var (
	contextWindowDebugLog = obslog.NewFileSink(obslog.Recovery, filepath.Join(os.TempDir(), "context-window-recovery-debug.log"))
	sessionDebugLog       = obslog.NewFileSink(obslog.Recovery, filepath.Join(os.TempDir(), "session-recovery-debug.log"))
)

// HandleRecovery is the single public entry point for the recovery engine,
// per spec.md §4.3.4. It classifies the error, enforces the per-session
// ledger, applies the matching repair procedure, and persists any mutated
// conversation. The returned Attempt's Message is surfaced to the host
// verbatim by the caller.
func (l *Ledger) HandleRecovery(input Input) Attempt {
	kind, ok := Classify(input.ErrorValue, input.FromToolOutput)
	if !ok {
		return Attempt{Attempted: false}
	}

	if err := l.Attempt(input.SessionID, kind, time.Now()); err != nil {
		sessionDebugLog.Debug().Str("session", input.SessionID).Str("kind", string(kind)).Msg("recovery exhausted")
		return Attempt{
			Attempted: true,
			Success:   false,
			ErrorType: kind,
			Message:   "Recovery attempts exhausted for this error category; manual intervention required.",
		}
	}

	switch kind {
	case KindContextWindowLimit:
		return l.handleContextWindowLimit(input, kind)
	case KindToolResultMissing, KindThinkingBlockOrder, KindThinkingDisabledViolation, KindEmptyContent:
		return l.handleSessionStructural(input, kind)
	case KindEditError:
		return handleEditError(input, kind)
	default:
		return Attempt{Attempted: false}
	}
}

func (l *Ledger) handleContextWindowLimit(input Input, kind Kind) Attempt {
	text := JoinedText(input.ErrorValue)
	info, ok := ParseTokenLimit(text)
	if !ok {
		return Attempt{
			Attempted: true,
			Success:   false,
			ErrorType: kind,
			Message:   "The conversation has exceeded the model's context window. Start a new session or ask the host to compact.",
		}
	}

	if err := l.AttemptTruncate(input.SessionID, time.Now()); err != nil {
		return Attempt{
			Attempted: true,
			Success:   false,
			ErrorType: kind,
			Message:   "Recovery attempts exhausted for this error category; manual intervention required.",
		}
	}

	contextWindowDebugLog.Debug().
		Int("current", info.CurrentTokens).
		Int("max", info.MaxTokens).
		Msg("context window limit exceeded")

	return Attempt{
		Attempted: true,
		Success:   true,
		ErrorType: kind,
		Message: "The conversation is using " +
			"more tokens than the model allows; truncate older tool output " +
			"and retry.",
	}
}

func (l *Ledger) handleSessionStructural(input Input, kind Kind) Attempt {
	conv, err := LoadConversation(input.SessionID)
	if err != nil {
		return Attempt{Attempted: true, Success: false, ErrorType: kind, Message: "Unable to load conversation state for recovery."}
	}

	changed := false
	switch kind {
	case KindToolResultMissing:
		for i := range conv.Messages {
			if RepairToolResultMissing(&conv.Messages[i]) {
				changed = true
			}
		}
	case KindThinkingBlockOrder:
		changed = RepairThinkingBlockOrder(&conv, input.MessageIndex)
	case KindThinkingDisabledViolation:
		changed = RepairThinkingDisabledViolation(&conv)
	case KindEmptyContent:
		changed = RepairEmptyContent(&conv, input.MessageIndex, input.FailedMessageID)
	}

	if !changed {
		return Attempt{Attempted: true, Success: false, ErrorType: kind, Message: "No repairable structure found for this error."}
	}

	if err := SaveConversation(conv); err != nil {
		return Attempt{Attempted: true, Success: false, ErrorType: kind, Message: "Failed to persist repaired conversation."}
	}

	if rel, err := conversationPath(input.SessionID); err == nil {
		recordProvenance(input.SessionID, kind, rel)
	}

	return Attempt{Attempted: true, Success: true, ErrorType: kind}
}

func handleEditError(input Input, kind Kind) Attempt {
	return Attempt{
		Attempted: true,
		Success:   true,
		ErrorType: kind,
		Message:   RepairEditError(input.ToolOutput),
	}
}
