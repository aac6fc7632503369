package recovery

import (
	"errors"
	"testing"
	"time"
)

func TestParseTokenLimitConcreteScenario(t *testing.T) {
	info, ok := ParseTokenLimit("prompt is too long: 250000 tokens > 200000 max")
	if !ok {
		t.Fatal("expected a match")
	}
	if info.CurrentTokens != 250000 || info.MaxTokens != 200000 || info.ErrorType != "token_limit_exceeded_string" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestClassifyThinkingVetoesContextWindow(t *testing.T) {
	kind, ok := Classify("prompt is too long: thinking must be the first block", false)
	if !ok {
		t.Fatal("expected a classification")
	}
	if kind != KindThinkingBlockOrder {
		t.Fatalf("expected ThinkingBlockOrder, got %s", kind)
	}
}

func TestClassifyContextWindowLimit(t *testing.T) {
	kind, ok := Classify("prompt is too long: 250000 tokens > 200000 max", false)
	if !ok || kind != KindContextWindowLimit {
		t.Fatalf("expected ContextWindowLimit, got %s (ok=%v)", kind, ok)
	}
}

func TestClassifyEditErrorRequiresToolOutput(t *testing.T) {
	if _, ok := Classify("oldString not found in file", false); ok {
		t.Fatal("expected no classification without fromToolOutput")
	}
	kind, ok := Classify("oldString not found in file", true)
	if !ok || kind != KindEditError {
		t.Fatalf("expected EditError, got %s (ok=%v)", kind, ok)
	}
}

func TestClassifyToolResultMissing(t *testing.T) {
	kind, ok := Classify(map[string]any{"message": "tool_use block had no matching tool_result"}, false)
	if !ok || kind != KindToolResultMissing {
		t.Fatalf("expected ToolResultMissing, got %s (ok=%v)", kind, ok)
	}
}

func TestExtractTextSourcesNestedMap(t *testing.T) {
	err := map[string]any{
		"error": map[string]any{
			"error": map[string]any{
				"message": "context window exceeded",
			},
		},
	}
	text := JoinedText(err)
	if text != "context window exceeded" {
		t.Fatalf("unexpected extracted text: %q", text)
	}
}

func TestRepairThinkingBlockOrderOrphanScan(t *testing.T) {
	conv := Conversation{
		SessionID: "s",
		Messages: []Message{
			{ID: "m1", Parts: []Part{{ID: "a", Type: PartText, Text: "hello"}}},
		},
	}
	changed := RepairThinkingBlockOrder(&conv, -1)
	if !changed {
		t.Fatal("expected a repair")
	}
	sorted := sortedParts(conv.Messages[0].Parts)
	if !isThinkingType(sorted[0].Type) {
		t.Fatalf("expected first sorted part to be thinking, got %s", sorted[0].Type)
	}
}

func TestRepairThinkingDisabledViolationStripsThinking(t *testing.T) {
	conv := Conversation{Messages: []Message{
		{ID: "m1", Parts: []Part{
			{ID: "a", Type: PartThinking, Text: "reasoning"},
			{ID: "b", Type: PartText, Text: "answer"},
		}},
	}}
	changed := RepairThinkingDisabledViolation(&conv)
	if !changed {
		t.Fatal("expected a repair")
	}
	if len(conv.Messages[0].Parts) != 1 || conv.Messages[0].Parts[0].Type != PartText {
		t.Fatalf("expected only the text part to remain, got %+v", conv.Messages[0].Parts)
	}
}

func TestLedgerExhaustsAfterMaxAttempts(t *testing.T) {
	l := NewLedger()
	now := time.Now()
	if err := l.Attempt("s1", KindEmptyContent, now); err != nil {
		t.Fatalf("attempt 1: %v", err)
	}
	if err := l.Attempt("s1", KindEmptyContent, now); err != nil {
		t.Fatalf("attempt 2: %v", err)
	}
	if err := l.Attempt("s1", KindEmptyContent, now); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted on 3rd attempt, got %v", err)
	}
}

func TestLedgerResetClearsAllKinds(t *testing.T) {
	l := NewLedger()
	now := time.Now()
	_ = l.Attempt("s1", KindEmptyContent, now)
	_ = l.Attempt("s1", KindEmptyContent, now)
	l.Reset("s1")
	if err := l.Attempt("s1", KindEmptyContent, now); err != nil {
		t.Fatalf("expected fresh budget after reset, got %v", err)
	}
}

func TestHandleRecoveryUnrecognizedReturnsNotAttempted(t *testing.T) {
	l := NewLedger()
	attempt := l.HandleRecovery(Input{SessionID: "s1", ErrorValue: "some unrelated failure"})
	if attempt.Attempted {
		t.Fatalf("expected not attempted, got %+v", attempt)
	}
}

func TestHandleRecoveryEditError(t *testing.T) {
	l := NewLedger()
	attempt := l.HandleRecovery(Input{
		SessionID:      "s1",
		ErrorValue:     "oldString not found in file",
		FromToolOutput: true,
		ToolOutput:     "edit failed",
	})
	if !attempt.Attempted || !attempt.Success {
		t.Fatalf("expected a successful non-mutating repair, got %+v", attempt)
	}
	if attempt.Message == "edit failed" {
		t.Fatal("expected the directive to be appended")
	}
}
