package recovery

import (
	"regexp"
	"strings"
)

// contextWindowPhrases are the fixed phrases that indicate a context-window
// exhaustion error, per spec.md §4.3.1.
var contextWindowPhrases = []string{
	"prompt is too long",
	"input length exceeds",
	"max context",
	"context window",
	"tokens exceeds",
}

// thinkingStructureVetoPatterns veto a ContextWindowLimit classification
// when the same text also looks like a thinking-block structure error, per
// spec.md §4.3.1 item 1.
var thinkingStructureVetoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`thinking.*first block`),
	regexp.MustCompile(`thinking.*redacted_thinking`),
	regexp.MustCompile(`thinking is disabled.*cannot contain`),
}

var thinkingOrderMarkers = []string{
	"first block",
	"must start with",
	"preceeding",
	"final block",
	"cannot be thinking",
}

var expectedFoundPattern = regexp.MustCompile(`expected.*found`)

// editErrorPhrases match the fixed set of edit-tool failure phrases from
// spec.md §4.3.1 item 6, including the old_string alias spellings.
var editErrorPhrases = []string{
	"oldstring not found",
	"oldstring and newstring must be different",
	"oldstring found multiple times",
	"old_string not found",
	"old_string and new_string must be different",
	"old_string found multiple times",
}

// Classify inspects the joined, lowercased text sources of an opaque error
// value and returns the first matching kind in the priority order spec.md
// §4.3.1 defines. fromToolOutput must be true only when the error
// originates from a tool invocation result, since EditError is only ever
// classified from tool outputs.
func Classify(errValue any, fromToolOutput bool) (Kind, bool) {
	text := JoinedText(errValue)
	if text == "" {
		return "", false
	}

	if isContextWindowLimit(text) {
		return KindContextWindowLimit, true
	}
	if strings.Contains(text, "tool_use") && strings.Contains(text, "tool_result") {
		return KindToolResultMissing, true
	}
	if isThinkingBlockOrder(text) {
		return KindThinkingBlockOrder, true
	}
	if strings.Contains(text, "thinking is disabled") && strings.Contains(text, "cannot contain") {
		return KindThinkingDisabledViolation, true
	}
	if strings.Contains(text, "empty") && (strings.Contains(text, "content") || strings.Contains(text, "message")) {
		return KindEmptyContent, true
	}
	if fromToolOutput && isEditError(text) {
		return KindEditError, true
	}
	return "", false
}

func isContextWindowLimit(text string) bool {
	matched := false
	for _, phrase := range contextWindowPhrases {
		if strings.Contains(text, phrase) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, veto := range thinkingStructureVetoPatterns {
		if veto.MatchString(text) {
			return false
		}
	}
	return true
}

func isThinkingBlockOrder(text string) bool {
	if !strings.Contains(text, "thinking") {
		return false
	}
	for _, marker := range thinkingOrderMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return expectedFoundPattern.MatchString(text)
}

func isEditError(text string) bool {
	for _, phrase := range editErrorPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
