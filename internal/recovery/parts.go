package recovery

import (
	"fmt"
	"sort"

	"github.com/boshu2/omc/internal/worktree"
)

// Message is the on-disk unit recovery repairs mutate, stored as the
// parts array of a single assistant (or tool) turn, per spec.md §3 and §4.3.2.
type Message struct {
	ID    string `json:"id"`
	Parts []Part `json:"parts"`
}

// Conversation is the persisted, per-session sequence of messages recovery
// repairs operate on. Grounded on the teacher's internal/types.TranscriptMessage
// shape, generalized to the recovery engine's repair procedures.
type Conversation struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

func conversationPath(sessionID string) (string, error) {
	if err := worktree.ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	return fmt.Sprintf("state/sessions/%s/conversation.json", sessionID), nil
}

// LoadConversation reads the persisted conversation for a session, returning
// an empty Conversation carrying only the session id (not an error) when the
// file is absent or unparsable; an invalid session id is an error. Per spec.md §7's "IOError on JSON artifact -> treat as
// absence" policy.
func LoadConversation(sessionID string) (Conversation, error) {
	rel, err := conversationPath(sessionID)
	if err != nil {
		return Conversation{}, err
	}
	var c Conversation
	ok, err := worktree.SafeReadJSON(rel, &c)
	if err != nil {
		return Conversation{}, err
	}
	if !ok {
		c = Conversation{SessionID: sessionID}
	}
	return c, nil
}

// SaveConversation atomically persists the conversation.
func SaveConversation(c Conversation) error {
	rel, err := conversationPath(c.SessionID)
	if err != nil {
		return err
	}
	return worktree.WriteJSON(rel, c)
}

const emptyContentPlaceholder = "[Content unavailable]"
const continuingThinkingPlaceholder = "[Continuing from previous reasoning]"

// syntheticThinkingID sorts before any naturally generated part id (which
// are timestamp/counter derived and never empty), satisfying spec.md
// §4.3.2's "fixed so it sorts before any naturally-generated id" requirement.
const syntheticThinkingID = ""

// syntheticToolResultID is similarly fixed for injected tool_result parts.
func syntheticToolResultID(toolUseID string) string {
	return "synthetic-result-" + toolUseID
}

// fuzzyIndexWalk returns the ±5 candidate offsets from n in the order
// spec.md §4.3.2 names: 0, -1, +1, -2, +2, -3, -4, -5.
func fuzzyIndexWalk(n int) []int {
	offsets := []int{0, -1, 1, -2, 2, -3, -4, -5}
	out := make([]int, 0, len(offsets))
	for _, off := range offsets {
		idx := n + off
		if idx >= 0 {
			out = append(out, idx)
		}
	}
	return out
}

// RepairToolResultMissing injects synthetic tool_result parts for every
// tool_use id in the given message's parts that has no matching
// tool_result, per spec.md §4.3.2. It mutates msg in place and returns
// whether any part was injected.
func RepairToolResultMissing(msg *Message) bool {
	hasResult := make(map[string]bool)
	var useIDs []string
	for _, p := range msg.Parts {
		switch p.Type {
		case PartToolResult:
			hasResult[p.ToolUseID] = true
		case PartToolUse:
			useIDs = append(useIDs, p.ID)
		}
	}
	changed := false
	for _, id := range useIDs {
		if hasResult[id] {
			continue
		}
		msg.Parts = append(msg.Parts, Part{
			ID:         syntheticToolResultID(id),
			Type:       PartToolResult,
			MessageID:  msg.ID,
			ToolUseID:  id,
			ToolOutput: "Cancelled: no result was produced for this tool call.",
		})
		changed = true
	}
	return changed
}

func isThinkingType(t PartType) bool {
	return t == PartThinking || t == PartRedactedThinking
}

// sortedParts returns a copy of parts sorted by id, matching spec.md
// §4.3.2's "sorted by id" ordering used to detect orphan thinking.
func sortedParts(parts []Part) []Part {
	out := make([]Part, len(parts))
	copy(out, parts)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func isOrphanThinking(msg Message) bool {
	sorted := sortedParts(msg.Parts)
	if len(sorted) == 0 {
		return false
	}
	return !isThinkingType(sorted[0].Type)
}

func lastNonEmptyThinking(messages []Message, before int) string {
	for i := before - 1; i >= 0; i-- {
		for _, p := range sortedParts(messages[i].Parts) {
			if isThinkingType(p.Type) && p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

func prependThinking(msg *Message, text string) {
	synthetic := Part{ID: syntheticThinkingID, Type: PartThinking, MessageID: msg.ID, Text: text}
	msg.Parts = append([]Part{synthetic}, msg.Parts...)
}

// RepairThinkingBlockOrder repairs a corrupted conversation per spec.md
// §4.3.2. messageIndex is the index extracted from the error's
// "messages.<n>" reference, or -1 when no index was found, in which case
// every assistant message is scanned for orphan thinking.
func RepairThinkingBlockOrder(c *Conversation, messageIndex int) bool {
	changed := false
	if messageIndex >= 0 {
		for _, idx := range fuzzyIndexWalk(messageIndex) {
			if idx >= len(c.Messages) {
				continue
			}
			if isOrphanThinking(c.Messages[idx]) {
				text := lastNonEmptyThinking(c.Messages, idx)
				if text == "" {
					text = continuingThinkingPlaceholder
				}
				prependThinking(&c.Messages[idx], text)
				return true
			}
		}
		return false
	}
	for i := range c.Messages {
		if isOrphanThinking(c.Messages[i]) {
			text := lastNonEmptyThinking(c.Messages, i)
			if text == "" {
				text = continuingThinkingPlaceholder
			}
			prependThinking(&c.Messages[i], text)
			changed = true
		}
	}
	return changed
}

// RepairThinkingDisabledViolation deletes every thinking-type part from
// every message, per spec.md §4.3.2.
func RepairThinkingDisabledViolation(c *Conversation) bool {
	changed := false
	for i := range c.Messages {
		kept := c.Messages[i].Parts[:0]
		for _, p := range c.Messages[i].Parts {
			if isThinkingType(p.Type) {
				changed = true
				continue
			}
			kept = append(kept, p)
		}
		c.Messages[i].Parts = kept
	}
	return changed
}

func isEmptyTextPart(p Part) bool {
	return p.Type == PartText && p.Text == ""
}

func isThinkingOnlyMessage(msg Message) bool {
	sawThinking := false
	for _, p := range msg.Parts {
		if isThinkingType(p.Type) {
			sawThinking = true
			continue
		}
		return false
	}
	return sawThinking
}

func isEmptyMessage(msg Message) bool {
	if len(msg.Parts) == 0 {
		return true
	}
	for _, p := range msg.Parts {
		if p.Type == PartText && p.Text != "" {
			return false
		}
		if !isThinkingType(p.Type) && p.Type != PartText {
			return false
		}
	}
	return true
}

// RepairEmptyContent applies the priority-ordered fallback chain from
// spec.md §4.3.2: (a) replace empty text parts, (b) inject into
// thinking-only messages, (c) target the fuzzy-walked index, (d) target
// the failed message id, (e) fall back to every empty message.
func RepairEmptyContent(c *Conversation, messageIndex int, failedMessageID string) bool {
	changed := false
	for i := range c.Messages {
		for j := range c.Messages[i].Parts {
			if isEmptyTextPart(c.Messages[i].Parts[j]) {
				c.Messages[i].Parts[j].Text = emptyContentPlaceholder
				changed = true
			}
		}
	}
	if changed {
		return true
	}

	for i := range c.Messages {
		if isThinkingOnlyMessage(c.Messages[i]) {
			c.Messages[i].Parts = append(c.Messages[i].Parts, Part{
				Type:      PartText,
				MessageID: c.Messages[i].ID,
				Text:      emptyContentPlaceholder,
			})
			changed = true
		}
	}
	if changed {
		return true
	}

	if messageIndex >= 0 {
		for _, idx := range fuzzyIndexWalk(messageIndex) {
			if idx >= len(c.Messages) {
				continue
			}
			if isEmptyMessage(c.Messages[idx]) {
				c.Messages[idx].Parts = append(c.Messages[idx].Parts, Part{
					Type:      PartText,
					MessageID: c.Messages[idx].ID,
					Text:      emptyContentPlaceholder,
				})
				return true
			}
		}
	}

	if failedMessageID != "" {
		for i := range c.Messages {
			if c.Messages[i].ID == failedMessageID && isEmptyMessage(c.Messages[i]) {
				c.Messages[i].Parts = append(c.Messages[i].Parts, Part{
					Type:      PartText,
					MessageID: c.Messages[i].ID,
					Text:      emptyContentPlaceholder,
				})
				return true
			}
		}
	}

	for i := range c.Messages {
		if isEmptyMessage(c.Messages[i]) {
			c.Messages[i].Parts = append(c.Messages[i].Parts, Part{
				Type:      PartText,
				MessageID: c.Messages[i].ID,
				Text:      emptyContentPlaceholder,
			})
			changed = true
		}
	}
	return changed
}

const editErrorDirective = "\n\nRe-read the file before retrying this edit; its contents may have changed since you last viewed it."

// RepairEditError is non-mutating with respect to persisted conversation
// state; it appends a directive to the tool output text so the model
// re-reads the file before retrying, per spec.md §4.3.2.
func RepairEditError(toolOutput string) string {
	return toolOutput + editErrorDirective
}
