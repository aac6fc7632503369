package hooks

import (
	"strings"

	"github.com/boshu2/omc/internal/compaction"
	"github.com/boshu2/omc/internal/memory"
	"github.com/boshu2/omc/internal/recovery"
	"github.com/boshu2/omc/internal/routing"
	"github.com/boshu2/omc/internal/safety"
)

// keywordTriggers is the fixed set of prompt keywords the keyword-detector
// hook watches for, matching the concrete scenario in spec.md §8 #5
// ("ultrawork fix bug").
var keywordTriggers = []string{"ultrawork", "ultrathink", "think harder"}

func handleKeywordDetector(in HookInput) Response {
	lower := strings.ToLower(in.Prompt)
	for _, kw := range keywordTriggers {
		if strings.Contains(lower, kw) {
			return Response{Continue: true, Message: "Detected keyword trigger: " + kw}
		}
	}
	return continueResponse()
}

// handlePreToolUse guards Bash invocations against destructive git
// operations, shell-metacharacter command injection, and worker-identity
// git privilege escalation, per internal/safety's threat model (T1, T3,
// T4). Non-Bash tool calls pass through unchanged.
func (d *Dispatcher) handlePreToolUse(in HookInput) Response {
	if in.ToolName != "Bash" {
		return continueResponse()
	}
	command, _ := in.ToolInput["command"].(string)
	if command == "" {
		return continueResponse()
	}

	if blocked, suggestion := safety.CheckDestructiveGit(command); blocked {
		return Response{Continue: false, Reason: "blocked destructive git command; " + suggestion}
	}
	if err := safety.CheckCommandInjection(command); err != nil {
		return Response{Continue: false, Reason: err.Error()}
	}
	if agentID, _ := in.Raw["agentId"].(string); agentID != "" {
		if err := safety.CheckWorkerPrivilege(agentID, command); err != nil {
			return Response{Continue: false, Reason: err.Error()}
		}
	}
	return continueResponse()
}

func (d *Dispatcher) handlePostToolUse(in HookInput) Response {
	if d.compaction == nil || !compaction.IsAccountedTool(in.ToolName) {
		return continueResponse()
	}
	tokens := compaction.EstimateTokens(in.ToolOutput)
	notice := d.compaction.Accumulate(in.SessionID, tokens, d.now())
	if notice.Suppressed || notice.Level == compaction.LevelNone {
		return continueResponse()
	}
	return Response{Continue: true, Message: notice.Message}
}

func (d *Dispatcher) handleSessionEnd(in HookInput) Response {
	if d.compaction != nil {
		d.compaction.OnStop(in.SessionID)
	}
	return continueResponse()
}

func (d *Dispatcher) handlePreCompact(in HookInput) Response {
	if d.compaction != nil {
		d.compaction.OnStop(in.SessionID)
	}
	return continueResponse()
}

// handleSessionStart injects the persisted project-memory summary into the
// host at the start of a session, per spec.md §2's "orient the model on
// tech stack, commands, and hot paths" and SPEC_FULL.md §4.7. A Load
// failure degrades to a plain continue rather than surfacing an error, per
// spec.md §7's "treat absence as default" policy for JSON artifacts.
func handleSessionStart(in HookInput) Response {
	pm, err := memory.Load(in.Directory)
	if err != nil {
		return continueResponse()
	}
	summary := pm.Summary()
	if summary == "" {
		return continueResponse()
	}
	return Response{Continue: true, Message: summary}
}

// handleSubagentStart routes the subagent's task prompt to a complexity
// tier and model before the subagent's own context is built, per spec.md
// §4.6. RouteTask is a pure function of (prompt, context, config); a nil
// rule list falls back to routing.DefaultRules.
func handleSubagentStart(in HookInput) Response {
	if in.Prompt == "" {
		return continueResponse()
	}
	agentType, _ := in.Raw["agentType"].(string)
	agentRole, _ := in.Raw["agentRole"].(string)
	decision := routing.RouteTask(in.Prompt, routing.Context{
		AgentType: agentType,
		AgentRole: agentRole,
	}, nil, routing.DefaultResolverConfig)
	return Response{
		Continue: true,
		Message:  "routed tier=" + string(decision.Tier) + " model=" + decision.Model,
	}
}

// handleStopContinuation feeds the host's rejection error, if any, into the
// recovery engine, per spec.md §4.3.4's "handleRecovery is the single
// public entry." The error value and its locating keys are hook-specific
// fields that survive normalization in in.Raw (normalize.go only renames
// the fixed key set). Absent a recovery ledger or an error value, this
// degrades to a plain continue.
func (d *Dispatcher) handleStopContinuation(in HookInput) Response {
	if d.recovery == nil {
		return continueResponse()
	}

	errValue := in.Raw["error"]
	fromToolOutput := false
	if errValue == nil && in.ToolOutput != "" {
		errValue = in.ToolOutput
		fromToolOutput = true
	}
	if errValue == nil {
		return continueResponse()
	}

	messageIndex := -1
	if mi, ok := in.Raw["messageIndex"].(float64); ok {
		messageIndex = int(mi)
	}
	failedMessageID, _ := in.Raw["failedMessageId"].(string)

	attempt := d.recovery.HandleRecovery(recovery.Input{
		SessionID:       in.SessionID,
		ErrorValue:      errValue,
		FromToolOutput:  fromToolOutput,
		MessageIndex:    messageIndex,
		FailedMessageID: failedMessageID,
		ToolOutput:      in.ToolOutput,
	})
	if !attempt.Attempted {
		return continueResponse()
	}
	return Response{Continue: true, Message: attempt.Message}
}

// handleDefault is used for every hook type with no subsystem wiring:
// ralph, persistent-mode, autopilot, subagent-stop, setup-init,
// setup-maintenance, permission-request. Each still passes through normalization,
// kill-switches, and required-key validation.
func handleDefault(in HookInput) Response {
	return continueResponse()
}
