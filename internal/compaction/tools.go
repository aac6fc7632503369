package compaction

import "strings"

// allowlistPrefixes is the fixed allowlist of tool name families whose
// output contributes to the per-session accumulator, per spec.md §4.4
// ("a fixed allowlist of tools: read-family, grep-family, glob-family,
// shell-family, web-fetch, delegated subtasks").
var allowlistPrefixes = []string{
	"read",
	"grep",
	"glob",
	"bash",
	"shell",
	"webfetch",
	"web_fetch",
	"task",
	"agent",
}

// IsAccountedTool reports whether a tool's output should be accumulated
// toward the context budget, per the fixed allowlist in spec.md §4.4.
func IsAccountedTool(toolName string) bool {
	lower := strings.ToLower(toolName)
	for _, prefix := range allowlistPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
