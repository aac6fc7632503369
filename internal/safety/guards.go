package safety

import (
	"fmt"
	"regexp"
	"strings"
)

// destructiveGitPattern pairs a regex matching a destructive git
// invocation with the safer alternative to suggest, per the T3 threat
// category this package's doc comment names.
type destructiveGitPattern struct {
	re         *regexp.Regexp
	suggestion string
}

var destructiveGitPatterns = []destructiveGitPattern{
	{regexp.MustCompile(`\bgit\s+push\b.*(--force\b|-f\b)`), "use --force-with-lease instead of --force"},
	{regexp.MustCompile(`\bgit\s+reset\s+--hard\b`), "stash or commit first, or use git reset --soft"},
	{regexp.MustCompile(`\bgit\s+clean\s+.*-f`), "run git clean -n first to preview what would be removed"},
	{regexp.MustCompile(`\bgit\s+checkout\s+\.\s*$`), "discards all unstaged changes; stash first if unsure"},
	{regexp.MustCompile(`\bgit\s+restore\s+\.\s*$`), "discards all unstaged changes; stash first if unsure"},
	{regexp.MustCompile(`\bgit\s+branch\s+-D\b`), "use -d (lowercase) unless the branch is confirmed unmerged and unwanted"},
}

// CheckDestructiveGit reports whether command matches a known-destructive
// git invocation, returning a human-readable suggestion when it does.
func CheckDestructiveGit(command string) (blocked bool, suggestion string) {
	for _, p := range destructiveGitPatterns {
		if p.re.MatchString(command) {
			return true, p.suggestion
		}
	}
	return false, ""
}

// shellMetacharacters are the characters that let a crafted string escape
// a single intended command, per the T1 threat category.
const shellMetacharacters = ";|&`$(){}<>\n"

// allowedBareBinaries is the bare-name allowlist for commands that are
// permitted to contain shell metacharacters, per T1's "binary
// allowlists (only go, pytest, npm, make)"; git is allowed as well.
var allowedBareBinaries = map[string]bool{
	"go":    true,
	"pytest": true,
	"npm":   true,
	"make":  true,
	"git":   true,
}

// CheckCommandInjection rejects a command string that contains shell
// metacharacters unless its leading binary is on the allowlist and
// referenced by bare name (no path separators), per T1.
func CheckCommandInjection(command string) error {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return nil
	}
	if !strings.ContainsAny(trimmed, shellMetacharacters) {
		return nil
	}

	fields := strings.Fields(trimmed)
	binary := fields[0]
	if strings.ContainsAny(binary, "/\\") {
		return fmt.Errorf("safety: binary %q must be referenced by bare name, not a path", binary)
	}
	if !allowedBareBinaries[binary] {
		return fmt.Errorf("safety: command contains shell metacharacters and %q is not an allowlisted binary", binary)
	}
	return nil
}

// workerAgentPrefix identifies a worker-role agent id (as opposed to a
// coordinator/operator identity), per T4.
const workerAgentPrefix = "worker-"

// IsWorkerIdentity reports whether agentID is a worker-role identity.
func IsWorkerIdentity(agentID string) bool {
	return strings.HasPrefix(agentID, workerAgentPrefix)
}

// workerForbiddenGitPattern matches git subcommands a worker agent must
// never run (commit, push, or a wholesale add), per T4: a worker that
// commits or pushes creates merge conflicts across parallel workers and
// can corrupt the shared branch.
var workerForbiddenGitPattern = regexp.MustCompile(`\bgit\s+(commit\b|push\b|add\s+(-A|--all)\b)`)

// CheckWorkerPrivilege rejects a command attempting a commit/push/wholesale
// add from a worker-role identity.
func CheckWorkerPrivilege(agentID, command string) error {
	if !IsWorkerIdentity(agentID) {
		return nil
	}
	if workerForbiddenGitPattern.MatchString(command) {
		return fmt.Errorf("safety: worker identity %q may not commit, push, or stage all files", agentID)
	}
	return nil
}
