package memory

import (
	"fmt"
	"strings"

	"github.com/boshu2/omc/internal/worktree"
)

const memoryPath = "project-memory.json"

// Load reads the persisted project memory, lazily scanning the worktree
// root for tech-stack and command detection when no file exists yet; a
// loaded file with no recorded tech stack has its tech stack (not its
// commands) detected again, per SPEC_FULL.md §4.7. A read/parse
// failure returns a fresh ProjectMemory rather than an error, matching the
// "treat absence as default" policy in spec.md §7.
func Load(root string) (*ProjectMemory, error) {
	var p ProjectMemory
	ok, err := worktree.SafeReadJSON(memoryPath, &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		fresh := New()
		fresh.TechStack = DetectTechStack(root)
		fresh.Commands = DetectCommands(root)
		return fresh, nil
	}
	p.restoreCapacities()
	if len(p.TechStack) == 0 {
		p.TechStack = DetectTechStack(root)
	}
	return &p, nil
}

// Save atomically persists the project memory.
func Save(p *ProjectMemory) error {
	return worktree.WriteJSON(memoryPath, p)
}

// RecordHotPath appends a touched file path to the bounded hot-paths
// buffer, per the 50-entry cap in spec.md §3.
func (p *ProjectMemory) RecordHotPath(path string) {
	p.HotPaths.Push(path)
}

// AddCustomNote appends an operator-authored note, bounded at 20 entries.
func (p *ProjectMemory) AddCustomNote(note string) {
	p.CustomNotes.Push(note)
}

// AddUserDirective appends a user directive, bounded at 20 entries.
func (p *ProjectMemory) AddUserDirective(directive string) {
	p.UserDirectives.Push(directive)
}

// Summary renders a compact, host-injectable text block for session-start,
// per SPEC_FULL.md §4.7.
func (p *ProjectMemory) Summary() string {
	var b strings.Builder
	if len(p.TechStack) > 0 {
		fmt.Fprintf(&b, "Tech stack: %s\n", strings.Join(p.TechStack, ", "))
	}
	if p.Commands.Build != "" {
		fmt.Fprintf(&b, "Build: %s\n", p.Commands.Build)
	}
	if p.Commands.Test != "" {
		fmt.Fprintf(&b, "Test: %s\n", p.Commands.Test)
	}
	if p.Commands.Lint != "" {
		fmt.Fprintf(&b, "Lint: %s\n", p.Commands.Lint)
	}
	if len(p.Conventions) > 0 {
		fmt.Fprintf(&b, "Conventions: %s\n", strings.Join(p.Conventions, "; "))
	}
	if p.UserDirectives != nil && len(p.UserDirectives.Items) > 0 {
		fmt.Fprintf(&b, "User directives: %s\n", strings.Join(p.UserDirectives.Items, "; "))
	}
	if p.HotPaths != nil && len(p.HotPaths.Items) > 0 {
		fmt.Fprintf(&b, "Hot paths: %s\n", strings.Join(lastN(p.HotPaths.Items, 10), ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
