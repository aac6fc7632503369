// Package memory implements project memory: it lazily scans the worktree
// for tech-stack markers and build/test/lint commands, persists them to
// .omc/project-memory.json, and exposes a Summary for injection into the
// host on session-start. The scan runs sequentially and does not detect
// conventions; hot paths are recorded only through RecordHotPath.
// Supplemented into SPEC_FULL.md §4.7 from spec.md's §2 budget-line
// mention; grounded on the teacher's internal/goals (snapshot persistence
// shape).
package memory

// SchemaVersion is the on-disk schema version stamped into every
// persisted project-memory file, per SPEC_FULL.md §4.7.
const SchemaVersion = "1.0.0"

const (
	customNotesCapacity     = 20
	hotPathsCapacity        = 50
	userDirectivesCapacity  = 20
)

// Commands holds the detected build/test/lint invocations for the
// project, per SPEC_FULL.md §4.7.
type Commands struct {
	Build string `json:"build,omitempty"`
	Test  string `json:"test,omitempty"`
	Lint  string `json:"lint,omitempty"`
}

// ProjectMemory is the full persisted shape for one worktree.
type ProjectMemory struct {
	SchemaVersion string   `json:"schema_version"`
	TechStack     []string `json:"tech_stack"`
	Commands      Commands `json:"commands"`
	Conventions   []string `json:"conventions"`

	HotPaths        *RingBuffer `json:"hot_paths"`
	CustomNotes     *RingBuffer `json:"custom_notes"`
	UserDirectives  *RingBuffer `json:"user_directives"`
}

// New constructs an empty ProjectMemory with the bounded buffers sized
// per the 20/50/20 caps in spec.md §3.
func New() *ProjectMemory {
	return &ProjectMemory{
		SchemaVersion:  SchemaVersion,
		HotPaths:       NewRingBuffer(hotPathsCapacity),
		CustomNotes:    NewRingBuffer(customNotesCapacity),
		UserDirectives: NewRingBuffer(userDirectivesCapacity),
	}
}

// restoreCapacities re-applies the fixed ring buffer capacities after a
// JSON load, since RingBuffer.Capacity is not itself persisted.
func (p *ProjectMemory) restoreCapacities() {
	if p.HotPaths == nil {
		p.HotPaths = NewRingBuffer(hotPathsCapacity)
	} else {
		p.HotPaths.SetCapacity(hotPathsCapacity)
	}
	if p.CustomNotes == nil {
		p.CustomNotes = NewRingBuffer(customNotesCapacity)
	} else {
		p.CustomNotes.SetCapacity(customNotesCapacity)
	}
	if p.UserDirectives == nil {
		p.UserDirectives = NewRingBuffer(userDirectivesCapacity)
	} else {
		p.UserDirectives.SetCapacity(userDirectivesCapacity)
	}
}
