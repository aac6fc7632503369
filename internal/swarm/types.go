// Package swarm implements the durable, crash-safe multi-agent task pool:
// atomic claiming, lease-based ownership, heartbeat liveness, priority/wave
// scheduling, and file-scope affinity claiming, backed by a single
// relational store file at .omc/state/swarm.db.
//
// The store is opened through modernc.org/sqlite (pure Go, no cgo) wrapped
// in sqlx for ergonomic scans, following the pattern r3e-network-service_layer
// and jordigilh-kubernaut use their respective relational stores for:
// repository-style methods over a *sqlx.DB, one transaction per mutation.
//
// Agent ID validation and the bounded-glob matcher are grounded on the
// teacher's internal/pool.validateCandidateID and internal/ratchet location
// search-order idioms respectively.
package swarm

import "time"

// Status is the fixed task lifecycle, per spec.md §3.
type Status string

const (
	StatusPending Status = "pending"
	StatusClaimed Status = "claimed"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Task is a single unit of work in the pool.
type Task struct {
	ID          string   `db:"id" json:"id"`
	Description string   `db:"description" json:"description"`
	Status      Status   `db:"status" json:"status"`
	ClaimedBy   *string  `db:"claimed_by" json:"claimed_by,omitempty"`
	ClaimedAt   *int64   `db:"claimed_at" json:"claimed_at,omitempty"`
	CompletedAt *int64   `db:"completed_at" json:"completed_at,omitempty"`
	Priority    int      `db:"priority" json:"priority"`
	Wave        int      `db:"wave" json:"wave"`
	OwnedFiles  []string `db:"-" json:"owned_files,omitempty"`
	FilePattern []string `db:"-" json:"file_patterns,omitempty"`
	Result      *string  `db:"result" json:"result,omitempty"`
	Error       *string  `db:"error" json:"error,omitempty"`

	// RawOwnedFiles and RawFilePattern carry the JSON-encoded list
	// columns as stored, for sqlx scanning; OwnedFiles/FilePattern are
	// derived from these after a row is loaded.
	RawOwnedFiles  *string `db:"owned_files" json:"-"`
	RawFilePattern *string `db:"file_patterns" json:"-"`
}

// Heartbeat records agent liveness.
type Heartbeat struct {
	AgentID         string `db:"agent_id"`
	LastHeartbeat   int64  `db:"last_heartbeat"`
	CurrentTaskID   *string `db:"current_task_id"`
}

// SessionRow is the single-row swarm session record.
type SessionRow struct {
	SessionID   string `db:"session_id"`
	StartedAt   int64  `db:"started_at"`
	CompletedAt *int64 `db:"completed_at"`
	AgentCount  int    `db:"agent_count"`
	Active      bool   `db:"active"`
}

// TaskInput describes one task to insert via AddTasks/StartSwarm.
type TaskInput struct {
	Description string
	Priority    int
	Wave        int
	OwnedFiles  []string
	FilePattern []string
}

// StartConfig configures StartSwarm.
type StartConfig struct {
	AgentCount   int
	Tasks        []TaskInput
	LeaseTimeout time.Duration
}

// DefaultLeaseTimeout matches spec.md §4.2.1's documented default.
const DefaultLeaseTimeout = 5 * time.Minute

// Summary is the human-readable artifact written after every mutation, per
// spec.md §4.2.4.
type Summary struct {
	GeneratedAt      int64          `json:"generated_at"`
	TotalsByStatus   map[Status]int `json:"totals_by_status"`
	ClaimsByAgent    map[string]int `json:"claims_by_agent"`
	OldestPendingID  string         `json:"oldest_pending_id,omitempty"`
	MostRecentFailID string         `json:"most_recent_failure_id,omitempty"`
	MostRecentFailAt int64          `json:"most_recent_failure_at,omitempty"`
}

// ClaimResult is returned by ClaimTask/ClaimTaskForFiles on success.
type ClaimResult struct {
	TaskID      string
	Description string
}
