package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/boshu2/omc/internal/obslog"
	"github.com/boshu2/omc/internal/worktree"
)

const (
	dbRelPath      = "state/swarm.db"
	summaryRelPath = "state/swarm-summary.json"
	modeName       = "swarm"
)

// idPattern validates agent ids and mirrors the teacher's
// pool.validIDPattern, reused here for a different namespace.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Coordinator is the long-lived object owning the swarm's database handle
// and background timers (lease sweeper), per the "Global mutable state"
// design note in spec.md §9: carry module-scope state as fields on a
// long-lived object, not package globals.
type Coordinator struct {
	db           *sqlx.DB
	leaseTimeout time.Duration
	log          zerolog.Logger

	mu      sync.Mutex
	cronID  cron.EntryID
	c       *cron.Cron
	group   *errgroup.Group
	groupCtx context.Context
	cancel  context.CancelFunc
	sweepSF singleflight.Group
}

// Open opens (or creates) the swarm store without starting a swarm session.
// Used by read-only operator commands (status) and by StartSwarm/CancelSwarm.
func Open() (*Coordinator, error) {
	path, err := worktree.EnsureOmcDir("state")
	if err != nil {
		return nil, err
	}
	dbPath := path + string(os.PathSeparator) + "swarm.db"
	db, err := openStore(dbPath)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(ctx)
	return &Coordinator{
		db:           db,
		leaseTimeout: DefaultLeaseTimeout,
		log:          obslog.New(obslog.Swarm),
		group:        group,
		groupCtx:     groupCtx,
		cancel:       cancel,
	}, nil
}

// Close stops background timers and closes the database handle.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.c != nil {
		c.c.Stop()
	}
	c.mu.Unlock()
	c.cancel()
	_ = c.group.Wait()
	return c.db.Close()
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// StartSwarm creates/clears the schema, inserts task rows, writes the mode
// marker, and starts the stale-claim sweeper, per spec.md §4.2.1.
func (c *Coordinator) StartSwarm(cfg StartConfig) error {
	if cfg.AgentCount < 1 {
		cfg.AgentCount = 1
	}
	if len(cfg.Tasks) == 0 {
		return ErrEmpty
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = DefaultLeaseTimeout
	}
	c.leaseTimeout = cfg.LeaseTimeout

	acquired, err := acquireModeMarker(modeName)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrInUse
	}

	tx, err := c.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM heartbeats`); err != nil {
		return fmt.Errorf("clear heartbeats: %w", err)
	}

	if err := insertTasks(tx, 1, cfg.Tasks); err != nil {
		return err
	}

	sid := fmt.Sprintf("swarm-%d", nowMillis())
	if _, err := tx.Exec(`INSERT OR REPLACE INTO session(session_id, started_at, completed_at, agent_count, active) VALUES (?,?,NULL,?,1)`,
		sid, nowMillis(), cfg.AgentCount); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	c.startSweeper()
	return c.writeSummary()
}

func insertTasks(tx *sqlx.Tx, startID int, tasks []TaskInput) error {
	nextID, err := nextTaskID(tx)
	if err != nil {
		return err
	}
	if nextID < startID {
		nextID = startID
	}
	for _, t := range tasks {
		id := fmt.Sprintf("task-%d", nextID)
		nextID++

		owned, err := marshalList(t.OwnedFiles)
		if err != nil {
			return err
		}
		patterns, err := marshalList(t.FilePattern)
		if err != nil {
			return err
		}
		wave := t.Wave
		if wave == 0 {
			wave = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO tasks(id, description, status, priority, wave, owned_files, file_patterns)
			 VALUES (?,?,?,?,?,?,?)`,
			id, t.Description, StatusPending, t.Priority, wave, owned, patterns,
		); err != nil {
			return fmt.Errorf("insert task %s: %w", id, err)
		}
	}
	return nil
}

func marshalList(items []string) (*string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func unmarshalList(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(*raw), &items); err != nil {
		return nil
	}
	return items
}

func nextTaskID(q sqlx.Queryer) (int, error) {
	var maxSuffix int
	rows, err := q.Queryx(`SELECT id FROM tasks`)
	if err != nil {
		return 1, nil
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(id, "task-%d", &n); err == nil && n > maxSuffix {
			maxSuffix = n
		}
	}
	return maxSuffix + 1, nil
}

// AddTasks inserts a batch of new tasks, continuing the id sequence from
// the current maximum, per spec.md §4.2.1. All-or-nothing.
func (c *Coordinator) AddTasks(tasks []TaskInput) ([]string, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	if !c.initialized() {
		return nil, ErrNotInitialized
	}
	tx, err := c.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	startID, err := nextTaskID(tx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tasks))
	for i := range tasks {
		ids = append(ids, fmt.Sprintf("task-%d", startID+i))
	}
	if err := insertTasks(tx, startID, tasks); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	_ = c.writeSummary()
	return ids, nil
}

func (c *Coordinator) initialized() bool {
	var count int
	_ = c.db.Get(&count, `SELECT COUNT(*) FROM meta WHERE key = 'version'`)
	return count > 0
}

// ClaimTask atomically moves exactly one pending row to claimed, selecting
// the smallest (priority, id) per spec.md §4.2.1/§4.2.2: the claim pattern
// is a SELECT candidate followed by a conditional UPDATE ... WHERE
// id=? AND status='pending', observing ErrRaced when the update affects
// zero rows rather than retrying internally.
func (c *Coordinator) ClaimTask(agentID string) (*ClaimResult, error) {
	if err := validateAgentID(agentID); err != nil {
		return nil, err
	}
	var candidate Task
	err := c.db.Get(&candidate, `SELECT id, description FROM tasks WHERE status = 'pending' ORDER BY priority ASC, id ASC LIMIT 1`)
	if err != nil {
		return nil, ErrNoneAvailable
	}
	return c.claimCandidate(agentID, candidate.ID, candidate.Description)
}

// ClaimTaskForFiles scans pending tasks in priority order and claims the
// first whose owned_files/file_patterns overlap with any supplied pattern,
// falling back to ClaimTask when no overlap exists, per spec.md §4.2.1.
func (c *Coordinator) ClaimTaskForFiles(agentID string, patterns []string) (*ClaimResult, error) {
	if err := validateAgentID(agentID); err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return c.ClaimTask(agentID)
	}

	rows, err := c.db.Queryx(`SELECT id, description, owned_files, file_patterns FROM tasks WHERE status = 'pending' ORDER BY priority ASC, id ASC`)
	if err != nil {
		return nil, ErrNoneAvailable
	}
	defer rows.Close()

	for rows.Next() {
		var id, description string
		var owned, filePatterns *string
		if err := rows.Scan(&id, &description, &owned, &filePatterns); err != nil {
			continue
		}
		if patternsOverlap(patterns, unmarshalList(owned), unmarshalList(filePatterns)) {
			return c.claimCandidate(agentID, id, description)
		}
	}
	return c.ClaimTask(agentID)
}

func (c *Coordinator) claimCandidate(agentID, taskID, description string) (*ClaimResult, error) {
	tx, err := c.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`UPDATE tasks SET status='claimed', claimed_by=?, claimed_at=? WHERE id=? AND status='pending'`,
		agentID, nowMillis(), taskID)
	if err != nil {
		return nil, fmt.Errorf("claim update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, ErrRaced
	}

	if err := upsertHeartbeat(tx, agentID, &taskID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	_ = c.writeSummary()
	return &ClaimResult{TaskID: taskID, Description: description}, nil
}

func upsertHeartbeat(tx *sqlx.Tx, agentID string, taskID *string) error {
	_, err := tx.Exec(`
INSERT INTO heartbeats(agent_id, last_heartbeat, current_task_id) VALUES (?,?,?)
ON CONFLICT(agent_id) DO UPDATE SET last_heartbeat=excluded.last_heartbeat, current_task_id=excluded.current_task_id`,
		agentID, nowMillis(), taskID)
	return err
}

// CompleteTask moves claimed -> done, per spec.md §4.2.1. The outcome is
// reported only through the returned error; the user-supplied result
// string is only written to the result column, resolving the Open
// Question in spec.md §9 about variable shadowing in the original
// implementation.
func (c *Coordinator) CompleteTask(agentID, taskID string, result string) error {
	return c.transitionOwned(agentID, taskID, StatusClaimed, StatusDone, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`UPDATE tasks SET status=?, completed_at=?, result=? WHERE id=?`,
			StatusDone, nowMillis(), nullableString(result), taskID)
		return err
	})
}

// FailTask moves claimed -> failed with an error message.
func (c *Coordinator) FailTask(agentID, taskID, errMsg string) error {
	return c.transitionOwned(agentID, taskID, StatusClaimed, StatusFailed, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`UPDATE tasks SET status=?, completed_at=?, error=? WHERE id=?`,
			StatusFailed, nowMillis(), nullableString(errMsg), taskID)
		return err
	})
}

// ReleaseTask moves claimed -> pending and clears the heartbeat's current
// task.
func (c *Coordinator) ReleaseTask(agentID, taskID string) error {
	return c.transitionOwned(agentID, taskID, StatusClaimed, StatusPending, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`UPDATE tasks SET status=?, claimed_by=NULL, claimed_at=NULL WHERE id=?`, StatusPending, taskID)
		return err
	})
}

// transitionOwned verifies the task is currently owned by agentID and in
// fromStatus before applying mutate, clearing the heartbeat's current task
// on every successful transition (release included) and returning ErrNotOwned (never
// mutating) otherwise, per spec.md §7.
func (c *Coordinator) transitionOwned(agentID, taskID string, fromStatus, toStatus Status, mutate func(tx *sqlx.Tx) error) error {
	tx, err := c.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var owner string
	var status Status
	err = tx.QueryRowx(`SELECT claimed_by, status FROM tasks WHERE id=?`, taskID).Scan(&owner, &status)
	if err != nil {
		return ErrNotOwned
	}
	if status != fromStatus || owner != agentID {
		return ErrNotOwned
	}
	if err := mutate(tx); err != nil {
		return fmt.Errorf("mutate: %w", err)
	}
	if _, err := tx.Exec(`UPDATE heartbeats SET current_task_id=NULL WHERE agent_id=?`, agentID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	_ = c.writeSummary()
	return nil
}

// RetryTask re-claims a failed task, by the same or a different agent, per
// spec.md §4.2.1.
func (c *Coordinator) RetryTask(agentID, taskID string) error {
	if err := validateAgentID(agentID); err != nil {
		return err
	}
	tx, err := c.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var status Status
	if err := tx.QueryRowx(`SELECT status FROM tasks WHERE id=?`, taskID).Scan(&status); err != nil {
		return ErrNotFound
	}
	if status != StatusFailed {
		return ErrNotFailed
	}
	if _, err := tx.Exec(`UPDATE tasks SET status='claimed', claimed_by=?, claimed_at=?, completed_at=NULL, error=NULL WHERE id=?`,
		agentID, nowMillis(), taskID); err != nil {
		return err
	}
	if err := upsertHeartbeat(tx, agentID, &taskID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	_ = c.writeSummary()
	return nil
}

// Heartbeat upserts last_heartbeat=now and fills current_task_id from the
// tasks table, per spec.md §4.2.1.
func (c *Coordinator) Heartbeat(agentID string) error {
	if err := validateAgentID(agentID); err != nil {
		return err
	}
	var taskID *string
	_ = c.db.Get(&taskID, `SELECT id FROM tasks WHERE claimed_by=? AND status='claimed' LIMIT 1`, agentID)
	return upsertHeartbeatDB(c.db, agentID, taskID)
}

func upsertHeartbeatDB(db *sqlx.DB, agentID string, taskID *string) error {
	_, err := db.Exec(`
INSERT INTO heartbeats(agent_id, last_heartbeat, current_task_id) VALUES (?,?,?)
ON CONFLICT(agent_id) DO UPDATE SET last_heartbeat=excluded.last_heartbeat, current_task_id=excluded.current_task_id`,
		agentID, nowMillis(), taskID)
	return err
}

// CleanupStaleClaims releases every claimed task whose claimed_at is older
// than now-leaseTimeout and whose owner has no heartbeat newer than that
// same cutoff, deleting the matching heartbeat rows, in one transaction,
// per spec.md §4.2.1/§4.2.3. Returns the number of tasks released.
//
// Concurrent callers (e.g. two racing hook invocations both noticing a
// stale lease) are collapsed into a single sweep via singleflight, since
// the sweep is idempotent and there is no benefit to running it twice at
// once.
func (c *Coordinator) CleanupStaleClaims(leaseTimeout time.Duration) (int, error) {
	if leaseTimeout <= 0 {
		leaseTimeout = c.leaseTimeout
	}
	v, err, _ := c.sweepSF.Do("sweep", func() (any, error) {
		return c.cleanupStaleClaimsOnce(leaseTimeout)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (c *Coordinator) cleanupStaleClaimsOnce(leaseTimeout time.Duration) (int, error) {
	cutoff := nowMillis() - leaseTimeout.Milliseconds()

	tx, err := c.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.Queryx(`
SELECT t.id, t.claimed_by FROM tasks t
LEFT JOIN heartbeats h ON h.agent_id = t.claimed_by AND h.last_heartbeat >= ?
WHERE t.status = 'claimed' AND t.claimed_at < ? AND h.agent_id IS NULL`, cutoff, cutoff)
	if err != nil {
		return 0, fmt.Errorf("query stale: %w", err)
	}
	var staleTaskIDs []string
	var staleAgents []string
	for rows.Next() {
		var id, agent string
		if err := rows.Scan(&id, &agent); err != nil {
			continue
		}
		staleTaskIDs = append(staleTaskIDs, id)
		staleAgents = append(staleAgents, agent)
	}
	rows.Close()

	for _, id := range staleTaskIDs {
		if _, err := tx.Exec(`UPDATE tasks SET status='pending', claimed_by=NULL, claimed_at=NULL WHERE id=?`, id); err != nil {
			return 0, fmt.Errorf("release %s: %w", id, err)
		}
	}
	for _, agent := range staleAgents {
		if _, err := tx.Exec(`DELETE FROM heartbeats WHERE agent_id=? AND last_heartbeat < ?`, agent, cutoff); err != nil {
			return 0, fmt.Errorf("delete heartbeat %s: %w", agent, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	released := len(staleTaskIDs)
	if released > 0 {
		c.log.Debug().Int("released", released).Msg("stale claims swept")
		_ = c.writeSummary()
	}
	return released, nil
}

// startSweeper schedules CleanupStaleClaims on a 1-minute cron tick,
// supervised by the coordinator's errgroup so CancelSwarm can stop it
// together with any other background goroutine, per spec.md §4.2.3 and the
// "cancellation" requirement in spec.md §5.
func (c *Coordinator) startSweeper() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.c != nil {
		return // already running
	}
	c.c = cron.New()
	id, err := c.c.AddFunc("@every 1m", func() {
		if _, err := c.CleanupStaleClaims(c.leaseTimeout); err != nil {
			c.log.Debug().Err(err).Msg("sweep tick failed")
		}
	})
	if err != nil {
		c.log.Debug().Err(err).Msg("failed to schedule sweeper")
		return
	}
	c.cronID = id
	c.c.Start()

	c.group.Go(func() error {
		<-c.groupCtx.Done()
		c.mu.Lock()
		if c.c != nil {
			c.c.Remove(c.cronID)
			c.c.Stop()
			c.c = nil
		}
		c.mu.Unlock()
		return nil
	})
}

// CancelSwarm marks the session inactive, writes the final summary, stops
// the sweep timer, and removes the mode marker. The database file itself is
// preserved for postmortem analysis, per spec.md §4.2.5.
func (c *Coordinator) CancelSwarm() error {
	_, _ = c.db.Exec(`UPDATE session SET active=0, completed_at=? WHERE active=1`, nowMillis())
	if err := c.writeSummary(); err != nil {
		c.log.Debug().Err(err).Msg("failed to write final summary")
	}
	if err := c.Close(); err != nil {
		return err
	}
	return releaseModeMarker(modeName)
}

func (c *Coordinator) writeSummary() error {
	summary := Summary{GeneratedAt: nowMillis(), TotalsByStatus: map[Status]int{}, ClaimsByAgent: map[string]int{}}

	rows, err := c.db.Queryx(`SELECT status, claimed_by FROM tasks`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var status Status
		var claimedBy *string
		if err := rows.Scan(&status, &claimedBy); err != nil {
			continue
		}
		summary.TotalsByStatus[status]++
		if claimedBy != nil {
			summary.ClaimsByAgent[*claimedBy]++
		}
	}
	rows.Close()

	var oldestPending string
	_ = c.db.Get(&oldestPending, `SELECT id FROM tasks WHERE status='pending' ORDER BY priority ASC, id ASC LIMIT 1`)
	summary.OldestPendingID = oldestPending

	var failID string
	var failAt int64
	row := c.db.QueryRowx(`SELECT id, completed_at FROM tasks WHERE status='failed' ORDER BY completed_at DESC LIMIT 1`)
	if err := row.Scan(&failID, &failAt); err == nil {
		summary.MostRecentFailID = failID
		summary.MostRecentFailAt = failAt
	}

	return worktree.WriteJSON(summaryRelPath, summary)
}

// Status returns the current summary without mutating state, for the
// operator-facing `omc swarm status` command.
func (c *Coordinator) Status() (Summary, error) {
	summary := Summary{TotalsByStatus: map[Status]int{}, ClaimsByAgent: map[string]int{}}

	rows, err := c.db.Queryx(`SELECT status, claimed_by FROM tasks`)
	if err != nil {
		return summary, err
	}
	defer rows.Close()
	for rows.Next() {
		var status Status
		var claimedBy *string
		if err := rows.Scan(&status, &claimedBy); err != nil {
			continue
		}
		summary.TotalsByStatus[status]++
		if claimedBy != nil {
			summary.ClaimsByAgent[*claimedBy]++
		}
	}
	summary.GeneratedAt = nowMillis()
	return summary, nil
}

// ListTasks returns every task row, ordered the same way claim selection
// orders them (priority ascending, then id), for `omc swarm status -v`.
func (c *Coordinator) ListTasks() ([]Task, error) {
	var tasks []Task
	if err := c.db.Select(&tasks, `SELECT id, description, status, claimed_by, claimed_at, completed_at, priority, wave, owned_files, file_patterns, result, error FROM tasks ORDER BY priority ASC, id ASC`); err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].OwnedFiles = unmarshalList(tasks[i].RawOwnedFiles)
		tasks[i].FilePattern = unmarshalList(tasks[i].RawFilePattern)
	}
	return tasks, nil
}

func validateAgentID(agentID string) error {
	if agentID == "" || !idPattern.MatchString(agentID) {
		return fmt.Errorf("%w: invalid agent id %q", ErrNotOwned, agentID)
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
