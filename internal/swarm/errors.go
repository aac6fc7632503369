package swarm

import "errors"

// Sentinel errors for the swarm coordinator, matched with errors.Is by
// callers per the taxonomy in spec.md §7.
var (
	// ErrNotInitialized is returned when an operation other than
	// StartSwarm is attempted before the schema exists.
	ErrNotInitialized = errors.New("swarm: not initialized")

	// ErrInUse is returned when StartSwarm is attempted while a mode
	// marker for this or a conflicting mode already exists.
	ErrInUse = errors.New("swarm: mode already in use")

	// ErrEmpty is returned when StartSwarm is called with no tasks.
	ErrEmpty = errors.New("swarm: no tasks provided")

	// ErrNoneAvailable is returned when no pending task matches a claim
	// request.
	ErrNoneAvailable = errors.New("swarm: no tasks available")

	// ErrRaced is returned when a claim's compare-and-set update affected
	// zero rows because another agent won the race first.
	ErrRaced = errors.New("swarm: claim raced")

	// ErrNotOwned is returned when an agent attempts to mutate a task it
	// does not currently hold the claim on.
	ErrNotOwned = errors.New("swarm: task not owned by agent")

	// ErrNotFailed is returned when RetryTask targets a task that is not
	// currently in the failed state.
	ErrNotFailed = errors.New("swarm: task is not failed")

	// ErrNotFound is returned when a task id does not exist.
	ErrNotFound = errors.New("swarm: task not found")
)
