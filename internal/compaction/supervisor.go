package compaction

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/boshu2/omc/internal/obslog"
)

var compactionLog = obslog.New(obslog.Compaction, "PREEMPTIVE_COMPACTION_DEBUG")

// Supervisor runs the stale-session pruner on a 5-minute cron tick,
// cancellable when the owning subsystem shuts down, per spec.md §4.4 and
// the cancellation requirement in spec.md §5. Grounded on the teacher's
// swarm coordinator's startSweeper/CancelSwarm pattern (internal/swarm),
// itself a generalization of the teacher's background-timer convention.
type Supervisor struct {
	engine *Engine
	c      *cron.Cron
}

// NewSupervisor wraps engine with a background pruner. Call Start to begin
// the 5-minute tick and Stop to cancel it.
func NewSupervisor(engine *Engine) *Supervisor {
	return &Supervisor{engine: engine}
}

// Start schedules the pruner. Safe to call once; a second call is a no-op.
func (s *Supervisor) Start() {
	if s.c != nil {
		return
	}
	s.c = cron.New()
	_, err := s.c.AddFunc("@every 5m", func() {
		removed := s.engine.PruneStale(time.Now())
		if removed > 0 {
			compactionLog.Debug().Int("removed", removed).Msg("pruned stale compaction sessions")
		}
	})
	if err != nil {
		compactionLog.Debug().Err(err).Msg("failed to schedule compaction pruner")
		s.c = nil
		return
	}
	s.c.Start()
}

// Stop cancels the pruner, if running. Idempotent.
func (s *Supervisor) Stop(_ context.Context) {
	if s.c == nil {
		return
	}
	stopCtx := s.c.Stop()
	<-stopCtx.Done()
	s.c = nil
}
