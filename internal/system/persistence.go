package system

import (
	"context"
	"time"

	"github.com/l1jgo/playerbot/internal/agent"
	coresys "github.com/l1jgo/playerbot/internal/core/system"
	"github.com/l1jgo/playerbot/internal/persist"
)

// archiveTimeout bounds one archive flush.
const archiveTimeout = 2 * time.Second

// ArchiveSystem flushes the statistics archive once per interval.
// Phase 5 (Persist).
type ArchiveSystem struct {
	archive *persist.Archive
}

func NewArchiveSystem(a *persist.Archive) *ArchiveSystem {
	return &ArchiveSystem{archive: a}
}

func (s *ArchiveSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *ArchiveSystem) Update(dt time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	s.archive.Tick(ctx, dt)
}

// FlushNow writes whatever is pending, for graceful shutdown.
func (s *ArchiveSystem) FlushNow(ctx context.Context) {
	s.archive.Flush(ctx)
}

// CleanupSystem runs the agent despawns queued during the tick.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	agents *agent.Manager
}

func NewCleanupSystem(agents *agent.Manager) *CleanupSystem {
	return &CleanupSystem{agents: agents}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.agents.FlushDespawns()
}
