package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/dungeon"
	"github.com/l1jgo/playerbot/internal/world"
)

// Snapshot is one periodic statistics sample.
type Snapshot struct {
	TakenAt time.Time
	Buses   []event.Stats
	Terrain []world.TerrainStats
	Scripts dungeon.Stats
}

type StatsRepo struct {
	db *DB
}

func NewStatsRepo(db *DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// WriteSnapshot stores one sample in a single transaction.
func (r *StatsRepo) WriteSnapshot(ctx context.Context, s Snapshot) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("stats begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range s.Buses {
		if _, err := tx.Exec(ctx,
			`INSERT INTO bus_stats (taken_at, bus, published, delivered, dropped, rejected, expired, faults, pending, peak_depth, avg_micros)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			s.TakenAt, b.Bus, int64(b.Published), int64(b.Delivered), int64(b.Dropped), int64(b.Rejected),
			int64(b.Expired), int64(b.Faults), b.Pending, b.PeakQueueDepth, b.AvgProcessingMicros(),
		); err != nil {
			return fmt.Errorf("bus stats insert: %w", err)
		}
	}
	for _, t := range s.Terrain {
		if _, err := tx.Exec(ctx,
			`INSERT INTO terrain_stats (taken_at, map_id, hits, misses, coalesced, entries)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			s.TakenAt, int32(t.Map), int64(t.Hits), int64(t.Misses), int64(t.Coalesced), t.Entries,
		); err != nil {
			return fmt.Errorf("terrain stats insert: %w", err)
		}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO script_stats (taken_at, hits, fallbacks, generics, faults)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.TakenAt, int64(s.Scripts.ScriptHits), int64(s.Scripts.FallbackExecutions),
		int64(s.Scripts.GenericExecutions), int64(s.Scripts.Faults),
	); err != nil {
		return fmt.Errorf("script stats insert: %w", err)
	}

	return tx.Commit(ctx)
}
