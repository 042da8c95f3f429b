package persist

import (
	"context"
	"sync"
	"time"

	"github.com/l1jgo/playerbot/internal/autonomy"
	"go.uber.org/zap"
)

// StatsWriter stores statistics samples. *StatsRepo implements it.
type StatsWriter interface {
	WriteSnapshot(ctx context.Context, s Snapshot) error
}

// AuditWriter stores autonomy state changes. *AuditRepo implements it.
type AuditWriter interface {
	WriteChanges(ctx context.Context, changes []autonomy.Change) error
}

// maxPendingChanges bounds the audit buffer while the database is down.
const maxPendingChanges = 10000

// Archive buffers autonomy changes as they happen and writes them, with a
// statistics sample, once per interval. It never reads anything back.
type Archive struct {
	stats    StatsWriter
	audit    AuditWriter
	sample   func() Snapshot
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	pending []autonomy.Change
	lost    uint64

	elapsed time.Duration
	flushes uint64
	failed  uint64
}

func NewArchive(stats StatsWriter, audit AuditWriter, sample func() Snapshot, interval time.Duration, log *zap.Logger) *Archive {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Archive{
		stats:    stats,
		audit:    audit,
		sample:   sample,
		interval: interval,
		log:      log.Named("archive"),
	}
}

// RecordChange queues one change. Safe to call from the autonomy change hook.
func (a *Archive) RecordChange(c autonomy.Change) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.pending) >= maxPendingChanges {
		a.pending = a.pending[1:]
		a.lost++
	}
	a.pending = append(a.pending, c)
}

// Tick accumulates time and flushes once per interval.
func (a *Archive) Tick(ctx context.Context, dt time.Duration) {
	a.elapsed += dt
	if a.elapsed < a.interval {
		return
	}
	a.elapsed = 0
	a.Flush(ctx)
}

// Flush writes the pending changes and one statistics sample. Changes that
// fail to write are kept for the next flush.
func (a *Archive) Flush(ctx context.Context) {
	a.mu.Lock()
	batch := a.pending
	a.pending = nil
	a.flushes++
	a.mu.Unlock()

	if a.audit != nil && len(batch) > 0 {
		if err := a.audit.WriteChanges(ctx, batch); err != nil {
			a.log.Error("自主模式稽核寫入失敗", zap.Int("rows", len(batch)), zap.Error(err))
			a.mu.Lock()
			a.failed++
			a.pending = append(batch, a.pending...)
			if over := len(a.pending) - maxPendingChanges; over > 0 {
				a.pending = a.pending[over:]
				a.lost += uint64(over)
			}
			a.mu.Unlock()
		}
	}
	if a.stats != nil && a.sample != nil {
		if err := a.stats.WriteSnapshot(ctx, a.sample()); err != nil {
			a.log.Error("統計快照寫入失敗", zap.Error(err))
			a.mu.Lock()
			a.failed++
			a.mu.Unlock()
		}
	}
}

// Pending is the number of buffered changes.
func (a *Archive) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Counters reports flushes attempted, write failures and changes discarded
// because the buffer was full.
func (a *Archive) Counters() (flushes, failed, lost uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flushes, a.failed, a.lost
}
