package persist

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/l1jgo/playerbot/internal/autonomy"
	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeStats struct {
	snaps []Snapshot
	err   error
}

func (f *fakeStats) WriteSnapshot(_ context.Context, s Snapshot) error {
	if f.err != nil {
		return f.err
	}
	f.snaps = append(f.snaps, s)
	return nil
}

type fakeAudit struct {
	rows []autonomy.Change
	err  error
}

func (f *fakeAudit) WriteChanges(_ context.Context, c []autonomy.Change) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, c...)
	return nil
}

func change(to autonomy.State) autonomy.Change {
	return autonomy.Change{Group: ident.NewEntityID(), From: autonomy.StateActive, To: to, At: time.Unix(1700000000, 0)}
}

func TestArchiveFlushesOncePerInterval(t *testing.T) {
	stats, audit := &fakeStats{}, &fakeAudit{}
	sample := func() Snapshot {
		return Snapshot{TakenAt: time.Unix(1700000000, 0), Buses: []event.Stats{{Bus: "group", Published: 3}}}
	}
	a := NewArchive(stats, audit, sample, time.Second, zaptest.NewLogger(t))

	a.RecordChange(change(autonomy.StatePaused))
	a.RecordChange(change(autonomy.StateActive))
	for i := 0; i < 9; i++ {
		a.Tick(context.Background(), 100*time.Millisecond)
	}
	assert.Empty(t, stats.snaps)
	assert.Equal(t, 2, a.Pending())

	a.Tick(context.Background(), 100*time.Millisecond)
	require.Len(t, stats.snaps, 1)
	assert.Equal(t, "group", stats.snaps[0].Buses[0].Bus)
	assert.Len(t, audit.rows, 2)
	assert.Zero(t, a.Pending())

	flushes, failed, lost := a.Counters()
	assert.Equal(t, uint64(1), flushes)
	assert.Zero(t, failed)
	assert.Zero(t, lost)
}

func TestArchiveKeepsChangesOnFailure(t *testing.T) {
	audit := &fakeAudit{err: errors.New("connection refused")}
	a := NewArchive(nil, audit, nil, time.Minute, zaptest.NewLogger(t))
	a.RecordChange(change(autonomy.StatePaused))
	a.Flush(context.Background())
	assert.Equal(t, 1, a.Pending())

	a.RecordChange(change(autonomy.StateActive))
	audit.err = nil
	a.Flush(context.Background())
	require.Len(t, audit.rows, 2)
	assert.Equal(t, autonomy.StatePaused, audit.rows[0].To, "older change first")

	_, failed, _ := a.Counters()
	assert.Equal(t, uint64(1), failed)
}

func TestArchiveBoundsBuffer(t *testing.T) {
	a := NewArchive(nil, nil, nil, time.Minute, zaptest.NewLogger(t))
	for i := 0; i < maxPendingChanges+5; i++ {
		a.RecordChange(change(autonomy.StateWaiting))
	}
	assert.Equal(t, maxPendingChanges, a.Pending())
	_, _, lost := a.Counters()
	assert.Equal(t, uint64(5), lost)
}

func TestUUIDOrNil(t *testing.T) {
	assert.Nil(t, uuidOrNil(ident.Empty))
	id := ident.NewEntityID()
	assert.Equal(t, id.String(), uuidOrNil(id))
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		b, err := fs.ReadFile(migrations, f)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(b), "-- +goose Up"), f)
		assert.True(t, strings.Contains(string(b), "-- +goose Down"), f)
	}
}
