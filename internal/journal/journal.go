// Package journal records bus traffic as compressed JSON lines. It attaches
// a global callback to every bus of a family; the callback only enqueues, and
// a single writer goroutine does the encoding and file I/O off the world
// tick. When the queue is full the record is dropped and counted.
package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/events"
	"go.uber.org/zap"
)

// DefaultBuffer is the number of records queued before drops start.
const DefaultBuffer = 4096

// Record is one journal line.
type Record struct {
	At    time.Time `json:"at"`
	Bus   string    `json:"bus"`
	Type  string    `json:"type"`
	Event any       `json:"event"`
}

type Option func(*Journal)

func WithClock(now func() time.Time) Option { return func(j *Journal) { j.now = now } }

func WithBuffer(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.in = make(chan Record, n)
		}
	}
}

// Journal is the bus-traffic recorder.
type Journal struct {
	w   *zstdWriter
	in  chan Record
	now func() time.Time
	log *zap.Logger

	mu     sync.Mutex
	detach []func()

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// New prepares a journal writing "bus-<hour>.jsonl.zst" files under dir.
// Nothing is written until Run is started.
func New(dir string, log *zap.Logger, opts ...Option) *Journal {
	j := &Journal{
		w:   newZstdWriter(dir, "bus"),
		in:  make(chan Record, DefaultBuffer),
		now: time.Now,
		log: log.Named("journal"),
	}
	for _, o := range opts {
		o(j)
	}
	return j
}

// attach subscribes j to every type on b.
func attach[E event.Event[E], K event.Kind](j *Journal, b *event.Bus[E, K]) func() {
	name := b.Name()
	id := b.SubscribeCallback(func(e E) {
		j.enqueue(Record{At: j.now(), Bus: name, Type: b.TypeName(e.TypeIndex()), Event: e})
	})
	return func() { b.UnsubscribeCallback(id) }
}

// Attach subscribes the journal to every bus of fam.
func (j *Journal) Attach(fam *events.Family) {
	d := []func(){
		attach(j, fam.Group), attach(j, fam.Combat), attach(j, fam.Cooldown),
		attach(j, fam.Loot), attach(j, fam.Quest), attach(j, fam.Aura),
		attach(j, fam.Resource), attach(j, fam.Social), attach(j, fam.Auction),
		attach(j, fam.NPC), attach(j, fam.Instance),
	}
	j.mu.Lock()
	j.detach = append(j.detach, d...)
	j.mu.Unlock()
}

// Detach removes every subscription made by Attach.
func (j *Journal) Detach() {
	j.mu.Lock()
	d := j.detach
	j.detach = nil
	j.mu.Unlock()
	for _, fn := range d {
		fn()
	}
}

func (j *Journal) enqueue(r Record) {
	select {
	case j.in <- r:
	default:
		if j.dropped.Add(1)&1023 == 1 {
			j.log.Warn("事件日誌佇列已滿，記錄被丟棄", zap.Uint64("dropped", j.dropped.Load()))
		}
	}
}

// Run writes queued records until ctx is done, then writes whatever is still
// queued and closes the current file.
func (j *Journal) Run(ctx context.Context) error {
	flush := time.NewTicker(time.Second)
	defer flush.Stop()
	for {
		select {
		case r := <-j.in:
			j.write(r)
		case <-flush.C:
			if err := j.w.flush(); err != nil {
				j.log.Error("事件日誌寫入失敗", zap.Error(err))
			}
		case <-ctx.Done():
			for {
				select {
				case r := <-j.in:
					j.write(r)
				default:
					return j.w.close()
				}
			}
		}
	}
}

func (j *Journal) write(r Record) {
	if err := j.w.write(r.At, r); err != nil {
		if j.failed.Add(1) == 1 {
			j.log.Error("事件日誌寫入失敗", zap.String("bus", r.Bus), zap.Error(err))
		}
		return
	}
	j.written.Add(1)
}

// Stats reports records written, dropped on a full queue, and failed writes.
func (j *Journal) Stats() (written, dropped, failed uint64) {
	return j.written.Load(), j.dropped.Load(), j.failed.Load()
}
