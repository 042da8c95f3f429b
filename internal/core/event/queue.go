package event

import (
	"container/heap"
	"time"
)

type queued[E any] struct {
	ev       E
	typ      int
	priority Priority
	created  time.Time
	seq      uint64
}

// before orders by (priority, created, seq).
func (a *queued[E]) before(b *queued[E]) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	if !a.created.Equal(b.created) {
		return a.created.Before(b.created)
	}
	return a.seq < b.seq
}

// pqueue is a binary heap of pending events. Accessed under Bus.qmu only.
type pqueue[E any] []*queued[E]

func (q pqueue[E]) Len() int           { return len(q) }
func (q pqueue[E]) Less(i, j int) bool { return q[i].before(q[j]) }
func (q pqueue[E]) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *pqueue[E]) Push(x any)        { *q = append(*q, x.(*queued[E])) }
func (q *pqueue[E]) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

func (q *pqueue[E]) push(it *queued[E]) { heap.Push(q, it) }

func (q *pqueue[E]) peek() *queued[E] {
	if len(*q) == 0 {
		return nil
	}
	return (*q)[0]
}

func (q *pqueue[E]) pop() *queued[E] {
	if len(*q) == 0 {
		return nil
	}
	return heap.Pop(q).(*queued[E])
}

// evictVictim removes and returns the lowest-priority, oldest entry.
// Linear scan; only runs on overflow.
func (q *pqueue[E]) evictVictim() *queued[E] {
	if len(*q) == 0 {
		return nil
	}
	victim := 0
	for i := 1; i < len(*q); i++ {
		a, v := (*q)[i], (*q)[victim]
		if a.priority > v.priority ||
			(a.priority == v.priority && (a.created.Before(v.created) ||
				(a.created.Equal(v.created) && a.seq < v.seq))) {
			victim = i
		}
	}
	return heap.Remove(q, victim).(*queued[E])
}

// extract removes every entry matching fn, preserving heap order for the rest.
func (q *pqueue[E]) extract(fn func(*queued[E]) bool) []*queued[E] {
	var out []*queued[E]
	kept := (*q)[:0]
	for _, it := range *q {
		if fn(it) {
			out = append(out, it)
		} else {
			kept = append(kept, it)
		}
	}
	for i := len(kept); i < len(*q); i++ {
		(*q)[i] = nil
	}
	*q = kept
	heap.Init(q)
	return out
}
