// Package pacing shapes outbound radio traffic: a bounded FIFO in front of a
// token bucket so bursts of pages do not flood the mesh.
package pacing

import (
    "context"
    "sync"
    "time"

    "github.com/eapache/queue"
)

// Item is one outbound unit.
type Item struct {
    Dest     string
    Payload  []byte
    Enqueued time.Time
}

// Queue is a bounded FIFO. Push never blocks; Pop blocks until an item is
// available, the queue is closed or ctx ends.
type Queue struct {
    mu      sync.Mutex
    q       *queue.Queue
    max     int
    closed  bool
    dropped uint64
    ready   chan struct{}
}

// NewQueue returns a queue holding at most max items (max <= 0: unbounded).
func NewQueue(max int) *Queue {
    return &Queue{q: queue.New(), max: max, ready: make(chan struct{}, 1)}
}

// Push appends it. It returns false and counts a drop when the queue is full
// or closed.
func (q *Queue) Push(it Item) bool {
    q.mu.Lock()
    if q.closed || (q.max > 0 && q.q.Length() >= q.max) {
        q.dropped++
        q.mu.Unlock()
        return false
    }
    q.q.Add(it)
    q.mu.Unlock()
    select { case q.ready <- struct{}{}: default: }
    return true
}

// Pop removes the oldest item.
func (q *Queue) Pop(ctx context.Context) (Item, bool) {
    for {
        q.mu.Lock()
        if q.q.Length() > 0 {
            it := q.q.Remove().(Item)
            more := q.q.Length() > 0
            q.mu.Unlock()
            if more {
                select { case q.ready <- struct{}{}: default: }
            }
            return it, true
        }
        closed := q.closed
        q.mu.Unlock()
        if closed { return Item{}, false }
        select {
        case <-ctx.Done():
            return Item{}, false
        case <-q.ready:
        }
    }
}

func (q *Queue) Len() int {
    q.mu.Lock(); defer q.mu.Unlock()
    return q.q.Length()
}

// Dropped counts rejected pushes plus items discarded by Clear.
func (q *Queue) Dropped() uint64 {
    q.mu.Lock(); defer q.mu.Unlock()
    return q.dropped
}

// Clear discards everything queued and returns how many items were lost.
func (q *Queue) Clear() int {
    q.mu.Lock(); defer q.mu.Unlock()
    n := q.q.Length()
    for q.q.Length() > 0 { q.q.Remove() }
    q.dropped += uint64(n)
    return n
}

// Close wakes blocked Pop calls; queued items are still drained.
func (q *Queue) Close() {
    q.mu.Lock(); q.closed = true; q.mu.Unlock()
    select { case q.ready <- struct{}{}: default: }
}
