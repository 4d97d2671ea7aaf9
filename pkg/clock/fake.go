package clock

import (
    "sort"
    "sync"
    "time"
)

// FakeClock only moves when Advance is called. AfterFunc callbacks run
// synchronously inside Advance, in deadline order; a callback must not call
// Advance itself.
type FakeClock struct {
    mu      sync.Mutex
    now     time.Time
    waiters []*waiter
}

type waiter struct {
    deadline time.Time
    ch       chan time.Time
    fn       func()
    every    time.Duration
    stopped  bool
    fired    bool
}

// Fake returns a FakeClock frozen at start.
func Fake(start time.Time) *FakeClock { return &FakeClock{now: start} }

func (c *FakeClock) Now() time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    ch := make(chan time.Time, 1)
    if d <= 0 {
        ch <- c.now
        return ch
    }
    c.waiters = append(c.waiters, &waiter{deadline: c.now.Add(d), ch: ch})
    return ch
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
    if d <= 0 {
        f()
        return &Timer{stop: func() bool { return false }}
    }
    c.mu.Lock()
    w := &waiter{deadline: c.now.Add(d), fn: f}
    c.waiters = append(c.waiters, w)
    c.mu.Unlock()
    return &Timer{stop: func() bool {
        c.mu.Lock()
        defer c.mu.Unlock()
        if w.stopped || w.fired { return false }
        w.stopped = true
        return true
    }}
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
    if d <= 0 { panic("clock: non-positive interval for NewTicker") }
    c.mu.Lock()
    defer c.mu.Unlock()
    ch := make(chan time.Time, 1)
    w := &waiter{deadline: c.now.Add(d), ch: ch, every: d}
    c.waiters = append(c.waiters, w)
    return &Ticker{C: ch, stop: func() {
        c.mu.Lock()
        w.stopped = true
        c.mu.Unlock()
    }}
}

// Advance moves time forward by d and fires everything that came due.
func (c *FakeClock) Advance(d time.Duration) {
    c.mu.Lock()
    c.now = c.now.Add(d)
    target := c.now
    c.mu.Unlock()
    for {
        due := c.collect(target)
        if len(due) == 0 { return }
        sort.SliceStable(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
        for _, w := range due {
            if w.fn != nil {
                w.fn()
                continue
            }
            select {
            case w.ch <- target:
            default:
            }
        }
    }
}

func (c *FakeClock) collect(target time.Time) []*waiter {
    c.mu.Lock()
    defer c.mu.Unlock()
    var due, keep []*waiter
    for _, w := range c.waiters {
        if w.stopped { continue }
        if w.deadline.After(target) {
            keep = append(keep, w)
            continue
        }
        due = append(due, w)
        if w.every > 0 {
            w.deadline = w.deadline.Add(w.every)
            keep = append(keep, w)
        } else {
            w.fired = true
        }
    }
    c.waiters = keep
    return due
}

// Pending counts registered waiters that have neither fired nor stopped.
func (c *FakeClock) Pending() int {
    c.mu.Lock()
    defer c.mu.Unlock()
    n := 0
    for _, w := range c.waiters {
        if !w.stopped { n++ }
    }
    return n
}
