// Package clock abstracts time for components with timers (session
// inactivity, radio heartbeat, backoff) so tests can drive time by hand.
package clock

import "time"

// Clock is the subset of the time package the BBS uses.
type Clock interface {
    Now() time.Time
    // After delivers the current time on the channel once d elapsed.
    After(d time.Duration) <-chan time.Time
    // AfterFunc calls f once d elapsed unless the returned Timer is stopped.
    AfterFunc(d time.Duration, f func()) *Timer
    // NewTicker panics if d <= 0.
    NewTicker(d time.Duration) *Ticker
}

// Timer is a cancellable AfterFunc registration.
type Timer struct {
    stop func() bool
}

// Stop reports whether the call prevented the timer from firing.
func (t *Timer) Stop() bool {
    if t == nil || t.stop == nil { return false }
    return t.stop()
}

// Ticker delivers periodic ticks on C (capacity 1, ticks dropped when full).
type Ticker struct {
    C    <-chan time.Time
    stop func()
}

func (t *Ticker) Stop() { t.stop() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
    t := time.AfterFunc(d, f)
    return &Timer{stop: t.Stop}
}

func (realClock) NewTicker(d time.Duration) *Ticker {
    t := time.NewTicker(d)
    return &Ticker{C: t.C, stop: t.Stop}
}
