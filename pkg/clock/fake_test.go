package clock

import (
    "testing"
    "time"
)

func TestAfterFuncFiresOnAdvance(t *testing.T) {
    c := Fake(time.Unix(0, 0))
    n := 0
    c.AfterFunc(5*time.Second, func() { n++ })
    c.Advance(4 * time.Second)
    if n != 0 { t.Fatalf("fired early: %d", n) }
    c.Advance(time.Second)
    if n != 1 { t.Fatalf("want 1 fire, got %d", n) }
    c.Advance(time.Minute)
    if n != 1 { t.Fatalf("one-shot fired again: %d", n) }
}

func TestStopPreventsFire(t *testing.T) {
    c := Fake(time.Unix(0, 0))
    fired := false
    tm := c.AfterFunc(time.Second, func() { fired = true })
    if !tm.Stop() { t.Fatalf("stop should report active timer") }
    if tm.Stop() { t.Fatalf("second stop should report false") }
    c.Advance(2 * time.Second)
    if fired { t.Fatalf("stopped timer fired") }
    if c.Pending() != 0 { t.Fatalf("pending=%d", c.Pending()) }
}

func TestTickerAndAfter(t *testing.T) {
    c := Fake(time.Unix(0, 0))
    tk := c.NewTicker(time.Second)
    defer tk.Stop()
    ch := c.After(3 * time.Second)
    c.Advance(time.Second)
    select {
    case <-tk.C:
    default:
        t.Fatalf("ticker did not tick")
    }
    c.Advance(2 * time.Second)
    select {
    case <-ch:
    default:
        t.Fatalf("After did not deliver")
    }
}
