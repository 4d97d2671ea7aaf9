package pacing

import (
    "context"
    "testing"
    "time"

    "meshbbs/pkg/clock"
)

func TestQueueFIFOAndBound(t *testing.T) {
    q := NewQueue(2)
    if !q.Push(Item{Dest: "a"}) || !q.Push(Item{Dest: "b"}) { t.Fatalf("push failed") }
    if q.Push(Item{Dest: "c"}) { t.Fatalf("push over bound accepted") }
    if q.Dropped() != 1 { t.Fatalf("dropped=%d", q.Dropped()) }
    ctx := context.Background()
    if it, _ := q.Pop(ctx); it.Dest != "a" { t.Fatalf("first=%q", it.Dest) }
    if it, _ := q.Pop(ctx); it.Dest != "b" { t.Fatalf("second=%q", it.Dest) }
    q.Push(Item{Dest: "x"})
    if q.Clear() != 1 || q.Len() != 0 { t.Fatalf("clear") }
}

func TestPopUnblocksOnCloseAndCancel(t *testing.T) {
    q := NewQueue(0)
    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan bool)
    go func() { _, ok := q.Pop(ctx); done <- ok }()
    cancel()
    if <-done { t.Fatalf("pop returned item after cancel") }

    go func() { _, ok := q.Pop(context.Background()); done <- ok }()
    q.Close()
    select {
    case ok := <-done:
        if ok { t.Fatalf("pop returned item after close") }
    case <-time.After(5 * time.Second):
        t.Fatalf("pop did not unblock on close")
    }
}

func TestTokenBucketRefill(t *testing.T) {
    clk := clock.Fake(time.Unix(0, 0))
    b := NewTokenBucket(100, 200, clk)
    if ok, _ := b.Allow(200); !ok { t.Fatalf("full bucket refused") }
    ok, wait := b.Allow(50)
    if ok || wait != 500*time.Millisecond { t.Fatalf("ok=%v wait=%v", ok, wait) }
    clk.Advance(wait)
    if ok, _ := b.Allow(50); !ok { t.Fatalf("refill not applied") }
    clk.Advance(10 * time.Second)
    if ok, _ := b.Allow(1000); !ok { t.Fatalf("oversized request refused on full bucket") }
}

func TestPacerSendsInOrder(t *testing.T) {
    q := NewQueue(0)
    for _, d := range []string{"1", "2", "3"} { q.Push(Item{Dest: d, Payload: []byte("x")}) }
    q.Close()
    var got []string
    (&Pacer{Queue: q}).Run(context.Background(), func(it Item) error { got = append(got, it.Dest); return nil })
    if len(got) != 3 || got[0] != "1" || got[2] != "3" { t.Fatalf("got %v", got) }
}
