package session

import (
    "sync"
    "sync/atomic"
    "testing"

    "meshbbs/pkg/transport"
    "meshbbs/pkg/transport/mem"
)

func TestDirectoryAddGetRemove(t *testing.T) {
    d := NewDirectory()
    a := mem.New("a")
    s1 := New("u1", a, Options{})
    if err := d.Add("u1", s1); err != nil { t.Fatalf("add: %v", err) }
    if !d.Exists("u1") { t.Fatalf("exists false after add") }
    if got, ok := d.Get("u1"); !ok || got != s1 { t.Fatalf("get returned %p", got) }

    s2 := New("u1", a, Options{})
    if err := d.Add("u1", s2); err != ErrSessionExists { t.Fatalf("duplicate add: %v", err) }
    if got, _ := d.Get("u1"); got != s1 { t.Fatalf("duplicate add replaced entry") }

    if d.RemoveIf("u1", s2) { t.Fatalf("RemoveIf removed a different session") }
    d.Remove("u1")
    if d.Exists("u1") || d.Len() != 0 { t.Fatalf("remove left entry") }
}

func TestDirectoryConcurrentAddSingleWinner(t *testing.T) {
    d := NewDirectory()
    a := mem.New("a")
    var wins int32
    var wg sync.WaitGroup
    start := make(chan struct{})
    for i := 0; i < 32; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            <-start
            if d.Add("race", New("race", a, Options{})) == nil { atomic.AddInt32(&wins, 1) }
        }()
    }
    close(start)
    wg.Wait()
    if wins != 1 { t.Fatalf("winners=%d", wins) }
}

func TestDirectoryIDsSorted(t *testing.T) {
    d := NewDirectory()
    a := mem.New("a")
    for _, id := range []string{"c", "a", "b"} { _ = d.Add(transport.NodeID(id), New(transport.NodeID(id), a, Options{})) }
    ids := d.IDs()
    if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" { t.Fatalf("ids=%v", ids) }
    if len(d.Snapshot()) != 3 { t.Fatalf("snapshot size") }
}
