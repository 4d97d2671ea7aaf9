package memkv

import (
    "fmt"
    "sync"
    "testing"
)

func TestSetGetDelete(t *testing.T) {
    s := New(Options{})
    if created, err := s.Set("a", []byte("1")); !created || err != nil { t.Fatalf("set: %v %v", created, err) }
    if created, _ := s.Set("a", []byte("22")); created { t.Fatalf("overwrite reported as create") }
    v, ok := s.Get("a")
    if !ok || string(v) != "22" { t.Fatalf("get: %q %v", v, ok) }
    v[0] = 'x'
    if v2, _ := s.Get("a"); string(v2) != "22" { t.Fatalf("value aliased") }
    if !s.Delete("a") || s.Exists("a") { t.Fatalf("delete") }
    m := s.Metrics()
    if m.Keys != 0 || m.Bytes != 0 || m.Hits != 2 { t.Fatalf("metrics %+v", m) }
}

func TestSetNXSingleWinner(t *testing.T) {
    s := New(Options{Shards: 4})
    var wg sync.WaitGroup
    wins := make(chan int, 16)
    for i := 0; i < 16; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            if ok, _ := s.SetNX("user:bob", []byte(fmt.Sprint(i))); ok { wins <- i }
        }(i)
    }
    wg.Wait()
    close(wins)
    if len(wins) != 1 { t.Fatalf("winners=%d", len(wins)) }
}

func TestMaxBytes(t *testing.T) {
    s := New(Options{MaxBytes: 10})
    if _, err := s.Set("a", make([]byte, 8)); err != nil { t.Fatalf("set: %v", err) }
    if _, err := s.Set("b", make([]byte, 3)); err != ErrFull { t.Fatalf("want ErrFull, got %v", err) }
    if _, err := s.Set("a", make([]byte, 10)); err != nil { t.Fatalf("grow within limit: %v", err) }
    s.Delete("a")
    if _, err := s.Set("b", make([]byte, 3)); err != nil { t.Fatalf("after delete: %v", err) }
}

func TestUpdateAndScan(t *testing.T) {
    s := New(Options{})
    for _, k := range []string{"post:t1:0002", "post:t1:0001", "post:t2:0001", "topic:t1"} { _, _ = s.Set(k, []byte(k)) }
    ok, _ := s.Update("counter", func(old []byte, exists bool) []byte {
        if exists { t.Fatalf("missing key reported as existing") }
        return []byte("1")
    })
    if !ok { t.Fatalf("update did not create") }
    ok, _ = s.Update("counter", func(old []byte, _ bool) []byte { return nil })
    if ok { t.Fatalf("nil update applied") }

    var seen []string
    s.Scan("post:t1:", func(k string, v []byte) bool { seen = append(seen, k); return true })
    if len(seen) != 2 || seen[0] != "post:t1:0001" { t.Fatalf("scan order %v", seen) }
}
