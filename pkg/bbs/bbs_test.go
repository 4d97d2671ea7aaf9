package bbs

import (
    "bufio"
    "context"
    "errors"
    "net"
    "strings"
    "testing"
    "time"

    "meshbbs/pkg/config"
    "meshbbs/pkg/contexts"
)

func testConfig(t *testing.T) *config.Config {
    cfg := config.Default()
    cfg.DataDir = t.TempDir()
    cfg.Storage = config.StorageConfig{Backend: "memory", Codec: "cbor"}
    cfg.Transports = []config.TransportConfig{{Kind: "tcp", Listen: "127.0.0.1:0"}}
    return cfg
}

// readUntil reads from c until the accumulated text contains sub.
func readUntil(t *testing.T, c net.Conn, sub string) string {
    t.Helper()
    _ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
    var sb strings.Builder
    buf := make([]byte, 512)
    for !strings.Contains(sb.String(), sub) {
        n, err := c.Read(buf)
        if err != nil { t.Fatalf("read waiting for %q: %v (got %q)", sub, err, sb.String()) }
        sb.Write(buf[:n])
    }
    return sb.String()
}

func TestDebugSocketSession(t *testing.T) {
    cfg := testConfig(t)
    st, err := OpenStore(cfg)
    if err != nil { t.Fatalf("store: %v", err) }
    b, err := New(cfg, st, nil)
    if err != nil { t.Fatalf("new: %v", err) }
    defer b.Close()
    if err := b.Listen(); err != nil { t.Fatalf("listen: %v", err) }

    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan error, 1)
    go func() { done <- b.Run(ctx) }()

    c, err := net.Dial("tcp", b.Addrs()[0].String())
    if err != nil { t.Fatalf("dial: %v", err) }
    defer c.Close()
    w := bufio.NewWriter(c)
    say := func(line string) {
        _, _ = w.WriteString(line + "\r\n")
        _ = w.Flush()
    }

    say("hello?")
    say("BBS")
    readUntil(t, c, "[Q]uit")
    say("u")
    readUntil(t, c, "[E]cho")
    say("e")
    readUntil(t, c, "echoed back")
    say("ping over tcp")
    readUntil(t, c, "ping over tcp")
    if b.Directory().Len() != 1 { t.Fatalf("sessions=%d", b.Directory().Len()) }

    cancel()
    select {
    case err := <-done:
        if err != nil { t.Fatalf("run: %v", err) }
    case <-time.After(3 * time.Second):
        t.Fatalf("run did not stop")
    }
    if b.Directory().Len() != 0 { t.Fatalf("sessions left after shutdown: %d", b.Directory().Len()) }
    if s := b.Stats(); s.Activations != 1 || s.Received < 5 { t.Fatalf("stats %+v", s) }
}

func TestNewRejectsUnknownContext(t *testing.T) {
    cfg := testConfig(t)
    cfg.Menus[0].Options = append(cfg.Menus[0].Options, config.OptionConfig{Type: config.OptionCommand, Context: "warp", Command: "w"})
    st, err := OpenStore(cfg)
    if err != nil { t.Fatalf("store: %v", err) }
    defer st.Close()
    _, err = New(cfg, st, nil)
    var unknown contexts.ErrUnknownContext
    if !errors.As(err, &unknown) { t.Fatalf("expected unknown context, got %v", err) }
}

func TestOpenStoreSQLite(t *testing.T) {
    cfg := testConfig(t)
    cfg.Storage = config.StorageConfig{Backend: "sqlite", Path: "bbs.db"}
    st, err := OpenStore(cfg)
    if err != nil { t.Fatalf("open: %v", err) }
    defer st.Close()
    if err := st.Register(t.Context(), "zed", "secret"); err != nil { t.Fatalf("register: %v", err) }
}

func TestNodesHeardThroughDispatcher(t *testing.T) {
    cfg := testConfig(t)
    st, err := OpenStore(cfg)
    if err != nil { t.Fatalf("store: %v", err) }
    b, err := New(cfg, st, nil)
    if err != nil { t.Fatalf("new: %v", err) }
    defer b.Close()
    if err := b.Listen(); err != nil { t.Fatalf("listen: %v", err) }
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    go func() { _ = b.Run(ctx) }()

    c, err := net.Dial("tcp", b.Addrs()[0].String())
    if err != nil { t.Fatalf("dial: %v", err) }
    defer c.Close()
    _, _ = c.Write([]byte("just passing by\n"))

    deadline := time.Now().Add(2 * time.Second)
    for b.Nodes().Len() == 0 && time.Now().Before(deadline) { time.Sleep(5 * time.Millisecond) }
    list := b.Nodes().List()
    if len(list) != 1 || list[0].MsgsIn != 1 || list[0].Kind != "tcp" { t.Fatalf("nodes %+v", list) }
    if b.Directory().Len() != 0 { t.Fatalf("non-keyword opened a session") }
}

func TestNodeRecordsUseStorageCodec(t *testing.T) {
    for _, name := range []string{"cbor", "json"} {
        cfg := testConfig(t)
        cfg.Storage.Codec = name
        st, err := OpenStore(cfg)
        if err != nil { t.Fatalf("%s store: %v", name, err) }
        b, err := New(cfg, st, nil)
        if err != nil { t.Fatalf("%s new: %v", name, err) }
        if got := b.Nodes().Codec().Name(); got != name { t.Fatalf("node codec %q, want %q", got, name) }
        _ = b.Close()
    }
}
