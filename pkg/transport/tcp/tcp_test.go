package tcp

import (
    "bufio"
    "context"
    "errors"
    "net"
    "strconv"
    "strings"
    "sync"
    "testing"
    "time"

    "meshbbs/pkg/transport"
)

type upper struct {
    mu   sync.Mutex
    from []transport.NodeID
}

func (u *upper) OnReceive(p transport.Packet, a transport.Adapter) {
    u.mu.Lock(); u.from = append(u.from, p.From); u.mu.Unlock()
    _ = a.SendText(strings.ToUpper(p.Decoded.Text)+"\n", p.From)
}

func TestServerEchoesPerConnection(t *testing.T) {
    h := &upper{}
    srv := NewServer("127.0.0.1:0", h, time.Second)
    if err := srv.Listen(); err != nil { t.Fatalf("listen: %v", err) }
    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan error, 1)
    go func() { done <- srv.Serve(ctx) }()

    c, err := net.Dial("tcp", srv.Addr().String())
    if err != nil { t.Fatalf("dial: %v", err) }
    defer c.Close()
    _ = c.SetDeadline(time.Now().Add(5 * time.Second))
    if _, err := c.Write([]byte("hello\r\nbbs\n")); err != nil { t.Fatalf("write: %v", err) }
    r := bufio.NewReader(c)
    for _, want := range []string{"HELLO\n", "BBS\n"} {
        got, err := r.ReadString('\n')
        if err != nil || got != want { t.Fatalf("got %q err=%v want %q", got, err, want) }
    }

    local := c.LocalAddr().(*net.TCPAddr)
    wantID := transport.NodeID("127.0.0.1_" + strconv.Itoa(local.Port))
    h.mu.Lock()
    if len(h.from) != 2 || h.from[0] != wantID { t.Fatalf("ids %v want %s", h.from, wantID) }
    h.mu.Unlock()

    cancel()
    select {
    case err := <-done:
        if err != nil { t.Fatalf("serve: %v", err) }
    case <-time.After(5 * time.Second):
        t.Fatalf("serve did not stop")
    }
}

// failingListener refuses every Accept until closed.
type failingListener struct {
    mu     sync.Mutex
    calls  int
    closed bool
}

func (l *failingListener) Accept() (net.Conn, error) {
    l.mu.Lock(); defer l.mu.Unlock()
    if l.closed { return nil, net.ErrClosed }
    l.calls++
    return nil, errors.New("too many open files")
}

func (l *failingListener) Close() error {
    l.mu.Lock(); l.closed = true; l.mu.Unlock()
    return nil
}

func (l *failingListener) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }

func TestServeBacksOffOnAcceptErrors(t *testing.T) {
    fl := &failingListener{}
    srv := NewServer("unused", &upper{}, 0)
    srv.l = fl
    ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
    defer cancel()
    if err := srv.Serve(ctx); err != nil { t.Fatalf("serve: %v", err) }
    fl.mu.Lock(); defer fl.mu.Unlock()
    // 5+10+20+40 ms of delay fit in the window, so only a handful of retries
    if fl.calls == 0 || fl.calls > 10 { t.Fatalf("accept called %d times", fl.calls) }
}
