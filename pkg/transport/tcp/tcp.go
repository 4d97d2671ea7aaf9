// Package tcp is the debug socket adapter. Every accepted connection is its
// own Adapter; each line the client writes becomes one text packet.
package tcp

import (
    "bufio"
    "context"
    "errors"
    "net"
    "strings"
    "sync"
    "time"

    "go.uber.org/zap"

    "meshbbs/pkg/transport"
)

// MaxLine bounds one inbound line.
const MaxLine = 4096

// Accept failures back off from acceptDelayMin, doubling up to acceptDelayMax.
const (
    acceptDelayMin = 5 * time.Millisecond
    acceptDelayMax = time.Second
)

// Server accepts debug connections.
type Server struct {
    addr     string
    handler  transport.Handler
    writeTTL time.Duration

    mu    sync.Mutex
    l     net.Listener
    conns map[*Conn]struct{}
    wg    sync.WaitGroup
}

// NewServer returns a server for addr ("host:port"). writeTimeout <= 0
// disables write deadlines.
func NewServer(addr string, h transport.Handler, writeTimeout time.Duration) *Server {
    return &Server{addr: addr, handler: h, writeTTL: writeTimeout, conns: make(map[*Conn]struct{})}
}

// Listen binds the socket. Serve calls it when needed.
func (s *Server) Listen() error {
    s.mu.Lock(); defer s.mu.Unlock()
    if s.l != nil { return nil }
    l, err := net.Listen("tcp", s.addr)
    if err != nil { return err }
    s.l = l
    return nil
}

// Addr is the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
    s.mu.Lock(); defer s.mu.Unlock()
    if s.l == nil { return nil }
    return s.l.Addr()
}

// Serve accepts connections until ctx is cancelled, then closes the listener
// and every open connection and waits for their loops.
func (s *Server) Serve(ctx context.Context) error {
    if err := s.Listen(); err != nil { return err }
    s.mu.Lock(); l := s.l; s.mu.Unlock()
    zap.L().Info("debug tcp listening", zap.String("addr", l.Addr().String()))
    go func() { <-ctx.Done(); _ = l.Close() }()
    var delay time.Duration
    for {
        c, err := l.Accept()
        if err != nil {
            if ctx.Err() != nil || errors.Is(err, net.ErrClosed) { break }
            delay = min(max(2*delay, acceptDelayMin), acceptDelayMax)
            zap.L().Warn("accept failed", zap.Duration("retry_in", delay), zap.Error(err))
            select {
            case <-ctx.Done():
            case <-time.After(delay):
            }
            continue
        }
        delay = 0
        conn := &Conn{c: c, id: transport.NodeIDFromAddr(c.RemoteAddr()), writeTTL: s.writeTTL}
        s.track(conn, true)
        s.wg.Add(1)
        go func() {
            defer s.wg.Done()
            defer s.track(conn, false)
            conn.readLoop(s.handler)
        }()
    }
    s.mu.Lock()
    for c := range s.conns { _ = c.Close() }
    s.mu.Unlock()
    s.wg.Wait()
    return nil
}

func (s *Server) track(c *Conn, on bool) {
    s.mu.Lock(); defer s.mu.Unlock()
    if on { s.conns[c] = struct{}{} } else { delete(s.conns, c) }
}

// Conn is one debug client. It is not address-aware.
type Conn struct {
    c        net.Conn
    id       transport.NodeID
    writeTTL time.Duration
    mu       sync.Mutex
}

func (c *Conn) Name() string                        { return "tcp:" + string(c.id) }
func (c *Conn) Kind() transport.Kind                { return transport.KindDebugTCP }
func (c *Conn) LocalNode() (transport.NodeID, bool) { return "", false }

// ID is the user identity derived from the remote address.
func (c *Conn) ID() transport.NodeID { return c.id }

// SendText writes text as-is. dest is ignored: a connection has one user.
func (c *Conn) SendText(text string, _ transport.NodeID) error {
    c.mu.Lock(); defer c.mu.Unlock()
    if c.writeTTL > 0 { _ = c.c.SetWriteDeadline(time.Now().Add(c.writeTTL)) }
    _, err := c.c.Write([]byte(text))
    return err
}

func (c *Conn) Close() error { return c.c.Close() }

func (c *Conn) readLoop(h transport.Handler) {
    log := zap.L().With(zap.String("user", string(c.id)))
    log.Info("debug client connected")
    defer log.Info("debug client disconnected")
    defer c.Close()
    sc := bufio.NewScanner(c.c)
    sc.Buffer(make([]byte, 0, 512), MaxLine)
    for sc.Scan() {
        line := strings.TrimRight(sc.Text(), "\r\n")
        h.OnReceive(transport.TextPacket(transport.PortDebugTCP, c.id, c.id, line), c)
    }
    if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
        log.Debug("read ended", zap.Error(err))
    }
}
