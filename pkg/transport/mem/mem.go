// Package mem is an in-process adapter. Outbound text is recorded per
// destination; inbound packets are injected by the caller. Used by tests and
// by the console loopback.
package mem

import (
    "errors"
    "sync"

    "meshbbs/pkg/transport"
)

// Sent is one recorded outbound unit.
type Sent struct {
    Dest transport.NodeID
    Text string
}

// Adapter records everything sent through it.
type Adapter struct {
    name  string
    local transport.NodeID
    aware bool

    mu      sync.Mutex
    sent    []Sent
    closed  bool
    handler transport.Handler
    notify  chan Sent
}

// New returns an adapter without addressing, like a debug socket.
func New(name string) *Adapter { return &Adapter{name: name} }

// NewAddressed returns an address-aware adapter owning node local.
func NewAddressed(name string, local transport.NodeID) *Adapter {
    return &Adapter{name: name, local: local, aware: true}
}

func (a *Adapter) Name() string         { return a.name }
func (a *Adapter) Kind() transport.Kind { return transport.KindMem }

func (a *Adapter) LocalNode() (transport.NodeID, bool) { return a.local, a.aware }

func (a *Adapter) SendText(text string, dest transport.NodeID) error {
    a.mu.Lock()
    if a.closed {
        a.mu.Unlock()
        return errors.New("mem: adapter closed")
    }
    s := Sent{Dest: dest, Text: text}
    a.sent = append(a.sent, s)
    ch := a.notify
    a.mu.Unlock()
    if ch != nil {
        select { case ch <- s: default: }
    }
    return nil
}

// Bind sets the handler Inject delivers to.
func (a *Adapter) Bind(h transport.Handler) {
    a.mu.Lock(); a.handler = h; a.mu.Unlock()
}

// Inject delivers p to the bound handler on the caller's goroutine.
func (a *Adapter) Inject(p transport.Packet) {
    a.mu.Lock(); h := a.handler; a.mu.Unlock()
    if h != nil { h.OnReceive(p, a) }
}

// Say injects a text packet from user. Address-aware adapters address it to
// their local node.
func (a *Adapter) Say(from transport.NodeID, text string) {
    port := transport.PortDebugTCP
    to := from
    if a.aware {
        port = transport.PortTextMessage
        to = a.local
    }
    a.Inject(transport.TextPacket(port, from, to, text))
}

// Notify returns a channel that receives every later send (buffered, drops
// when full).
func (a *Adapter) Notify(buf int) <-chan Sent {
    a.mu.Lock(); defer a.mu.Unlock()
    a.notify = make(chan Sent, buf)
    return a.notify
}

// Sent returns a copy of all recorded sends.
func (a *Adapter) Sent() []Sent {
    a.mu.Lock(); defer a.mu.Unlock()
    return append([]Sent(nil), a.sent...)
}

// Texts returns the recorded texts sent to dest.
func (a *Adapter) Texts(dest transport.NodeID) []string {
    a.mu.Lock(); defer a.mu.Unlock()
    var out []string
    for _, s := range a.sent {
        if s.Dest == dest { out = append(out, s.Text) }
    }
    return out
}

// Last returns the most recent text sent to dest.
func (a *Adapter) Last(dest transport.NodeID) string {
    t := a.Texts(dest)
    if len(t) == 0 { return "" }
    return t[len(t)-1]
}

// Reset forgets recorded sends.
func (a *Adapter) Reset() {
    a.mu.Lock(); a.sent = nil; a.mu.Unlock()
}

// Close makes later sends fail.
func (a *Adapter) Close() error {
    a.mu.Lock(); a.closed = true; a.mu.Unlock()
    return nil
}
