// Package dispatch is the single entry point adapters feed packets into. It
// filters packets, finds or creates the sender's session and hands the text
// to it.
package dispatch

import (
    "strings"
    "sync/atomic"

    "go.uber.org/zap"

    "meshbbs/pkg/session"
    "meshbbs/pkg/transport"
)

// Stats are monotonic counters for logs and the status line.
type Stats struct {
    Received    uint64
    Dropped     uint64
    Activations uint64
    LostRaces   uint64
}

// Dispatcher routes inbound packets to sessions.
type Dispatcher struct {
    dir     *session.Directory
    opts    session.Options
    keyword string
    ports   map[string]struct{}
    obs     Observer

    received, dropped, activations, lostRaces atomic.Uint64
}

// Observer sees every packet with a sender, before filtering.
type Observer interface {
    Heard(p transport.Packet, a transport.Adapter)
}

// New builds a dispatcher. opts are used for every session it creates; their
// Directory is forced to dir.
func New(dir *session.Directory, keyword string, opts session.Options) *Dispatcher {
    opts.Directory = dir
    return &Dispatcher{
        dir:     dir,
        opts:    opts,
        keyword: normalize(keyword),
        ports:   transport.AuthorizedPorts,
    }
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// OnReceive implements transport.Handler. It is safe for concurrent use by
// any number of adapters.
func (d *Dispatcher) OnReceive(p transport.Packet, a transport.Adapter) {
    d.received.Add(1)
    if d.obs != nil && p.From != "" { d.obs.Heard(p, a) }
    log := zap.L().With(zap.String("adapter", a.Name()), zap.String("from", string(p.From)))
    if _, ok := d.ports[p.Decoded.PortNum]; !ok || !p.Decoded.HasText {
        d.dropped.Add(1)
        log.Debug("drop: unauthorized port", zap.String("port", p.Decoded.PortNum))
        return
    }
    if p.From == "" {
        d.dropped.Add(1)
        return
    }
    if local, aware := a.LocalNode(); aware && p.To != local {
        d.dropped.Add(1)
        log.Debug("drop: not addressed to this node", zap.String("to", string(p.To)))
        return
    }
    text := strings.TrimRight(p.Decoded.Text, "\r\n")

    if s, ok := d.dir.Get(p.From); ok {
        s.Receive(text)
        return
    }
    if normalize(text) != d.keyword {
        d.dropped.Add(1)
        return
    }
    s := session.New(p.From, a, d.opts)
    if err := d.dir.Add(p.From, s); err != nil {
        d.lostRaces.Add(1)
        log.Debug("activation lost race", zap.Error(err))
        return
    }
    d.activations.Add(1)
    log.Info("session activated")
    s.Start()
}

// Observe installs o. Call it before any adapter runs.
func (d *Dispatcher) Observe(o Observer) { d.obs = o }

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
    return Stats{
        Received:    d.received.Load(),
        Dropped:     d.dropped.Load(),
        Activations: d.activations.Load(),
        LostRaces:   d.lostRaces.Load(),
    }
}

// Shutdown destroys every live session.
func (d *Dispatcher) Shutdown() {
    for _, s := range d.dir.Snapshot() { s.Shutdown() }
}
