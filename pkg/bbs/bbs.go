// Package bbs assembles a running board from configuration: the store, the
// context registry, the dispatcher and one listener or radio link per
// configured transport.
package bbs

import (
    "context"
    "errors"
    "fmt"
    "net"
    "os"
    "sync"
    "time"

    "go.uber.org/zap"

    "meshbbs/pkg/clock"
    "meshbbs/pkg/codec"
    "meshbbs/pkg/config"
    "meshbbs/pkg/contexts"
    "meshbbs/pkg/dispatch"
    "meshbbs/pkg/memkv"
    "meshbbs/pkg/nodes"
    "meshbbs/pkg/session"
    "meshbbs/pkg/store"
    "meshbbs/pkg/store/memstore"
    "meshbbs/pkg/store/sqlite"
    "meshbbs/pkg/transport"
    "meshbbs/pkg/transport/meshtastic"
    "meshbbs/pkg/transport/tcp"
)

const (
    defaultWriteTimeout = 5 * time.Second
    // nodes not heard for this long are forgotten
    nodeRetention = 24 * time.Hour
    pruneInterval = time.Hour
)

// OpenStore opens the configured backend.
func OpenStore(cfg *config.Config) (store.Store, error) {
    switch cfg.Storage.Backend {
    case "memory":
        c, err := codec.ByName(cfg.Storage.Codec)
        if err != nil { return nil, err }
        return memstore.New(memkv.New(memkv.Options{}), c)
    default:
        path := cfg.DataPath(cfg.Storage.Path)
        if path != ":memory:" && cfg.DataDir != "" {
            if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil { return nil, fmt.Errorf("data dir: %w", err) }
        }
        return sqlite.Open(path)
    }
}

// BBS is one board instance.
type BBS struct {
    cfg    *config.Config
    store  store.Store
    env    *contexts.Env
    dir    *session.Directory
    disp   *dispatch.Dispatcher
    tcp    []*tcp.Server
    radios []*meshtastic.Adapter
    nodes  *nodes.Store
    clock  clock.Clock
    log    *zap.Logger
}

// New wires a board over st. It fails when a menu names an unknown context.
func New(cfg *config.Config, st store.Store, clk clock.Clock) (*BBS, error) {
    if clk == nil { clk = clock.Real() }
    env := contexts.NewEnv(cfg, st, clk)
    if err := env.Registry.Validate(cfg.Menus); err != nil { return nil, err }
    nc, err := codec.ByName(cfg.Storage.Codec)
    if err != nil { return nil, err }
    env.Nodes = nodes.NewStore(memkv.New(memkv.Options{}), nc, clk.Now)

    b := &BBS{cfg: cfg, store: st, env: env, dir: session.NewDirectory(), nodes: env.Nodes, clock: clk, log: zap.L().Named("bbs")}
    b.disp = dispatch.New(b.dir, cfg.BBS.ActivationKeyword, session.Options{
        Limits:  session.Limits{PayloadCeiling: cfg.BBS.PayloadCeiling, SafetyMargin: cfg.BBS.SafetyMargin},
        Timeout: cfg.BBS.SessionTimeout,
        Style:   cfg.BBS.Borders,
        Clock:   clk,
        Root:    env.Root,
    })
    b.disp.Observe(b.nodes)

    for i, tc := range cfg.Transports {
        switch transport.ParseKind(tc.Kind) {
        case transport.KindDebugTCP:
            wt := tc.WriteTimeout
            if wt <= 0 { wt = defaultWriteTimeout }
            b.tcp = append(b.tcp, tcp.NewServer(tc.Listen, b.disp, wt))
        case transport.KindMeshTCP, transport.KindMeshSerial:
            b.radios = append(b.radios, meshtastic.New(radioConfig(i, tc, clk), b.disp))
        default:
            return nil, config.ErrUnknownKind(tc.Kind)
        }
    }
    return b, nil
}

func radioConfig(i int, tc config.TransportConfig, clk clock.Clock) meshtastic.Config {
    var d meshtastic.Dialer
    if transport.ParseKind(tc.Kind) == transport.KindMeshSerial {
        d = meshtastic.SerialDialer{Device: tc.Device, Baud: tc.Baud}
    } else {
        d = meshtastic.TCPDialer{Addr: tc.Dial, Timeout: 10 * time.Second}
    }
    return meshtastic.Config{
        Name:            fmt.Sprintf("radio%d:%s", i, d.String()),
        Dialer:          d,
        Channel:         tc.Channel,
        HopLimit:        tc.HopLimit,
        WantAck:         tc.WantAck,
        ProbeInterval:   tc.ProbeInterval,
        Backoff:         meshtastic.Backoff{Initial: tc.Backoff.Initial, Max: tc.Backoff.Max, Jitter: tc.Backoff.Jitter},
        Announce:        tc.Announce,
        AnnounceChannel: tc.AnnounceChannel,
        RateBytes:       tc.Pacing.RateBytes,
        Burst:           tc.Pacing.Burst,
        QueueSize:       tc.Pacing.QueueSize,
        Clock:           clk,
    }
}

// Listen binds every debug socket so addresses are known before Run.
func (b *BBS) Listen() error {
    for _, s := range b.tcp {
        if err := s.Listen(); err != nil { return err }
    }
    return nil
}

// Addrs returns the bound debug socket addresses.
func (b *BBS) Addrs() []net.Addr {
    var out []net.Addr
    for _, s := range b.tcp {
        if a := s.Addr(); a != nil { out = append(out, a) }
    }
    return out
}

func (b *BBS) Directory() *session.Directory { return b.dir }
func (b *BBS) Nodes() *nodes.Store            { return b.nodes }
func (b *BBS) Stats() dispatch.Stats        { return b.disp.Stats() }

// Run serves every transport until ctx ends, then destroys all sessions.
// A transport that fails to start cancels the rest.
func (b *BBS) Run(ctx context.Context) error {
    ctx, cancel := context.WithCancel(ctx)
    defer cancel()

    var (
        wg       sync.WaitGroup
        errMu    sync.Mutex
        firstErr error
    )
    fail := func(err error) {
        errMu.Lock()
        if firstErr == nil { firstErr = err }
        errMu.Unlock()
        cancel()
    }
    for _, s := range b.tcp {
        wg.Add(1)
        go func(s *tcp.Server) {
            defer wg.Done()
            if err := s.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) { fail(fmt.Errorf("debug tcp: %w", err)) }
        }(s)
    }
    for _, r := range b.radios {
        wg.Add(1)
        go func(r *meshtastic.Adapter) {
            defer wg.Done()
            if err := r.Run(ctx); err != nil { fail(fmt.Errorf("%s: %w", r.Name(), err)) }
        }(r)
    }
    wg.Add(1)
    go func() {
        defer wg.Done()
        b.pruneLoop(ctx)
    }()
    b.log.Info("bbs running", zap.Int("debug_sockets", len(b.tcp)), zap.Int("radios", len(b.radios)), zap.String("keyword", b.cfg.BBS.ActivationKeyword))

    <-ctx.Done()
    wg.Wait()
    b.disp.Shutdown()
    st := b.disp.Stats()
    b.log.Info("bbs stopped",
        zap.Uint64("received", st.Received), zap.Uint64("dropped", st.Dropped),
        zap.Uint64("activations", st.Activations), zap.Uint64("lost_races", st.LostRaces))
    return firstErr
}

func (b *BBS) pruneLoop(ctx context.Context) {
    t := b.clock.NewTicker(pruneInterval)
    defer t.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-t.C:
            b.nodes.Prune(nodeRetention)
        }
    }
}

// Close releases the store.
func (b *BBS) Close() error { return b.store.Close() }
