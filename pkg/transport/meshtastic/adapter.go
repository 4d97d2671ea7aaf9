package meshtastic

import (
    "context"
    "errors"
    "io"
    "math/rand/v2"
    "sync"
    "sync/atomic"
    "time"
    "unicode/utf8"

    "go.uber.org/zap"

    "meshbbs/pkg/clock"
    "meshbbs/pkg/pacing"
    "meshbbs/pkg/transport"
)

var (
    ErrDisconnected = errors.New("meshtastic: radio not connected")
    ErrQueueFull    = errors.New("meshtastic: send queue full")
)

// Config tunes one radio link.
type Config struct {
    Name     string
    Dialer   Dialer
    Channel  uint32
    HopLimit uint32
    WantAck  bool
    // ProbeInterval is the heartbeat period; a failed write forces a reconnect.
    ProbeInterval time.Duration
    Backoff       Backoff
    // Announce is broadcast on AnnounceChannel after every connect; empty disables it.
    Announce        string
    AnnounceChannel uint32
    // RateBytes/Burst shape outbound traffic; RateBytes <= 0 disables shaping.
    RateBytes int64
    Burst     int64
    QueueSize int
    Clock     clock.Clock
}

// Adapter is an address-aware link to one radio.
type Adapter struct {
    cfg     Config
    handler transport.Handler
    log     *zap.Logger

    mu        sync.Mutex
    conn      io.ReadWriteCloser
    local     uint32
    hasLocal  bool
    announced bool

    wmu    sync.Mutex
    queue  *pacing.Queue
    nextID atomic.Uint32
}

// New returns an adapter; Run drives it.
func New(cfg Config, h transport.Handler) *Adapter {
    if cfg.ProbeInterval <= 0 { cfg.ProbeInterval = time.Second }
    if cfg.HopLimit == 0 { cfg.HopLimit = 3 }
    if cfg.QueueSize <= 0 { cfg.QueueSize = 64 }
    if cfg.Clock == nil { cfg.Clock = clock.Real() }
    if cfg.Name == "" && cfg.Dialer != nil { cfg.Name = cfg.Dialer.String() }
    a := &Adapter{cfg: cfg, handler: h, queue: pacing.NewQueue(cfg.QueueSize)}
    a.log = zap.L().With(zap.String("adapter", cfg.Name))
    a.nextID.Store(rand.Uint32())
    return a
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) Kind() transport.Kind {
    if a.cfg.Dialer == nil { return transport.KindUnknown }
    return a.cfg.Dialer.Kind()
}

// LocalNode is empty until the radio reported my_info; packets are then
// dropped by the dispatcher because they cannot match.
func (a *Adapter) LocalNode() (transport.NodeID, bool) {
    a.mu.Lock(); defer a.mu.Unlock()
    if !a.hasLocal { return "", true }
    return transport.NodeIDFromNum(a.local), true
}

// Connected reports whether a radio stream is open.
func (a *Adapter) Connected() bool {
    a.mu.Lock(); defer a.mu.Unlock()
    return a.conn != nil
}

// SendText queues a direct text message to dest.
func (a *Adapter) SendText(text string, dest transport.NodeID) error {
    to, ok := dest.Num()
    if !ok { return errors.New("meshtastic: bad node id " + string(dest)) }
    return a.enqueue(string(dest), a.textPacket(text, to, a.cfg.Channel))
}

// Broadcast queues a text to every node on channel.
func (a *Adapter) Broadcast(text string, channel uint32) error {
    return a.enqueue(string(transport.BroadcastNode), a.textPacket(text, BroadcastNum, channel))
}

func (a *Adapter) textPacket(text string, to, channel uint32) *MeshPacket {
    return &MeshPacket{
        To:       to,
        Channel:  channel,
        ID:       a.nextID.Add(1),
        HopLimit: a.cfg.HopLimit,
        WantAck:  a.cfg.WantAck && to != BroadcastNum,
        Decoded:  &Data{PortNum: PortTextMessage, Payload: []byte(text)},
    }
}

func (a *Adapter) enqueue(dest string, p *MeshPacket) error {
    if !a.Connected() { return ErrDisconnected }
    if !a.queue.Push(pacing.Item{Dest: dest, Payload: EncodeToRadioPacket(p), Enqueued: a.cfg.Clock.Now()}) { return ErrQueueFull }
    return nil
}

// Run connects, serves and reconnects until ctx ends.
func (a *Adapter) Run(ctx context.Context) error {
    if a.cfg.Dialer == nil { return errors.New("meshtastic: no dialer") }
    var bucket *pacing.TokenBucket
    if a.cfg.RateBytes > 0 { bucket = pacing.NewTokenBucket(a.cfg.RateBytes, a.cfg.Burst, a.cfg.Clock) }
    pacer := &pacing.Pacer{Queue: a.queue, Bucket: bucket, Clock: a.cfg.Clock}
    done := make(chan struct{})
    go func() { defer close(done); pacer.Run(ctx, func(it pacing.Item) error { return a.write(it.Payload) }) }()
    defer func() { a.queue.Close(); <-done }()

    backoff := a.cfg.Backoff.first()
    for {
        if ctx.Err() != nil { return nil }
        conn, err := a.cfg.Dialer.Dial(ctx)
        if err != nil {
            a.log.Warn("radio dial failed", zap.String("dialer", a.cfg.Dialer.String()), zap.Error(err))
            select {
            case <-ctx.Done():
                return nil
            case <-a.cfg.Clock.After(withJitter(backoff, a.cfg.Backoff.Jitter)):
            }
            backoff = a.cfg.Backoff.next(backoff)
            continue
        }
        backoff = a.cfg.Backoff.first()
        a.log.Info("connected to radio", zap.String("dialer", a.cfg.Dialer.String()))
        err = a.serve(ctx, conn)
        if ctx.Err() != nil { return nil }
        a.log.Warn("radio link lost, reconnecting", zap.Error(err))
        select {
        case <-ctx.Done():
            return nil
        case <-a.cfg.Clock.After(withJitter(backoff, a.cfg.Backoff.Jitter)):
        }
    }
}

func (a *Adapter) serve(ctx context.Context, conn io.ReadWriteCloser) error {
    a.mu.Lock()
    a.conn, a.announced = conn, false
    a.mu.Unlock()
    defer func() {
        a.mu.Lock(); a.conn = nil; a.mu.Unlock()
        _ = conn.Close()
        if n := a.queue.Clear(); n > 0 { a.log.Warn("dropped queued packets on disconnect", zap.Int("count", n)) }
    }()

    if err := a.write(EncodeWantConfig(rand.Uint32())); err != nil { return err }

    readErr := make(chan error, 1)
    go func() { readErr <- a.readLoop(conn) }()

    probe := a.cfg.Clock.NewTicker(a.cfg.ProbeInterval)
    defer probe.Stop()
    for {
        select {
        case <-ctx.Done():
            _ = conn.Close()
            <-readErr
            return ctx.Err()
        case err := <-readErr:
            return err
        case <-probe.C:
            if err := a.write(EncodeHeartbeat()); err != nil {
                _ = conn.Close()
                <-readErr
                return err
            }
        }
    }
}

func (a *Adapter) write(payload []byte) error {
    a.mu.Lock(); conn := a.conn; a.mu.Unlock()
    if conn == nil { return ErrDisconnected }
    a.wmu.Lock(); defer a.wmu.Unlock()
    return WriteFrame(conn, payload)
}

func (a *Adapter) readLoop(r io.Reader) error {
    fr := NewFrameReader(r)
    for {
        frame, err := fr.Next()
        if err != nil { return err }
        msg, err := DecodeFromRadio(frame)
        if err != nil {
            a.log.Debug("undecodable frame", zap.Error(err))
            continue
        }
        a.handle(msg)
    }
}

func (a *Adapter) handle(msg *FromRadio) {
    if msg.HasMyInfo {
        a.mu.Lock()
        a.local, a.hasLocal = msg.MyNodeNum, true
        announce := a.cfg.Announce != "" && !a.announced
        a.announced = true
        a.mu.Unlock()
        a.log.Info("radio node", zap.String("node", string(transport.NodeIDFromNum(msg.MyNodeNum))))
        if announce {
            if err := a.Broadcast(a.cfg.Announce, a.cfg.AnnounceChannel); err != nil { a.log.Warn("announce failed", zap.Error(err)) }
        }
    }
    if msg.Rebooted { a.log.Warn("radio rebooted") }
    if msg.Packet == nil || msg.Packet.Decoded == nil || a.handler == nil { return }
    a.handler.OnReceive(ToPacket(msg.Packet), a)
}

// ToPacket converts a radio packet to the core's shape. Only valid UTF-8
// text messages carry text.
func ToPacket(mp *MeshPacket) transport.Packet {
    p := transport.Packet{
        From:    transport.NodeIDFromNum(mp.From),
        To:      transport.NodeIDFromNum(mp.To),
        Channel: mp.Channel,
        ID:      mp.ID,
    }
    if mp.Decoded != nil {
        p.Decoded.PortNum = PortName(mp.Decoded.PortNum)
        if mp.Decoded.PortNum == PortTextMessage && utf8.Valid(mp.Decoded.Payload) {
            p.Decoded.Text, p.Decoded.HasText = string(mp.Decoded.Payload), true
        }
    }
    return p
}
