package meshtastic

import (
    "context"
    "io"
    "math/rand/v2"
    "net"
    "time"

    "go.bug.st/serial"

    "meshbbs/pkg/transport"
)

// DefaultTCPPort is the radio's stream API port.
const DefaultTCPPort = "4403"

// Dialer opens a byte stream to the radio.
type Dialer interface {
    Dial(ctx context.Context) (io.ReadWriteCloser, error)
    Kind() transport.Kind
    String() string
}

// TCPDialer connects to a WiFi/Ethernet radio.
type TCPDialer struct {
    Addr    string
    Timeout time.Duration
}

func (d TCPDialer) Kind() transport.Kind { return transport.KindMeshTCP }
func (d TCPDialer) String() string       { return "tcp://" + d.addr() }

func (d TCPDialer) addr() string {
    if _, _, err := net.SplitHostPort(d.Addr); err == nil { return d.Addr }
    return net.JoinHostPort(d.Addr, DefaultTCPPort)
}

func (d TCPDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
    nd := &net.Dialer{Timeout: d.Timeout, KeepAlive: 15 * time.Second}
    return nd.DialContext(ctx, "tcp", d.addr())
}

// SerialDialer opens a USB serial radio.
type SerialDialer struct {
    Device string
    Baud   int
}

func (d SerialDialer) Kind() transport.Kind { return transport.KindMeshSerial }
func (d SerialDialer) String() string       { return "serial://" + d.Device }

func (d SerialDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
    baud := d.Baud
    if baud <= 0 { baud = 115200 }
    type result struct {
        p   serial.Port
        err error
    }
    ch := make(chan result, 1)
    go func() {
        p, err := serial.Open(d.Device, &serial.Mode{BaudRate: baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit})
        ch <- result{p, err}
    }()
    select {
    case <-ctx.Done():
        go func() {
            if r := <-ch; r.p != nil { _ = r.p.Close() }
        }()
        return nil, ctx.Err()
    case r := <-ch:
        return r.p, r.err
    }
}

// Backoff is the reconnect schedule.
type Backoff struct {
    Initial time.Duration
    Max     time.Duration
    Jitter  time.Duration
}

func (b Backoff) first() time.Duration {
    if b.Initial <= 0 { return 500 * time.Millisecond }
    return b.Initial
}

func (b Backoff) next(cur time.Duration) time.Duration {
    max := b.Max
    if max <= 0 { max = 30 * time.Second }
    if cur < max {
        cur *= 2
        if cur > max { cur = max }
    }
    return cur
}

func withJitter(d, jitter time.Duration) time.Duration {
    if jitter <= 0 { return d }
    return d + rand.N(jitter)
}
