package meshtastic

import (
    "bytes"
    "context"
    "io"
    "net"
    "sync"
    "testing"
    "time"

    "google.golang.org/protobuf/encoding/protowire"

    "meshbbs/pkg/transport"
)

func TestFrameReaderSkipsConsoleNoise(t *testing.T) {
    var buf bytes.Buffer
    buf.WriteString("INFO | boot\r\n\x94")
    _ = WriteFrame(&buf, []byte("one"))
    buf.Write([]byte{start1, start2, 0x10, 0x00}) // length 4096, discarded
    _ = WriteFrame(&buf, []byte("two"))
    fr := NewFrameReader(&buf)
    for _, want := range []string{"one", "two"} {
        got, err := fr.Next()
        if err != nil || string(got) != want { t.Fatalf("got %q err=%v want %q", got, err, want) }
    }
    if _, err := fr.Next(); err != io.EOF { t.Fatalf("want EOF, got %v", err) }
    if err := WriteFrame(io.Discard, make([]byte, MaxFrame+1)); err == nil { t.Fatalf("oversized frame written") }
}

func TestMeshPacketEncoding(t *testing.T) {
    in := &MeshPacket{From: 0xbeef, To: 0x1234, Channel: 2, ID: 77, HopLimit: 3, WantAck: true,
        Decoded: &Data{PortNum: PortTextMessage, Payload: []byte("hello")}}
    out, err := DecodeMeshPacket(AppendMeshPacket(nil, in))
    if err != nil { t.Fatalf("decode: %v", err) }
    if out.From != in.From || out.To != in.To || out.Channel != 2 || out.ID != 77 || out.HopLimit != 3 || !out.WantAck {
        t.Fatalf("header mismatch: %+v", out)
    }
    if out.Decoded == nil || string(out.Decoded.Payload) != "hello" { t.Fatalf("payload mismatch") }
}

func fromRadioMyInfoMsg(num uint32) []byte {
    inner := protowire.AppendTag(nil, myInfoNodeNum, protowire.VarintType)
    inner = protowire.AppendVarint(inner, uint64(num))
    // an unknown field the decoder must skip
    inner = protowire.AppendTag(inner, 11, protowire.BytesType)
    inner = protowire.AppendBytes(inner, []byte("fw"))
    b := protowire.AppendTag(nil, fromRadioMyInfo, protowire.BytesType)
    return protowire.AppendBytes(b, inner)
}

func fromRadioPacketMsg(p *MeshPacket) []byte {
    b := protowire.AppendTag(nil, fromRadioID, protowire.VarintType)
    b = protowire.AppendVarint(b, 9)
    b = protowire.AppendTag(b, fromRadioPacket, protowire.BytesType)
    return protowire.AppendBytes(b, AppendMeshPacket(nil, p))
}

// decodeToRadioPacket extracts ToRadio.packet, or nil for other variants.
func decodeToRadioPacket(t *testing.T, b []byte) *MeshPacket {
    var out *MeshPacket
    err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) int {
        if num != toRadioPacket { return -1 }
        inner, n := protowire.ConsumeBytes(v)
        p, err := DecodeMeshPacket(inner)
        if err != nil { t.Fatalf("decode packet: %v", err) }
        out = p
        return n
    })
    if err != nil { t.Fatalf("decode ToRadio: %v", err) }
    return out
}

func TestDecodeFromRadio(t *testing.T) {
    m, err := DecodeFromRadio(fromRadioMyInfoMsg(0x1234))
    if err != nil || !m.HasMyInfo || m.MyNodeNum != 0x1234 { t.Fatalf("my_info: %+v err=%v", m, err) }
    m, err = DecodeFromRadio(fromRadioPacketMsg(&MeshPacket{From: 1, To: 2, Decoded: &Data{PortNum: PortTelemetry}}))
    if err != nil || m.ID != 9 || m.Packet == nil || m.Packet.Decoded.PortNum != PortTelemetry { t.Fatalf("packet: %+v err=%v", m, err) }
    if _, err := DecodeFromRadio([]byte{0xff}); err == nil { t.Fatalf("garbage decoded") }
}

func TestToPacket(t *testing.T) {
    p := ToPacket(&MeshPacket{From: 0xbeef, To: BroadcastNum, Decoded: &Data{PortNum: PortTextMessage, Payload: []byte("hi")}})
    if p.From != "!0000beef" || p.To != transport.BroadcastNode || p.Decoded.PortNum != transport.PortTextMessage || p.Decoded.Text != "hi" {
        t.Fatalf("unexpected %+v", p)
    }
    p = ToPacket(&MeshPacket{From: 1, Decoded: &Data{PortNum: PortPosition, Payload: []byte{1, 2}}})
    if p.Decoded.HasText || p.Decoded.PortNum != "POSITION_APP" { t.Fatalf("non-text port carried text: %+v", p) }
}

type pipeDialer struct {
    conns chan net.Conn
}

func (d *pipeDialer) Kind() transport.Kind { return transport.KindMeshTCP }
func (d *pipeDialer) String() string       { return "pipe" }

func (d *pipeDialer) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
    select {
    case c := <-d.conns:
        return c, nil
    case <-ctx.Done():
        return nil, ctx.Err()
    }
}

type recorder struct {
    mu  sync.Mutex
    got []transport.Packet
    ch  chan transport.Packet
}

func (r *recorder) OnReceive(p transport.Packet, a transport.Adapter) {
    r.mu.Lock(); r.got = append(r.got, p); r.mu.Unlock()
    r.ch <- p
}

func TestAdapterAgainstFakeRadio(t *testing.T) {
    host, radio := net.Pipe()
    d := &pipeDialer{conns: make(chan net.Conn, 1)}
    d.conns <- host
    rec := &recorder{ch: make(chan transport.Packet, 4)}
    a := New(Config{Name: "radio", Dialer: d, ProbeInterval: time.Hour, Announce: "BBS Online!", AnnounceChannel: 1, WantAck: true}, rec)

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    go func() { _ = a.Run(ctx) }()

    frames := make(chan []byte, 16)
    go func() {
        fr := NewFrameReader(radio)
        for {
            f, err := fr.Next()
            if err != nil { close(frames); return }
            frames <- f
        }
    }()
    next := func() []byte {
        select {
        case f := <-frames:
            return f
        case <-time.After(5 * time.Second):
            t.Fatalf("radio saw no frame")
        }
        return nil
    }

    if decodeToRadioPacket(t, next()) != nil { t.Fatalf("first frame should be want_config") }
    if err := WriteFrame(radio, fromRadioMyInfoMsg(0x1234)); err != nil { t.Fatalf("write: %v", err) }

    ann := decodeToRadioPacket(t, next())
    if ann == nil || ann.To != BroadcastNum || ann.Channel != 1 || string(ann.Decoded.Payload) != "BBS Online!" || ann.WantAck {
        t.Fatalf("bad announce %+v", ann)
    }
    if id, ok := a.LocalNode(); !ok || id != "!00001234" { t.Fatalf("local node %q", id) }

    in := &MeshPacket{From: 0xbeef, To: 0x1234, Decoded: &Data{PortNum: PortTextMessage, Payload: []byte("bbs")}}
    if err := WriteFrame(radio, fromRadioPacketMsg(in)); err != nil { t.Fatalf("write: %v", err) }
    select {
    case p := <-rec.ch:
        if p.From != "!0000beef" || p.To != "!00001234" || p.Decoded.Text != "bbs" { t.Fatalf("packet %+v", p) }
    case <-time.After(5 * time.Second):
        t.Fatalf("handler not called")
    }

    if err := a.SendText("Welcome", "!0000beef"); err != nil { t.Fatalf("send: %v", err) }
    out := decodeToRadioPacket(t, next())
    if out == nil || out.To != 0xbeef || string(out.Decoded.Payload) != "Welcome" || !out.WantAck || out.HopLimit != 3 {
        t.Fatalf("bad outbound %+v", out)
    }
    if err := a.SendText("x", "not-a-node"); err == nil { t.Fatalf("bad destination accepted") }
}

func TestSendWhileDisconnectedFails(t *testing.T) {
    a := New(Config{Name: "radio", Dialer: &pipeDialer{conns: make(chan net.Conn)}}, nil)
    if err := a.SendText("hi", "!00000001"); err != ErrDisconnected { t.Fatalf("err=%v", err) }
}
