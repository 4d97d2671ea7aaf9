package transport

import (
    "fmt"
    "net"
    "strings"
)

// Kind identifies the adapter family.
type Kind int

const (
    KindUnknown Kind = iota
    KindDebugTCP
    KindMeshTCP
    KindMeshSerial
    KindMem
)

func (k Kind) String() string {
    switch k {
    case KindDebugTCP:
        return "tcp"
    case KindMeshTCP:
        return "meshtastic-tcp"
    case KindMeshSerial:
        return "meshtastic-serial"
    case KindMem:
        return "mem"
    default:
        return "unknown"
    }
}

// ParseKind maps config spellings to a Kind.
func ParseKind(s string) Kind {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "tcp", "debug", "debug-tcp":
        return KindDebugTCP
    case "meshtastic-tcp", "mesh-tcp", "radio-tcp":
        return KindMeshTCP
    case "meshtastic-serial", "mesh-serial", "serial":
        return KindMeshSerial
    case "mem", "inproc":
        return KindMem
    default:
        return KindUnknown
    }
}

// Port numbers the core knows by name. Only text-bearing ports are
// authorized for dispatch; the rest are listed so logs stay readable.
const (
    PortTextMessage = "TEXT_MESSAGE_APP"
    PortDebugTCP    = "DEBUG_TCP_APP"
    PortRouting     = "ROUTING_APP"
    PortPosition    = "POSITION_APP"
    PortNodeInfo    = "NODEINFO_APP"
    PortTelemetry   = "TELEMETRY_APP"
    PortUnknown     = "UNKNOWN_APP"
)

// AuthorizedPorts are the ports whose packets reach sessions.
var AuthorizedPorts = map[string]struct{}{
    PortTextMessage: {},
    PortDebugTCP:    {},
}

// NodeID is an opaque user/node identity. Radio ids use the Meshtastic
// "!%08x" form; debug sockets use "host_port".
type NodeID string

// BroadcastNode is the Meshtastic broadcast address.
const BroadcastNode NodeID = "!ffffffff"

// NodeIDFromNum formats a numeric radio node id.
func NodeIDFromNum(n uint32) NodeID { return NodeID(fmt.Sprintf("!%08x", n)) }

// Num parses a "!%08x" id back to its number.
func (id NodeID) Num() (uint32, bool) {
    s := string(id)
    if !strings.HasPrefix(s, "!") || len(s) != 9 {
        return 0, false
    }
    var n uint32
    if _, err := fmt.Sscanf(s[1:], "%08x", &n); err != nil { return 0, false }
    return n, true
}

// NodeIDFromAddr builds the debug-socket identity "host_port".
func NodeIDFromAddr(addr net.Addr) NodeID {
    if addr == nil { return NodeID("unknown_0") }
    host, port, err := net.SplitHostPort(addr.String())
    if err != nil { return NodeID(strings.ReplaceAll(addr.String(), ":", "_")) }
    return NodeID(host + "_" + port)
}

// Decoded is the application payload of a packet.
type Decoded struct {
    PortNum string
    Text    string
    HasText bool
}

// Packet is the inbound shape consumed by the core. Only From, To (for
// address-aware adapters) and Decoded.Text are inspected.
type Packet struct {
    From    NodeID
    To      NodeID
    Channel uint32
    ID      uint32
    Decoded Decoded
}

// TextPacket is a convenience constructor for text packets.
func TextPacket(port string, from, to NodeID, text string) Packet {
    return Packet{From: from, To: to, Decoded: Decoded{PortNum: port, Text: text, HasText: true}}
}

// Adapter is implemented by every link the core can answer through.
type Adapter interface {
    // Name is a stable label for logs.
    Name() string
    Kind() Kind
    // SendText transmits text to dest. Best effort: errors are reported for
    // logging only and the core never retries.
    SendText(text string, dest NodeID) error
    // LocalNode returns this node's own address for address-aware links.
    // ok is false for links that carry no addressing (debug sockets).
    LocalNode() (id NodeID, ok bool)
}

// Handler is the single entry point adapters feed inbound packets to.
type Handler interface {
    OnReceive(p Packet, from Adapter)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(p Packet, from Adapter)

func (f HandlerFunc) OnReceive(p Packet, from Adapter) { f(p, from) }
