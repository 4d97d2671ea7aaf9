// Package nodes remembers every station the board has heard, including
// ones that never opened a session.
package nodes

import (
    "sort"
    "time"

    "go.uber.org/zap"

    "meshbbs/pkg/codec"
    "meshbbs/pkg/memkv"
    "meshbbs/pkg/transport"
)

// Node is what the board knows about one sender.
type Node struct {
    ID       transport.NodeID `json:"id" cbor:"id"`
    Adapter  string           `json:"adapter" cbor:"adapter"`
    Kind     string           `json:"kind" cbor:"kind"`
    LastPort string           `json:"last_port,omitempty" cbor:"last_port,omitempty"`
    LastSeen time.Time        `json:"last_seen" cbor:"last_seen"`
    MsgsIn   uint64           `json:"msgs_in" cbor:"msgs_in"`
    BytesIn  uint64           `json:"bytes_in" cbor:"bytes_in"`
}

// Store persists node records in memkv.
type Store struct {
    kv    *memkv.Store
    codec codec.Codec
    now   func() time.Time
}

const keyPrefix = "node:"

func keyNode(id transport.NodeID) string { return keyPrefix + string(id) }

// NewStore uses JSON records when c is nil; now defaults to time.Now.
func NewStore(kv *memkv.Store, c codec.Codec, now func() time.Time) *Store {
    if kv == nil { kv = memkv.New(memkv.Options{}) }
    if c == nil { c = codec.JSON() }
    if now == nil { now = time.Now }
    return &Store{kv: kv, codec: c, now: now}
}

// Heard records one inbound packet. It satisfies dispatch.Observer.
func (s *Store) Heard(p transport.Packet, a transport.Adapter) {
    if p.From == "" { return }
    when := s.now()
    _, err := s.kv.Update(keyNode(p.From), func(old []byte, exists bool) []byte {
        var n Node
        if exists { _ = s.codec.Unmarshal(old, &n) }
        n.ID = p.From
        n.Adapter = a.Name()
        n.Kind = a.Kind().String()
        n.LastPort = p.Decoded.PortNum
        n.LastSeen = when
        n.MsgsIn++
        n.BytesIn += uint64(len(p.Decoded.Text))
        b, err := s.codec.Marshal(n)
        if err != nil { return nil }
        return b
    })
    if err != nil { zap.L().Warn("node record", zap.String("node", string(p.From)), zap.Error(err)) }
}

func (s *Store) Get(id transport.NodeID) (Node, bool) {
    b, ok := s.kv.Get(keyNode(id))
    if !ok { return Node{}, false }
    var n Node
    if err := s.codec.Unmarshal(b, &n); err != nil { return Node{}, false }
    return n, true
}

// List returns every node, most recently heard first.
func (s *Store) List() []Node {
    var out []Node
    s.kv.Scan(keyPrefix, func(_ string, val []byte) bool {
        var n Node
        if err := s.codec.Unmarshal(val, &n); err == nil { out = append(out, n) }
        return true
    })
    sort.SliceStable(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
    return out
}

// Prune forgets nodes not heard for longer than age and returns how many.
func (s *Store) Prune(age time.Duration) int {
    cutoff := s.now().Add(-age)
    n := 0
    for _, node := range s.List() {
        if node.LastSeen.Before(cutoff) && s.kv.Delete(keyNode(node.ID)) { n++ }
    }
    if n > 0 { zap.L().Debug("nodes pruned", zap.Int("count", n)) }
    return n
}

// Codec is the record encoding in use.
func (s *Store) Codec() codec.Codec { return s.codec }

func (s *Store) Len() int { return len(s.kv.Keys(keyPrefix)) }
