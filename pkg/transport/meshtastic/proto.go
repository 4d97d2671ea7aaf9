package meshtastic

import (
    "errors"

    "google.golang.org/protobuf/encoding/protowire"
)

// PortNum values from portnums.proto that the BBS names.
const (
    PortUnknown     = 0
    PortTextMessage = 1
    PortPosition    = 3
    PortNodeInfo    = 4
    PortRouting     = 5
    PortTelemetry   = 67
)

// BroadcastNum is the "to" address of a broadcast.
const BroadcastNum = 0xffffffff

// field numbers
const (
    toRadioPacket     = 1
    toRadioWantConfig = 3
    toRadioHeartbeat  = 7

    fromRadioID             = 1
    fromRadioPacket         = 2
    fromRadioMyInfo         = 3
    fromRadioConfigComplete = 7
    fromRadioRebooted       = 8

    myInfoNodeNum = 1

    meshFrom     = 1
    meshTo       = 2
    meshChannel  = 3
    meshDecoded  = 4
    meshID       = 6
    meshHopLimit = 9
    meshWantAck  = 10

    dataPortNum = 1
    dataPayload = 2
)

var errMalformed = errors.New("meshtastic: malformed protobuf")

// Data is the decoded application payload.
type Data struct {
    PortNum uint32
    Payload []byte
}

// MeshPacket carries the fields the BBS reads or sets.
type MeshPacket struct {
    From     uint32
    To       uint32
    Channel  uint32
    ID       uint32
    HopLimit uint32
    WantAck  bool
    Decoded  *Data
}

// FromRadio is a decoded radio-to-host message. Unknown variants decode to
// the zero value.
type FromRadio struct {
    ID               uint32
    Packet           *MeshPacket
    MyNodeNum        uint32
    HasMyInfo        bool
    ConfigCompleteID uint32
    Rebooted         bool
}

// PortName maps a port number to its proto enum name.
func PortName(p uint32) string {
    switch p {
    case PortTextMessage:
        return "TEXT_MESSAGE_APP"
    case PortPosition:
        return "POSITION_APP"
    case PortNodeInfo:
        return "NODEINFO_APP"
    case PortRouting:
        return "ROUTING_APP"
    case PortTelemetry:
        return "TELEMETRY_APP"
    default:
        return "UNKNOWN_APP"
    }
}

func appendData(b []byte, d *Data) []byte {
    b = protowire.AppendTag(b, dataPortNum, protowire.VarintType)
    b = protowire.AppendVarint(b, uint64(d.PortNum))
    b = protowire.AppendTag(b, dataPayload, protowire.BytesType)
    return protowire.AppendBytes(b, d.Payload)
}

// AppendMeshPacket encodes p.
func AppendMeshPacket(b []byte, p *MeshPacket) []byte {
    if p.From != 0 {
        b = protowire.AppendTag(b, meshFrom, protowire.Fixed32Type)
        b = protowire.AppendFixed32(b, p.From)
    }
    b = protowire.AppendTag(b, meshTo, protowire.Fixed32Type)
    b = protowire.AppendFixed32(b, p.To)
    if p.Channel != 0 {
        b = protowire.AppendTag(b, meshChannel, protowire.VarintType)
        b = protowire.AppendVarint(b, uint64(p.Channel))
    }
    if p.Decoded != nil {
        b = protowire.AppendTag(b, meshDecoded, protowire.BytesType)
        b = protowire.AppendBytes(b, appendData(nil, p.Decoded))
    }
    if p.ID != 0 {
        b = protowire.AppendTag(b, meshID, protowire.Fixed32Type)
        b = protowire.AppendFixed32(b, p.ID)
    }
    if p.HopLimit != 0 {
        b = protowire.AppendTag(b, meshHopLimit, protowire.VarintType)
        b = protowire.AppendVarint(b, uint64(p.HopLimit))
    }
    if p.WantAck {
        b = protowire.AppendTag(b, meshWantAck, protowire.VarintType)
        b = protowire.AppendVarint(b, 1)
    }
    return b
}

// EncodeToRadioPacket wraps p in ToRadio{packet}.
func EncodeToRadioPacket(p *MeshPacket) []byte {
    b := protowire.AppendTag(nil, toRadioPacket, protowire.BytesType)
    return protowire.AppendBytes(b, AppendMeshPacket(nil, p))
}

// EncodeWantConfig asks the radio to dump its config, which includes my_info.
func EncodeWantConfig(nonce uint32) []byte {
    b := protowire.AppendTag(nil, toRadioWantConfig, protowire.VarintType)
    return protowire.AppendVarint(b, uint64(nonce))
}

// EncodeHeartbeat is an empty ToRadio.heartbeat keeping the link alive.
func EncodeHeartbeat() []byte {
    b := protowire.AppendTag(nil, toRadioHeartbeat, protowire.BytesType)
    return protowire.AppendBytes(b, nil)
}

// walk calls fn for each field of msg; fn returns the bytes it consumed or
// -1 to skip the field.
func walk(msg []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) int) error {
    for len(msg) > 0 {
        num, typ, n := protowire.ConsumeTag(msg)
        if n < 0 { return errMalformed }
        msg = msg[n:]
        used := fn(num, typ, msg)
        if used < 0 { used = protowire.ConsumeFieldValue(num, typ, msg) }
        if used < 0 { return errMalformed }
        msg = msg[used:]
    }
    return nil
}

func varint(typ protowire.Type, b []byte, dst *uint32) int {
    if typ != protowire.VarintType { return -1 }
    v, n := protowire.ConsumeVarint(b)
    if n >= 0 { *dst = uint32(v) }
    return n
}

func fixed32(typ protowire.Type, b []byte, dst *uint32) int {
    if typ != protowire.Fixed32Type { return -1 }
    v, n := protowire.ConsumeFixed32(b)
    if n >= 0 { *dst = v }
    return n
}

func DecodeData(msg []byte) (*Data, error) {
    d := &Data{}
    err := walk(msg, func(num protowire.Number, typ protowire.Type, b []byte) int {
        switch {
        case num == dataPortNum:
            return varint(typ, b, &d.PortNum)
        case num == dataPayload && typ == protowire.BytesType:
            v, n := protowire.ConsumeBytes(b)
            if n >= 0 { d.Payload = append([]byte(nil), v...) }
            return n
        }
        return -1
    })
    return d, err
}

func DecodeMeshPacket(msg []byte) (*MeshPacket, error) {
    p := &MeshPacket{}
    var inner error
    err := walk(msg, func(num protowire.Number, typ protowire.Type, b []byte) int {
        switch num {
        case meshFrom:
            return fixed32(typ, b, &p.From)
        case meshTo:
            return fixed32(typ, b, &p.To)
        case meshChannel:
            return varint(typ, b, &p.Channel)
        case meshID:
            return fixed32(typ, b, &p.ID)
        case meshHopLimit:
            return varint(typ, b, &p.HopLimit)
        case meshWantAck:
            var v uint32
            n := varint(typ, b, &v)
            p.WantAck = v != 0
            return n
        case meshDecoded:
            if typ != protowire.BytesType { return -1 }
            v, n := protowire.ConsumeBytes(b)
            if n >= 0 { p.Decoded, inner = DecodeData(v) }
            return n
        }
        return -1
    })
    if err == nil { err = inner }
    return p, err
}

func DecodeFromRadio(msg []byte) (*FromRadio, error) {
    f := &FromRadio{}
    var inner error
    err := walk(msg, func(num protowire.Number, typ protowire.Type, b []byte) int {
        switch num {
        case fromRadioID:
            return varint(typ, b, &f.ID)
        case fromRadioPacket:
            if typ != protowire.BytesType { return -1 }
            v, n := protowire.ConsumeBytes(b)
            if n >= 0 { f.Packet, inner = DecodeMeshPacket(v) }
            return n
        case fromRadioMyInfo:
            if typ != protowire.BytesType { return -1 }
            v, n := protowire.ConsumeBytes(b)
            if n < 0 { return n }
            f.HasMyInfo = true
            if e := walk(v, func(num protowire.Number, typ protowire.Type, b []byte) int {
                if num == myInfoNodeNum { return varint(typ, b, &f.MyNodeNum) }
                return -1
            }); e != nil { inner = e }
            return n
        case fromRadioConfigComplete:
            return varint(typ, b, &f.ConfigCompleteID)
        case fromRadioRebooted:
            var v uint32
            n := varint(typ, b, &v)
            f.Rebooted = v != 0
            return n
        }
        return -1
    })
    if err == nil { err = inner }
    return f, err
}
