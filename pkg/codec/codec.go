// Package codec encodes stored records.
package codec

import "fmt"

// Codec marshals records. Implementations must be deterministic so equal
// records produce equal bytes.
type Codec interface {
    Name() string
    Marshal(v any) ([]byte, error)
    Unmarshal(data []byte, v any) error
}

// ErrUnknownCodec names a codec that is not built in.
type ErrUnknownCodec string

func (e ErrUnknownCodec) Error() string { return fmt.Sprintf("codec: unknown codec %q", string(e)) }

// ByName returns a built-in codec: "json" or "cbor" (default "cbor").
func ByName(name string) (Codec, error) {
    switch name {
    case "", "cbor":
        return CBOR()
    case "json":
        return JSON(), nil
    default:
        return nil, ErrUnknownCodec(name)
    }
}
