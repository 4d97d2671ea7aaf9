package meshtastic

import (
    "bufio"
    "errors"
    "fmt"
    "io"
)

const (
    start1 = 0x94
    start2 = 0xc3
    // MaxFrame is the largest protobuf payload the stream API carries.
    MaxFrame = 512
)

var ErrFrameTooLarge = errors.New("meshtastic: frame too large")

// WriteFrame writes payload with the stream header.
func WriteFrame(w io.Writer, payload []byte) error {
    if len(payload) > MaxFrame { return fmt.Errorf("%w: %d", ErrFrameTooLarge, len(payload)) }
    buf := make([]byte, 0, 4+len(payload))
    buf = append(buf, start1, start2, byte(len(payload)>>8), byte(len(payload)))
    buf = append(buf, payload...)
    _, err := w.Write(buf)
    return err
}

// FrameReader extracts frames from a byte stream, resynchronising on the
// start marker after garbage or oversized lengths.
type FrameReader struct {
    r *bufio.Reader
}

func NewFrameReader(r io.Reader) *FrameReader { return &FrameReader{r: bufio.NewReaderSize(r, 1024)} }

// Next returns the next frame payload.
func (f *FrameReader) Next() ([]byte, error) {
    for {
        b, err := f.r.ReadByte()
        if err != nil { return nil, err }
        if b != start1 { continue }
        b, err = f.r.ReadByte()
        if err != nil { return nil, err }
        if b != start2 {
            if b == start1 { _ = f.r.UnreadByte() }
            continue
        }
        var hdr [2]byte
        if _, err := io.ReadFull(f.r, hdr[:]); err != nil { return nil, err }
        n := int(hdr[0])<<8 | int(hdr[1])
        if n > MaxFrame { continue }
        buf := make([]byte, n)
        if _, err := io.ReadFull(f.r, buf); err != nil { return nil, err }
        return buf, nil
    }
}
