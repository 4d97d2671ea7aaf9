package codec

import (
    "bytes"
    "testing"
    "time"
)

type record struct {
    Name  string    `json:"name" cbor:"name"`
    Count int       `json:"count" cbor:"count"`
    At    time.Time `json:"at" cbor:"at"`
}

func TestByName(t *testing.T) {
    for _, name := range []string{"json", "cbor", ""} {
        c, err := ByName(name)
        if err != nil { t.Fatalf("%q: %v", name, err) }
        in := record{Name: "bob", Count: 3, At: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
        b, err := c.Marshal(in)
        if err != nil { t.Fatalf("%s marshal: %v", c.Name(), err) }
        var out record
        if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("%s unmarshal: %v", c.Name(), err) }
        if out.Name != in.Name || out.Count != in.Count || !out.At.Equal(in.At) { t.Fatalf("%s mismatch: %+v", c.Name(), out) }
    }
    if _, err := ByName("xml"); err == nil { t.Fatalf("unknown codec accepted") }
}

func TestCBORDeterministic(t *testing.T) {
    c, _ := CBOR()
    a, _ := c.Marshal(map[string]int{"b": 2, "a": 1, "c": 3})
    b, _ := c.Marshal(map[string]int{"c": 3, "a": 1, "b": 2})
    if !bytes.Equal(a, b) { t.Fatalf("map encoding depends on insertion order") }
}
