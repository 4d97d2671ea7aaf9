package message

import "testing"

func TestRenderOrderAndTerminators(t *testing.T) {
    m := Message{Header: "H", BorderTop: "==", Body: "body", BorderBottom: "--", Footer: "F"}
    want := "H\n==\nbody\n--\nF\n"
    if got := m.Render(); got != want {
        t.Fatalf("render mismatch: got %q want %q", got, want)
    }
    if m.Size() != len(want) {
        t.Fatalf("size=%d want %d", m.Size(), len(want))
    }
}

func TestTopBorderRequiresHeader(t *testing.T) {
    m := Message{BorderTop: "==", Body: "x"}
    if got := m.Render(); got != "x\n" {
        t.Fatalf("expected top border suppressed, got %q", got)
    }
}

func TestSizeIsSumOfPresentComponents(t *testing.T) {
    full := Message{Header: "head", BorderTop: "====", Body: "the body", BorderBottom: "~~~", Footer: "foot"}
    parts := []struct {
        name  string
        drop  func(m *Message)
        width int
    }{
        {"header", func(m *Message) { m.Header = ""; m.BorderTop = "" }, len("head") + 1 + len("====") + 1},
        {"border_top", func(m *Message) { m.BorderTop = "" }, len("====") + 1},
        {"body", func(m *Message) { m.Body = "" }, len("the body") + 1},
        {"border_bottom", func(m *Message) { m.BorderBottom = "" }, len("~~~") + 1},
        {"footer", func(m *Message) { m.Footer = "" }, len("foot") + 1},
    }
    total := 0
    for _, c := range []string{full.Header, full.BorderTop, full.Body, full.BorderBottom, full.Footer} {
        total += len(c) + 1
    }
    if full.Size() != total || len(full.Render()) != total {
        t.Fatalf("size=%d render=%d want %d", full.Size(), len(full.Render()), total)
    }
    for _, p := range parts {
        m := full
        p.drop(&m)
        if got := len(m.Render()); got != total-p.width {
            t.Fatalf("%s: len=%d want %d", p.name, got, total-p.width)
        }
        if m.Size() != len(m.Render()) {
            t.Fatalf("%s: Size disagrees with Render", p.name)
        }
    }
}

func TestStyleAppliesBorders(t *testing.T) {
    st := Style{BorderTop: "++", BorderBottom: "--"}
    m := st.New("H", "B", "")
    if m.Render() != "H\n++\nB\n--\n" {
        t.Fatalf("unexpected render %q", m.Render())
    }
    if (Message{}).Empty() != true {
        t.Fatalf("zero message should be empty")
    }
}
