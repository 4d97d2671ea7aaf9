package session

import (
    "strconv"
    "strings"
    "testing"
    "unicode/utf8"

    "meshbbs/pkg/message"
)

// ceiling chosen so a page with no bottom border carries exactly 50 bytes:
// 96 - 10 margin - 27 nav hint - 9 counter = 50.
var fiftyByte = Limits{PayloadCeiling: 96, SafetyMargin: 10}

func TestSliceCapacity(t *testing.T) {
    c, err := SliceCapacity(fiftyByte, "", 130)
    if err != nil || c != 50 { t.Fatalf("capacity=%d err=%v", c, err) }
    c, _ = SliceCapacity(fiftyByte, "-----", 130)
    if c != 45 { t.Fatalf("border not reserved: %d", c) }
    if _, err := SliceCapacity(Limits{PayloadCeiling: 40, SafetyMargin: 10}, "", 10); err != ErrPageTooSmall {
        t.Fatalf("want ErrPageTooSmall, got %v", err)
    }
}

func TestSliceCapacityWidensCounter(t *testing.T) {
    // 56 - 10 - 27 - 9 leaves 10 bytes, giving 10000 pages whose counter
    // "10000/10000" needs 11 bytes; the reserve widens and capacity drops to 8.
    l := Limits{PayloadCeiling: 56, SafetyMargin: 10}
    c, err := SliceCapacity(l, "", 100000)
    if err != nil || c != 8 { t.Fatalf("capacity=%d err=%v", c, err) }
}

func TestPaginateProperties(t *testing.T) {
    for _, L := range []int{1, 49, 50, 51, 130, 1000} {
        for _, C := range []int{1, 7, 50, 200} {
            body := strings.Repeat("x", L)
            pages := Paginate(body, C)
            want := (L + C - 1) / C
            if len(pages) != want { t.Fatalf("L=%d C=%d pages=%d want %d", L, C, len(pages), want) }
            if strings.Join(pages, "") != body { t.Fatalf("L=%d C=%d body not reconstructed", L, C) }
            for _, p := range pages {
                if len(p) > C { t.Fatalf("slice %d > %d", len(p), C) }
            }
        }
    }
}

func TestPaginateKeepsRunesWhole(t *testing.T) {
    body := strings.Repeat("привет ", 30)
    pages := Paginate(body, 25)
    if strings.Join(pages, "") != body { t.Fatalf("body not reconstructed") }
    for i, p := range pages {
        if !utf8.ValidString(p) { t.Fatalf("page %d splits a rune", i) }
        if len(p) > 25 { t.Fatalf("page %d too long", i) }
    }
}

func TestSendPagesOversizedMessage(t *testing.T) {
    f := newFixture(t, fiftyByte, 0)
    f.a.Reset()
    f.s.mu.Lock()
    f.s.Send(message.Message{Header: "Title", Body: strings.Repeat("a", 130), Footer: "dropped"})
    f.s.mu.Unlock()

    p, ok := f.s.Current().(*Pager)
    if !ok { t.Fatalf("current is %T, want *Pager", f.s.Current()) }
    var lens []int
    for _, pg := range p.Pages() { lens = append(lens, len(pg)) }
    if len(lens) != 3 || lens[0] != 50 || lens[1] != 50 || lens[2] != 30 { t.Fatalf("page lengths %v", lens) }

    first := f.a.Last(user)
    if strings.Contains(first, "Title") || strings.Contains(first, "dropped") { t.Fatalf("header or footer leaked: %q", first) }
    if !strings.HasSuffix(first, NavHint+"1/3\n") { t.Fatalf("footer: %q", first) }

    f.s.Receive("n")
    f.s.Receive("N")
    if p.Page() != 3 { t.Fatalf("page=%d want 3", p.Page()) }
    f.s.Receive("n")
    if p.Page() != 3 { t.Fatalf("page moved past end") }
    if !strings.Contains(f.a.Last(user), "No more pages!") { t.Fatalf("no nav error: %q", f.a.Last(user)) }

    f.s.Receive("1")
    if p.Page() != 1 { t.Fatalf("goto 1 -> %d", p.Page()) }
    f.s.Receive("p")
    if p.Page() != 1 || !strings.Contains(f.a.Last(user), "No more pages!") { t.Fatalf("prev at start moved") }
    f.s.Receive("4")
    if p.Page() != 1 || !strings.Contains(f.a.Last(user), "Invalid page number!") { t.Fatalf("goto 4 accepted") }

    for _, s := range f.a.Texts(user) {
        if len(s) > fiftyByte.PayloadCeiling { t.Fatalf("unit of %d bytes exceeds ceiling", len(s)) }
    }

    f.s.Receive("c")
    if f.s.Current() != f.root || f.root.starts != 2 { t.Fatalf("cancel did not return to sender") }
}

func TestEveryPageFitsCeiling(t *testing.T) {
    l := Limits{PayloadCeiling: 233, SafetyMargin: 10}
    f := newFixture(t, l, 0)
    f.s.mu.Lock()
    f.s.Send(message.Message{Body: strings.Repeat("0123456789\n", 300), BorderBottom: "=========="})
    f.s.mu.Unlock()
    p := f.s.Current().(*Pager)
    for i := 1; i <= p.Total(); i++ {
        f.s.Receive(strconv.Itoa(i))
        if n := len(f.a.Last(user)); n > l.PayloadCeiling { t.Fatalf("page %d is %d bytes", i, n) }
        if n := p.Render().Size(); n > l.PayloadCeiling { t.Fatalf("page %d size %d", i, n) }
    }
}

func TestPagesFitCeilingWithoutMargin(t *testing.T) {
    raw := Limits{PayloadCeiling: 100}
    c, err := SliceCapacity(raw, "=====", 60000)
    if err != nil { t.Fatalf("capacity: %v", err) }
    if c != 100-PageTerminators-len(NavHint)-9-5 { t.Fatalf("capacity=%d ignores page line breaks", c) }

    f := newFixture(t, raw, 0)
    if got := f.s.Limits().SafetyMargin; got != DefaultSafetyMargin { t.Fatalf("margin=%d want default", got) }
    f.s.mu.Lock()
    f.s.Send(message.Message{Body: strings.Repeat("y", 60000), BorderBottom: "====="})
    f.s.mu.Unlock()
    p := f.s.Current().(*Pager)
    for _, i := range []int{1, p.Total() - 1, p.Total()} {
        f.s.Receive(strconv.Itoa(i))
        if n := len(f.a.Last(user)); n > raw.PayloadCeiling { t.Fatalf("page %d/%d is %d bytes", i, p.Total(), n) }
    }
}

func TestPagerForFittingMessageReturnsImmediately(t *testing.T) {
    f := newFixture(t, fiftyByte, 0)
    f.s.mu.Lock()
    defer f.s.mu.Unlock()
    // fits only once the footer is gone
    msg := message.Message{Body: strings.Repeat("z", 80), Footer: "0123456789abcdef"}
    f.s.Send(msg)
    if f.s.Current() != f.root { t.Fatalf("pager stayed active for a fitting body") }
    texts := f.a.Texts(user)
    if len(texts) < 2 || texts[len(texts)-2] != strings.Repeat("z", 80)+"\n" { t.Fatalf("sent %q", texts) }
}
