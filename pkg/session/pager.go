package session

import (
    "fmt"
    "strconv"
    "strings"

    "meshbbs/pkg/message"
)

const (
    // NavHint prefixes every page footer.
    NavHint = "[N]ext [P]rev [C]ancel [#] "
    // counterReserve fits "9999/9999"; widened when more pages are needed.
    counterReserve = 9
)

// Pager walks the user through an oversized message one page at a time.
// On the last page it waits for an explicit cancel.
type Pager struct {
    s     *Session
    msg   message.Message
    pages []string
    page  int
}

// NewPager slices msg.Body so every rendered page fits the session limits.
// A message that already fits yields a single page that is sent as-is.
func NewPager(s *Session, msg message.Message) (*Pager, error) {
    p := &Pager{s: s, msg: msg}
    if msg.Size() <= s.opts.PayloadCeiling {
        p.pages = []string{msg.Body}
        return p, nil
    }
    capacity, err := SliceCapacity(s.opts.Limits, msg.BorderBottom, len(msg.Body))
    if err != nil { return nil, err }
    p.pages = Paginate(msg.Body, capacity)
    return p, nil
}

// SliceCapacity is the number of body bytes one page can carry for a body of
// bodyLen bytes.
func SliceCapacity(l Limits, borderBottom string, bodyLen int) (int, error) {
    ceiling := l.Budget()
    reserve := counterReserve
    for {
        capacity := ceiling - len(NavHint) - reserve - len(borderBottom)
        if capacity <= 0 { return 0, ErrPageTooSmall }
        total := (bodyLen + capacity - 1) / capacity
        need := len(fmt.Sprintf("%d/%d", total, total))
        if need <= reserve { return capacity, nil }
        reserve = need
    }
}

// Paginate splits body into consecutive slices of at most capacity bytes.
// A cut never lands inside a multi-byte rune.
func Paginate(body string, capacity int) []string {
    if capacity <= 0 { return []string{body} }
    var out []string
    for len(body) > capacity {
        n := len(cutBytes(body, capacity))
        if n == 0 {
            // a single rune wider than the slice
            _, n = firstRune(body)
        }
        out = append(out, body[:n])
        body = body[n:]
    }
    if len(body) > 0 || len(out) == 0 { out = append(out, body) }
    return out
}

func firstRune(s string) (rune, int) {
    for i, r := range s {
        if i > 0 { return r, i }
    }
    return 0, len(s)
}

func (p *Pager) Total() int { return len(p.pages) }

// Page is the current page, 1-indexed.
func (p *Pager) Page() int { return p.page + 1 }

// Pages returns the raw body slices.
func (p *Pager) Pages() []string { return p.pages }

func (p *Pager) Start() {
    if len(p.pages) == 1 && p.msg.Size() <= p.s.opts.PayloadCeiling {
        p.s.Send(p.msg)
        _ = p.s.RevertContext(1)
        return
    }
    p.show()
}

// Render builds the outbound message for the current page.
func (p *Pager) Render() message.Message {
    return message.Message{
        Body:         p.pages[p.page],
        BorderBottom: p.msg.BorderBottom,
        Footer:       NavHint + strconv.Itoa(p.page+1) + "/" + strconv.Itoa(len(p.pages)),
    }
}

func (p *Pager) show() { p.s.transmit(p.Render().Render()) }

func (p *Pager) Next() error {
    if p.page+1 >= len(p.pages) { return ErrNoMorePages }
    p.page++
    p.show()
    return nil
}

func (p *Pager) Prev() error {
    if p.page == 0 { return ErrNoMorePages }
    p.page--
    p.show()
    return nil
}

// Goto jumps to page n (1-indexed).
func (p *Pager) Goto(n int) error {
    if n < 1 || n > len(p.pages) { return ErrInvalidPage }
    p.page = n - 1
    p.show()
    return nil
}

// Cancel returns to the context that sent the message.
func (p *Pager) Cancel() error { return p.s.RevertContext(1) }

func (p *Pager) Receive(input string) {
    in := strings.ToLower(strings.TrimSpace(input))
    var err error
    switch in {
    case "n", "next":
        err = p.Next()
    case "p", "prev":
        err = p.Prev()
    case "c", "cancel", "q":
        err = p.Cancel()
    default:
        n, convErr := strconv.Atoi(in)
        if convErr != nil {
            p.s.SendError("Invalid option!")
            return
        }
        err = p.Goto(n)
    }
    switch err {
    case nil:
    case ErrNoMorePages:
        p.s.SendError("No more pages!")
    case ErrInvalidPage:
        p.s.SendError("Invalid page number!")
    default:
        p.s.log.Warn("pager navigation failed")
        p.s.SendError("Invalid option!")
    }
}
