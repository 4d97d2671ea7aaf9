package contexts

import (
    "errors"
    "fmt"
    "io/fs"
    "os"
    "path/filepath"
    "strings"
    "sync"

    "go.uber.org/zap"

    "meshbbs/pkg/clock"
    "meshbbs/pkg/config"
    "meshbbs/pkg/session"
)

// Guestbook is an append-only text file of `date|username|text` lines.
type Guestbook struct {
    path  string
    clock clock.Clock
    mu    sync.Mutex
}

func NewGuestbook(path string, clk clock.Clock) *Guestbook {
    if clk == nil { clk = clock.Real() }
    return &Guestbook{path: path, clock: clk}
}

// Sign appends one entry. Separators and line breaks in text are replaced.
func (g *Guestbook) Sign(username, text string) error {
    text = strings.NewReplacer("\r", " ", "\n", " ", "|", "/").Replace(text)
    line := fmt.Sprintf("%s|%s|%s\n", g.clock.Now().Format("2006-01-02"), username, text)

    g.mu.Lock(); defer g.mu.Unlock()
    if dir := filepath.Dir(g.path); dir != "." { _ = os.MkdirAll(dir, 0o755) }
    f, err := os.OpenFile(g.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil { return err }
    if _, err := f.WriteString(line); err != nil {
        _ = f.Close()
        return err
    }
    return f.Close()
}

// Read returns the whole file; a missing file reads as empty.
func (g *Guestbook) Read() (string, error) {
    g.mu.Lock(); defer g.mu.Unlock()
    b, err := os.ReadFile(g.path)
    if errors.Is(err, fs.ErrNotExist) { return "", nil }
    return string(b), err
}

type gbState int

const (
    gbBegin gbState = iota
    gbReading
)

// guestbookRead shows the guestbook once; the next input or the pager's
// cancel returns to the menu.
type guestbookRead struct {
    session.Base
    env   *Env
    state gbState
}

func newGuestbookRead(env *Env, s *session.Session, _ config.OptionConfig) session.Context {
    return &guestbookRead{Base: session.NewBase(s, "Guestbook - Read", "", ""), env: env}
}

func (c *guestbookRead) Start() {
    if c.state == gbReading {
        _ = c.S.RevertContext(1)
        return
    }
    c.state = gbReading
    text, err := c.env.Guestbook.Read()
    if err != nil {
        c.S.Logger().Warn("read guestbook", zap.Error(err))
        c.S.SendError("Unable to read guestbook!")
        _ = c.S.RevertContext(1)
        return
    }
    text = strings.TrimRight(text, "\n")
    if text == "" { text = "The guestbook is empty." }
    m := c.Msg
    m.Body = text
    c.S.Send(m)
}

func (c *guestbookRead) Receive(string) { _ = c.S.RevertContext(1) }

type guestbookSign struct {
    session.Base
    env *Env
}

func newGuestbookSign(env *Env, s *session.Session, _ config.OptionConfig) session.Context {
    return &guestbookSign{Base: session.NewBase(s, "Guestbook - Sign", "Submit your guestbook message or [q]uit", ""), env: env}
}

func (c *guestbookSign) Receive(input string) {
    text := strings.TrimSpace(input)
    if text == "" { return }
    if strings.EqualFold(text, "q") {
        _ = c.S.RevertContext(1)
        return
    }
    if err := c.env.Guestbook.Sign(displayName(c.S), text); err != nil {
        c.S.Logger().Warn("sign guestbook", zap.Error(err))
        c.S.SendError("Error saving message to guestbook!")
        return
    }
    m := c.Msg
    m.Body = "Guestbook message saved. Thank you!"
    c.S.Send(m)
    _ = c.S.RevertContext(1)
}
