package session

import (
    "fmt"
    "sync"
    "unicode/utf8"

    "github.com/eapache/queue"
    "go.uber.org/zap"

    "meshbbs/pkg/clock"
    "meshbbs/pkg/message"
    "meshbbs/pkg/transport"
)

const truncMarker = " ..."

// Session is the runtime state of one user on one adapter.
type Session struct {
    id      transport.NodeID
    adapter transport.Adapter
    opts    Options
    log     *zap.Logger

    mu        sync.Mutex
    current   Context
    history   History
    timer     *clock.Timer
    gen       uint64
    destroyed bool

    authenticated bool
    username      string
    role          string

    postMu   sync.Mutex
    posts    *queue.Queue
    draining bool
}

// New constructs a session without activating it; see Start.
func New(id transport.NodeID, adapter transport.Adapter, opts Options) *Session {
    opts = opts.withDefaults()
    return &Session{
        id:      id,
        adapter: adapter,
        opts:    opts,
        log:     zap.L().With(zap.String("user", string(id)), zap.String("adapter", adapter.Name())),
        posts:   queue.New(),
    }
}

func (s *Session) ID() transport.NodeID         { return s.id }
func (s *Session) Adapter() transport.Adapter   { return s.adapter }
func (s *Session) Style() message.Style         { return s.opts.Style }
func (s *Session) Limits() Limits               { return s.opts.Limits }
func (s *Session) Directory() *Directory        { return s.opts.Directory }
func (s *Session) Logger() *zap.Logger          { return s.log }
func (s *Session) Current() Context             { return s.current }
func (s *Session) Authenticated() bool          { return s.authenticated }
func (s *Session) Username() string             { return s.username }
func (s *Session) Role() string                 { return s.role }

// Depth counts the current context plus parked ones.
func (s *Session) Depth() int { return s.history.Len() + 1 }

// Start activates the root context and arms the inactivity timer. It is a
// no-op on an already started or destroyed session.
func (s *Session) Start() {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.current != nil || s.destroyed { return }
    if s.opts.Root == nil {
        s.log.Error("session has no root context")
        return
    }
    s.armLocked()
    s.current = s.opts.Root(s)
    s.log.Info("session started")
    s.guard(s.current.Start)
}

// Receive hands one line of input to the current context.
func (s *Session) Receive(input string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.destroyed { return }
    if s.current == nil {
        s.log.Debug("input before start dropped")
        return
    }
    s.armLocked()
    cur := s.current
    s.guard(func() { cur.Receive(input) })
    // a timer that came due while the context ran is now stale
    if !s.destroyed { s.armLocked() }
}

// guard runs fn and turns a panic into a logged error and a generic notice.
func (s *Session) guard(fn func()) {
    defer func() {
        if r := recover(); r != nil {
            s.log.Error("context panic", zap.Any("panic", r), zap.Stack("stack"))
            if !s.destroyed { s.SendError("Internal error!") }
        }
    }()
    fn()
}

// ChangeContext parks the current context and activates ctx.
func (s *Session) ChangeContext(ctx Context) {
    if s.destroyed { return }
    if s.current != nil { s.history.Push(s.current) }
    s.current = ctx
    ctx.Start()
}

// ReplaceContext closes the current context and activates ctx in its place
// without parking anything.
func (s *Session) ReplaceContext(ctx Context) {
    if s.destroyed { return }
    closeCtx(s.current)
    s.current = ctx
    ctx.Start()
}

// RevertContext discards the current context and levels-1 parked ones; the
// last popped becomes current and is restarted.
func (s *Session) RevertContext(levels int) error {
    if s.destroyed { return nil }
    popped, err := s.history.Pop(levels)
    if err != nil { return err }
    closeCtx(s.current)
    for _, c := range popped[:len(popped)-1] { closeCtx(c) }
    s.current = popped[len(popped)-1]
    s.current.Start()
    return nil
}

// RevertTo pops back to the first parked context for which match is true.
func (s *Session) RevertTo(match func(Context) bool) error {
    for i := 1; i <= s.history.Len(); i++ {
        c, _ := s.history.Peek(i)
        if match(c) { return s.RevertContext(i) }
    }
    return ErrRevertUnderflow
}

// Send transmits msg, paging it when it exceeds the payload ceiling.
func (s *Session) Send(msg message.Message) {
    if s.destroyed { return }
    if msg.Size() <= s.opts.PayloadCeiling {
        s.transmit(msg.Render())
        return
    }
    msg.Footer = ""
    p, err := NewPager(s, msg)
    if err != nil {
        s.log.Warn("pager unavailable, truncating", zap.Error(err))
        s.SendOnePage(msg)
        return
    }
    s.ChangeContext(p)
}

// SendOnePage transmits msg as a single unit, cutting the body and appending
// a continuation marker when it does not fit.
func (s *Session) SendOnePage(msg message.Message) {
    if s.destroyed { return }
    limit := s.opts.Budget()
    if msg.Size() <= limit {
        s.transmit(msg.Render())
        return
    }
    shell := msg
    shell.Body = ""
    room := limit - len(truncMarker) - shell.Size() - 1
    if room < 0 { room = 0 }
    msg.Body = cutBytes(msg.Body, room) + truncMarker
    s.transmit(msg.Render())
}

// SendText transmits raw text.
func (s *Session) SendText(text string) error {
    if len(text) > s.opts.PayloadCeiling { return fmt.Errorf("%w: %d > %d", ErrTooLong, len(text), s.opts.PayloadCeiling) }
    if s.destroyed { return nil }
    s.transmit(text)
    return nil
}

// SendError sends a short error notice.
func (s *Session) SendError(text string) {
    s.Send(s.opts.Style.New("Error!", text, ""))
}

func (s *Session) transmit(text string) {
    if err := s.adapter.SendText(text, s.id); err != nil {
        s.log.Warn("send failed", zap.Error(err))
    }
}

// Authenticate marks the user as logged in.
func (s *Session) Authenticate(username, role string) {
    s.authenticated, s.username, s.role = true, username, role
    s.log.Info("authenticated", zap.String("username", username), zap.String("role", role))
}

// Deauthenticate drops the login.
func (s *Session) Deauthenticate() {
    s.authenticated, s.username, s.role = false, "", ""
}

// Destroyed reports whether Destroy already ran.
func (s *Session) Destroyed() bool { return s.destroyed }

// Destroy stops the timer, closes every context and leaves the directory.
// Idempotent.
func (s *Session) Destroy() {
    if s.destroyed { return }
    s.destroyed = true
    if s.timer != nil { s.timer.Stop() }
    s.gen++
    closeCtx(s.current)
    s.history.Each(closeCtx)
    s.history.clear()
    s.current = nil
    if s.opts.Directory != nil { s.opts.Directory.RemoveIf(s.id, s) }
    s.log.Info("session destroyed")
}

// Shutdown destroys the session from outside any dispatch.
func (s *Session) Shutdown() {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.Destroy()
}

// Post runs fn under the session lock on another goroutine. Posted
// functions run in submission order; they are skipped once the session is
// destroyed.
func (s *Session) Post(fn func()) {
    s.postMu.Lock()
    s.posts.Add(fn)
    if s.draining {
        s.postMu.Unlock()
        return
    }
    s.draining = true
    s.postMu.Unlock()
    go s.drain()
}

func (s *Session) drain() {
    for {
        s.postMu.Lock()
        if s.posts.Length() == 0 {
            s.draining = false
            s.postMu.Unlock()
            return
        }
        fn := s.posts.Remove().(func())
        s.postMu.Unlock()

        s.mu.Lock()
        if !s.destroyed { s.guard(fn) }
        s.mu.Unlock()
    }
}

func (s *Session) armLocked() {
    if s.timer != nil { s.timer.Stop() }
    s.gen++
    if s.opts.Timeout <= 0 { return }
    gen := s.gen
    s.timer = s.opts.Clock.AfterFunc(s.opts.Timeout, func() { s.expire(gen) })
}

func (s *Session) expire(gen uint64) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.destroyed || gen != s.gen { return }
    s.log.Info("session timed out")
    s.SendError(TimeoutNotice)
    s.Destroy()
}

func closeCtx(c Context) {
    if cl, ok := c.(Closer); ok { cl.Close() }
}

// cutBytes returns the longest prefix of s with at most n bytes that ends
// on a rune boundary.
func cutBytes(s string, n int) string {
    if n >= len(s) { return s }
    if n <= 0 { return "" }
    for n > 0 && !utf8.RuneStart(s[n]) { n-- }
    return s[:n]
}
