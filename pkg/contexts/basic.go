package contexts

import (
    "errors"

    "meshbbs/pkg/config"
    "meshbbs/pkg/session"
)

// echo sends back one line and returns.
type echo struct {
    session.Base
    done bool
}

func newEcho(_ *Env, s *session.Session, _ config.OptionConfig) session.Context {
    return &echo{Base: session.NewBase(s, "ECHO", "Enter a message and it will be echoed back to you.", "")}
}

func (c *echo) Start() {
    if c.done {
        _ = c.S.RevertContext(1)
        return
    }
    c.S.Send(c.Msg)
}

func (c *echo) Receive(input string) {
    c.done = true
    if input != "" {
        m := c.Msg
        m.Body = input
        c.S.Send(m)
    }
    leave(c.S, c)
}

// leave reverts one level unless a pager took over, in which case the
// caller reverts on its next Start.
func leave(s *session.Session, c session.Context) {
    if s.Current() == c { _ = s.RevertContext(1) }
}

// help returns to the menu, which redraws its options.
type help struct{ s *session.Session }

func newHelp(_ *Env, s *session.Session, _ config.OptionConfig) session.Context { return &help{s} }

func (c *help) Start()         { _ = c.s.RevertContext(1) }
func (c *help) Receive(string) {}

// back leaves the menu that opened it.
type back struct {
    env *Env
    s   *session.Session
}

func newBack(env *Env, s *session.Session, _ config.OptionConfig) session.Context { return &back{env, s} }

func (c *back) Start() {
    err := c.s.RevertContext(2)
    if errors.Is(err, session.ErrRevertUnderflow) { _ = c.s.RevertContext(1) }
}

func (c *back) Receive(string) {}

// quit says goodbye and ends the session.
type quit struct {
    env *Env
    s   *session.Session
}

func newQuit(env *Env, s *session.Session, _ config.OptionConfig) session.Context { return &quit{env, s} }

func (c *quit) Start() {
    c.s.Send(c.s.Style().New("BBS", c.env.Config.BBS.Goodbye, ""))
    c.s.Destroy()
}

func (c *quit) Receive(string) {}
