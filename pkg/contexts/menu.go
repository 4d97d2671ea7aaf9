package contexts

import (
    "strings"

    "go.uber.org/zap"

    "meshbbs/pkg/config"
    "meshbbs/pkg/session"
)

// Menu lists the options visible to the session's role and opens the one
// whose command matches the input.
type Menu struct {
    session.Base
    env   *Env
    cfg   config.MenuConfig
    shown []config.OptionConfig
    // paged is set while a pager carries the option list.
    paged bool
}

func NewMenu(env *Env, s *session.Session, cfg config.MenuConfig) *Menu {
    return &Menu{Base: session.NewBase(s, cfg.Name, "", ""), env: env, cfg: cfg}
}

func (m *Menu) Name() string { return m.cfg.Name }

// Start rebuilds the option list; the role may have changed since the
// menu was last shown.
func (m *Menu) Start() {
    if m.paged {
        m.paged = false
        return
    }
    m.shown = m.shown[:0]
    lines := make([]string, 0, len(m.cfg.Options))
    for _, o := range m.cfg.Options {
        if !visible(o, m.S.Role()) { continue }
        m.shown = append(m.shown, o)
        lines = append(lines, o.Description)
    }
    m.Msg.Body = strings.Join(lines, "\n")
    m.S.Send(m.Msg)
    m.paged = m.S.Current() != session.Context(m)
}

func (m *Menu) Receive(input string) {
    cmd := strings.TrimSpace(input)
    if cmd == "" { return }
    for _, o := range m.shown {
        if !strings.EqualFold(o.Command, cmd) { continue }
        ctx, err := m.env.Open(m.S, o)
        if err != nil {
            m.S.Logger().Error("open option", zap.String("menu", m.cfg.Name), zap.String("command", o.Command), zap.Error(err))
            m.S.SendError("Option unavailable!")
            return
        }
        m.S.ChangeContext(ctx)
        return
    }
    m.S.SendError("Invalid option!")
}

func visible(o config.OptionConfig, role string) bool {
    return o.Role == "" || strings.EqualFold(o.Role, role)
}
