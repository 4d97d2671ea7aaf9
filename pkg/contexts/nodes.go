package contexts

import (
    "fmt"
    "strings"
    "time"

    "meshbbs/pkg/config"
    "meshbbs/pkg/session"
)

// heard lists the stations the board has heard, newest first.
type heard struct {
    session.Base
    env   *Env
    shown bool
}

func newHeard(env *Env, s *session.Session, _ config.OptionConfig) session.Context {
    return &heard{Base: session.NewBase(s, "Heard nodes", "", ""), env: env}
}

func (c *heard) Start() {
    if c.shown {
        _ = c.S.RevertContext(1)
        return
    }
    c.shown = true
    m := c.Msg
    m.Body = "No nodes heard yet."
    if c.env.Nodes != nil {
        now := c.env.Clock.Now()
        var lines []string
        for _, n := range c.env.Nodes.List() {
            lines = append(lines, fmt.Sprintf("%s %s ago (%d msgs)", n.ID, ago(now.Sub(n.LastSeen)), n.MsgsIn))
        }
        if len(lines) > 0 { m.Body = strings.Join(lines, "\n") }
    }
    c.S.Send(m)
}

func (c *heard) Receive(string) { _ = c.S.RevertContext(1) }

func ago(d time.Duration) string {
    switch {
    case d < time.Minute:
        return fmt.Sprintf("%ds", int(d/time.Second))
    case d < time.Hour:
        return fmt.Sprintf("%dm", int(d/time.Minute))
    case d < 24*time.Hour:
        return fmt.Sprintf("%dh", int(d/time.Hour))
    default:
        return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
    }
}
