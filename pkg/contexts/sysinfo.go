package contexts

import (
    "go.uber.org/zap"

    "meshbbs/pkg/config"
    "meshbbs/pkg/session"
)

// sysinfo reports the host's kernel identification on one page and returns.
type sysinfo struct{ session.Base }

func newSysinfo(_ *Env, s *session.Session, _ config.OptionConfig) session.Context {
    return &sysinfo{Base: session.NewBase(s, "SysInfo", "", "")}
}

func (c *sysinfo) Start() {
    text, err := uname()
    if err != nil {
        c.S.Logger().Warn("uname", zap.Error(err))
        c.S.SendError("Unable to read system info!")
    } else {
        m := c.Msg
        m.Body = text
        c.S.SendOnePage(m)
    }
    _ = c.S.RevertContext(1)
}

func (c *sysinfo) Receive(string) {}
