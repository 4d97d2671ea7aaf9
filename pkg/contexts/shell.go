package contexts

import (
    "context"
    "os/exec"
    "strings"
    "time"

    "go.uber.org/zap"

    "meshbbs/pkg/config"
    "meshbbs/pkg/session"
)

const shellPrompt = "Enter shell command or [q]uit> "

// shell runs one command per line on the host. It only works when
// contexts.shell.enabled is set; menus should also gate it by role.
type shell struct {
    session.Base
    env *Env
}

func newShell(env *Env, s *session.Session, _ config.OptionConfig) session.Context {
    return &shell{Base: session.NewBase(s, "Command Shell", shellPrompt, ""), env: env}
}

func (c *shell) Start() {
    if !c.env.Config.Contexts.Shell.Enabled {
        c.S.SendError("Shell is disabled!")
        _ = c.S.RevertContext(1)
        return
    }
    c.S.Send(c.Msg)
}

func (c *shell) Receive(input string) {
    cmd := strings.TrimSpace(input)
    if cmd == "" { return }
    if strings.EqualFold(cmd, "q") {
        _ = c.S.RevertContext(1)
        return
    }
    out, err := c.run(cmd)
    if err != nil {
        c.S.Logger().Warn("shell command", zap.String("cmd", cmd), zap.Error(err))
        c.S.SendError("Error executing shell command!")
    }
    if out != "" {
        m := c.Msg
        m.Body = out
        c.S.Send(m)
    }
    // the pager, if any, is current now; the prompt follows its output
    if c.S.Current() == c { c.S.Send(c.Msg) }
}

func (c *shell) run(line string) (string, error) {
    timeout := c.env.Config.Contexts.Shell.Timeout
    if timeout <= 0 { timeout = 10 * time.Second }
    ctx, cancel := context.WithTimeout(context.Background(), timeout)
    defer cancel()
    args := strings.Fields(line)
    out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
    return strings.TrimRight(string(out), "\n"), err
}
