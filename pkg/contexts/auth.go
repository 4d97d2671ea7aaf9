package contexts

import (
    "errors"
    "fmt"
    "strings"

    "go.uber.org/zap"

    "meshbbs/pkg/config"
    "meshbbs/pkg/session"
    "meshbbs/pkg/store"
)

type formState int

const (
    formBegin formState = iota
    formUsername
    formPassword
    formDone
)

// form is a line-by-line dialog driven by a state table; each step handles
// one line and returns the next state.
type form struct {
    session.Base
    env      *Env
    state    formState
    username string
    steps    map[formState]func(string) formState
}

func (f *form) say(body string) {
    m := f.Msg
    m.Body = body
    f.S.Send(m)
}

func (f *form) Receive(input string) {
    step, ok := f.steps[f.state]
    if !ok {
        f.S.SendError("Invalid state!")
        _ = f.S.RevertContext(1)
        return
    }
    f.state = step(strings.TrimSpace(input))
}

// login asks for credentials and switches to the member menu on success.
type login struct{ form }

func newLogin(env *Env, s *session.Session, _ config.OptionConfig) session.Context {
    c := &login{form{Base: session.NewBase(s, "User login", "", ""), env: env}}
    c.steps = map[formState]func(string) formState{
        formUsername: c.onUsername,
        formPassword: c.onPassword,
    }
    return c
}

func (c *login) Start() {
    if c.state != formBegin { return }
    c.state = formUsername
    c.say("Please submit username.")
}

func (c *login) onUsername(in string) formState {
    if in == "" { return formUsername }
    c.username = in
    c.say("Please submit password.")
    return formPassword
}

func (c *login) onPassword(in string) formState {
    ctx, cancel := c.env.op()
    defer cancel()
    ok, err := c.env.Store.Authenticate(ctx, c.username, in)
    if err != nil {
        c.S.Logger().Error("authenticate", zap.String("username", c.username), zap.Error(err))
        c.S.SendError("Login unavailable!")
        _ = c.S.RevertContext(1)
        return formDone
    }
    if !ok {
        c.S.Logger().Info("login failed", zap.String("username", c.username))
        c.say("Login failure!")
        _ = c.S.RevertContext(1)
        return formDone
    }
    role, err := c.env.Store.Role(ctx, c.username)
    if err != nil { role = store.DefaultRole }
    c.say("Login successful!")
    c.S.Authenticate(store.NormalizeUsername(c.username), role)
    c.S.ReplaceContext(NewMenu(c.env, c.S, c.env.AuthMenu()))
    return formDone
}

// register creates an account and returns to the menu.
type register struct{ form }

func newRegister(env *Env, s *session.Session, _ config.OptionConfig) session.Context {
    c := &register{form{Base: session.NewBase(s, "User registration", "", ""), env: env}}
    c.steps = map[formState]func(string) formState{
        formUsername: c.onUsername,
        formPassword: c.onPassword,
    }
    return c
}

func (c *register) Start() {
    if c.state != formBegin { return }
    c.state = formUsername
    c.say("Please submit desired username.")
}

func (c *register) onUsername(in string) formState {
    if in == "" { return formUsername }
    bbs := c.env.Config.BBS
    if !validUsername(in) {
        c.S.SendError("Invalid characters in username! Use [a-z,A-Z,0-9,-,_,.]")
        return formUsername
    }
    if n := len(in); n < bbs.UsernameMinLength || n > bbs.UsernameMaxLength {
        c.S.SendError(fmt.Sprintf("Username must be between %d and %d characters long.", bbs.UsernameMinLength, bbs.UsernameMaxLength))
        return formUsername
    }
    ctx, cancel := c.env.op()
    defer cancel()
    taken, err := c.env.Store.Exists(ctx, in)
    if err != nil {
        c.S.Logger().Error("username lookup", zap.Error(err))
        c.S.SendError("Error registering new user!")
        _ = c.S.RevertContext(1)
        return formDone
    }
    if taken {
        c.say("Username taken.\nPlease submit desired username.")
        return formUsername
    }
    c.username = in
    c.say("Please submit desired password.")
    return formPassword
}

func (c *register) onPassword(in string) formState {
    if in == "" { return formPassword }
    if minLen := c.env.Config.BBS.PasswordMinLength; len(in) < minLen {
        c.S.SendError(fmt.Sprintf("Password must be at least %d characters long.", minLen))
        return formPassword
    }
    ctx, cancel := c.env.op()
    defer cancel()
    err := c.env.Store.Register(ctx, c.username, in)
    switch {
    case errors.Is(err, store.ErrUserExists):
        c.say("Username taken.")
    case err != nil:
        c.S.Logger().Error("register", zap.String("username", c.username), zap.Error(err))
        c.S.SendError("Error registering new user!")
    default:
        c.S.Logger().Info("user registered", zap.String("username", c.username))
        c.say("Registration complete!")
    }
    _ = c.S.RevertContext(1)
    return formDone
}

func validUsername(name string) bool {
    for _, r := range name {
        switch {
        case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
        case r == '.', r == '_', r == '-':
        default:
            return false
        }
    }
    return name != ""
}

// logout drops the login and returns to the root menu.
type logout struct {
    env *Env
    s   *session.Session
}

func newLogout(env *Env, s *session.Session, _ config.OptionConfig) session.Context { return &logout{env, s} }

func (c *logout) Start() {
    if !c.s.Authenticated() {
        c.s.SendError("You are not logged in!")
        _ = c.s.RevertContext(1)
        return
    }
    name := c.s.Username()
    c.s.Deauthenticate()
    c.s.Send(c.s.Style().New("Logout", "Goodbye, "+name+"!", ""))
    c.env.backTo(c.s, c.env.Config.Menus[0])
}

func (c *logout) Receive(string) {}
