// Package contexts implements the interactive screens of the BBS: menus,
// login forms, the bulletin board, the guestbook and games. Every context
// runs under its session's lock; see package session.
package contexts

import (
    "context"
    "fmt"
    "math/rand/v2"
    "sort"
    "time"

    "meshbbs/pkg/clock"
    "meshbbs/pkg/config"
    "meshbbs/pkg/game"
    "meshbbs/pkg/nodes"
    "meshbbs/pkg/session"
    "meshbbs/pkg/store"
)

// ErrUnknownContext names a context missing from the registry.
type ErrUnknownContext string

func (e ErrUnknownContext) Error() string { return fmt.Sprintf("unknown context %q", string(e)) }

// Factory builds a context for one menu option.
type Factory func(env *Env, s *session.Session, opt config.OptionConfig) session.Context

// Registry maps context names, as used in menu options, to factories.
type Registry map[string]Factory

// DefaultRegistry holds every built-in context.
func DefaultRegistry() Registry {
    return Registry{
        "echo":           newEcho,
        "help":           newHelp,
        "back":           newBack,
        "quit":           newQuit,
        "sysinfo":        newSysinfo,
        "shell":          newShell,
        "guestbook_read": newGuestbookRead,
        "guestbook_sign": newGuestbookSign,
        "login":          newLogin,
        "register":       newRegister,
        "logout":         newLogout,
        "bbs":            newForum,
        "tictactoe":      newTicTacToe,
        "tictactoe_mp":   newTicTacToeMP,
        "nodes":          newHeard,
    }
}

// Names lists registered contexts in sorted order.
func (r Registry) Names() []string {
    out := make([]string, 0, len(r))
    for n := range r { out = append(out, n) }
    sort.Strings(out)
    return out
}

// Validate checks that every command option names a registered context.
func (r Registry) Validate(menus []config.MenuConfig) error {
    for _, m := range menus {
        for _, o := range m.Options {
            if o.Type == config.OptionMenu { continue }
            if _, ok := r[o.Context]; !ok { return fmt.Errorf("menu %q: %w", m.Name, ErrUnknownContext(o.Context)) }
        }
    }
    return nil
}

// DefaultStoreTimeout bounds each store call made by a context.
const DefaultStoreTimeout = 5 * time.Second

// Env is what contexts share across sessions.
type Env struct {
    Config    *config.Config
    Store     store.Store
    Registry  Registry
    Games     *game.Table
    Guestbook *Guestbook
    // Nodes is optional; without it the nodes screen reports nothing heard.
    Nodes *nodes.Store
    Clock clock.Clock
    // Intn returns a value in [0,n); the computer player uses it.
    Intn         func(n int) int
    StoreTimeout time.Duration
}

// NewEnv fills unset fields with defaults. clk may be nil.
func NewEnv(cfg *config.Config, st store.Store, clk clock.Clock) *Env {
    e := &Env{Config: cfg, Store: st, Clock: clk}
    e.init()
    return e
}

func (e *Env) init() {
    if e.Registry == nil { e.Registry = DefaultRegistry() }
    if e.Games == nil { e.Games = game.NewTable() }
    if e.Clock == nil { e.Clock = clock.Real() }
    if e.Guestbook == nil { e.Guestbook = NewGuestbook(e.Config.DataPath(e.Config.Guestbook.File), e.Clock) }
    if e.Intn == nil { e.Intn = rand.IntN }
    if e.StoreTimeout <= 0 { e.StoreTimeout = DefaultStoreTimeout }
}

// Root builds the first menu for a new session.
func (e *Env) Root(s *session.Session) session.Context {
    return NewMenu(e, s, e.Config.Menus[0])
}

// RootName is the name of the first menu.
func (e *Env) RootName() string { return e.Config.Menus[0].Name }

// AuthMenu returns the menu shown after login: bbs.auth_menu if set,
// otherwise the second configured menu.
func (e *Env) AuthMenu() config.MenuConfig {
    if name := e.Config.BBS.AuthMenu; name != "" {
        if m, ok := config.FindMenu(e.Config.Menus, name); ok { return m }
    }
    if len(e.Config.Menus) > 1 { return e.Config.Menus[1] }
    return e.Config.Menus[0]
}

// Open builds the context behind a menu option.
func (e *Env) Open(s *session.Session, opt config.OptionConfig) (session.Context, error) {
    if opt.Type == config.OptionMenu {
        m, ok := config.FindMenu(e.Config.Menus, opt.Menu)
        if !ok { return nil, fmt.Errorf("menu %q not found", opt.Menu) }
        return NewMenu(e, s, m), nil
    }
    f, ok := e.Registry[opt.Context]
    if !ok { return nil, ErrUnknownContext(opt.Context) }
    return f(e, s, opt), nil
}

func (e *Env) op() (context.Context, context.CancelFunc) {
    return context.WithTimeout(context.Background(), e.StoreTimeout)
}

// displayName is the name a session signs with.
func displayName(s *session.Session) string {
    if s.Authenticated() { return s.Username() }
    return "guest"
}

// backTo reverts to the nearest parked menu named name, or replaces the
// current context with a fresh one when none is parked.
func (e *Env) backTo(s *session.Session, m config.MenuConfig) {
    err := s.RevertTo(func(c session.Context) bool {
        mc, ok := c.(*Menu)
        return ok && mc.Name() == m.Name
    })
    if err != nil { s.ReplaceContext(NewMenu(e, s, m)) }
}
