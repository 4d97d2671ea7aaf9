package config

import (
    "fmt"
    "strings"
    "time"

    "github.com/spf13/viper"

    "meshbbs/pkg/message"
)

// BBSConfig holds the session engine settings.
type BBSConfig struct {
    // ActivationKeyword creates a session for an unknown user (case-insensitive).
    ActivationKeyword string `mapstructure:"activation_keyword"`
    // PayloadCeiling is the largest outbound unit in bytes.
    PayloadCeiling int `mapstructure:"payload_ceiling"`
    // SafetyMargin is subtracted from the ceiling before paging.
    SafetyMargin   int           `mapstructure:"safety_margin"`
    SessionTimeout time.Duration `mapstructure:"session_timeout"`
    Borders        message.Style `mapstructure:"borders"`
    // AuthMenu is the menu shown after a successful login (default: second menu).
    AuthMenu          string `mapstructure:"auth_menu"`
    Goodbye           string `mapstructure:"goodbye"`
    UsernameMinLength int    `mapstructure:"username_min_length"`
    UsernameMaxLength int    `mapstructure:"username_max_length"`
    PasswordMinLength int    `mapstructure:"password_min_length"`
}

func DefaultBBS() BBSConfig {
    return BBSConfig{
        ActivationKeyword: "bbs",
        PayloadCeiling:    233,
        SafetyMargin:      10,
        SessionTimeout:    5 * time.Minute,
        Borders:           message.Style{BorderTop: "====================", BorderBottom: "===================="},
        Goodbye:           "Goodbye!",
        UsernameMinLength: 3,
        UsernameMaxLength: 16,
        PasswordMinLength: 4,
    }
}

func setBBSDefaults(v *viper.Viper, b BBSConfig) {
    v.SetDefault("bbs.activation_keyword", b.ActivationKeyword)
    v.SetDefault("bbs.payload_ceiling", b.PayloadCeiling)
    v.SetDefault("bbs.safety_margin", b.SafetyMargin)
    v.SetDefault("bbs.session_timeout", b.SessionTimeout)
    v.SetDefault("bbs.borders.top", b.Borders.BorderTop)
    v.SetDefault("bbs.borders.bottom", b.Borders.BorderBottom)
    v.SetDefault("bbs.auth_menu", b.AuthMenu)
    v.SetDefault("bbs.goodbye", b.Goodbye)
    v.SetDefault("bbs.username_min_length", b.UsernameMinLength)
    v.SetDefault("bbs.username_max_length", b.UsernameMaxLength)
    v.SetDefault("bbs.password_min_length", b.PasswordMinLength)
}

// minSafetyMargin covers the line breaks of a pager page.
const minSafetyMargin = 3

func (b *BBSConfig) validate() error {
    b.ActivationKeyword = strings.ToLower(strings.TrimSpace(b.ActivationKeyword))
    if b.ActivationKeyword == "" { return fmt.Errorf("bbs.activation_keyword must not be empty") }
    if b.PayloadCeiling <= 0 { return fmt.Errorf("invalid bbs.payload_ceiling: %d", b.PayloadCeiling) }
    if b.SafetyMargin < minSafetyMargin || b.SafetyMargin >= b.PayloadCeiling { return fmt.Errorf("invalid bbs.safety_margin: %d", b.SafetyMargin) }
    if b.SessionTimeout < 0 { return fmt.Errorf("invalid bbs.session_timeout: %s", b.SessionTimeout) }
    if b.UsernameMinLength < 1 { b.UsernameMinLength = 1 }
    if b.UsernameMaxLength < b.UsernameMinLength {
        return fmt.Errorf("bbs.username_max_length %d < min %d", b.UsernameMaxLength, b.UsernameMinLength)
    }
    return nil
}

// MenuConfig is one node of the menu tree.
type MenuConfig struct {
    Name        string         `mapstructure:"name"`
    Command     string         `mapstructure:"command"`
    Description string         `mapstructure:"description"`
    Options     []OptionConfig `mapstructure:"options"`
}

// Option kinds.
const (
    OptionCommand = "command"
    OptionMenu    = "menu"
)

// OptionConfig is one entry of a menu. A command option names a registered
// context; a menu option names another menu.
type OptionConfig struct {
    Type        string `mapstructure:"type"`
    Context     string `mapstructure:"context"`
    Menu        string `mapstructure:"menu"`
    Command     string `mapstructure:"command"`
    Description string `mapstructure:"description"`
    // Role restricts visibility to sessions with this role.
    Role string `mapstructure:"role"`
}

// FindMenu returns the menu named name.
func FindMenu(menus []MenuConfig, name string) (MenuConfig, bool) {
    for _, m := range menus {
        if strings.EqualFold(m.Name, name) { return m, true }
    }
    return MenuConfig{}, false
}

func validateMenus(menus []MenuConfig) error {
    if len(menus) == 0 { return fmt.Errorf("at least one menu is required") }
    seen := map[string]bool{}
    for i := range menus {
        m := &menus[i]
        if strings.TrimSpace(m.Name) == "" { return fmt.Errorf("menus[%d]: name is required", i) }
        key := strings.ToLower(m.Name)
        if seen[key] { return fmt.Errorf("menus[%d]: duplicate name %q", i, m.Name) }
        seen[key] = true
    }
    for _, m := range menus {
        for j := range m.Options {
            o := &m.Options[j]
            o.Type = strings.ToLower(strings.TrimSpace(o.Type))
            if o.Type == "" { o.Type = OptionCommand }
            if strings.TrimSpace(o.Command) == "" { return fmt.Errorf("menu %q option %d: command is required", m.Name, j) }
            switch o.Type {
            case OptionCommand:
                if o.Context == "" { return fmt.Errorf("menu %q option %q: context is required", m.Name, o.Command) }
            case OptionMenu:
                if !seen[strings.ToLower(o.Menu)] { return fmt.Errorf("menu %q option %q: unknown menu %q", m.Name, o.Command, o.Menu) }
            default:
                return fmt.Errorf("menu %q option %q: invalid type %q", m.Name, o.Command, o.Type)
            }
        }
    }
    return nil
}

// DefaultMenus is a small working tree: a guest menu and a member menu.
func DefaultMenus() []MenuConfig {
    return []MenuConfig{
        {
            Name: "Main Menu",
            Options: []OptionConfig{
                {Context: "login", Command: "l", Description: "[L]ogin"},
                {Context: "register", Command: "r", Description: "[R]egister"},
                {Context: "guestbook_read", Command: "g", Description: "[G]uestbook"},
                {Context: "guestbook_sign", Command: "s", Description: "[S]ign guestbook"},
                {Type: OptionMenu, Menu: "Utilities", Command: "u", Description: "[U]tilities"},
                {Context: "quit", Command: "q", Description: "[Q]uit"},
            },
        },
        {
            Name: "Member Menu",
            Options: []OptionConfig{
                {Context: "bbs", Command: "b", Description: "[B]ulletin board"},
                {Type: OptionMenu, Menu: "Games", Command: "g", Description: "[G]ames"},
                {Type: OptionMenu, Menu: "Utilities", Command: "u", Description: "[U]tilities"},
                {Context: "logout", Command: "o", Description: "Log[o]ut"},
                {Context: "quit", Command: "q", Description: "[Q]uit"},
            },
        },
        {
            Name: "Games",
            Options: []OptionConfig{
                {Context: "tictactoe", Command: "t", Description: "[T]ic-tac-toe"},
                {Context: "tictactoe_mp", Command: "m", Description: "[M]ultiplayer tic-tac-toe"},
                {Context: "back", Command: "b", Description: "[B]ack"},
            },
        },
        {
            Name: "Utilities",
            Options: []OptionConfig{
                {Context: "echo", Command: "e", Description: "[E]cho"},
                {Context: "sysinfo", Command: "s", Description: "[S]ysinfo"},
                {Context: "nodes", Command: "n", Description: "[N]odes heard"},
                {Context: "help", Command: "h", Description: "[H]elp"},
                {Context: "shell", Command: "x", Description: "She[x]ll", Role: "admin"},
                {Context: "back", Command: "b", Description: "[B]ack"},
            },
        },
    }
}
