// Package config provides YAML-based configuration loading for meshbbs.
package config

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
    // AppName optional logical name of the BBS, shown in logs and sysinfo
    AppName string `mapstructure:"app_name"`

    // DataDir base directory for the database and guestbook
    DataDir string `mapstructure:"data_dir"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`

    // BBS holds session engine settings
    BBS BBSConfig `mapstructure:"bbs"`

    // Menus is the menu tree; the first entry is the root menu.
    Menus []MenuConfig `mapstructure:"menus"`

    // Transports lists the links the BBS answers on
    Transports []TransportConfig `mapstructure:"transports"`

    Storage   StorageConfig   `mapstructure:"storage"`
    Guestbook GuestbookConfig `mapstructure:"guestbook"`
    Contexts  ContextsConfig  `mapstructure:"contexts"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Outputs: list of outputs: stdout, stderr, or file paths
    Outputs []string `mapstructure:"outputs"`

    // Rotation controls file rotation when writing to files
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool   `mapstructure:"enable"`
    Filename   string `mapstructure:"filename"`
    MaxSizeMB  int    `mapstructure:"max_size_mb"`
    MaxBackups int    `mapstructure:"max_backups"`
    MaxAgeDays int    `mapstructure:"max_age_days"`
    Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "meshbbs",
        DataDir: "./data",
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Outputs:     []string{"stdout"},
            Development: false,
            Rotation: RotationConfig{
                Enable:     false,
                Filename:   "logs/meshbbs.log",
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
        BBS:        DefaultBBS(),
        Menus:      DefaultMenus(),
        Transports: []TransportConfig{{Kind: "tcp", Listen: "127.0.0.1:8023"}},
        Storage:    StorageConfig{Backend: "sqlite", Path: "bbs.db", Codec: "cbor"},
        Guestbook:  GuestbookConfig{File: "guestbook.txt"},
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix MESHBBS and `.`/`-` are replaced with `_`.
// Example: MESHBBS_BBS_ACTIVATION_KEYWORD=hello
func Load(path string) (*Config, error) {
    cfg := Default()

    v := viper.New()
    v.SetConfigType("yaml")
    v.SetEnvPrefix("MESHBBS")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("data_dir", cfg.DataDir)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.outputs", cfg.Log.Outputs)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
    setBBSDefaults(v, cfg.BBS)
    v.SetDefault("storage.backend", cfg.Storage.Backend)
    v.SetDefault("storage.path", cfg.Storage.Path)
    v.SetDefault("storage.codec", cfg.Storage.Codec)
    v.SetDefault("guestbook.file", cfg.Guestbook.File)
    v.SetDefault("contexts.shell.enabled", false)
    v.SetDefault("contexts.shell.timeout", 10*time.Second)

    // Choose config file
    if path == "" {
        // Allow override via env var
        if envPath := os.Getenv("MESHBBS_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        // format follows the extension: .yaml, .yml, .toml, .json
        v.SetConfigFile(path)
        if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" { v.SetConfigType(ext) }
    } else {
        // Search common locations with base name `meshbbs`
        v.SetConfigName("meshbbs")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".meshbbs"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var viperConfigFileNotFound viper.ConfigFileNotFoundError
        if !errors.As(err, &viperConfigFileNotFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    // lists replace defaults wholesale when present
    if v.IsSet("menus") { cfg.Menus = nil }
    if v.IsSet("transports") { cfg.Transports = nil }

    if err := v.Unmarshal(&cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
        // ok
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }

    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if len(c.Log.Outputs) == 0 {
        c.Log.Outputs = []string{"stdout"}
    }
    if err := c.BBS.validate(); err != nil { return err }
    if err := validateMenus(c.Menus); err != nil { return err }
    for i := range c.Transports {
        if err := c.Transports[i].validate(); err != nil { return fmt.Errorf("transports[%d]: %w", i, err) }
    }
    if err := c.Storage.validate(); err != nil { return err }
    return nil
}

// DataPath resolves p against DataDir unless it is absolute or ":memory:".
func (c *Config) DataPath(p string) string {
    if p == "" || p == ":memory:" || filepath.IsAbs(p) { return p }
    return filepath.Join(c.DataDir, p)
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
    cfg, err := Load(path)
    if err != nil {
        panic(err)
    }
    return cfg
}
