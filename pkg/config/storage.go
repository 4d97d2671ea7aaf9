package config

import (
    "fmt"
    "strings"
    "time"
)

// StorageConfig selects the persistence backend.
type StorageConfig struct {
    // Backend: sqlite or memory
    Backend string `mapstructure:"backend"`
    // Path of the sqlite database, relative to data_dir
    Path string `mapstructure:"path"`
    // Codec for the memory backend records: cbor or json
    Codec string `mapstructure:"codec"`
}

func (s *StorageConfig) validate() error {
    s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
    switch s.Backend {
    case "sqlite":
        if s.Path == "" { s.Path = "bbs.db" }
    case "memory", "mem":
        s.Backend = "memory"
    default:
        return fmt.Errorf("invalid storage.backend: %q", s.Backend)
    }
    return nil
}

// GuestbookConfig points at the guestbook file, relative to data_dir.
type GuestbookConfig struct {
    File string `mapstructure:"file"`
}

// ContextsConfig carries per-context switches.
type ContextsConfig struct {
    Shell ShellConfig `mapstructure:"shell"`
}

// ShellConfig gates the remote shell context.
type ShellConfig struct {
    Enabled bool          `mapstructure:"enabled"`
    Timeout time.Duration `mapstructure:"timeout"`
}
