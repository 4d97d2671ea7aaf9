package config

import (
    "fmt"
    "time"

    "meshbbs/pkg/transport"
)

// TransportConfig describes one link.
type TransportConfig struct {
    // Kind: tcp (debug socket), meshtastic-tcp, meshtastic-serial
    Kind string `mapstructure:"kind"`
    // Listen address for the debug socket
    Listen string `mapstructure:"listen"`
    // Dial is the radio address (host or host:port) for meshtastic-tcp
    Dial string `mapstructure:"dial"`
    // Device is the serial path for meshtastic-serial
    Device string `mapstructure:"device"`
    Baud   int    `mapstructure:"baud"`
    // Channel index used for direct messages
    Channel  uint32 `mapstructure:"channel"`
    HopLimit uint32 `mapstructure:"hop_limit"`
    WantAck  bool   `mapstructure:"want_ack"`
    // Announce text is broadcast on AnnounceChannel after each connect
    Announce        string        `mapstructure:"announce"`
    AnnounceChannel uint32        `mapstructure:"announce_channel"`
    ProbeInterval   time.Duration `mapstructure:"probe_interval"`
    WriteTimeout    time.Duration `mapstructure:"write_timeout"`
    Backoff         BackoffConfig `mapstructure:"backoff"`
    Pacing          PacingConfig  `mapstructure:"pacing"`
}

// BackoffConfig is the reconnect schedule.
type BackoffConfig struct {
    Initial time.Duration `mapstructure:"initial"`
    Max     time.Duration `mapstructure:"max"`
    Jitter  time.Duration `mapstructure:"jitter"`
}

// PacingConfig shapes radio sends: RateBytes per second with Burst bytes.
type PacingConfig struct {
    RateBytes int64 `mapstructure:"rate_bytes"`
    Burst     int64 `mapstructure:"burst"`
    QueueSize int   `mapstructure:"queue_size"`
}

// ErrUnknownKind names an unsupported transport kind.
type ErrUnknownKind string

func (e ErrUnknownKind) Error() string { return fmt.Sprintf("unknown transport kind %q", string(e)) }

func (t *TransportConfig) validate() error {
    k := transport.ParseKind(t.Kind)
    switch k {
    case transport.KindDebugTCP:
        if t.Listen == "" { return fmt.Errorf("tcp: listen is required") }
    case transport.KindMeshTCP:
        if t.Dial == "" { return fmt.Errorf("meshtastic-tcp: dial is required") }
    case transport.KindMeshSerial:
        if t.Device == "" { return fmt.Errorf("meshtastic-serial: device is required") }
    default:
        return ErrUnknownKind(t.Kind)
    }
    t.Kind = k.String()
    if t.ProbeInterval <= 0 { t.ProbeInterval = time.Second }
    if t.Backoff.Initial <= 0 { t.Backoff.Initial = 500 * time.Millisecond }
    if t.Backoff.Max <= 0 { t.Backoff.Max = 30 * time.Second }
    if t.Backoff.Jitter <= 0 { t.Backoff.Jitter = 250 * time.Millisecond }
    return nil
}
