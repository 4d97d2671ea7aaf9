// Package observability contains logging setup for meshbbs.
package observability

import (
    "os"
    "path/filepath"
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "gopkg.in/natefinch/lumberjack.v2"

    "meshbbs/pkg/config"
)

// SetupLogger builds a zap.Logger from the provided configuration, sets it as
// the global logger, and redirects the stdlib log package. The caller should
// defer logger.Sync().
func SetupLogger(c config.LogConfig) (*zap.Logger, error) {
    level := zap.NewAtomicLevelAt(ParseLevel(c.Level))

    encCfg := defaultEncoderConfig(c.Development)
    var encoder zapcore.Encoder
    if strings.ToLower(c.Format) == "json" {
        encoder = zapcore.NewJSONEncoder(encCfg)
    } else {
        encoder = zapcore.NewConsoleEncoder(encCfg)
    }

    var cores []zapcore.Core
    for _, out := range c.Outputs {
        cores = append(cores, zapcore.NewCore(encoder, sinkFor(out, c), level))
    }

    opts := []zap.Option{
        zap.AddCaller(),
        zap.AddStacktrace(zap.ErrorLevel),
    }
    if c.Development {
        opts = append(opts, zap.Development())
    }

    logger := zap.New(zapcore.NewTee(cores...), opts...)
    zap.ReplaceGlobals(logger)
    _, _ = zap.RedirectStdLogAt(logger, zap.InfoLevel)
    return logger, nil
}

// ParseLevel maps a config level name to a zap level; unknown names give info.
func ParseLevel(s string) zapcore.Level {
    switch strings.ToLower(strings.TrimSpace(s)) {
    case "debug":
        return zap.DebugLevel
    case "warn", "warning":
        return zap.WarnLevel
    case "error":
        return zap.ErrorLevel
    default:
        return zap.InfoLevel
    }
}

func sinkFor(out string, c config.LogConfig) zapcore.WriteSyncer {
    switch strings.ToLower(out) {
    case "stdout":
        return zapcore.AddSync(os.Stdout)
    case "stderr":
        return zapcore.AddSync(os.Stderr)
    }
    if c.Rotation.Enable {
        return zapcore.AddSync(&lumberjack.Logger{
            Filename:   chooseFilename(out, c),
            MaxSize:    max(c.Rotation.MaxSizeMB, 10),
            MaxBackups: max(c.Rotation.MaxBackups, 1),
            MaxAge:     max(c.Rotation.MaxAgeDays, 7),
            Compress:   c.Rotation.Compress,
        })
    }
    if dir := filepath.Dir(out); dir != "." {
        _ = os.MkdirAll(dir, 0o755)
    }
    f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil {
        // fallback to stderr on failure
        return zapcore.AddSync(os.Stderr)
    }
    return zapcore.AddSync(f)
}

func defaultEncoderConfig(dev bool) zapcore.EncoderConfig {
    if dev {
        cfg := zap.NewDevelopmentEncoderConfig()
        cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
        return cfg
    }
    cfg := zap.NewProductionEncoderConfig()
    cfg.EncodeTime = zapcore.ISO8601TimeEncoder
    return cfg
}

// chooseFilename prefers the rotation filename when one is configured.
func chooseFilename(out string, c config.LogConfig) string {
    if c.Rotation.Enable && strings.TrimSpace(c.Rotation.Filename) != "" {
        return c.Rotation.Filename
    }
    return out
}
