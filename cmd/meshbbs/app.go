package main

import (
    "context"
    "fmt"
    "os"
    "os/signal"
    "syscall"

    "go.uber.org/zap"

    "meshbbs/pkg/bbs"
    "meshbbs/pkg/config"
    "meshbbs/pkg/observability"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
    if opts.Version {
        fmt.Println("meshbbs", version)
        return 0
    }
    cfg, err := config.Load(opts.ConfigPath)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
        return 1
    }
    if opts.LogLevel != "" { cfg.Log.Level = opts.LogLevel }

    logger, err := observability.SetupLogger(cfg.Log)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
        return 1
    }
    defer func() { _ = logger.Sync() }()

    zap.L().Info("meshbbs started", zap.String("app", cfg.AppName), zap.String("version", version))
    zap.L().Debug("effective configuration", zap.Any("config", cfg))
    if len(cfg.Transports) == 0 { zap.L().Warn("no transports configured; nobody can reach the board") }

    st, err := bbs.OpenStore(cfg)
    if err != nil {
        zap.L().Error("failed to open store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
        return 1
    }
    board, err := bbs.New(cfg, st, nil)
    if err != nil {
        _ = st.Close()
        zap.L().Error("failed to build board", zap.Error(err))
        return 1
    }
    defer func() {
        if err := board.Close(); err != nil { zap.L().Warn("close store", zap.Error(err)) }
    }()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    zap.L().Info("board is running; press Ctrl+C to exit")
    if err := board.Run(ctx); err != nil {
        zap.L().Error("board stopped with error", zap.Error(err))
        return 1
    }
    return 0
}
