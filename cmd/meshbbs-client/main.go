// Command meshbbs-client is a line-oriented client for the board's debug
// TCP socket. Lines typed on stdin are sent as-is; everything the board
// writes is copied to stdout.
package main

import (
    "bufio"
    "fmt"
    "io"
    "net"
    "os"
    "time"

    "github.com/spf13/pflag"
    "go.uber.org/zap"
)

func main() {
    addr := pflag.StringP("addr", "a", "127.0.0.1:8023", "debug socket address")
    keyword := pflag.StringP("keyword", "k", "bbs", "activation keyword sent on connect; empty sends nothing")
    timeout := pflag.Duration("timeout", 5*time.Second, "dial timeout")
    verbose := pflag.BoolP("verbose", "v", false, "log connection events")
    pflag.Parse()

    logger := zap.NewNop()
    if *verbose { logger, _ = zap.NewDevelopment() }
    zap.ReplaceGlobals(logger)
    defer func() { _ = logger.Sync() }()

    c, err := net.DialTimeout("tcp", *addr, *timeout)
    if err != nil { fatalf("dial %s: %v", *addr, err) }
    defer c.Close()
    zap.L().Info("connected", zap.String("addr", *addr))

    done := make(chan struct{})
    go func() {
        defer close(done)
        if _, err := io.Copy(os.Stdout, c); err != nil { zap.L().Debug("read ended", zap.Error(err)) }
        zap.L().Info("server closed the connection")
    }()

    if *keyword != "" {
        if _, err := fmt.Fprintf(c, "%s\n", *keyword); err != nil { fatalf("send keyword: %v", err) }
    }

    in := bufio.NewScanner(os.Stdin)
    for in.Scan() {
        if _, err := fmt.Fprintf(c, "%s\n", in.Text()); err != nil {
            zap.L().Warn("send failed", zap.Error(err))
            break
        }
    }
    // stdin closed: stop writing and wait for the board to finish talking
    if tc, ok := c.(*net.TCPConn); ok { _ = tc.CloseWrite() }
    select {
    case <-done:
    case <-time.After(2 * time.Second):
    }
}

func fatalf(format string, a ...any) {
    _, _ = fmt.Fprintf(os.Stderr, format+"\n", a...)
    os.Exit(1)
}
