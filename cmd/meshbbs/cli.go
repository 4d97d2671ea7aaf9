package main

import (
    "fmt"
    "os"

    "github.com/spf13/pflag"
)

// Options holds CLI options for the board.
type Options struct {
    ConfigPath string
    LogLevel   string
    Version    bool
}

// ParseFlags parses CLI flags from args and returns Options.
func ParseFlags(args []string) Options {
    fs := pflag.NewFlagSet("meshbbs", pflag.ExitOnError)
    var opts Options
    fs.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to YAML config file")
    fs.StringVar(&opts.LogLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
    fs.BoolVar(&opts.Version, "version", false, "Print version and exit")
    fs.Usage = func() {
        fmt.Fprintf(os.Stderr, "Usage: meshbbs [flags]\n\n")
        fs.PrintDefaults()
    }
    _ = fs.Parse(args)
    return opts
}
