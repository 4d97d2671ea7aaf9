//go:build !unix

package contexts

import (
    "os"
    "runtime"
)

func uname() (string, error) {
    host, err := os.Hostname()
    if err != nil { return "", err }
    return runtime.GOOS + " " + host + " " + runtime.GOARCH, nil
}
