//go:build unix

package contexts

import (
    "strings"

    "golang.org/x/sys/unix"
)

// uname renders the fields `uname -a` shows.
func uname() (string, error) {
    var u unix.Utsname
    if err := unix.Uname(&u); err != nil { return "", err }
    return strings.Join([]string{
        unix.ByteSliceToString(u.Sysname[:]),
        unix.ByteSliceToString(u.Nodename[:]),
        unix.ByteSliceToString(u.Release[:]),
        unix.ByteSliceToString(u.Version[:]),
        unix.ByteSliceToString(u.Machine[:]),
    }, " "), nil
}
