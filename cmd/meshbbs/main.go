// Command meshbbs runs a bulletin board over Meshtastic radios and a debug
// TCP socket.
package main

import "os"

var version = "dev"

func main() {
    os.Exit(run(ParseFlags(os.Args[1:])))
}
