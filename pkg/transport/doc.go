// Package transport defines the narrow contract between the BBS core and the
// links that carry user text: radios on a mesh network and debug sockets.
//
// Key concepts:
// - Packet: one inbound unit of user text plus addressing
// - Adapter: sends text back to a user; optionally knows its own node address
// - Kind: adapter family, used for logging and config
//
// Implementations live in subpackages (tcp, meshtastic, mem).
package transport
