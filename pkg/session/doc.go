// Package session is the per-user runtime of the BBS.
//
// A Session owns one active Context plus a history of parked ones, an
// inactivity timer and a mutex. Everything a Context does (send text,
// navigate forward, navigate back) goes through its Session while the
// Session's lock is held by the dispatch that delivered the input.
//
// Locking contract:
// - Receive, Start, Post and Shutdown acquire the session lock.
// - Every other method is meant to be called from inside a Context, i.e.
//   with the lock already held. Calling them from another goroutine races.
//
// The Directory maps user ids to live sessions and has its own lock.
package session
