// Package memkv is a thread-safe in-memory key/value store used as the
// volatile persistence backend.
//
// Properties:
//   - sharded map with RW mutexes (256 shards by default)
//   - values are copied on the way in and out
//   - atomic SetNX for uniqueness checks (usernames)
//   - ordered prefix scans for listings (topics, posts)
//   - optional hard limit on total value bytes (Options.MaxBytes)
//   - lock-free metrics
package memkv
