package memkv

import (
    "errors"
    "sort"
    "strings"
    "sync"
    "sync/atomic"
)

// ErrFull is returned when a write would exceed Options.MaxBytes.
var ErrFull = errors.New("memkv: byte limit reached")

type Options struct {
    Shards   int    // default 256
    MaxBytes uint64 // 0 = unlimited
}

func (o Options) withDefaults() Options {
    if o.Shards <= 0 { o.Shards = 256 }
    return o
}

type Store struct {
    opts   Options
    shards []shard

    mKeys    atomic.Uint64
    mBytes   atomic.Uint64
    mSets    atomic.Uint64
    mGets    atomic.Uint64
    mHits    atomic.Uint64
    mMisses  atomic.Uint64
    mDels    atomic.Uint64
    mUpdates atomic.Uint64
}

type shard struct {
    mu sync.RWMutex
    m  map[string][]byte
}

func New(opts Options) *Store {
    opts = opts.withDefaults()
    s := &Store{opts: opts, shards: make([]shard, opts.Shards)}
    for i := range s.shards { s.shards[i].m = make(map[string][]byte) }
    return s
}

// shardFor hashes with FNV-1a 64.
func (s *Store) shardFor(key string) *shard {
    var h uint64 = 1469598103934665603
    for i := 0; i < len(key); i++ {
        h ^= uint64(key[i])
        h *= 1099511628211
    }
    return &s.shards[int(h%uint64(len(s.shards)))]
}

func clone(b []byte) []byte { return append([]byte(nil), b...) }

// reserve accounts delta bytes, failing when the limit would be crossed.
func (s *Store) reserve(delta int) bool {
    if delta <= 0 {
        s.release(-delta)
        return true
    }
    if s.opts.MaxBytes == 0 {
        s.mBytes.Add(uint64(delta))
        return true
    }
    for {
        cur := s.mBytes.Load()
        next := cur + uint64(delta)
        if next > s.opts.MaxBytes { return false }
        if s.mBytes.CompareAndSwap(cur, next) { return true }
    }
}

func (s *Store) release(n int) {
    if n <= 0 { return }
    for {
        cur := s.mBytes.Load()
        next := uint64(0)
        if uint64(n) < cur { next = cur - uint64(n) }
        if s.mBytes.CompareAndSwap(cur, next) { return }
    }
}

// Set stores val under key. created reports whether the key is new.
func (s *Store) Set(key string, val []byte) (created bool, err error) {
    sh := s.shardFor(key)
    sh.mu.Lock()
    defer sh.mu.Unlock()
    prev, existed := sh.m[key]
    if !s.reserve(len(val) - len(prev)) { return false, ErrFull }
    sh.m[key] = clone(val)
    if !existed { s.mKeys.Add(1) }
    s.mSets.Add(1)
    return !existed, nil
}

// SetNX stores val only when key is absent.
func (s *Store) SetNX(key string, val []byte) (bool, error) {
    sh := s.shardFor(key)
    sh.mu.Lock()
    defer sh.mu.Unlock()
    if _, ok := sh.m[key]; ok { return false, nil }
    if !s.reserve(len(val)) { return false, ErrFull }
    sh.m[key] = clone(val)
    s.mKeys.Add(1)
    s.mSets.Add(1)
    return true, nil
}

func (s *Store) Get(key string) ([]byte, bool) {
    sh := s.shardFor(key)
    sh.mu.RLock()
    v, ok := sh.m[key]
    if ok { v = clone(v) }
    sh.mu.RUnlock()
    s.mGets.Add(1)
    if ok { s.mHits.Add(1) } else { s.mMisses.Add(1) }
    return v, ok
}

// Update replaces the value of key with fn(old) under the shard lock. fn sees
// exists=false for a missing key; returning nil leaves the store unchanged.
func (s *Store) Update(key string, fn func(old []byte, exists bool) []byte) (bool, error) {
    sh := s.shardFor(key)
    sh.mu.Lock()
    defer sh.mu.Unlock()
    old, existed := sh.m[key]
    next := fn(old, existed)
    if next == nil { return false, nil }
    if !s.reserve(len(next) - len(old)) { return false, ErrFull }
    sh.m[key] = clone(next)
    if !existed { s.mKeys.Add(1) }
    s.mUpdates.Add(1)
    return true, nil
}

func (s *Store) Exists(key string) bool {
    sh := s.shardFor(key)
    sh.mu.RLock(); defer sh.mu.RUnlock()
    _, ok := sh.m[key]
    return ok
}

func (s *Store) Delete(key string) bool {
    sh := s.shardFor(key)
    sh.mu.Lock()
    v, ok := sh.m[key]
    if ok { delete(sh.m, key) }
    sh.mu.Unlock()
    if ok {
        s.mDels.Add(1)
        s.mKeys.Add(^uint64(0))
        s.release(len(v))
    }
    return ok
}

// Keys returns every key with prefix, sorted.
func (s *Store) Keys(prefix string) []string {
    var out []string
    for i := range s.shards {
        sh := &s.shards[i]
        sh.mu.RLock()
        for k := range sh.m {
            if strings.HasPrefix(k, prefix) { out = append(out, k) }
        }
        sh.mu.RUnlock()
    }
    sort.Strings(out)
    return out
}

// Scan calls fn for each key with prefix in key order until fn returns false.
// Values are copies; keys removed meanwhile are skipped.
func (s *Store) Scan(prefix string, fn func(key string, val []byte) bool) {
    for _, k := range s.Keys(prefix) {
        v, ok := s.Get(k)
        if !ok { continue }
        if !fn(k, v) { return }
    }
}

// Stats is a metrics snapshot.
type Stats struct {
    Keys    uint64
    Bytes   uint64
    Sets    uint64
    Gets    uint64
    Hits    uint64
    Misses  uint64
    Dels    uint64
    Updates uint64
}

func (s *Store) Metrics() Stats {
    return Stats{
        Keys:    s.mKeys.Load(),
        Bytes:   s.mBytes.Load(),
        Sets:    s.mSets.Load(),
        Gets:    s.mGets.Load(),
        Hits:    s.mHits.Load(),
        Misses:  s.mMisses.Load(),
        Dels:    s.mDels.Load(),
        Updates: s.mUpdates.Load(),
    }
}
