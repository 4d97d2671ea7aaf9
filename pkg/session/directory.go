package session

import (
    "sort"
    "sync"

    "meshbbs/pkg/transport"
)

// Directory is the registry of live sessions keyed by user id. All
// operations are atomic with respect to each other.
type Directory struct {
    mu       sync.RWMutex
    sessions map[transport.NodeID]*Session
}

func NewDirectory() *Directory { return &Directory{sessions: make(map[transport.NodeID]*Session)} }

// Add inserts s under id. An existing entry is left untouched and
// ErrSessionExists is returned.
func (d *Directory) Add(id transport.NodeID, s *Session) error {
    d.mu.Lock()
    defer d.mu.Unlock()
    if _, ok := d.sessions[id]; ok { return ErrSessionExists }
    d.sessions[id] = s
    return nil
}

func (d *Directory) Get(id transport.NodeID) (*Session, bool) {
    d.mu.RLock()
    defer d.mu.RUnlock()
    s, ok := d.sessions[id]
    return s, ok
}

func (d *Directory) Exists(id transport.NodeID) bool {
    _, ok := d.Get(id)
    return ok
}

// Remove deletes the entry for id, whatever session it holds.
func (d *Directory) Remove(id transport.NodeID) {
    d.mu.Lock()
    delete(d.sessions, id)
    d.mu.Unlock()
}

// RemoveIf deletes the entry for id only while it still maps to s.
func (d *Directory) RemoveIf(id transport.NodeID, s *Session) bool {
    d.mu.Lock()
    defer d.mu.Unlock()
    if cur, ok := d.sessions[id]; ok && cur == s {
        delete(d.sessions, id)
        return true
    }
    return false
}

func (d *Directory) Len() int {
    d.mu.RLock(); defer d.mu.RUnlock()
    return len(d.sessions)
}

// IDs returns the live ids sorted.
func (d *Directory) IDs() []transport.NodeID {
    d.mu.RLock()
    out := make([]transport.NodeID, 0, len(d.sessions))
    for id := range d.sessions { out = append(out, id) }
    d.mu.RUnlock()
    sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
    return out
}

// Snapshot returns the live sessions in id order.
func (d *Directory) Snapshot() []*Session {
    ids := d.IDs()
    out := make([]*Session, 0, len(ids))
    for _, id := range ids {
        if s, ok := d.Get(id); ok { out = append(out, s) }
    }
    return out
}
