// Package memstore is a volatile store backend on memkv. Records are encoded
// with a codec (CBOR by default). Data is lost on exit; useful for demos and
// tests.
package memstore

import (
    "context"
    "errors"
    "fmt"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"

    "meshbbs/pkg/codec"
    "meshbbs/pkg/memkv"
    "meshbbs/pkg/store"
)

// key layout
const (
    userPrefix  = "user:"
    topicPrefix = "topic:"
    postPrefix  = "post:"
    scorePrefix = "score:"
    postSeqKey  = "seq:post"
)

type userRecord struct {
    Username string    `cbor:"u" json:"u"`
    Hash     []byte    `cbor:"h" json:"h"`
    Role     string    `cbor:"r" json:"r"`
    Created  time.Time `cbor:"c" json:"c"`
}

// Store implements store.Store.
type Store struct {
    kv    *memkv.Store
    codec codec.Codec
    // serialises post appends so the topic bump and insert are atomic
    postMu sync.Mutex
}

// New returns an empty store using c (nil: CBOR).
func New(kv *memkv.Store, c codec.Codec) (*Store, error) {
    if kv == nil { kv = memkv.New(memkv.Options{}) }
    if c == nil {
        var err error
        if c, err = codec.CBOR(); err != nil { return nil, err }
    }
    return &Store{kv: kv, codec: c}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) get(key string, v any) error {
    b, ok := s.kv.Get(key)
    if !ok { return store.ErrNotFound }
    return s.codec.Unmarshal(b, v)
}

func (s *Store) put(key string, v any) error {
    b, err := s.codec.Marshal(v)
    if err != nil { return err }
    _, err = s.kv.Set(key, b)
    return err
}

// ---- users ----

func (s *Store) Register(_ context.Context, username, password string) error {
    name := store.NormalizeUsername(username)
    if s.kv.Exists(userPrefix + name) { return store.ErrUserExists }
    hash, err := store.HashPassword(password)
    if err != nil { return fmt.Errorf("hash password: %w", err) }
    b, err := s.codec.Marshal(userRecord{Username: name, Hash: hash, Role: store.DefaultRole, Created: time.Now().UTC()})
    if err != nil { return err }
    ok, err := s.kv.SetNX(userPrefix+name, b)
    if err != nil { return err }
    if !ok { return store.ErrUserExists }
    return nil
}

func (s *Store) user(name string) (userRecord, error) {
    var u userRecord
    err := s.get(userPrefix+store.NormalizeUsername(name), &u)
    return u, err
}

func (s *Store) Authenticate(_ context.Context, username, password string) (bool, error) {
    u, err := s.user(username)
    if errors.Is(err, store.ErrNotFound) { return false, nil }
    if err != nil { return false, err }
    return store.CheckPassword(u.Hash, password), nil
}

func (s *Store) Role(_ context.Context, username string) (string, error) {
    u, err := s.user(username)
    if err != nil { return "", err }
    return u.Role, nil
}

func (s *Store) Exists(_ context.Context, username string) (bool, error) {
    return s.kv.Exists(userPrefix + store.NormalizeUsername(username)), nil
}

// SetRole changes a user's role.
func (s *Store) SetRole(_ context.Context, username, role string) error {
    u, err := s.user(username)
    if err != nil { return err }
    u.Role = role
    return s.put(userPrefix+u.Username, u)
}

// ---- topics & posts ----

func (s *Store) CreateTopic(_ context.Context, title string, at time.Time) (store.Topic, error) {
    t := store.Topic{ID: strings.ReplaceAll(uuid.NewString(), "-", ""), Title: title, LastModified: at.UTC().Truncate(time.Second)}
    return t, s.put(topicPrefix+t.ID, t)
}

func (s *Store) ListTopics(_ context.Context) ([]store.Topic, error) {
    var out []store.Topic
    var err error
    s.kv.Scan(topicPrefix, func(_ string, b []byte) bool {
        var t store.Topic
        if err = s.codec.Unmarshal(b, &t); err != nil { return false }
        out = append(out, t)
        return true
    })
    if err != nil { return nil, err }
    sort.SliceStable(out, func(i, j int) bool { return out[i].LastModified.After(out[j].LastModified) })
    return out, nil
}

func (s *Store) GetTopic(_ context.Context, id string) (store.Topic, error) {
    var t store.Topic
    err := s.get(topicPrefix+id, &t)
    return t, err
}

func postKey(topicID string, id int64) string { return fmt.Sprintf("%s%s:%016d", postPrefix, topicID, id) }

func (s *Store) nextPostID() (int64, error) {
    var id int64
    _, err := s.kv.Update(postSeqKey, func(old []byte, exists bool) []byte {
        if exists { _ = s.codec.Unmarshal(old, &id) }
        id++
        b, _ := s.codec.Marshal(id)
        return b
    })
    return id, err
}

func (s *Store) AppendPost(_ context.Context, topicID, author, content string, at time.Time) (store.Post, error) {
    s.postMu.Lock()
    defer s.postMu.Unlock()
    var t store.Topic
    if err := s.get(topicPrefix+topicID, &t); err != nil { return store.Post{}, err }
    id, err := s.nextPostID()
    if err != nil { return store.Post{}, err }
    p := store.Post{ID: id, TopicID: topicID, Author: author, Content: content, Created: at.UTC().Truncate(time.Second)}
    if err := s.put(postKey(topicID, id), p); err != nil { return store.Post{}, err }
    t.LastModified = p.Created
    if err := s.put(topicPrefix+topicID, t); err != nil { return store.Post{}, err }
    return p, nil
}

func (s *Store) ListPosts(_ context.Context, topicID string) ([]store.Post, error) {
    var out []store.Post
    var err error
    s.kv.Scan(postPrefix+topicID+":", func(_ string, b []byte) bool {
        var p store.Post
        if err = s.codec.Unmarshal(b, &p); err != nil { return false }
        out = append(out, p)
        return true
    })
    if err != nil { return nil, err }
    sort.SliceStable(out, func(i, j int) bool {
        if !out[i].Created.Equal(out[j].Created) { return out[i].Created.After(out[j].Created) }
        return out[i].ID > out[j].ID
    })
    return out, nil
}

func (s *Store) GetPost(_ context.Context, topicID string, id int64) (store.Post, error) {
    var p store.Post
    err := s.get(postKey(topicID, id), &p)
    return p, err
}

// ---- scores ----

func (s *Store) Scores(_ context.Context, username string) (store.Scores, error) {
    sc := store.Scores{Username: username}
    err := s.get(scorePrefix+username, &sc)
    if errors.Is(err, store.ErrNotFound) { return store.Scores{Username: username}, nil }
    return sc, err
}

func (s *Store) UpdateScores(_ context.Context, sc store.Scores) error {
    return s.put(scorePrefix+sc.Username, sc)
}

var _ store.Store = (*Store)(nil)
