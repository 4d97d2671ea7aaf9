// Package sqlite is the durable store backend on modernc.org/sqlite.
package sqlite

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "modernc.org/sqlite"

    "meshbbs/pkg/store"
)

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_meta (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    username   TEXT NOT NULL UNIQUE,
    password   BLOB NOT NULL,
    role       TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS topics (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    last_modified INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    topic_id   TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
    author     TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scores (
    username TEXT PRIMARY KEY,
    wins     INTEGER NOT NULL DEFAULT 0,
    losses   INTEGER NOT NULL DEFAULT 0,
    draws    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_topics_modified ON topics(last_modified);
CREATE INDEX IF NOT EXISTS idx_posts_topic ON posts(topic_id, created_at);
`

// Store implements store.Store.
type Store struct {
    db *sql.DB
}

// Open opens (or creates) the database at path and brings the schema to the
// current version. Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
    db, err := sql.Open("sqlite", path)
    if err != nil { return nil, fmt.Errorf("open db: %w", err) }
    // :memory: databases live per connection
    db.SetMaxOpenConns(1)
    for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
        if _, err := db.Exec(pragma); err != nil {
            _ = db.Close()
            return nil, fmt.Errorf("%s: %w", pragma, err)
        }
    }
    if err := migrate(db); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("migrate schema: %w", err)
    }
    return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
    if _, err := db.Exec(schemaSQL); err != nil { return err }
    var ver int
    err := db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&ver)
    switch {
    case errors.Is(err, sql.ErrNoRows):
        _, err = db.Exec("INSERT INTO schema_meta(version) VALUES (?)", schemaVersion)
        return err
    case err != nil:
        return err
    case ver > schemaVersion:
        return fmt.Errorf("database schema v%d is newer than supported v%d", ver, schemaVersion)
    }
    return nil
}

// SchemaVersion reports the stored schema version.
func (s *Store) SchemaVersion() (int, error) {
    var v int
    err := s.db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&v)
    return v, err
}

func (s *Store) Close() error { return s.db.Close() }

func isUniqueViolation(err error) bool {
    return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ---- users ----

func (s *Store) Register(ctx context.Context, username, password string) error {
    hash, err := store.HashPassword(password)
    if err != nil { return fmt.Errorf("hash password: %w", err) }
    _, err = s.db.ExecContext(ctx,
        `INSERT INTO users(username, password, role, created_at) VALUES (?, ?, ?, ?)`,
        store.NormalizeUsername(username), hash, store.DefaultRole, time.Now().Unix())
    if isUniqueViolation(err) { return store.ErrUserExists }
    if err != nil { return fmt.Errorf("insert user: %w", err) }
    return nil
}

func (s *Store) Authenticate(ctx context.Context, username, password string) (bool, error) {
    var hash []byte
    err := s.db.QueryRowContext(ctx, `SELECT password FROM users WHERE username = ?`, store.NormalizeUsername(username)).Scan(&hash)
    if errors.Is(err, sql.ErrNoRows) { return false, nil }
    if err != nil { return false, fmt.Errorf("query user: %w", err) }
    return store.CheckPassword(hash, password), nil
}

func (s *Store) Role(ctx context.Context, username string) (string, error) {
    var role string
    err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE username = ?`, store.NormalizeUsername(username)).Scan(&role)
    if errors.Is(err, sql.ErrNoRows) { return "", store.ErrNotFound }
    if err != nil { return "", fmt.Errorf("query role: %w", err) }
    return role, nil
}

func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
    var n int
    err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, store.NormalizeUsername(username)).Scan(&n)
    if err != nil { return false, fmt.Errorf("query user: %w", err) }
    return n > 0, nil
}

// SetRole changes a user's role; used by the admin CLI.
func (s *Store) SetRole(ctx context.Context, username, role string) error {
    res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE username = ?`, role, store.NormalizeUsername(username))
    if err != nil { return fmt.Errorf("update role: %w", err) }
    if n, _ := res.RowsAffected(); n == 0 { return store.ErrNotFound }
    return nil
}

// ---- topics & posts ----

func (s *Store) CreateTopic(ctx context.Context, title string, at time.Time) (store.Topic, error) {
    t := store.Topic{ID: strings.ReplaceAll(uuid.NewString(), "-", ""), Title: title, LastModified: at.UTC().Truncate(time.Second)}
    _, err := s.db.ExecContext(ctx, `INSERT INTO topics(id, title, last_modified) VALUES (?, ?, ?)`, t.ID, t.Title, t.LastModified.Unix())
    if err != nil { return store.Topic{}, fmt.Errorf("insert topic: %w", err) }
    return t, nil
}

func (s *Store) ListTopics(ctx context.Context) ([]store.Topic, error) {
    rows, err := s.db.QueryContext(ctx, `SELECT id, title, last_modified FROM topics ORDER BY last_modified DESC, rowid DESC`)
    if err != nil { return nil, fmt.Errorf("list topics: %w", err) }
    defer rows.Close()
    var out []store.Topic
    for rows.Next() {
        var t store.Topic
        var ts int64
        if err := rows.Scan(&t.ID, &t.Title, &ts); err != nil { return nil, err }
        t.LastModified = time.Unix(ts, 0).UTC()
        out = append(out, t)
    }
    return out, rows.Err()
}

func (s *Store) GetTopic(ctx context.Context, id string) (store.Topic, error) {
    var t store.Topic
    var ts int64
    err := s.db.QueryRowContext(ctx, `SELECT id, title, last_modified FROM topics WHERE id = ?`, id).Scan(&t.ID, &t.Title, &ts)
    if errors.Is(err, sql.ErrNoRows) { return store.Topic{}, store.ErrNotFound }
    if err != nil { return store.Topic{}, fmt.Errorf("get topic: %w", err) }
    t.LastModified = time.Unix(ts, 0).UTC()
    return t, nil
}

func (s *Store) AppendPost(ctx context.Context, topicID, author, content string, at time.Time) (store.Post, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil { return store.Post{}, err }
    defer func() { _ = tx.Rollback() }()
    ts := at.UTC().Unix()
    res, err := tx.ExecContext(ctx, `UPDATE topics SET last_modified = ? WHERE id = ?`, ts, topicID)
    if err != nil { return store.Post{}, fmt.Errorf("touch topic: %w", err) }
    if n, _ := res.RowsAffected(); n == 0 { return store.Post{}, store.ErrNotFound }
    res, err = tx.ExecContext(ctx, `INSERT INTO posts(topic_id, author, content, created_at) VALUES (?, ?, ?, ?)`, topicID, author, content, ts)
    if err != nil { return store.Post{}, fmt.Errorf("insert post: %w", err) }
    id, err := res.LastInsertId()
    if err != nil { return store.Post{}, err }
    if err := tx.Commit(); err != nil { return store.Post{}, err }
    return store.Post{ID: id, TopicID: topicID, Author: author, Content: content, Created: time.Unix(ts, 0).UTC()}, nil
}

func (s *Store) ListPosts(ctx context.Context, topicID string) ([]store.Post, error) {
    rows, err := s.db.QueryContext(ctx,
        `SELECT id, topic_id, author, content, created_at FROM posts WHERE topic_id = ? ORDER BY created_at DESC, id DESC`, topicID)
    if err != nil { return nil, fmt.Errorf("list posts: %w", err) }
    defer rows.Close()
    var out []store.Post
    for rows.Next() {
        p, err := scanPost(rows)
        if err != nil { return nil, err }
        out = append(out, p)
    }
    return out, rows.Err()
}

func (s *Store) GetPost(ctx context.Context, topicID string, id int64) (store.Post, error) {
    row := s.db.QueryRowContext(ctx, `SELECT id, topic_id, author, content, created_at FROM posts WHERE topic_id = ? AND id = ?`, topicID, id)
    p, err := scanPost(row)
    if errors.Is(err, sql.ErrNoRows) { return store.Post{}, store.ErrNotFound }
    return p, err
}

type scanner interface{ Scan(dest ...any) error }

func scanPost(r scanner) (store.Post, error) {
    var p store.Post
    var ts int64
    if err := r.Scan(&p.ID, &p.TopicID, &p.Author, &p.Content, &ts); err != nil { return store.Post{}, err }
    p.Created = time.Unix(ts, 0).UTC()
    return p, nil
}

// ---- scores ----

func (s *Store) Scores(ctx context.Context, username string) (store.Scores, error) {
    sc := store.Scores{Username: username}
    err := s.db.QueryRowContext(ctx, `SELECT wins, losses, draws FROM scores WHERE username = ?`, username).Scan(&sc.Wins, &sc.Losses, &sc.Draws)
    if errors.Is(err, sql.ErrNoRows) { return sc, nil }
    if err != nil { return store.Scores{}, fmt.Errorf("get scores: %w", err) }
    return sc, nil
}

func (s *Store) UpdateScores(ctx context.Context, sc store.Scores) error {
    _, err := s.db.ExecContext(ctx, `
        INSERT INTO scores(username, wins, losses, draws) VALUES (?, ?, ?, ?)
        ON CONFLICT(username) DO UPDATE SET wins = excluded.wins, losses = excluded.losses, draws = excluded.draws`,
        sc.Username, sc.Wins, sc.Losses, sc.Draws)
    if err != nil { return fmt.Errorf("update scores: %w", err) }
    return nil
}

var _ store.Store = (*Store)(nil)
