// Package store declares the persistence contracts the BBS consumes. Every
// call is synchronous and fallible; callers never retry.
package store

import (
    "context"
    "errors"
    "strings"
    "time"

    "golang.org/x/crypto/bcrypt"
)

var (
    ErrNotFound   = errors.New("store: not found")
    ErrUserExists = errors.New("store: username taken")
)

// DefaultRole is assigned to new registrations.
const DefaultRole = "user"

type User struct {
    Username string
    Role     string
    Created  time.Time
}

type Topic struct {
    ID           string
    Title        string
    LastModified time.Time
}

type Post struct {
    ID      int64
    TopicID string
    Author  string
    Content string
    Created time.Time
}

// Scores are a player's multiplayer tic-tac-toe totals.
type Scores struct {
    Username string
    Wins     int
    Losses   int
    Draws    int
}

type UserStore interface {
    // Register fails with ErrUserExists for a taken (case-insensitive) name.
    Register(ctx context.Context, username, password string) error
    Authenticate(ctx context.Context, username, password string) (bool, error)
    Role(ctx context.Context, username string) (string, error)
    Exists(ctx context.Context, username string) (bool, error)
}

type TopicStore interface {
    CreateTopic(ctx context.Context, title string, at time.Time) (Topic, error)
    // ListTopics orders by LastModified, newest first.
    ListTopics(ctx context.Context) ([]Topic, error)
    GetTopic(ctx context.Context, id string) (Topic, error)
}

type PostStore interface {
    // AppendPost also bumps the topic's LastModified.
    AppendPost(ctx context.Context, topicID, author, content string, at time.Time) (Post, error)
    // ListPosts orders newest first.
    ListPosts(ctx context.Context, topicID string) ([]Post, error)
    GetPost(ctx context.Context, topicID string, id int64) (Post, error)
}

type ScoreStore interface {
    // Scores returns zero totals for a player without a record.
    Scores(ctx context.Context, username string) (Scores, error)
    UpdateScores(ctx context.Context, s Scores) error
}

// Store is what a backend provides.
type Store interface {
    UserStore
    TopicStore
    PostStore
    ScoreStore
    Close() error
}

// NormalizeUsername folds case so lookups are case-insensitive.
func NormalizeUsername(u string) string { return strings.ToLower(strings.TrimSpace(u)) }

// HashPassword returns a bcrypt hash.
func HashPassword(password string) ([]byte, error) {
    return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CheckPassword compares a bcrypt hash with a candidate.
func CheckPassword(hash []byte, password string) bool {
    return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
