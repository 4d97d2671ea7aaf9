// Package storetest is a behaviour suite every store backend must pass.
package storetest

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/require"

    "meshbbs/pkg/store"
)

// Run exercises a fresh store from open for every subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
    t.Run("Users", func(t *testing.T) { testUsers(t, open(t)) })
    t.Run("ConcurrentRegister", func(t *testing.T) { testConcurrentRegister(t, open(t)) })
    t.Run("Topics", func(t *testing.T) { testTopics(t, open(t)) })
    t.Run("Posts", func(t *testing.T) { testPosts(t, open(t)) })
    t.Run("Scores", func(t *testing.T) { testScores(t, open(t)) })
}

func testUsers(t *testing.T, s store.Store) {
    ctx := context.Background()
    defer s.Close()

    ok, err := s.Exists(ctx, "Alice")
    require.NoError(t, err)
    require.False(t, ok)

    require.NoError(t, s.Register(ctx, "Alice", "hunter2"))
    require.ErrorIs(t, s.Register(ctx, "ALICE", "other"), store.ErrUserExists)

    ok, err = s.Exists(ctx, "alice")
    require.NoError(t, err)
    require.True(t, ok)

    ok, err = s.Authenticate(ctx, "aLiCe", "hunter2")
    require.NoError(t, err)
    require.True(t, ok)
    ok, err = s.Authenticate(ctx, "alice", "wrong")
    require.NoError(t, err)
    require.False(t, ok)
    ok, err = s.Authenticate(ctx, "nobody", "hunter2")
    require.NoError(t, err)
    require.False(t, ok)

    role, err := s.Role(ctx, "ALICE")
    require.NoError(t, err)
    require.Equal(t, store.DefaultRole, role)
    _, err = s.Role(ctx, "nobody")
    require.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentRegister(t *testing.T, s store.Store) {
    ctx := context.Background()
    defer s.Close()
    var wg sync.WaitGroup
    var mu sync.Mutex
    wins := 0
    for i := 0; i < 4; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            if s.Register(ctx, "bob", "pw") == nil {
                mu.Lock(); wins++; mu.Unlock()
            }
        }()
    }
    wg.Wait()
    require.Equal(t, 1, wins)
}

func testTopics(t *testing.T, s store.Store) {
    ctx := context.Background()
    defer s.Close()
    base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

    older, err := s.CreateTopic(ctx, "Older", base)
    require.NoError(t, err)
    newer, err := s.CreateTopic(ctx, "Newer", base.Add(time.Hour))
    require.NoError(t, err)
    require.NotEqual(t, older.ID, newer.ID)
    require.NotContains(t, older.ID, "-")

    list, err := s.ListTopics(ctx)
    require.NoError(t, err)
    require.Len(t, list, 2)
    require.Equal(t, "Newer", list[0].Title)

    got, err := s.GetTopic(ctx, older.ID)
    require.NoError(t, err)
    require.Equal(t, "Older", got.Title)
    require.True(t, got.LastModified.Equal(base))

    _, err = s.GetTopic(ctx, "missing")
    require.ErrorIs(t, err, store.ErrNotFound)
}

func testPosts(t *testing.T, s store.Store) {
    ctx := context.Background()
    defer s.Close()
    base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

    a, err := s.CreateTopic(ctx, "A", base)
    require.NoError(t, err)
    b, err := s.CreateTopic(ctx, "B", base.Add(time.Minute))
    require.NoError(t, err)

    p1, err := s.AppendPost(ctx, a.ID, "alice", "first", base.Add(2*time.Minute))
    require.NoError(t, err)
    p2, err := s.AppendPost(ctx, a.ID, "bob", "second", base.Add(3*time.Minute))
    require.NoError(t, err)
    require.NotEqual(t, p1.ID, p2.ID)

    posts, err := s.ListPosts(ctx, a.ID)
    require.NoError(t, err)
    require.Len(t, posts, 2)
    require.Equal(t, "second", posts[0].Content)

    got, err := s.GetPost(ctx, a.ID, p1.ID)
    require.NoError(t, err)
    require.Equal(t, "alice", got.Author)
    _, err = s.GetPost(ctx, b.ID, p1.ID)
    require.ErrorIs(t, err, store.ErrNotFound)

    list, err := s.ListTopics(ctx)
    require.NoError(t, err)
    require.Equal(t, a.ID, list[0].ID, "posting bumps the topic")
    require.True(t, list[0].LastModified.Equal(base.Add(3*time.Minute)))

    _, err = s.AppendPost(ctx, "missing", "x", "y", base)
    require.ErrorIs(t, err, store.ErrNotFound)

    empty, err := s.ListPosts(ctx, b.ID)
    require.NoError(t, err)
    require.Empty(t, empty)
}

func testScores(t *testing.T, s store.Store) {
    ctx := context.Background()
    defer s.Close()

    sc, err := s.Scores(ctx, "carol")
    require.NoError(t, err)
    require.Equal(t, store.Scores{Username: "carol"}, sc)

    sc.Wins, sc.Draws = 2, 1
    require.NoError(t, s.UpdateScores(ctx, sc))
    sc.Losses = 4
    require.NoError(t, s.UpdateScores(ctx, sc))

    got, err := s.Scores(ctx, "carol")
    require.NoError(t, err)
    require.Equal(t, store.Scores{Username: "carol", Wins: 2, Losses: 4, Draws: 1}, got)
}
