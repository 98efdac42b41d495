package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newRedisRepo(t *testing.T) (Repository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)
	return NewRedisRepo(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func sampleSession(id string) *Session {
	now := time.Unix(1_700_000_000, 0).UTC()
	return &Session{
		ID:           id,
		Status:       StatusWaiting,
		GameMode:     "classic",
		SessionType:  "casual",
		Participants: []PlayerRef{{ID: "a"}, {ID: "b"}},
		CreatedAt:    now,
		ExpiresAt:    now.Add(20 * time.Minute),
		LastHeartbeat: map[string]time.Time{
			"a": now,
			"b": now,
		},
	}
}

func Test_RedisRepo_SaveGetRoundtrip(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	s := sampleSession("s1")
	assert.NoError(t, repo.Save(ctx, s))
	assert.True(t, mr.Exists("sess:s1"))

	got, err := repo.Get(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, s.Status, got.Status)
	assert.Equal(t, s.Participants, got.Participants)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_RedisRepo_Update_AtomicReadModifyWrite(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()

	assert.NoError(t, repo.Save(ctx, sampleSession("s1")))

	got, err := repo.Update(ctx, "s1", func(s *Session) error {
		s.Status = StatusMatched
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, StatusMatched, got.Status)

	reread, err := repo.Get(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, StatusMatched, reread.Status)

	// fn errors abort the write.
	_, err = repo.Update(ctx, "s1", func(s *Session) error {
		s.Status = StatusActive
		return ErrInvalidTransition
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	reread, _ = repo.Get(ctx, "s1")
	assert.Equal(t, StatusMatched, reread.Status)

	_, err = repo.Update(ctx, "missing", func(s *Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_RedisRepo_OpenAndPlayerIndexes(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()

	assert.NoError(t, repo.Save(ctx, sampleSession("s1")))
	assert.NoError(t, repo.Save(ctx, sampleSession("s2")))

	open, err := repo.ListOpen(ctx)
	assert.NoError(t, err)
	assert.Len(t, open, 2)

	mine, err := repo.FindByPlayer(ctx, "a")
	assert.NoError(t, err)
	assert.Len(t, mine, 2)

	// A terminal transition drops the session from both indexes.
	_, err = repo.Update(ctx, "s1", func(s *Session) error {
		s.Status = StatusAbandoned
		return nil
	})
	assert.NoError(t, err)

	open, err = repo.ListOpen(ctx)
	assert.NoError(t, err)
	assert.Len(t, open, 1)
	assert.Equal(t, "s2", open[0].ID)

	mine, err = repo.FindByPlayer(ctx, "a")
	assert.NoError(t, err)
	assert.Len(t, mine, 1)

	// The record itself survives for reads.
	got, err := repo.Get(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, StatusAbandoned, got.Status)
}

func Test_RedisRepo_Update_DeindexesRemovedPlayers(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()

	assert.NoError(t, repo.Save(ctx, sampleSession("s1")))

	_, err := repo.Update(ctx, "s1", func(s *Session) error {
		s.Participants = []PlayerRef{{ID: "b"}}
		delete(s.LastHeartbeat, "a")
		return nil
	})
	assert.NoError(t, err)

	gone, err := repo.FindByPlayer(ctx, "a")
	assert.NoError(t, err)
	assert.Empty(t, gone)

	still, err := repo.FindByPlayer(ctx, "b")
	assert.NoError(t, err)
	assert.Len(t, still, 1)
}

func Test_RedisRepo_Delete(t *testing.T) {
	repo, mr := newRedisRepo(t)
	ctx := context.Background()

	assert.NoError(t, repo.Save(ctx, sampleSession("s1")))
	assert.NoError(t, repo.Delete(ctx, "s1"))
	assert.False(t, mr.Exists("sess:s1"))

	open, err := repo.ListOpen(ctx)
	assert.NoError(t, err)
	assert.Empty(t, open)

	// Deleting a missing session is fine.
	assert.NoError(t, repo.Delete(ctx, "s1"))
}
