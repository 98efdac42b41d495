package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"DiceArena/config"
	"DiceArena/internal/clock"
	"DiceArena/internal/events"
	"DiceArena/internal/utils"
)

func newManager(t *testing.T) (*Manager, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Unix(1_700_000_000, 0))
	return NewManager(NewMemoryRepo(), config.Defaults().Matchmaking, clk,
		events.New(utils.NewSilentLogger())), clk
}

func pair(a, b string) []PlayerRef {
	return []PlayerRef{{ID: a}, {ID: b}}
}

func Test_StateMachine_EdgeSet(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusWaiting, StatusMatched}:   true,
		{StatusWaiting, StatusAbandoned}: true,
		{StatusMatched, StatusActive}:    true,
		{StatusMatched, StatusAbandoned}: true,
		{StatusActive, StatusCompleted}:  true,
		{StatusActive, StatusAbandoned}:  true,
	}
	all := []Status{StatusWaiting, StatusMatched, StatusActive, StatusCompleted, StatusAbandoned}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[[2]Status{from, to}], CanTransition(from, to),
				"%s -> %s", from, to)
		}
	}
}

func Test_Create_InitializesRecord(t *testing.T) {
	m, clk := newManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx, []PlayerRef{{ID: "a"}, {ID: "b", Synthetic: true}}, "classic", "casual")
	assert.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StatusWaiting, s.Status)
	assert.Equal(t, clk.Now().Add(config.Defaults().Matchmaking.SessionTimeout), s.ExpiresAt)

	// Heartbeats are primed for humans only; bots never beat.
	assert.Contains(t, s.LastHeartbeat, "a")
	assert.NotContains(t, s.LastHeartbeat, "b")

	_, err = m.Create(ctx, nil, "classic", "casual")
	assert.Error(t, err)
}

func Test_Transition_RejectsIllegalEdges(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx, pair("a", "b"), "classic", "ranked")
	assert.NoError(t, err)

	s, err = m.Transition(ctx, s.ID, StatusMatched)
	assert.NoError(t, err)
	assert.Equal(t, StatusMatched, s.Status)

	// waiting is behind us now.
	_, err = m.Transition(ctx, s.ID, StatusWaiting)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s, err = m.Transition(ctx, s.ID, StatusActive)
	assert.NoError(t, err)
	s, err = m.Transition(ctx, s.ID, StatusCompleted)
	assert.NoError(t, err)

	// Terminal means terminal.
	_, err = m.Transition(ctx, s.ID, StatusActive)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = m.Transition(ctx, s.ID, StatusAbandoned)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.Transition(ctx, "no-such-session", StatusMatched)
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Heartbeat(t *testing.T) {
	m, clk := newManager(t)
	ctx := context.Background()

	s, _ := m.Create(ctx, pair("a", "b"), "classic", "casual")

	clk.Advance(30 * time.Second)
	ok, err := m.Heartbeat(ctx, s.ID, "a")
	assert.NoError(t, err)
	assert.True(t, ok)

	got, err := m.Repo().Get(ctx, s.ID)
	assert.NoError(t, err)
	assert.Equal(t, clk.Now(), got.LastHeartbeat["a"])
	assert.Equal(t, clk.Now().Add(-30*time.Second), got.LastHeartbeat["b"])

	// Gone session: ok=false tells the caller to stop sending.
	ok, err = m.Heartbeat(ctx, "no-such-session", "a")
	assert.NoError(t, err)
	assert.False(t, ok)

	// Non-participants cannot stamp a session.
	ok, err = m.Heartbeat(ctx, s.ID, "stranger")
	assert.NoError(t, err)
	assert.False(t, ok)

	// Terminal sessions read as gone.
	_, err = m.Abandon(ctx, s.ID, "test")
	assert.NoError(t, err)
	ok, err = m.Heartbeat(ctx, s.ID, "a")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func Test_Leave_AbandonsUnrecoverableSessions(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	s, _ := m.Create(ctx, pair("a", "b"), "classic", "casual")
	_, err := m.Transition(ctx, s.ID, StatusMatched)
	assert.NoError(t, err)

	s, err = m.Leave(ctx, s.ID, "a", "rage quit")
	assert.NoError(t, err)
	assert.Equal(t, StatusAbandoned, s.Status)
	assert.False(t, s.HasPlayer("a"))

	// Leaving an already-terminal session changes nothing further.
	s, err = m.Leave(ctx, s.ID, "b", "late")
	assert.NoError(t, err)
	assert.Equal(t, StatusAbandoned, s.Status)

	_, err = m.Leave(ctx, "no-such-session", "a", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Abandon_Idempotent(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	s, _ := m.Create(ctx, pair("a", "b"), "classic", "casual")

	s1, err := m.Abandon(ctx, s.ID, "sweep")
	assert.NoError(t, err)
	assert.Equal(t, StatusAbandoned, s1.Status)

	s2, err := m.Abandon(ctx, s.ID, "sweep again")
	assert.NoError(t, err)
	assert.Equal(t, StatusAbandoned, s2.Status)
}

func Test_AbandonFor_CleansEveryOpenSession(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	s1, _ := m.Create(ctx, pair("a", "b"), "classic", "casual")
	s2, _ := m.Create(ctx, pair("a", "c"), "blitz", "ranked")
	_, _ = m.Create(ctx, pair("x", "y"), "classic", "casual")

	n, err := m.AbandonFor(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{s1.ID, s2.ID} {
		got, err := m.Repo().Get(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, StatusAbandoned, got.Status)
	}
	open, err := m.ListOpen(ctx)
	assert.NoError(t, err)
	assert.Len(t, open, 1, "unrelated sessions stay open")
}
