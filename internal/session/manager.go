// Package session owns game session records for their whole life: creation,
// the waiting→matched→active→{completed|abandoned} state machine, heartbeat
// tracking and participant departure. Lower layers fail fast; retry policy
// lives with the recovery orchestrator.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"DiceArena/config"
	"DiceArena/internal/clock"
	"DiceArena/internal/events"
)

type Manager struct {
	repo Repository
	clk  clock.Clock
	cfg  config.Matchmaking
	ev   *events.Emitter
}

func NewManager(repo Repository, cfg config.Matchmaking, clk clock.Clock, ev *events.Emitter) *Manager {
	return &Manager{repo: repo, cfg: cfg, clk: clk, ev: ev}
}

// Repo exposes the underlying repository for collaborators that only read.
func (m *Manager) Repo() Repository { return m.repo }

// Create durably records a new session in the waiting state, with
// heartbeats primed for every human participant.
func (m *Manager) Create(ctx context.Context, participants []PlayerRef, gameMode, sessionType string) (*Session, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("session needs at least one participant")
	}
	now := m.clk.Now()
	s := &Session{
		ID:            uuid.NewString(),
		Status:        StatusWaiting,
		GameMode:      gameMode,
		SessionType:   sessionType,
		Participants:  append([]PlayerRef(nil), participants...),
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.cfg.SessionTimeout),
		LastHeartbeat: make(map[string]time.Time),
	}
	for _, p := range participants {
		if !p.Synthetic {
			s.LastHeartbeat[p.ID] = now
		}
	}
	if err := m.repo.Save(ctx, s); err != nil {
		return nil, err
	}
	m.ev.Emit("session_created",
		"session", s.ID, "mode", gameMode, "type", sessionType,
		"participants", len(participants))
	return s, nil
}

// Transition moves the session along one state-machine edge. Illegal edges
// are a validation error and never retried.
func (m *Manager) Transition(ctx context.Context, id string, to Status) (*Session, error) {
	s, err := m.repo.Update(ctx, id, func(s *Session) error {
		if !CanTransition(s.Status, to) {
			return invalidTransition(s.Status, to)
		}
		s.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.ev.Emit("session_transition", "session", id, "to", string(to))
	return s, nil
}

// Heartbeat refreshes the participant's liveness stamp. ok=false means the
// session no longer exists and the caller should stop sending.
func (m *Manager) Heartbeat(ctx context.Context, id, playerID string) (bool, error) {
	_, err := m.repo.Update(ctx, id, func(s *Session) error {
		if s.Status.Terminal() {
			return ErrNotFound
		}
		if !s.HasPlayer(playerID) {
			return ErrNotFound
		}
		s.LastHeartbeat[playerID] = m.clk.Now()
		return nil
	})
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Leave removes the player from the session. When fewer than two
// participants remain the session cannot continue and is abandoned.
func (m *Manager) Leave(ctx context.Context, id, playerID, reason string) (*Session, error) {
	s, err := m.repo.Update(ctx, id, func(s *Session) error {
		if s.Status.Terminal() {
			return nil
		}
		kept := s.Participants[:0]
		for _, p := range s.Participants {
			if p.ID != playerID {
				kept = append(kept, p)
			}
		}
		s.Participants = kept
		delete(s.LastHeartbeat, playerID)
		if len(s.Participants) < 2 && CanTransition(s.Status, StatusAbandoned) {
			s.Status = StatusAbandoned
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.ev.Emit("session_leave",
		"session", id, "player", playerID, "reason", reason,
		"status", string(s.Status))
	return s, nil
}

// Abandon forces the session into the abandoned state if it is still open.
// Calling it on an already-terminal session is a no-op, which keeps sweeper
// cycles idempotent.
func (m *Manager) Abandon(ctx context.Context, id, reason string) (*Session, error) {
	s, err := m.repo.Update(ctx, id, func(s *Session) error {
		if s.Status.Terminal() {
			return nil
		}
		if !CanTransition(s.Status, StatusAbandoned) {
			return invalidTransition(s.Status, StatusAbandoned)
		}
		s.Status = StatusAbandoned
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.ev.Emit("session_abandoned", "session", id, "reason", reason)
	return s, nil
}

// AbandonFor abandons every open session the player participates in.
// Used by the recovery path when a stale "already in session" conflict
// blocks a new search.
func (m *Manager) AbandonFor(ctx context.Context, playerID string) (int, error) {
	open, err := m.repo.FindByPlayer(ctx, playerID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range open {
		if _, err := m.Abandon(ctx, s.ID, "stale session cleanup"); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// ListOpen returns every non-terminal session, for the sweeper.
func (m *Manager) ListOpen(ctx context.Context) ([]*Session, error) {
	return m.repo.ListOpen(ctx)
}
