// Package matchmaker is the core façade: it turns "find me a match"
// requests into queue entries, queue entries into candidate pairs, and
// pairs into live sessions, with the lock registry guarding against
// duplicate concurrent searches and the recovery orchestrator guaranteeing
// forward progress.
package matchmaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DiceArena/config"
	"DiceArena/internal/clock"
	"DiceArena/internal/events"
	"DiceArena/internal/lockreg"
	"DiceArena/internal/profile"
	"DiceArena/internal/queue"
	"DiceArena/internal/recovery"
	"DiceArena/internal/session"
	"DiceArena/internal/ws"
)

// Notifier is the outbound notification channel; the ws.Hub satisfies it.
type Notifier interface {
	BroadcastToPlayers(playerIDs []string, msg ws.OutgoingMessage)
	SendToPlayer(playerID string, msg ws.OutgoingMessage)
}

type Service struct {
	cfg      config.Matchmaking
	locks    *lockreg.Registry
	queue    *queue.Manager
	sessions *session.Manager
	profiles profile.Provider
	orch     *recovery.Orchestrator
	hub      Notifier
	clk      clock.Clock
	ev       *events.Emitter
}

func NewService(cfg config.Matchmaking, locks *lockreg.Registry, q *queue.Manager,
	sessions *session.Manager, profiles profile.Provider, orch *recovery.Orchestrator,
	hub Notifier, clk clock.Clock, ev *events.Emitter) *Service {
	return &Service{
		cfg:      cfg,
		locks:    locks,
		queue:    q,
		sessions: sessions,
		profiles: profiles,
		orch:     orch,
		hub:      hub,
		clk:      clk,
		ev:       ev,
	}
}

// RequestMatch enqueues the player and runs an on-demand matching pass.
// Returns a session when one formed around this player, the queued state
// otherwise, or a retry-after hint when a search lock already exists.
func (s *Service) RequestMatch(ctx context.Context, playerID, gameMode, sessionType string) (*MatchResult, error) {
	if sessionType != SessionTypeCasual && sessionType != SessionTypeRanked {
		return nil, fmt.Errorf("invalid sessionType %q", sessionType)
	}

	grant := s.locks.TryAcquire(playerID, sessionType, gameMode)
	if !grant.Granted {
		// Another search for this user is in flight; hand back the
		// remaining TTL instead of racing it.
		return &MatchResult{Queued: true, RetryAfter: grant.RetryAfter}, nil
	}
	defer func() {
		_ = s.locks.Release(playerID, grant.RequestID)
	}()

	op := s.orch.NewOperation("request_match")
	alreadyQueued := false
	err := s.orch.ExecuteWithRetry(ctx, op, playerID, func(ctx context.Context) error {
		open, err := s.sessions.Repo().FindByPlayer(ctx, playerID)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return fmt.Errorf("player %s already in session %s", playerID, open[0].ID)
		}

		prof, err := s.profiles.Get(ctx, playerID)
		if err != nil {
			return err
		}
		entry := queue.Entry{
			PlayerID:    playerID,
			GameMode:    gameMode,
			SessionType: sessionType,
			Skill:       prof.SkillLevel,
			Region:      prof.Region,
			BasePriority: queue.BasePriority(s.cfg, queue.PriorityInputs{
				Premium:     prof.Premium,
				Ranked:      sessionType == SessionTypeRanked,
				GamesPlayed: prof.GamesPlayed,
				WinStreak:   prof.WinStreak,
			}),
		}
		if err := s.queue.Enqueue(entry, false); err != nil {
			if errors.Is(err, queue.ErrAlreadyQueued) {
				alreadyQueued = true
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyQueued {
		return &MatchResult{Queued: true}, nil
	}
	s.ev.Emit("search_started", "player", playerID, "mode", gameMode, "type", sessionType)

	result := &MatchResult{Queued: true}
	for _, pair := range s.queue.MatchPass() {
		sess := s.startSession(ctx, pair)
		if sess != nil && pair.Involves(playerID) {
			result = &MatchResult{SessionID: sess.ID, Players: playerIDs(sess)}
		}
	}
	return result, nil
}

// MatchPassOnce is the periodic matching pass; the scheduler drives it.
// Returns how many sessions were started.
func (s *Service) MatchPassOnce(ctx context.Context) int {
	started := 0
	for _, pair := range s.queue.MatchPass() {
		if s.startSession(ctx, pair) != nil {
			started++
		}
	}
	return started
}

// startSession turns one candidate pair into a durable matched session and
// notifies both players. If the store defeats every retry, both entries go
// back into the queue so nobody is silently lost.
func (s *Service) startSession(ctx context.Context, pair queue.CandidatePair) *session.Session {
	participants := []session.PlayerRef{
		{ID: pair.A.PlayerID},
		{ID: pair.B.PlayerID},
	}

	var sess *session.Session
	op := s.orch.NewOperation("create_session")
	err := s.orch.ExecuteWithRetry(ctx, op, "", func(ctx context.Context) error {
		var err error
		if sess == nil {
			sess, err = s.sessions.Create(ctx, participants, pair.A.GameMode, pair.A.SessionType)
			if err != nil {
				return err
			}
		}
		sess, err = s.sessions.Transition(ctx, sess.ID, session.StatusMatched)
		return err
	})
	if err != nil {
		s.ev.Fail("session_start_failed", err,
			"players", []string{pair.A.PlayerID, pair.B.PlayerID})
		s.requeue(pair.A)
		s.requeue(pair.B)
		return nil
	}

	ids := playerIDs(sess)
	s.hub.BroadcastToPlayers(ids, ws.OutgoingMessage{
		Event: "matched",
		Data: ws.MatchedPayload{
			SessionID:   sess.ID,
			GameMode:    sess.GameMode,
			SessionType: sess.SessionType,
			Players:     ids,
			Quality:     pair.Quality,
		},
	})
	s.ev.Emit("match_made",
		"session", sess.ID, "quality", pair.Quality,
		"a", pair.A.PlayerID, "b", pair.B.PlayerID)
	return sess
}

func (s *Service) requeue(e queue.Entry) {
	if err := s.queue.Enqueue(e, false); err != nil && !errors.Is(err, queue.ErrAlreadyQueued) {
		s.ev.Fail("requeue_failed", err, "player", e.PlayerID)
	}
}

// CancelSearch is dequeue plus lock release. Nothing left to remove is
// still success.
func (s *Service) CancelSearch(ctx context.Context, playerID, gameMode, sessionType string) error {
	s.queue.Dequeue(playerID, gameMode, sessionType)
	s.locks.ForceRelease(playerID)
	s.ev.Emit("search_cancelled", "player", playerID, "mode", gameMode)
	return nil
}

// SendHeartbeat refreshes the player's liveness in the session. ok=false
// tells the client to stop sending.
func (s *Service) SendHeartbeat(ctx context.Context, sessionID, playerID string) (bool, error) {
	var ok bool
	op := s.orch.NewOperation("heartbeat")
	err := s.orch.ExecuteWithRetry(ctx, op, "", func(ctx context.Context) error {
		var err error
		ok, err = s.sessions.Heartbeat(ctx, sessionID, playerID)
		return err
	})
	return ok, err
}

// LeaveSession removes the player; a vanished session counts as success.
// Remaining participants learn the session was abandoned.
func (s *Service) LeaveSession(ctx context.Context, sessionID, playerID, reason string) error {
	sess, err := s.sessions.Leave(ctx, sessionID, playerID, reason)
	if errors.Is(err, session.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if sess.Status == session.StatusAbandoned {
		s.hub.BroadcastToPlayers(playerIDs(sess), ws.OutgoingMessage{
			Event: "session_abandoned",
			Data:  ws.SessionAbandonedPayload{SessionID: sessionID, Reason: reason},
		})
	}
	return nil
}

// HandleStaleEntry is the fallback path for entries evicted after the max
// wait bound: normal matching failed, so synthesize an opponent.
func (s *Service) HandleStaleEntry(ctx context.Context, e queue.Entry) {
	var sess *session.Session
	op := s.orch.NewOperation("bot_fallback")
	err := s.orch.ExecuteWithRetry(ctx, op, e.PlayerID, func(ctx context.Context) error {
		var err error
		sess, err = s.orch.CreateBotMatchFallback(ctx, e.PlayerID, e.GameMode, e.SessionType)
		return err
	})
	s.locks.ForceRelease(e.PlayerID)
	if err != nil {
		s.ev.Fail("bot_fallback_failed", err, "player", e.PlayerID)
		return
	}

	opponent := ""
	for _, p := range sess.Participants {
		if p.Synthetic {
			opponent = p.DisplayName
		}
	}
	s.hub.SendToPlayer(e.PlayerID, ws.OutgoingMessage{
		Event: "bot_match",
		Data: ws.BotMatchPayload{
			SessionID: sess.ID,
			GameMode:  sess.GameMode,
			Opponent:  opponent,
		},
	})
}

// StatsResponse is the read-only operational snapshot.
type StatsResponse struct {
	Queue        queue.Stats `json:"queue"`
	Locks        int         `json:"locks"`
	OpenSessions int         `json:"openSessions"`
}

func (s *Service) QueueStats(ctx context.Context) (*StatsResponse, error) {
	open, err := s.sessions.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{
		Queue:        s.queue.Stats(),
		Locks:        s.locks.Len(),
		OpenSessions: len(open),
	}, nil
}

// Run drives the periodic matching pass until ctx ends. The sweeper runs on
// its own loop; this is the only other long-lived goroutine.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.MatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.MatchPassOnce(ctx)
		}
	}
}

func playerIDs(s *session.Session) []string {
	ids := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		ids = append(ids, p.ID)
	}
	return ids
}
