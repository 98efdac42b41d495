// Package sweeper is the periodic cleanup process: expired locks go, silent
// sessions get abandoned, over-aged queue entries are evicted into the
// fallback path and empty segments are pruned. Every action is idempotent;
// sweeping twice in a row changes nothing the second time.
package sweeper

import (
	"context"
	"time"

	"DiceArena/config"
	"DiceArena/internal/clock"
	"DiceArena/internal/events"
	"DiceArena/internal/lockreg"
	"DiceArena/internal/queue"
	"DiceArena/internal/session"
)

// StaleEntryHandler receives queue entries evicted for exceeding the max
// wait bound. The matchmaker wires this to the bot fallback.
type StaleEntryHandler func(ctx context.Context, e queue.Entry)

type Sweeper struct {
	cfg      config.Matchmaking
	locks    *lockreg.Registry
	queue    *queue.Manager
	sessions *session.Manager
	onStale  StaleEntryHandler
	clk      clock.Clock
	ev       *events.Emitter
}

func New(cfg config.Matchmaking, locks *lockreg.Registry, q *queue.Manager,
	sessions *session.Manager, onStale StaleEntryHandler, clk clock.Clock, ev *events.Emitter) *Sweeper {
	return &Sweeper{
		cfg:      cfg,
		locks:    locks,
		queue:    q,
		sessions: sessions,
		onStale:  onStale,
		clk:      clk,
		ev:       ev,
	}
}

// Report says what one sweep cycle actually did.
type Report struct {
	LocksExpired      int
	SessionsAbandoned int
	EntriesEvicted    int
	SegmentsPruned    int
}

// Run sweeps on the configured interval until ctx ends.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one cleanup cycle.
func (s *Sweeper) Sweep(ctx context.Context) Report {
	var r Report

	r.LocksExpired = s.locks.SweepExpired()
	r.SessionsAbandoned = s.sweepSessions(ctx)

	for _, e := range s.queue.RemoveStale(s.cfg.MaxQueueWait) {
		r.EntriesEvicted++
		if s.onStale != nil {
			s.onStale(ctx, e)
		}
	}
	r.SegmentsPruned = s.queue.PruneEmptySegments()

	if r.LocksExpired+r.SessionsAbandoned+r.EntriesEvicted+r.SegmentsPruned > 0 {
		s.ev.Emit("sweep_cycle",
			"locks", r.LocksExpired, "sessions", r.SessionsAbandoned,
			"entries", r.EntriesEvicted, "segments", r.SegmentsPruned)
	}
	return r
}

// sweepSessions abandons open sessions that are heartbeat-silent, expired
// outright, or stuck before gameplay past the stagnation threshold.
func (s *Sweeper) sweepSessions(ctx context.Context) int {
	open, err := s.sessions.ListOpen(ctx)
	if err != nil {
		s.ev.Fail("sweep_sessions_failed", err)
		return 0
	}

	now := s.clk.Now()
	abandoned := 0
	for _, sess := range open {
		reason := s.abandonReason(sess, now)
		if reason == "" {
			continue
		}
		if _, err := s.sessions.Abandon(ctx, sess.ID, reason); err != nil {
			s.ev.Fail("sweep_abandon_failed", err, "session", sess.ID)
			continue
		}
		abandoned++
	}
	return abandoned
}

func (s *Sweeper) abandonReason(sess *session.Session, now time.Time) string {
	if now.After(sess.ExpiresAt) {
		return "session expired"
	}
	if sess.Status != session.StatusActive &&
		now.Sub(sess.CreatedAt) > s.cfg.StagnationTimeout {
		return "session stagnant"
	}
	// An all-bot session has no heartbeats to check.
	if sess.Humans() == 0 {
		return ""
	}
	for _, p := range sess.Participants {
		if p.Synthetic {
			continue
		}
		hb, ok := sess.LastHeartbeat[p.ID]
		if !ok {
			hb = sess.CreatedAt
		}
		if now.Sub(hb) > s.cfg.HeartbeatTimeout {
			return "heartbeat timeout"
		}
	}
	return ""
}
