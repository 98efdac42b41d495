// Package recovery centralizes retry policy: every other layer fails fast,
// only the orchestrator retries. It maps failure conditions to recovery
// actions (cleanup, lock release, backoff) and, as the last resort,
// synthesizes a bot opponent so a player always reaches a playable state.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DiceArena/config"
	"DiceArena/internal/clock"
	"DiceArena/internal/events"
	"DiceArena/internal/lockreg"
	"DiceArena/internal/session"
)

// ErrExhausted wraps the final error once every attempt is spent.
var ErrExhausted = errors.New("retries exhausted")

// Operation tracks one retryable call. Attempts is readable after
// ExecuteWithRetry returns.
type Operation struct {
	Name        string
	Attempts    int
	MaxAttempts int
	Backoff     time.Duration
}

type Orchestrator struct {
	locks    *lockreg.Registry
	sessions *session.Manager
	bots     BotProvider
	clk      clock.Clock
	cfg      config.Matchmaking
	ev       *events.Emitter
}

func NewOrchestrator(locks *lockreg.Registry, sessions *session.Manager, bots BotProvider,
	cfg config.Matchmaking, clk clock.Clock, ev *events.Emitter) *Orchestrator {
	return &Orchestrator{
		locks:    locks,
		sessions: sessions,
		bots:     bots,
		clk:      clk,
		cfg:      cfg,
		ev:       ev,
	}
}

// NewOperation builds an Operation with the configured attempt budget.
func (o *Orchestrator) NewOperation(name string) *Operation {
	return &Operation{
		Name:        name,
		MaxAttempts: o.cfg.MaxAttempts,
		Backoff:     o.cfg.Backoff,
	}
}

// ExecuteWithRetry runs fn up to op.MaxAttempts times, applying the
// classification table between attempts. Only idempotent or
// safely-repeatable operations belong here. userID scopes the conflict
// cleanup actions; pass "" when none applies.
func (o *Orchestrator) ExecuteWithRetry(ctx context.Context, op *Operation, userID string, fn func(context.Context) error) error {
	var last error
	for op.Attempts < op.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}
		op.Attempts++
		last = fn(ctx)
		if last == nil {
			return nil
		}

		act := Classify(last)
		o.ev.Emit("retry_attempt",
			"op", op.Name, "attempt", op.Attempts, "action", int(act), "err", last.Error())
		if !act.Retryable() {
			return fmt.Errorf("%s: %w", op.Name, last)
		}

		switch act {
		case ActionCleanupSessions:
			if userID != "" {
				if n, err := o.sessions.AbandonFor(ctx, userID); err != nil {
					return fmt.Errorf("%s: cleanup failed: %w", op.Name, err)
				} else if n > 0 {
					o.ev.Emit("stale_sessions_cleaned", "user", userID, "count", n)
				}
			}
		case ActionReleaseLock:
			if userID != "" {
				o.locks.ForceRelease(userID)
				o.ev.Emit("stale_lock_released", "user", userID)
			}
		case ActionRetry:
			o.clk.Sleep(op.Backoff)
		case ActionAutoRetry:
			// Transaction conflicts retry immediately and invisibly.
		}
	}
	return fmt.Errorf("%s: %w after %d attempts: %w", op.Name, ErrExhausted, op.Attempts, last)
}

// CreateBotMatchFallback guarantees forward progress: a session holding the
// human plus one synthetic opponent. It must only run after normal matching
// and at least one retry cycle have failed.
func (o *Orchestrator) CreateBotMatchFallback(ctx context.Context, userID, gameMode, sessionType string) (*session.Session, error) {
	bot, err := o.bots.SyntheticOpponent(ctx, gameMode)
	if err != nil {
		return nil, fmt.Errorf("bot fallback: %w", err)
	}
	participants := []session.PlayerRef{
		{ID: userID},
		bot,
	}
	s, err := o.sessions.Create(ctx, participants, gameMode, sessionType)
	if err != nil {
		return nil, fmt.Errorf("bot fallback: %w", err)
	}
	if s, err = o.sessions.Transition(ctx, s.ID, session.StatusMatched); err != nil {
		return nil, fmt.Errorf("bot fallback: %w", err)
	}
	o.ev.Emit("bot_match_created",
		"session", s.ID, "user", userID, "bot", bot.ID, "mode", gameMode)
	return s, nil
}
