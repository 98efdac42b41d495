// Package lockreg is the per-user matchmaking lock: a short-lived mutual
// exclusion marker that stops the same player from running two concurrent
// searches. Locks expire lazily on read; the sweeper reaps leftovers.
package lockreg

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"DiceArena/internal/clock"
)

// ErrNotOwner is returned when a release carries a requestId that does not
// match the stored one. A delayed caller must not release a newer lock.
var ErrNotOwner = errors.New("lock held by another request")

type Lock struct {
	UserID      string
	SessionType string
	GameMode    string
	AcquiredAt  time.Time
	TTL         time.Duration
	RequestID   string
}

// Grant is the result of TryAcquire. When not granted, RetryAfter carries
// the remaining TTL of the conflicting lock so callers can show a wait hint.
type Grant struct {
	Granted    bool
	RequestID  string
	RetryAfter time.Duration
}

// Registry holds at most one live lock per user. It is process-local state:
// rebuildable, no I/O, short exclusive sections only.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*Lock
	ttl   time.Duration
	clk   clock.Clock
}

func New(ttl time.Duration, clk clock.Clock) *Registry {
	return &Registry{
		locks: make(map[string]*Lock),
		ttl:   ttl,
		clk:   clk,
	}
}

func (r *Registry) expired(l *Lock, now time.Time) bool {
	return now.Sub(l.AcquiredAt) >= l.TTL
}

// TryAcquire grants a lock for userId unless a live one exists.
func (r *Registry) TryAcquire(userID, sessionType, gameMode string) Grant {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	if l, ok := r.locks[userID]; ok {
		if !r.expired(l, now) {
			return Grant{RetryAfter: l.TTL - now.Sub(l.AcquiredAt)}
		}
		delete(r.locks, userID)
	}

	l := &Lock{
		UserID:      userID,
		SessionType: sessionType,
		GameMode:    gameMode,
		AcquiredAt:  now,
		TTL:         r.ttl,
		RequestID:   uuid.NewString(),
	}
	r.locks[userID] = l
	return Grant{Granted: true, RequestID: l.RequestID}
}

// Release removes the user's lock only when requestID matches. Releasing an
// absent or expired lock is success: the caller wanted it gone and it is.
func (r *Registry) Release(userID, requestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[userID]
	if !ok {
		return nil
	}
	if r.expired(l, r.clk.Now()) {
		delete(r.locks, userID)
		return nil
	}
	if l.RequestID != requestID {
		return ErrNotOwner
	}
	delete(r.locks, userID)
	return nil
}

// ForceRelease drops the user's lock regardless of owner. Used by the
// sweeper and by explicit user cancellation.
func (r *Registry) ForceRelease(userID string) {
	r.mu.Lock()
	delete(r.locks, userID)
	r.mu.Unlock()
}

// Held reports whether a live lock exists for userId.
func (r *Registry) Held(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		return false
	}
	if r.expired(l, r.clk.Now()) {
		delete(r.locks, userID)
		return false
	}
	return true
}

// SweepExpired drops every lock past its TTL and returns how many went.
func (r *Registry) SweepExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clk.Now()
	dropped := 0
	for id, l := range r.locks {
		if r.expired(l, now) {
			delete(r.locks, id)
			dropped++
		}
	}
	return dropped
}

// Len counts live locks; expired ones still waiting for a sweep are
// included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
