package session

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusMatched   Status = "matched"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// transitions is the full edge set of the session state machine. Anything
// not listed is rejected.
var transitions = map[Status][]Status{
	StatusWaiting: {StatusMatched, StatusAbandoned},
	StatusMatched: {StatusActive, StatusAbandoned},
	StatusActive:  {StatusCompleted, StatusAbandoned},
}

// CanTransition reports whether from→to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidTransition = errors.New("invalid session state transition")
)

// invalidTransition builds the state-validation error for an illegal edge.
func invalidTransition(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// PlayerRef identifies one participant. Synthetic marks bot opponents
// supplied by the fallback path.
type PlayerRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Synthetic   bool   `json:"synthetic,omitempty"`
}

// Session is the durable game session record. Mutated only through the
// manager's defined transitions.
type Session struct {
	ID            string               `json:"id"`
	Status        Status               `json:"status"`
	GameMode      string               `json:"gameMode"`
	SessionType   string               `json:"sessionType"`
	Participants  []PlayerRef          `json:"participants"`
	CreatedAt     time.Time            `json:"createdAt"`
	ExpiresAt     time.Time            `json:"expiresAt"`
	LastHeartbeat map[string]time.Time `json:"lastHeartbeat"`
}

// Clone deep-copies the session so repository callers never share slices or
// maps with stored state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Participants = append([]PlayerRef(nil), s.Participants...)
	c.LastHeartbeat = make(map[string]time.Time, len(s.LastHeartbeat))
	for k, v := range s.LastHeartbeat {
		c.LastHeartbeat[k] = v
	}
	return &c
}

// HasPlayer reports whether playerID participates in the session.
func (s *Session) HasPlayer(playerID string) bool {
	for _, p := range s.Participants {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// Humans counts non-synthetic participants.
func (s *Session) Humans() int {
	n := 0
	for _, p := range s.Participants {
		if !p.Synthetic {
			n++
		}
	}
	return n
}
