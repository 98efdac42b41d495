// Package profile reads the player summaries priority scoring needs: skill,
// tier, games played, win streak, region. The matchmaking core only ever
// reads these; writing them belongs to the progression system.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound wording matters: the recovery orchestrator classifies
// "profile not found" as non-retryable.
var ErrNotFound = errors.New("player profile not found")

type Summary struct {
	PlayerID    string `json:"playerId"`
	SkillLevel  int    `json:"skillLevel"`
	Premium     bool   `json:"premium"`
	GamesPlayed int    `json:"gamesPlayed"`
	WinStreak   int    `json:"winStreak"`
	Region      string `json:"region"`
}

type Provider interface {
	Get(ctx context.Context, playerID string) (*Summary, error)
}

// NewMemoryProvider seeds an in-process provider; tests and local runs.
func NewMemoryProvider(seed ...Summary) *MemoryProvider {
	p := &MemoryProvider{profiles: make(map[string]Summary)}
	for _, s := range seed {
		p.profiles[s.PlayerID] = s
	}
	return p
}

type MemoryProvider struct {
	mu       sync.RWMutex
	profiles map[string]Summary
}

func (p *MemoryProvider) Get(ctx context.Context, playerID string) (*Summary, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.profiles[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, playerID)
	}
	out := s
	return &out, nil
}

// Put stores or replaces a summary.
func (p *MemoryProvider) Put(s Summary) {
	p.mu.Lock()
	p.profiles[s.PlayerID] = s
	p.mu.Unlock()
}
