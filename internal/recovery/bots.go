package recovery

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"DiceArena/internal/session"
)

// BotProvider supplies synthetic opponents for the fallback path. In
// production this fronts the external bot-profile service.
type BotProvider interface {
	SyntheticOpponent(ctx context.Context, gameMode string) (session.PlayerRef, error)
}

// StaticBotRoster hands out bots from a fixed name list. Good enough for
// single-node deployments and every test.
type StaticBotRoster struct {
	mu    sync.Mutex
	names []string
	rng   *rand.Rand
}

var defaultBotNames = []string{
	"Tumbler", "Snake Eyes", "Boxcars", "Little Joe", "Hard Eight",
	"Yo-leven", "Ace Deuce", "Midnight",
}

func NewStaticBotRoster(seed int64, names ...string) *StaticBotRoster {
	if len(names) == 0 {
		names = defaultBotNames
	}
	return &StaticBotRoster{
		names: names,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (r *StaticBotRoster) SyntheticOpponent(ctx context.Context, gameMode string) (session.PlayerRef, error) {
	r.mu.Lock()
	name := r.names[r.rng.Intn(len(r.names))]
	r.mu.Unlock()
	return session.PlayerRef{
		ID:          "bot-" + uuid.NewString(),
		DisplayName: name,
		Synthetic:   true,
	}, nil
}
