package session

import "context"

// Repository is the durable home of session records: the single source of
// truth across process restarts. Update is the atomic read-modify-write
// primitive every state transition goes through, so concurrent mutations of
// one session serialize at the store.
type Repository interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	// Update applies fn to the current record and writes the result
	// atomically. fn returning an error aborts the update.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
	// ListOpen returns sessions not yet in a terminal state.
	ListOpen(ctx context.Context) ([]*Session, error)
	// FindByPlayer returns open sessions containing the player.
	FindByPlayer(ctx context.Context, playerID string) ([]*Session, error)
}
