package session

import (
	"context"
	"sync"
)

type memRepo struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryRepo is the in-process repository, used by tests and single-node
// setups.
func NewMemoryRepo() Repository {
	return &memRepo{sessions: make(map[string]*Session)}
}

func (m *memRepo) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *memRepo) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *memRepo) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := s.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	m.sessions[id] = next
	return next.Clone(), nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memRepo) ListOpen(ctx context.Context) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var open []*Session
	for _, s := range m.sessions {
		if !s.Status.Terminal() {
			open = append(open, s.Clone())
		}
	}
	return open, nil
}

func (m *memRepo) FindByPlayer(ctx context.Context, playerID string) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []*Session
	for _, s := range m.sessions {
		if !s.Status.Terminal() && s.HasPlayer(playerID) {
			found = append(found, s.Clone())
		}
	}
	return found, nil
}
