package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Key layout:
//
//	kv : sess:{id}            -> JSON document
//	set: sess:open            -> ids of non-terminal sessions
//	set: sess:player:{id}     -> open session ids per participant
type redisRepo struct {
	rdb *redis.Client
}

const updateRetries = 5

func NewRedisRepo(rdb *redis.Client) Repository {
	return &redisRepo{rdb: rdb}
}

func sessKey(id string) string       { return "sess:" + id }
func playerSessKey(id string) string { return "sess:player:" + id }
func openKey() string                { return "sess:open" }

func (r *redisRepo) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	p := r.rdb.Pipeline()
	p.Set(ctx, sessKey(s.ID), data, 0)
	r.indexPipe(ctx, p, s)
	_, err = p.Exec(ctx)
	return err
}

func (r *redisRepo) indexPipe(ctx context.Context, p redis.Pipeliner, s *Session) {
	if s.Status.Terminal() {
		p.SRem(ctx, openKey(), s.ID)
		for _, pl := range s.Participants {
			p.SRem(ctx, playerSessKey(pl.ID), s.ID)
		}
	} else {
		p.SAdd(ctx, openKey(), s.ID)
		for _, pl := range s.Participants {
			p.SAdd(ctx, playerSessKey(pl.ID), s.ID)
		}
	}
}

func (r *redisRepo) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.rdb.Get(ctx, sessKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update runs an optimistic WATCH transaction; a concurrent writer aborts
// it and the read-modify-write restarts from the fresh record.
func (r *redisRepo) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	var updated *Session
	key := sessKey(id)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		// Participants before fn may shrink; deindex the old roster so a
		// removed player's index entry does not leak.
		before := s.Clone()
		if err := fn(&s); err != nil {
			return err
		}
		out, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, out, 0)
			for _, pl := range before.Participants {
				if !s.HasPlayer(pl.ID) {
					p.SRem(ctx, playerSessKey(pl.ID), s.ID)
				}
			}
			r.indexPipe(ctx, p, &s)
			return nil
		})
		if err == nil {
			updated = &s
		}
		return err
	}

	for i := 0; i < updateRetries; i++ {
		err := r.rdb.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("transaction conflict updating session %s", id)
}

func (r *redisRepo) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	p := r.rdb.Pipeline()
	p.Del(ctx, sessKey(id))
	p.SRem(ctx, openKey(), id)
	for _, pl := range s.Participants {
		p.SRem(ctx, playerSessKey(pl.ID), id)
	}
	_, err = p.Exec(ctx)
	return err
}

func (r *redisRepo) ListOpen(ctx context.Context) ([]*Session, error) {
	ids, err := r.rdb.SMembers(ctx, openKey()).Result()
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, ids)
}

func (r *redisRepo) FindByPlayer(ctx context.Context, playerID string) ([]*Session, error) {
	ids, err := r.rdb.SMembers(ctx, playerSessKey(playerID)).Result()
	if err != nil {
		return nil, err
	}
	return r.fetch(ctx, ids)
}

func (r *redisRepo) fetch(ctx context.Context, ids []string) ([]*Session, error) {
	var out []*Session
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if err == ErrNotFound {
			// Index entry outlived the document; skip it.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
