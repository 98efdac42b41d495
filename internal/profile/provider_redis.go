package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisProvider reads summaries written by the progression system as JSON
// documents under profile:{playerId}.
type redisProvider struct {
	rdb *redis.Client
}

func NewRedisProvider(rdb *redis.Client) Provider {
	return &redisProvider{rdb: rdb}
}

func profileKey(playerID string) string {
	return "profile:" + playerID
}

func (p *redisProvider) Get(ctx context.Context, playerID string) (*Summary, error) {
	data, err := p.rdb.Get(ctx, profileKey(playerID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, playerID)
	}
	if err != nil {
		return nil, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSummary writes a profile document; used by seeding and tests.
func SaveSummary(ctx context.Context, rdb *redis.Client, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, profileKey(s.PlayerID), data, 0).Err()
}
