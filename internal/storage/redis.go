package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis opens and pings a Redis client. The caller owns the handle;
// nothing here is kept as package state.
func NewRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}
