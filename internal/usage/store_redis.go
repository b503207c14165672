package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-ranker/internal/shared/util"
)

const redisKeyPrefix = "hr:usage:"

// RedisLedger keeps one integer key per client token. Tokens are hashed before
// they become key names.
type RedisLedger struct {
	Client *redis.Client
}

// NewRedisLedger parses redisURL, connects and verifies the connection.
func NewRedisLedger(ctx context.Context, redisURL string) (*RedisLedger, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is empty")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisLedger{Client: client}, nil
}

func redisKey(token string) string {
	return redisKeyPrefix + util.HashToken(token)
}

func (l *RedisLedger) Used(ctx context.Context, token string) (int, error) {
	used, err := l.Client.Get(ctx, redisKey(token)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return used, nil
}

func (l *RedisLedger) Increment(ctx context.Context, token string, by int) (int, error) {
	if by < 0 {
		return 0, ErrInvalidIncrement
	}
	used, err := l.Client.IncrBy(ctx, redisKey(token), int64(by)).Result()
	if err != nil {
		return 0, err
	}
	return int(used), nil
}

// Ping reports whether Redis is reachable.
func (l *RedisLedger) Ping(ctx context.Context) error {
	return l.Client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (l *RedisLedger) Close() error {
	if l.Client == nil {
		return nil
	}
	return l.Client.Close()
}

var _ Ledger = (*RedisLedger)(nil)
