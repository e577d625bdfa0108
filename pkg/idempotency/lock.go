package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("idempotency: already locked")

// Locker hands out short-lived per-key locks. The TTL bounds how long a
// crashed holder can block other workers.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

func (l *Locker) Acquire(ctx context.Context, scope, id string) (func(), error) {
	key := fmt.Sprintf("lock:%s:%s", scope, id)
	ok, err := l.rdb.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	release := func() {
		_ = l.rdb.Del(context.Background(), key).Err()
	}
	return release, nil
}
