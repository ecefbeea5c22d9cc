package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// unlockLua deletes the lock key only while it still holds the caller's token.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// LockManager implements domain.LockManager with SET NX PX and a token-checked
// unlock script.
type LockManager struct {
	rdb    *redis.Client
	unlock *redis.Script
}

// NewLockManager creates a LockManager backed by the given Client.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{
		rdb:    c.Underlying(),
		unlock: redis.NewScript(unlockLua),
	}
}

func lockKey(key string) string {
	return "lock:" + key
}

// Acquire takes the lock for key until ttl expires or the returned release
// func is called. Release is idempotent. A lock held elsewhere yields
// domain.ErrLockHeld.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	lk := lockKey(key)

	ok, err := lm.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, domain.ErrLockHeld)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// The caller's context may already be done.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = lm.unlock.Run(releaseCtx, lm.rdb, []string{lk}, token).Err()
		})
	}
	return release, nil
}

var _ domain.LockManager = (*LockManager)(nil)
