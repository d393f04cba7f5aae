package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/coinledger/internal/domain"
)

// unlockLua deletes a lock key only if its value matches the caller's unique
// token, so one holder can never release another holder's lock.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// AccountLocker implements domain.AccountLocker across instances using Redis
// SETNX with a TTL and a Lua-based conditional unlock. Acquisition retries
// with a fixed backoff until the context expires or maxWait elapses; running
// out of retries surfaces domain.ErrConcurrencyConflict, which callers treat
// as a transient failure.
type AccountLocker struct {
	rdb      *redis.Client
	unlockSc *redis.Script
	ttl      time.Duration
	retry    time.Duration
	maxWait  time.Duration
}

// NewAccountLocker creates an AccountLocker backed by the given Client. The
// TTL bounds how long a crashed holder can block a user's account.
func NewAccountLocker(c *Client, ttl time.Duration) *AccountLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &AccountLocker{
		rdb:      c.Underlying(),
		unlockSc: redis.NewScript(unlockLua),
		ttl:      ttl,
		retry:    25 * time.Millisecond,
		maxWait:  5 * time.Second,
	}
}

func accountKey(userID string) string {
	return "lock:account:" + userID
}

// Lock acquires the distributed lock for the user's account and returns an
// unlock function that is safe to call more than once.
func (l *AccountLocker) Lock(ctx context.Context, userID string) (func(), error) {
	token := uuid.New().String()
	key := accountKey(userID)
	deadline := time.Now().Add(l.maxWait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: acquire account lock %s: %w", userID, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, domain.ErrConcurrencyConflict
		}

		select {
		case <-ctx.Done():
			return nil, domain.ErrConcurrencyConflict
		case <-time.After(l.retry):
		}
	}

	released := false
	unlock := func() {
		if released {
			return
		}
		released = true

		// Background context so unlock succeeds even if the caller's context
		// is already cancelled.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = l.unlockSc.Run(unlockCtx, l.rdb, []string{key}, token).Err()
	}
	return unlock, nil
}

// Compile-time interface check.
var _ domain.AccountLocker = (*AccountLocker)(nil)
