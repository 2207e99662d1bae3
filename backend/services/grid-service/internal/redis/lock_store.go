package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 10 * time.Minute

// releaseScript deletes the key only while it still carries our token, so an expired
// lock re-acquired by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore hands out ingestion locks shared by every replica.
type LockStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLockStore returns redis-backed locks expiring after ttl.
func NewLockStore(client *redis.Client, ttl time.Duration) *LockStore {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &LockStore{client: client, ttl: ttl}
}

func (s *LockStore) key(name string) string {
	return fmt.Sprintf("grid:ingest:lock:%s", name)
}

// TryLock acquires name without waiting. It reports false when someone else holds it.
func (s *LockStore) TryLock(ctx context.Context, name string) (func(context.Context) error, bool, error) {
	key := s.key(name)
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, key, token, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, s.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}
	return unlock, true, nil
}
