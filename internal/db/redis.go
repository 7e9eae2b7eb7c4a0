// internal/db/redis.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(redisURL string) (*RedisDB, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("[Redis] ✅ Connected to Redis")
	return &RedisDB{Client: client}, nil
}

// Ping is used by the health endpoint.
func (r *RedisDB) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *RedisDB) Close() {
	if r.Client != nil {
		r.Client.Close()
		log.Println("[Redis] Connection closed")
	}
}

// Lock management

const lockKeyPrefix = "lock:"

// ErrLockNotHeld is returned when releasing a lock whose token no longer matches.
var ErrLockNotHeld = errors.New("lock not held")

// releaseScript deletes the lock only when it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock sets lock:<key> to token for ttl if nobody holds it.
func (r *RedisDB) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return r.Client.SetNX(ctx, lockKeyPrefix+key, token, ttl).Result()
}

// Unlock releases lock:<key> if it is still held with token.
func (r *RedisDB) Unlock(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, r.Client, []string{lockKeyPrefix + key}, token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
