package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Marga-Ghale/ora-roster-backend/internal/db"
)

// Locker grants exclusive access to a roster key. unlock must be called
// exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// ============================================
// In-process keyed lock
// ============================================

// keyedMutex serializes callers per key. Entries are reference counted and
// removed once no caller holds or waits for the key.
type keyedMutex struct {
	entries *xsync.Map[string, *lockEntry]
}

type lockEntry struct {
	// token is a one-slot semaphore: sending acquires, receiving releases.
	token chan struct{}
	refs  int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: xsync.NewMap[string, *lockEntry]()}
}

// Lock waits for key. If ctx ends first the caller leaves the queue without
// having held the key.
func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	var entry *lockEntry
	k.entries.Compute(key, func(e *lockEntry, loaded bool) (*lockEntry, xsync.ComputeOp) {
		if !loaded {
			e = &lockEntry{token: make(chan struct{}, 1)}
		}
		e.refs++
		entry = e
		return e, xsync.UpdateOp
	})

	select {
	case entry.token <- struct{}{}:
	case <-ctx.Done():
		k.release(key)
		return nil, ctx.Err()
	}

	return func() {
		<-entry.token
		k.release(key)
	}, nil
}

func (k *keyedMutex) release(key string) {
	k.entries.Compute(key, func(e *lockEntry, loaded bool) (*lockEntry, xsync.ComputeOp) {
		if !loaded {
			return e, xsync.CancelOp
		}
		e.refs--
		if e.refs == 0 {
			return nil, xsync.DeleteOp
		}
		return e, xsync.UpdateOp
	})
}

// size is the number of keys currently held or awaited.
func (k *keyedMutex) size() int {
	return k.entries.Size()
}

// ============================================
// Redis roster lock
// ============================================

const redisLockRetry = 25 * time.Millisecond

// redisLocker serializes roster writes across processes sharing one store.
// The ttl bounds how long a crashed holder can block a roster.
type redisLocker struct {
	rdb *db.RedisDB
	ttl time.Duration
}

func NewRedisLocker(rdb *db.RedisDB, ttl time.Duration) Locker {
	return &redisLocker{rdb: rdb, ttl: ttl}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := "roster:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(redisLockRetry)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.TryLock(ctx, lockKey, token, l.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.rdb.Unlock(ctx, lockKey, token); err != nil {
			log.Printf("[Dispatcher] ⚠️  Failed to release lock for roster %s: %v", key, err)
		}
	}, nil
}
