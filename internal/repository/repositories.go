package repository

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Store backends
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Repositories struct {
	RosterRepo RosterRepository
}

// NewRepositories wires the roster store for the chosen backend. pool and
// client may be nil when the backend does not use them.
func NewRepositories(backend string, pool *pgxpool.Pool, client *redis.Client) (*Repositories, error) {
	switch backend {
	case BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("backend %q needs a database connection", backend)
		}
		return &Repositories{RosterRepo: NewRosterRepository(pool)}, nil
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("backend %q needs a redis connection", backend)
		}
		return &Repositories{RosterRepo: NewRedisRosterRepository(client)}, nil
	case BackendMemory:
		return &Repositories{RosterRepo: NewMemoryRosterRepository()}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
