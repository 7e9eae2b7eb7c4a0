package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-roster-backend/internal/db"
	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

// testRosterRepository exercises the RosterRepository contract. Every backend
// must pass it.
func testRosterRepository(t *testing.T, repo RosterRepository) {
	ctx := context.Background()
	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	newDungeon := func(id, channel string, offset time.Duration) *roster.Roster {
		r := roster.NewDungeonRun(id, "leader", 8, roster.Details{
			ChannelID: channel,
			Title:     "Crypt " + id,
			CreatedAt: base.Add(offset),
			StartsAt:  base.Add(offset),
			ExpiresAt: base.Add(offset + 2*time.Hour),
		})
		return &r
	}

	t.Run("create and find", func(t *testing.T) {
		r := newDungeon("r1", "c1", 0)
		require.NoError(t, repo.Create(ctx, r))
		assert.Equal(t, int64(1), r.Version)

		got, err := repo.FindByID(ctx, "r1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "leader", got.CreatorID)
		assert.Equal(t, types.KindDungeonRun, got.Kind)
		assert.Equal(t, int64(1), got.Version)

		require.ErrorIs(t, repo.Create(ctx, newDungeon("r1", "c1", 0)), ErrRosterExists)
	})

	t.Run("unknown id", func(t *testing.T) {
		got, err := repo.FindByID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("save compares versions", func(t *testing.T) {
		r := newDungeon("r2", "c1", time.Minute)
		require.NoError(t, repo.Create(ctx, r))

		next, _, err := roster.Apply(*r, roster.Join{UserID: "u1"})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, &next, 1))
		assert.Equal(t, int64(2), next.Version)

		stale, _, err := roster.Apply(*r, roster.Join{UserID: "u2"})
		require.NoError(t, err)
		require.ErrorIs(t, repo.Save(ctx, &stale, 1), ErrVersionConflict)

		got, err := repo.FindByID(ctx, "r2")
		require.NoError(t, err)
		assert.Equal(t, []string{"u1"}, got.Dungeon.Participants)

		missing := newDungeon("never-created", "c1", 0)
		require.ErrorIs(t, repo.Save(ctx, missing, 1), ErrVersionConflict)
	})

	t.Run("list active by channel", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newDungeon("r3", "c2", 2*time.Minute)))

		all, err := repo.ListActive(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "r3", all[0].ID, "newest first")

		c2, err := repo.ListActive(ctx, "c2")
		require.NoError(t, err)
		require.Len(t, c2, 1)
		assert.Equal(t, "r3", c2[0].ID)
	})

	t.Run("expired and closed rosters", func(t *testing.T) {
		expired, err := repo.FindExpired(ctx, base.Add(2*time.Hour+30*time.Second))
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, "r1", expired[0].ID)

		closed, _, err := roster.Apply(*expired[0], roster.Expire{})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, &closed, expired[0].Version))

		expired, err = repo.FindExpired(ctx, base.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Len(t, expired, 2)

		c1, err := repo.ListActive(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, c1, 1)
		assert.Equal(t, "r2", c1[0].ID)
	})
}

func TestMemoryRosterRepository(t *testing.T) {
	testRosterRepository(t, NewMemoryRosterRepository())
}

func TestRedisRosterRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	testRosterRepository(t, NewRedisRosterRepository(client))
}

func TestRedisRosterRepositoryConcurrentSave(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewRedisRosterRepository(client)

	r := roster.NewDungeonRun("d1", "leader", 8, roster.Details{ChannelID: "c1"})
	require.NoError(t, repo.Create(ctx, &r))

	first, _, err := roster.Apply(r, roster.Join{UserID: "u1"})
	require.NoError(t, err)
	second, _, err := roster.Apply(r, roster.Join{UserID: "u2"})
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, &first, 1))
	require.ErrorIs(t, repo.Save(ctx, &second, 1), ErrVersionConflict)
	require.NoError(t, repo.Save(ctx, &second, 2), "saving against the current version succeeds")

	got, err := repo.FindByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)
	assert.Equal(t, []string{"u2"}, got.Dungeon.Participants)
}

// TestPostgresRosterRepository runs against DATABASE_URL and wipes the
// rosters table first.
func TestPostgresRosterRepository(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	require.NoError(t, db.RunMigrations(url, "../../migrations"))

	pg, err := db.NewPostgresDB(url, 4)
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	_, err = pg.Pool.Exec(context.Background(), "TRUNCATE rosters")
	require.NoError(t, err)

	testRosterRepository(t, NewRosterRepository(pg.Pool))
}

func TestMemoryRosterRepositoryIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRosterRepository()
	r := roster.NewSiege("s1", "creator", map[types.JobClass]int{types.JobBlade: 1}, roster.Details{})
	require.NoError(t, repo.Create(ctx, &r))

	got, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	got.Siege.Attending = append(got.Siege.Attending, "intruder")
	got.Siege.Principals[types.JobBlade] = []string{"intruder"}

	again, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, again.Siege.Attending)
	assert.Empty(t, again.Siege.Principals[types.JobBlade])
}

func TestNewRepositories(t *testing.T) {
	repos, err := NewRepositories(BackendMemory, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, repos.RosterRepo)

	_, err = NewRepositories(BackendPostgres, nil, nil)
	assert.Error(t, err)
	_, err = NewRepositories(BackendRedis, nil, nil)
	assert.Error(t, err)
	_, err = NewRepositories("mongo", nil, nil)
	assert.Error(t, err)
}
