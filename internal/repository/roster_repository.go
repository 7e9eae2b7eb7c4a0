package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

var (
	// ErrVersionConflict means the stored roster moved on since it was loaded.
	ErrVersionConflict = errors.New("roster version conflict")

	// ErrRosterExists is returned by Create when the id is taken.
	ErrRosterExists = errors.New("roster already exists")
)

// RosterRepository persists one roster record per event. FindByID returns
// nil, nil when the id is unknown.
type RosterRepository interface {
	Create(ctx context.Context, r *roster.Roster) error
	FindByID(ctx context.Context, id string) (*roster.Roster, error)
	// Save stores r only if the stored version still equals expectedVersion,
	// then sets r.Version to the new version.
	Save(ctx context.Context, r *roster.Roster, expectedVersion int64) error
	// ListActive returns active rosters, newest first. An empty channelID
	// lists every channel.
	ListActive(ctx context.Context, channelID string) ([]*roster.Roster, error)
	// FindExpired returns active rosters whose expiry is at or before now.
	FindExpired(ctx context.Context, now time.Time) ([]*roster.Roster, error)
}

// rosterState is the JSONB payload of the state column.
type rosterState struct {
	Siege   *roster.SiegeState   `json:"siege,omitempty"`
	Dungeon *roster.DungeonState `json:"dungeon,omitempty"`
}

type pgRosterRepository struct {
	pool *pgxpool.Pool
}

func NewRosterRepository(pool *pgxpool.Pool) RosterRepository {
	return &pgRosterRepository{pool: pool}
}

const rosterColumns = `id, kind, creator_id, is_active, version, details, state`

func (r *pgRosterRepository) Create(ctx context.Context, ro *roster.Roster) error {
	details, state, err := encodeRoster(ro)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO rosters (id, kind, creator_id, channel_id, is_active, version, details, state, expires_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $7, $8)
		RETURNING version
	`
	err = r.pool.QueryRow(ctx, query,
		ro.ID, string(ro.Kind), ro.CreatorID, ro.Details.ChannelID, ro.Active,
		details, state, nullableTime(ro.Details.ExpiresAt),
	).Scan(&ro.Version)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrRosterExists
	}
	return err
}

func (r *pgRosterRepository) FindByID(ctx context.Context, id string) (*roster.Roster, error) {
	query := `SELECT ` + rosterColumns + ` FROM rosters WHERE id = $1`
	ro, err := scanRoster(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ro, nil
}

func (r *pgRosterRepository) Save(ctx context.Context, ro *roster.Roster, expectedVersion int64) error {
	details, state, err := encodeRoster(ro)
	if err != nil {
		return err
	}
	query := `
		UPDATE rosters
		SET is_active = $3, details = $4, state = $5, expires_at = $6,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version
	`
	var version int64
	err = r.pool.QueryRow(ctx, query,
		ro.ID, expectedVersion, ro.Active, details, state, nullableTime(ro.Details.ExpiresAt),
	).Scan(&version)
	if err == pgx.ErrNoRows {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}
	ro.Version = version
	return nil
}

func (r *pgRosterRepository) ListActive(ctx context.Context, channelID string) ([]*roster.Roster, error) {
	query := `
		SELECT ` + rosterColumns + ` FROM rosters
		WHERE is_active = TRUE AND ($1 = '' OR channel_id = $1)
		ORDER BY created_at DESC
	`
	return r.queryRosters(ctx, query, channelID)
}

func (r *pgRosterRepository) FindExpired(ctx context.Context, now time.Time) ([]*roster.Roster, error) {
	query := `
		SELECT ` + rosterColumns + ` FROM rosters
		WHERE is_active = TRUE AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at ASC
	`
	return r.queryRosters(ctx, query, now)
}

func (r *pgRosterRepository) queryRosters(ctx context.Context, query string, args ...interface{}) ([]*roster.Roster, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rosters := []*roster.Roster{}
	for rows.Next() {
		ro, err := scanRoster(rows)
		if err != nil {
			return nil, err
		}
		rosters = append(rosters, ro)
	}
	return rosters, rows.Err()
}

func scanRoster(row pgx.Row) (*roster.Roster, error) {
	var (
		ro      roster.Roster
		kind    string
		details []byte
		state   []byte
	)
	if err := row.Scan(&ro.ID, &kind, &ro.CreatorID, &ro.Active, &ro.Version, &details, &state); err != nil {
		return nil, err
	}
	ro.Kind = types.RosterKind(kind)
	if err := json.Unmarshal(details, &ro.Details); err != nil {
		return nil, fmt.Errorf("decode roster %s details: %w", ro.ID, err)
	}
	var s rosterState
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("decode roster %s state: %w", ro.ID, err)
	}
	ro.Siege, ro.Dungeon = s.Siege, s.Dungeon
	return &ro, nil
}

func encodeRoster(ro *roster.Roster) (details, state []byte, err error) {
	details, err = json.Marshal(ro.Details)
	if err != nil {
		return nil, nil, fmt.Errorf("encode roster %s details: %w", ro.ID, err)
	}
	state, err = json.Marshal(rosterState{Siege: ro.Siege, Dungeon: ro.Dungeon})
	if err != nil {
		return nil, nil, fmt.Errorf("encode roster %s state: %w", ro.ID, err)
	}
	return details, state, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
