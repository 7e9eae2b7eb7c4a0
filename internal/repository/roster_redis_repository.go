package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Marga-Ghale/ora-roster-backend/internal/codec"
	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
)

// Redis key layout:
//
//	roster:<id>            CBOR snapshot
//	rosters:active         set of active ids
//	rosters:channel:<id>   set of active ids per channel
//	rosters:expiry         zset of active ids scored by expiry unix time
const (
	rosterKeyPrefix  = "roster:"
	activeSetKey     = "rosters:active"
	channelSetPrefix = "rosters:channel:"
	expiryZSetKey    = "rosters:expiry"
)

type redisRosterRepository struct {
	client *redis.Client
}

func NewRedisRosterRepository(client *redis.Client) RosterRepository {
	return &redisRosterRepository{client: client}
}

func rosterKey(id string) string { return rosterKeyPrefix + id }

func (r *redisRosterRepository) Create(ctx context.Context, ro *roster.Roster) error {
	stored := ro.Clone()
	stored.Version = 1
	data, err := codec.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode roster %s: %w", ro.ID, err)
	}

	key := rosterKey(ro.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrRosterExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			indexRoster(ctx, pipe, &stored)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrRosterExists
	}
	if err != nil {
		return err
	}
	ro.Version = 1
	return nil
}

func (r *redisRosterRepository) FindByID(ctx context.Context, id string) (*roster.Roster, error) {
	data, err := r.client.Get(ctx, rosterKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(id, data)
}

func (r *redisRosterRepository) Save(ctx context.Context, ro *roster.Roster, expectedVersion int64) error {
	next := ro.Clone()
	next.Version = expectedVersion + 1
	data, err := codec.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode roster %s: %w", ro.ID, err)
	}

	key := rosterKey(ro.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrVersionConflict
		}
		if err != nil {
			return err
		}
		stored, err := decodeSnapshot(ro.ID, current)
		if err != nil {
			return err
		}
		if stored.Version != expectedVersion {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if next.Active {
				indexRoster(ctx, pipe, &next)
			} else {
				unindexRoster(ctx, pipe, &next)
			}
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}
	ro.Version = next.Version
	return nil
}

func (r *redisRosterRepository) ListActive(ctx context.Context, channelID string) ([]*roster.Roster, error) {
	setKey := activeSetKey
	if channelID != "" {
		setKey = channelSetPrefix + channelID
	}
	ids, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}
	rosters, err := r.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := rosters[:0]
	for _, ro := range rosters {
		if ro.Active && (channelID == "" || ro.Details.ChannelID == channelID) {
			out = append(out, ro)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Details.CreatedAt.After(out[j].Details.CreatedAt)
	})
	return out, nil
}

func (r *redisRosterRepository) FindExpired(ctx context.Context, now time.Time) ([]*roster.Roster, error) {
	ids, err := r.client.ZRangeByScore(ctx, expiryZSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}
	rosters, err := r.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := rosters[:0]
	for _, ro := range rosters {
		exp := ro.Details.ExpiresAt
		if ro.Active && !exp.IsZero() && !exp.After(now) {
			out = append(out, ro)
		}
	}
	return out, nil
}

func (r *redisRosterRepository) loadMany(ctx context.Context, ids []string) ([]*roster.Roster, error) {
	if len(ids) == 0 {
		return []*roster.Roster{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = rosterKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rosters := make([]*roster.Roster, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// Index entry outlived its snapshot.
			continue
		}
		ro, err := decodeSnapshot(ids[i], []byte(s))
		if err != nil {
			return nil, err
		}
		rosters = append(rosters, ro)
	}
	return rosters, nil
}

func indexRoster(ctx context.Context, pipe redis.Pipeliner, ro *roster.Roster) {
	pipe.SAdd(ctx, activeSetKey, ro.ID)
	if ro.Details.ChannelID != "" {
		pipe.SAdd(ctx, channelSetPrefix+ro.Details.ChannelID, ro.ID)
	}
	if !ro.Details.ExpiresAt.IsZero() {
		pipe.ZAdd(ctx, expiryZSetKey, redis.Z{Score: float64(ro.Details.ExpiresAt.Unix()), Member: ro.ID})
	} else {
		pipe.ZRem(ctx, expiryZSetKey, ro.ID)
	}
}

func unindexRoster(ctx context.Context, pipe redis.Pipeliner, ro *roster.Roster) {
	pipe.SRem(ctx, activeSetKey, ro.ID)
	if ro.Details.ChannelID != "" {
		pipe.SRem(ctx, channelSetPrefix+ro.Details.ChannelID, ro.ID)
	}
	pipe.ZRem(ctx, expiryZSetKey, ro.ID)
}

func decodeSnapshot(id string, data []byte) (*roster.Roster, error) {
	var ro roster.Roster
	if err := codec.Unmarshal(data, &ro); err != nil {
		return nil, fmt.Errorf("decode roster %s: %w", id, err)
	}
	return &ro, nil
}
