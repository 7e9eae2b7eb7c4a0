package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Marga-Ghale/ora-roster-backend/internal/metrics"
	"github.com/Marga-Ghale/ora-roster-backend/internal/repository"
	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
)

// Publisher is told about every roster change that reached the store.
type Publisher interface {
	RosterCreated(r roster.Roster)
	RosterUpdated(r roster.Roster, out roster.Outcome)
}

// DispatchResult is the roster after an intent together with what happened.
type DispatchResult struct {
	Roster  roster.Roster
	Outcome roster.Outcome
}

// ============================================
// Dispatcher
// ============================================

// Dispatcher runs intents against stored rosters. Intents for one roster id
// are applied one at a time in arrival order; different rosters proceed in
// parallel. A roster is loaded, transformed and saved within one critical
// section, so every intent sees the result of the one before it.
type Dispatcher struct {
	repo      repository.RosterRepository
	local     *keyedMutex
	remote    Locker
	publisher Publisher
	metrics   metrics.Collector
	now       func() time.Time
	newID     func() string
}

type DispatcherOption func(*Dispatcher)

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// WithLocker adds a lock held in addition to the in-process one, for
// deployments where several processes share a store.
func WithLocker(l Locker) DispatcherOption {
	return func(d *Dispatcher) { d.remote = l }
}

func WithPublisher(p Publisher) DispatcherOption {
	return func(d *Dispatcher) { d.publisher = p }
}

func WithMetrics(m metrics.Collector) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithIDGenerator(newID func() string) DispatcherOption {
	return func(d *Dispatcher) { d.newID = newID }
}

func NewDispatcher(repo repository.RosterRepository, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		repo:    repo,
		local:   newKeyedMutex(),
		metrics: metrics.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit applies in to roster id.
//
// ctx only bounds the wait for the roster. Once the intent holds the roster
// it runs to completion, so a caller that gives up never leaves a
// half-applied change behind.
//
// Errors: ErrNotFound when the roster is missing (also wrapping
// ErrInactive for a closed roster), ErrStore when the store fails, and the
// engine's rejection errors unchanged.
func (d *Dispatcher) Submit(ctx context.Context, id string, in roster.Intent) (*DispatchResult, error) {
	start := d.now()
	in = d.stamp(in)

	kind := "unknown"
	res, err := d.withRoster(ctx, id, func(ictx context.Context) (*DispatchResult, error) {
		current, err := d.repo.FindByID(ictx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: load roster %s: %w", ErrStore, id, err)
		}
		if current == nil {
			return nil, ErrNotFound
		}
		kind = string(current.Kind)
		if !current.Active && roster.Mutating(in) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, roster.ErrInactive)
		}

		next, out, err := roster.Apply(*current, in)
		if err != nil {
			return nil, err
		}
		if out.Result == roster.ResultNoOp {
			return &DispatchResult{Roster: *current, Outcome: out}, nil
		}

		if err := d.repo.Save(ictx, &next, current.Version); err != nil {
			return nil, fmt.Errorf("%w: save roster %s: %w", ErrStore, id, err)
		}
		return &DispatchResult{Roster: next, Outcome: out}, nil
	})

	d.metrics.RecordIntent(kind, intentName(in), resultLabel(res, err), d.now().Sub(start).Seconds())

	if err != nil {
		if errors.Is(err, ErrStore) {
			log.Printf("[Dispatcher] ❌ %s on roster %s failed: %v", intentName(in), id, err)
		}
		return nil, err
	}

	if d.publisher != nil && res.Outcome.Result != roster.ResultNoOp {
		d.publisher.RosterUpdated(res.Roster, res.Outcome)
	}
	return res, nil
}

// withRoster runs fn while holding roster id. fn receives a context that is
// not cancelled with ctx.
func (d *Dispatcher) withRoster(ctx context.Context, id string, fn func(context.Context) (*DispatchResult, error)) (*DispatchResult, error) {
	waitStart := d.now()

	unlock, err := d.local.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if d.remote != nil {
		unlockRemote, err := d.remote.Lock(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: lock roster %s: %w", ErrStore, id, err)
		}
		defer unlockRemote()
	}

	d.metrics.RecordLockWait(d.now().Sub(waitStart).Seconds())

	return fn(context.WithoutCancel(ctx))
}

// stamp fills the id and timestamp of a drop record when the caller left
// them empty.
func (d *Dispatcher) stamp(in roster.Intent) roster.Intent {
	drop, ok := in.(roster.RecordDrop)
	if !ok {
		return in
	}
	if drop.DropID == "" {
		drop.DropID = d.newID()
	}
	if drop.At.IsZero() {
		drop.At = d.now().UTC()
	}
	return drop
}

// Inflight reports how many roster ids currently have an intent running or
// waiting.
func (d *Dispatcher) Inflight() int {
	return d.local.size()
}

func intentName(in roster.Intent) string {
	if in == nil {
		return "nil"
	}
	return in.Name()
}

func resultLabel(res *DispatchResult, err error) string {
	switch {
	case err == nil:
		return string(res.Outcome.Result)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "abandoned"
	case errors.Is(err, ErrStore):
		return "store_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "rejected"
	}
}
