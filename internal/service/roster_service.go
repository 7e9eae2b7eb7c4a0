package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Marga-Ghale/ora-roster-backend/internal/config"
	"github.com/Marga-Ghale/ora-roster-backend/internal/repository"
	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

const eventTimeLayout = "2006-01-02 15:04"

// ============================================
// Roster Service
// ============================================

type CreateSiegeInput struct {
	ID        string
	ChannelID string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM
	Timezone  string
	Tier      string
}

type CreateDungeonInput struct {
	ID        string
	ChannelID string
	Dungeon   string
	PartySize int
	Date      string
	Time      string
	Timezone  string
	Notes     string
}

type RosterService interface {
	CreateSiege(ctx context.Context, creatorID string, in CreateSiegeInput) (*roster.Roster, error)
	CreateDungeonRun(ctx context.Context, creatorID string, in CreateDungeonInput) (*roster.Roster, error)
	Get(ctx context.Context, id string) (*roster.Roster, error)
	ListActive(ctx context.Context, channelID string) ([]*roster.Roster, error)
	Submit(ctx context.Context, id string, in roster.Intent) (*DispatchResult, error)
	// KickCandidates lists the members the leader may remove from a run.
	KickCandidates(ctx context.Context, id, actorID string) ([]string, error)
	// ExpireDue expires every active roster past its expiry time and
	// returns how many it expired.
	ExpireDue(ctx context.Context) (int, error)
}

type rosterService struct {
	cfg        *config.Config
	repo       repository.RosterRepository
	dispatcher *Dispatcher
}

func NewRosterService(cfg *config.Config, repo repository.RosterRepository, dispatcher *Dispatcher) RosterService {
	return &rosterService{cfg: cfg, repo: repo, dispatcher: dispatcher}
}

func (s *rosterService) CreateSiege(ctx context.Context, creatorID string, in CreateSiegeInput) (*roster.Roster, error) {
	if creatorID == "" {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.ChannelID) == "" {
		return nil, fmt.Errorf("%w: channel id is required", ErrInvalidInput)
	}
	startsAt, tz, err := s.eventTime(in.Date, in.Time, in.Timezone)
	if err != nil {
		return nil, err
	}

	tier := strings.TrimSpace(in.Tier)
	title := "Guild Siege"
	if tier != "" {
		title = fmt.Sprintf("Guild Siege (Tier %s)", tier)
	}

	r := roster.NewSiege(rosterID(in.ID), creatorID, s.cfg.SiegeCapacity(), roster.Details{
		ChannelID: in.ChannelID,
		Title:     title,
		Tier:      tier,
		Timezone:  tz,
		StartsAt:  startsAt,
		ExpiresAt: startsAt.Add(s.cfg.ExpiryGrace),
		CreatedAt: s.dispatcher.now().UTC(),
	})
	return s.create(ctx, r)
}

func (s *rosterService) CreateDungeonRun(ctx context.Context, creatorID string, in CreateDungeonInput) (*roster.Roster, error) {
	if creatorID == "" {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.ChannelID) == "" {
		return nil, fmt.Errorf("%w: channel id is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(in.Dungeon)
	if name == "" {
		return nil, fmt.Errorf("%w: dungeon name is required", ErrInvalidInput)
	}
	partySize := in.PartySize
	if partySize == 0 {
		partySize = s.cfg.DungeonDefaultPartySize
	}
	if !s.cfg.AllowsPartySize(partySize) {
		return nil, fmt.Errorf("%w: party size %d is not offered", ErrInvalidInput, partySize)
	}
	startsAt, tz, err := s.eventTime(in.Date, in.Time, in.Timezone)
	if err != nil {
		return nil, err
	}

	r := roster.NewDungeonRun(rosterID(in.ID), creatorID, partySize, roster.Details{
		ChannelID: in.ChannelID,
		Title:     name,
		Notes:     strings.TrimSpace(in.Notes),
		Timezone:  tz,
		StartsAt:  startsAt,
		ExpiresAt: startsAt.Add(s.cfg.ExpiryGrace),
		CreatedAt: s.dispatcher.now().UTC(),
	})
	return s.create(ctx, r)
}

func (s *rosterService) create(ctx context.Context, r roster.Roster) (*roster.Roster, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, &r); err != nil {
		if errors.Is(err, repository.ErrRosterExists) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: create roster: %w", ErrStore, err)
	}

	log.Printf("[Roster] ✅ %s %s created by %s in channel %s", r.Kind, r.ID, r.CreatorID, r.Details.ChannelID)
	if p := s.dispatcher.publisher; p != nil {
		p.RosterCreated(r)
	}
	return &r, nil
}

func (s *rosterService) Get(ctx context.Context, id string) (*roster.Roster, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: load roster %s: %w", ErrStore, id, err)
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *rosterService) ListActive(ctx context.Context, channelID string) ([]*roster.Roster, error) {
	rosters, err := s.repo.ListActive(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("%w: list rosters: %w", ErrStore, err)
	}
	return rosters, nil
}

func (s *rosterService) Submit(ctx context.Context, id string, in roster.Intent) (*DispatchResult, error) {
	return s.dispatcher.Submit(ctx, id, in)
}

func (s *rosterService) KickCandidates(ctx context.Context, id, actorID string) ([]string, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Kind != types.KindDungeonRun || r.Dungeon == nil {
		return nil, fmt.Errorf("%w: only dungeon runs have party members to manage", ErrInvalidIntent)
	}
	if !r.Active {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, ErrInactive)
	}
	if actorID != r.CreatorID {
		return nil, ErrUnauthorized
	}

	candidates := make([]string, 0, len(r.Dungeon.Participants))
	for _, u := range r.Dungeon.Participants {
		if u != r.CreatorID {
			candidates = append(candidates, u)
		}
	}
	return candidates, nil
}

func (s *rosterService) ExpireDue(ctx context.Context) (int, error) {
	due, err := s.repo.FindExpired(ctx, s.dispatcher.now())
	if err != nil {
		return 0, fmt.Errorf("%w: find expired rosters: %w", ErrStore, err)
	}

	expired := 0
	var errs []error
	for _, r := range due {
		res, err := s.dispatcher.Submit(ctx, r.ID, roster.Expire{})
		if err != nil {
			errs = append(errs, fmt.Errorf("expire roster %s: %w", r.ID, err))
			continue
		}
		if res.Outcome.Result == roster.ResultExpired {
			expired++
		}
	}

	s.dispatcher.metrics.RecordExpirySweep(expired, len(errs))
	if expired > 0 {
		log.Printf("[Roster] ⏰ Expired %d roster(s)", expired)
	}
	return expired, errors.Join(errs...)
}

// eventTime parses a wall-clock date and time in the given zone, falling
// back to the default zone. The result is in UTC.
func (s *rosterService) eventTime(date, clock, tz string) (time.Time, string, error) {
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	if !s.cfg.AllowsTimezone(tz) {
		return time.Time{}, "", fmt.Errorf("%w: timezone %q is not supported", ErrInvalidInput, tz)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: timezone %q: %v", ErrInvalidInput, tz, err)
	}
	t, err := time.ParseInLocation(eventTimeLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: date must be YYYY-MM-DD and time HH:MM", ErrInvalidInput)
	}
	return t.UTC(), tz, nil
}

func rosterID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}
