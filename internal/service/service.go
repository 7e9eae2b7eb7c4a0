package service

import (
	"errors"
	"time"

	"github.com/Marga-Ghale/ora-roster-backend/internal/config"
	"github.com/Marga-Ghale/ora-roster-backend/internal/db"
	"github.com/Marga-Ghale/ora-roster-backend/internal/metrics"
	"github.com/Marga-Ghale/ora-roster-backend/internal/repository"
	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
)

var (
	ErrNotFound     = errors.New("roster not found")
	ErrStore        = errors.New("roster store unavailable")
	ErrConflict     = errors.New("roster already exists")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidToken = errors.New("invalid token")

	// Engine rejections, re-exported for callers of the service layer.
	ErrInactive       = roster.ErrInactive
	ErrUnauthorized   = roster.ErrUnauthorized
	ErrFull           = roster.ErrFull
	ErrSelfKick       = roster.ErrSelfKick
	ErrInvalidIntent  = roster.ErrInvalidIntent
	ErrNotParticipant = roster.ErrNotParticipant
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth       AuthService
	Roster     RosterService
	Dispatcher *Dispatcher
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config    *config.Config
	Repos     *repository.Repositories
	Redis     *db.RedisDB // optional; enables the cross-process roster lock
	Publisher Publisher
	Metrics   metrics.Collector
	Clock     func() time.Time
}

func NewServices(deps *ServiceDeps) *Services {
	opts := []DispatcherOption{}
	if deps.Clock != nil {
		opts = append(opts, WithClock(deps.Clock))
	}
	if deps.Metrics != nil {
		opts = append(opts, WithMetrics(deps.Metrics))
	}
	if deps.Publisher != nil {
		opts = append(opts, WithPublisher(deps.Publisher))
	}
	if deps.Redis != nil {
		opts = append(opts, WithLocker(NewRedisLocker(deps.Redis, deps.Config.RosterLockTTL)))
	}

	dispatcher := NewDispatcher(deps.Repos.RosterRepo, opts...)

	return &Services{
		Auth:       NewAuthService(deps.Config),
		Roster:     NewRosterService(deps.Config, deps.Repos.RosterRepo, dispatcher),
		Dispatcher: dispatcher,
	}
}
