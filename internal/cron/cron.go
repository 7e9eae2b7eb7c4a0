package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Marga-Ghale/ora-roster-backend/internal/service"
)

// sweepTimeout bounds one expiry sweep.
const sweepTimeout = 30 * time.Second

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron      *cron.Cron
	rosterSvc service.RosterService
	sweepSpec string
}

// NewScheduler creates a scheduler that expires rosters on sweepSpec, a
// cron expression or descriptor such as "@every 1m".
func NewScheduler(rosterSvc service.RosterService, sweepSpec string) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		rosterSvc: rosterSvc,
		sweepSpec: sweepSpec,
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.sweepSpec, func() {
		s.expireRosters()
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("[Cron] Scheduler started (expiry sweep: %s)", s.sweepSpec)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Cron] Scheduler stopped")
}

// expireRosters closes every active roster whose event is over.
func (s *Scheduler) expireRosters() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.rosterSvc.ExpireDue(ctx)
	if err != nil {
		log.Printf("[Cron] Error expiring rosters: %v", err)
	}
	if n > 0 {
		log.Printf("[Cron] Expired %d roster(s)", n)
	}
}

// ManualTrigger allows manual triggering of scheduled jobs (for testing)
func (s *Scheduler) ManualTrigger(checkType string) {
	switch checkType {
	case "expire", "all":
		s.expireRosters()
	default:
		log.Printf("[Cron] Unknown job: %s", checkType)
	}
}
