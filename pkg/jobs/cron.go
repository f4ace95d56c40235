package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jordanlanch/territorydb/pkg/assignment"
	"github.com/jordanlanch/territorydb/pkg/logger"
	"github.com/jordanlanch/territorydb/pkg/territory"
)

// CronManager manages scheduled jobs
type CronManager struct {
	cron        *cron.Cron
	assignments *assignment.Service
	territories *territory.Service
	log         logger.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(assignments *assignment.Service, territories *territory.Service, log logger.Logger) *CronManager {
	if log == nil {
		log = logger.Default()
	}

	return &CronManager{
		cron:        cron.New(),
		assignments: assignments,
		territories: territories,
		log:         log,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	cm.log.Info("setting up cron jobs")

	// Nightly at 3 AM: full counter reconciliation. Counters are pure
	// derivations of the assignment rows, so this sweep self-heals any
	// recompute call a crashed mutation path missed.
	_, err := cm.cron.AddFunc("0 3 * * *", func() {
		cm.log.Info("running nightly counter reconciliation")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if err := cm.assignments.RecomputeAll(ctx); err != nil {
			cm.log.Error("counter reconciliation failed", "error", err)
			return
		}

		cm.log.Info("counter reconciliation completed")
	})
	if err != nil {
		return err
	}

	// Hourly: warm the region stats cache so dashboard reads stay cheap.
	_, err = cm.cron.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := cm.territories.StatsByRegion(ctx); err != nil {
			cm.log.Warn("region stats warmup failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	return nil
}

// Start begins running scheduled jobs
func (cm *CronManager) Start() {
	cm.cron.Start()
}

// Stop halts all scheduled jobs
func (cm *CronManager) Stop() {
	cm.cron.Stop()
}
