// Package scheduler drives the periodic plugin batches: template refresh
// and the per-plugin cron hooks. Schedules come from the environment so
// deployments can stagger instances.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/services"
)

type Scheduler struct {
	cron  *cron.Cron
	batch services.BatchService
	log   *logger.Logger
}

type Config struct {
	// CronSpec triggers ExecuteCronFunctions across all active plugins.
	CronSpec string
	// TemplateRefreshSpec re-runs InitializeTemplates so template edits
	// shipped with a deploy reach the database without a restart.
	TemplateRefreshSpec string
}

func New(log *logger.Logger, batch services.BatchService, cfg Config) (*Scheduler, error) {
	s := &Scheduler{
		cron:  cron.New(),
		batch: batch,
		log:   log.With("component", "Scheduler"),
	}
	if _, err := s.cron.AddFunc(cfg.CronSpec, func() {
		s.log.Info("running plugin cron batch")
		s.batch.RunCronFunctions(context.Background())
	}); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(cfg.TemplateRefreshSpec, func() {
		s.log.Info("running template refresh batch")
		s.batch.RunInitializeTemplates(context.Background())
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
