package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/config"
	"github.com/legalchicks/coopnet/internal/service/farm"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	farmSvc *farm.Service
	cfg     config.SchedulerConfig
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance. The cron runs in the
// configured timezone so "daily" means the network's local midnight window,
// not the host's.
func NewScheduler(cfg config.SchedulerConfig, farmSvc *farm.Service, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		farmSvc: farmSvc,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.rollupKPIHistory); err != nil {
		s.logger.Error("failed to schedule kpi rollup", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// rollupKPIHistory copies every member's latest KPI snapshot into the dated
// history. One member's failure never blocks the rest.
func (s *Scheduler) rollupKPIHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	day := time.Now().UTC()
	owners, err := s.farmSvc.KPIOwners(ctx)
	if err != nil {
		s.logger.Error("failed listing kpi owners for rollup", zap.Error(err))
		return
	}

	var failures int
	for _, uid := range owners {
		if err := s.farmSvc.RollupKPIHistory(ctx, uid, day); err != nil {
			failures++
			s.logger.Error("kpi rollup failed for member", zap.String("uid", uid), zap.Error(err))
		}
	}

	s.logger.Info("kpi rollup finished",
		zap.Int("members", len(owners)),
		zap.Int("failures", failures))
}
