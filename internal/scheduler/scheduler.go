package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultSchedule refreshes the display every 30 minutes.
const DefaultSchedule = "@every 30m"

type Scheduler struct {
	ctx       context.Context
	refresher *Refresher
	targets   []int
	schedule  string
	logger    *logrus.Logger
	cron      *cron.Cron
}

func NewScheduler(ctx context.Context, refresher *Refresher, schedule string, targets []int, logger *logrus.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		ctx:       ctx,
		refresher: refresher,
		targets:   targets,
		schedule:  schedule,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start the scheduler
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.refresh)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// refresh runs one scheduled refresh and waits for it so that a slow sensor
// shows up in the logs against the tick that started it.
func (s *Scheduler) refresh() {
	reading, ok := <-s.refresher.Trigger(s.ctx, s.targets)
	if !ok {
		return
	}
	s.logger.WithFields(logrus.Fields{
		"valid":   reading.Valid(),
		"targets": s.targets,
	}).Info("Scheduled refresh completed")
}

// Stop the scheduler. The returned context is done once running refreshes
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
