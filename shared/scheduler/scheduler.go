package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a unit of periodic work.
type Job interface {
	Name() string
	RunOnce(ctx context.Context) error
}

// Scheduler runs one job on a cron schedule (with seconds field).
type Scheduler struct {
	schedule string
	job      Job
	cron     *cron.Cron
	log      logrus.FieldLogger
}

func New(schedule string, job Job, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		job:      job,
		log:      log,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start registers the job and blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.WithError(err).Errorf("Error running scheduled job for %s", s.job.Name())
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.log.Infof("Scheduler started for %s with schedule: %s", s.job.Name(), s.schedule)
	s.cron.Start()

	<-ctx.Done()
	s.log.Infof("Scheduler stopped for %s", s.job.Name())
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	name := s.job.Name()

	s.log.Debugf("Starting %s run...", name)

	if err := s.job.RunOnce(ctx); err != nil {
		return fmt.Errorf("%s run failed: %w", name, err)
	}

	s.log.WithField("duration", time.Since(startTime)).Debugf("%s run complete", name)
	return nil
}
