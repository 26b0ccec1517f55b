// Package scheduler triggers periodic market data collection and report
// regeneration from cron specs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobTimeout bounds a single job run
const JobTimeout = 2 * time.Minute

// Job is one scheduled unit of work
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs jobs on cron specs. Runs of the same job never overlap.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New creates a scheduler
func New(logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger.Sugar().Named("cron")}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(
				cron.Recover(cl),
				cron.SkipIfStillRunning(cl),
			),
		),
		logger: logger,
	}
}

// cronLogger routes cron's own messages, including recovered panics, through zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Add registers a job. Specs accept the standard five field format and
// descriptors such as "@every 1m" or "@hourly".
func (s *Scheduler) Add(job Job) error {
	_, err := s.cron.AddFunc(job.Spec, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", job.Name, err)
	}
	s.logger.Info("Scheduled job", zap.String("job", job.Name), zap.String("spec", job.Spec))
	return nil
}

func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), JobTimeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("Job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.logger.Debug("Job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Cron scheduler stopped")
}

// Len returns the number of registered jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}
