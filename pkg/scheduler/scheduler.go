package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"EdgePulse/pkg/logger"
)

// Job is a named unit of periodic work.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Schedule returns the cron expression, e.g. "@every 10s".
	Schedule() string

	// Run executes one cycle of the job.
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu   sync.RWMutex
	jobs map[string]Job
}

// New creates an empty scheduler.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: log,
		jobs:   make(map[string]Job),
	}
}

// AddJob registers a job. Duplicate names are rejected.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	}); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.logger.Info("job registered",
		logger.String("job", name),
		logger.String("schedule", job.Schedule()))
	return nil
}

// RunJob triggers a job immediately, outside its schedule.
func (s *Scheduler) RunJob(name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	go s.runJob(job)
	return nil
}

// Start begins schedule execution.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler starting")
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runJob(job Job) {
	start := time.Now()
	if err := job.Run(context.Background()); err != nil {
		s.logger.Error("job failed",
			logger.String("job", job.Name()),
			logger.Duration("duration", time.Since(start)),
			logger.Error(err))
		return
	}
	s.logger.Debug("job completed",
		logger.String("job", job.Name()),
		logger.Duration("duration", time.Since(start)))
}
