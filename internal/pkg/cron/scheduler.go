package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a function run on a fixed interval
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
}

// RunResult is the outcome of a job's most recent execution
type RunResult struct {
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// Scheduler runs registered jobs on tickers until stopped
type Scheduler struct {
	jobs    []Job
	results map[string]RunResult
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:    make([]Job, 0),
		results: make(map[string]RunResult),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, Job{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
	slog.Info("Cron job registered", "name", name, "interval", interval)
}

// Start runs every job once immediately and then on its interval
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}

	slog.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	slog.Info("Stopping cron scheduler...")
	s.cancel()
	s.wg.Wait()
	slog.Info("Cron scheduler stopped")
}

func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.executeJob(s.ctx, job)

	for {
		select {
		case <-s.ctx.Done():
			slog.Info("Cron job stopping", "name", job.Name)
			return
		case <-ticker.C:
			s.executeJob(s.ctx, job)
		}
	}
}

// executeJob bounds a run by the job's interval so runs never pile up
func (s *Scheduler) executeJob(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(ctx, job.Interval)
	defer cancel()

	start := time.Now()
	err := job.Fn(ctx)
	duration := time.Since(start)

	s.mu.Lock()
	s.results[job.Name] = RunResult{StartedAt: start, Duration: duration, Err: err}
	s.mu.Unlock()

	if err != nil {
		slog.Error("Cron job failed", "name", job.Name, "error", err, "duration", duration)
		return
	}
	slog.Debug("Cron job completed", "name", job.Name, "duration", duration)
}

// LastResult reports the most recent run of the named job
func (s *Scheduler) LastResult(name string) (RunResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[name]
	return r, ok
}

// RunOnce runs every registered job once
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		s.executeJob(ctx, job)
	}
}
