package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/ghostline-backend/internal/observability"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
	"github.com/yungbote/ghostline-backend/internal/services"
)

// Scheduler runs each retention job on its own ticker inside the API process.
// It is the local alternative to the Temporal schedule; only one of them should be enabled.
type Scheduler struct {
	log     *logger.Logger
	jobs    []services.RetentionJob
	metrics *observability.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewScheduler(baseLog *logger.Logger, jobs []services.RetentionJob, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		log:     baseLog.With("component", "RetentionScheduler"),
		jobs:    jobs,
		metrics: metrics,
	}
}

// Start launches one loop per job. Each loop runs its job immediately and then on every tick.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.log.Info("Starting retention scheduler", "jobs", len(s.jobs))
	for _, job := range s.jobs {
		job := job
		if job.Interval <= 0 || job.Run == nil {
			s.log.Warn("Skipping retention job", "job", job.Name, "interval", job.Interval)
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Stop cancels every loop and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()
	s.wg.Wait()
	s.log.Info("Retention scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, job services.RetentionJob) {
	defer s.wg.Done()
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	_, _ = s.RunJob(ctx, job)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunJob(ctx, job)
		}
	}
}

// RunJob runs a single job, recovering panics so one bad pass cannot stop the loop.
func (s *Scheduler) RunJob(ctx context.Context, job services.RetentionJob) (n int64, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Retention job panic", "job", job.Name, "panic", r)
			err = &panicError{Job: job.Name, Val: r}
		}
		s.metrics.ObserveRetention(job.Name, n, time.Since(start), err)
	}()
	n, err = job.Run(ctx)
	if err != nil {
		s.log.Warn("Retention job failed", "job", job.Name, "error", err)
	}
	return n, err
}

// RunOnce runs every job a single time in order and returns the first error.
func (s *Scheduler) RunOnce(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(s.jobs))
	var first error
	for _, job := range s.jobs {
		if job.Run == nil {
			continue
		}
		n, err := s.RunJob(ctx, job)
		out[job.Name] = n
		if err != nil && first == nil {
			first = err
		}
	}
	return out, first
}

type panicError struct {
	Job string
	Val any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("retention job %s panicked: %v", e.Job, e.Val)
}
