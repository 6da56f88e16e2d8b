package engine

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

// Result reports one finished persistence call. Results feed logging only; engine state
// never changes because of them.
type Result struct {
	Op       string
	Err      error
	Duration time.Duration
}

// Sink runs persistence calls in the background so engine transitions never wait on the
// network.
type Sink struct {
	log     *logger.Logger
	timeout time.Duration
	results chan Result
	wg      sync.WaitGroup
}

func NewSink(log *logger.Logger, timeout time.Duration, buffer int) *Sink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Sink{
		log:     log.With("component", "PersistSink"),
		timeout: timeout,
		results: make(chan Result, buffer),
	}
}

// Go runs fn once with its own timeout. It is never retried.
func (s *Sink) Go(op string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		err := fn(ctx)
		res := Result{Op: op, Err: err, Duration: time.Since(start)}
		select {
		case s.results <- res:
		default:
			s.report(res)
		}
	}()
}

func (s *Sink) Results() <-chan Result { return s.results }

// Drain logs results until ctx is done.
func (s *Sink) Drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-s.results:
			s.report(res)
		}
	}
}

// Wait blocks until every call started so far has finished.
func (s *Sink) Wait() { s.wg.Wait() }

func (s *Sink) report(res Result) {
	if res.Err != nil {
		s.log.Warn("persist failed; dropped", "op", res.Op, "error", res.Err, "duration_ms", res.Duration.Milliseconds())
		return
	}
	s.log.Debug("persisted", "op", res.Op, "duration_ms", res.Duration.Milliseconds())
}
