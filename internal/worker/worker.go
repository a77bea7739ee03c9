package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one run of a periodic maintenance task
type Job func(ctx context.Context)

// Scheduler runs maintenance jobs on fixed intervals until shut down
type Scheduler struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Every runs job once immediately and then on every tick of interval.
// Runs of the same job never overlap; a slow run delays the next tick.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Info("⏱️ [Scheduler] Job scheduled", "job", name, "interval", interval)

		for {
			s.run(name, job)

			select {
			case <-s.ctx.Done():
				s.logger.Debug("🛑 [Scheduler] Job stopped", "job", name)
				return
			case <-ticker.C:
			}
		}
	}()
}

// run executes one job run; a panic is logged and the job stays scheduled
func (s *Scheduler) run(name string, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("❌ [Scheduler] Job panicked", "job", name, "panic", r)
		}
	}()
	job(s.ctx)
}

// Shutdown cancels running jobs and waits up to timeout for them to return.
// It reports whether every job stopped in time.
func (s *Scheduler) Shutdown(timeout time.Duration) bool {
	s.logger.Info("🛑 [Scheduler] Stopping maintenance jobs...")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("✅ [Scheduler] All jobs stopped")
		return true
	case <-time.After(timeout):
		s.logger.Warn("⚠️ [Scheduler] Jobs still running after shutdown timeout", "timeout", timeout)
		return false
	}
}
