package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/observability"
)

// Evaluator is the orchestrator capability the scheduler drives.
type Evaluator interface {
	EvaluateAndNotify(ctx context.Context, userID string) domain.CallOutcome
}

// Scheduler sweeps every registered user at a fixed interval. Each sweep
// snapshots the user list and evaluates users concurrently; a slow sweep runs
// in its own goroutine so the timer loop keeps firing on schedule.
type Scheduler struct {
	users     UserDirectory
	evaluator Evaluator
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a stopped Scheduler. A nil clock defaults to the real
// wall clock.
func NewScheduler(users UserDirectory, evaluator Evaluator, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		users:     users,
		evaluator: evaluator,
		interval:  interval,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start launches the sweep loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	s.logger.Info("scheduler started", "interval", s.interval)
}

// Stop cancels the sweep loop and waits for it to exit. In-flight evaluations
// observe the cancelled context and wind down via their fallback paths. Stop
// on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			go s.sweep(ctx)
		}
	}
}

// sweep evaluates every user registered at the moment the tick fired. Users
// added mid-sweep are picked up on the next tick.
func (s *Scheduler) sweep(ctx context.Context) {
	start := s.clock.Now()
	ids := s.users.IDs()

	s.metrics.SweepsTotal.Inc()
	s.metrics.SweepUsers.Observe(float64(len(ids)))
	s.logger.Info("sweep started", "users", len(ids))

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("evaluation panicked", "user_id", id, "panic", r)
				}
			}()
			outcome := s.evaluator.EvaluateAndNotify(ctx, id)
			s.logger.Debug("sweep evaluation finished",
				"user_id", id, "status", string(outcome.Status))
		}(id)
	}
	wg.Wait()

	elapsed := s.clock.Since(start)
	s.metrics.SweepDuration.Observe(elapsed.Seconds())
	s.logger.Info("sweep finished", "users", len(ids), "duration", elapsed)
}
