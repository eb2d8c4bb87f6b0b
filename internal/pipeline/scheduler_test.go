package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/observability"
	"github.com/sabihealth/advisory-service/internal/store"
)

type countingEvaluator struct {
	mu        sync.Mutex
	evaluated map[string]int
	panicFor  string
}

func newCountingEvaluator() *countingEvaluator {
	return &countingEvaluator{evaluated: make(map[string]int)}
}

func (e *countingEvaluator) EvaluateAndNotify(_ context.Context, userID string) domain.CallOutcome {
	e.mu.Lock()
	e.evaluated[userID]++
	e.mu.Unlock()
	if userID == e.panicFor {
		panic("evaluator blew up")
	}
	return domain.CallOutcome{Status: domain.OutcomeLowRisk}
}

func (e *countingEvaluator) total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.evaluated {
		n += c
	}
	return n
}

func (e *countingEvaluator) count(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluated[userID]
}

func newSchedulerFixture(t *testing.T) (*Scheduler, *store.Users, *countingEvaluator, *clockwork.FakeClock) {
	t.Helper()

	users := store.NewUsers()
	users.Create(domain.User{ID: "u-1", Name: "Amina", LGA: "Kano"})
	users.Create(domain.User{ID: "u-2", Name: "Bola", LGA: "Lagos"})
	users.Create(domain.User{ID: "u-3", Name: "Chidi", LGA: "Abuja"})

	evaluator := newCountingEvaluator()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 2, 21, 12, 0, 0, 0, time.UTC))
	sched := NewScheduler(users, evaluator, time.Hour, clock,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting())
	return sched, users, evaluator, clock
}

func awaitTicker(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
}

func TestScheduler_SweepsEveryInterval(t *testing.T) {
	sched, _, evaluator, clock := newSchedulerFixture(t)

	sched.Start()
	defer sched.Stop()
	awaitTicker(t, clock)

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return evaluator.total() == 3 },
		2*time.Second, 5*time.Millisecond)

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return evaluator.total() == 6 },
		2*time.Second, 5*time.Millisecond)
}

func TestScheduler_PicksUpUsersRegisteredBetweenSweeps(t *testing.T) {
	sched, users, evaluator, clock := newSchedulerFixture(t)

	sched.Start()
	defer sched.Stop()
	awaitTicker(t, clock)

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return evaluator.total() == 3 },
		2*time.Second, 5*time.Millisecond)

	users.Create(domain.User{ID: "u-4", Name: "Dayo", LGA: "Benue"})

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return evaluator.count("u-4") == 1 },
		2*time.Second, 5*time.Millisecond)
}

func TestScheduler_PanickingEvaluationDoesNotStopOthers(t *testing.T) {
	sched, _, evaluator, clock := newSchedulerFixture(t)
	evaluator.panicFor = "u-2"

	sched.Start()
	defer sched.Stop()
	awaitTicker(t, clock)

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool {
		return evaluator.count("u-1") == 1 && evaluator.count("u-3") == 1
	}, 2*time.Second, 5*time.Millisecond)

	// The loop survives the panic and keeps sweeping.
	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return evaluator.count("u-1") == 2 },
		2*time.Second, 5*time.Millisecond)
}

func TestScheduler_StopHaltsSweeps(t *testing.T) {
	sched, _, evaluator, clock := newSchedulerFixture(t)

	sched.Start()
	awaitTicker(t, clock)

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return evaluator.total() == 3 },
		2*time.Second, 5*time.Millisecond)

	sched.Stop()
	sched.Stop() // idempotent

	clock.Advance(2 * time.Hour)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, evaluator.total())
}

func TestScheduler_StartTwiceRunsOneLoop(t *testing.T) {
	sched, _, evaluator, clock := newSchedulerFixture(t)

	sched.Start()
	sched.Start()
	defer sched.Stop()
	awaitTicker(t, clock)

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return evaluator.total() == 3 },
		2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, evaluator.total())
}

func TestScheduler_RestartsAfterStop(t *testing.T) {
	sched, _, evaluator, clock := newSchedulerFixture(t)

	sched.Start()
	awaitTicker(t, clock)
	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return evaluator.total() == 3 },
		2*time.Second, 5*time.Millisecond)
	sched.Stop()

	sched.Start()
	defer sched.Stop()
	awaitTicker(t, clock)
	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return evaluator.total() == 6 },
		2*time.Second, 5*time.Millisecond)
}
