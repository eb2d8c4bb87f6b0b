package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabihealth/advisory-service/internal/adapter/gemini"
	"github.com/sabihealth/advisory-service/internal/adapter/yarngpt"
	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/observability"
	"github.com/sabihealth/advisory-service/internal/store"
)

type fakeResolver struct {
	coords map[string]domain.Coordinate
	calls  atomic.Int64
}

func (f *fakeResolver) Resolve(_ context.Context, region string) (domain.Coordinate, bool) {
	f.calls.Add(1)
	c, ok := f.coords[domain.NormalizeRegion(region)]
	return c, ok
}

type fakeRainfall struct {
	mm    map[domain.Coordinate]float64
	calls atomic.Int64
}

func (f *fakeRainfall) TrailingRainfall(_ context.Context, c domain.Coordinate) float64 {
	f.calls.Add(1)
	return f.mm[c]
}

// templateGenerator produces the deterministic degraded-mode script, which is
// exactly what the real generator emits without credentials.
type templateGenerator struct {
	calls atomic.Int64
}

func (g *templateGenerator) Generate(_ context.Context, userName, lga string, factors []domain.RiskFactor) string {
	g.calls.Add(1)
	return gemini.FallbackScript(userName, lga, factors)
}

type fakeSynthesizer struct {
	calls atomic.Int64
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _ string) string {
	f.calls.Add(1)
	return yarngpt.PlaceholderAudioURL
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []domain.AdvisoryDispatch
	err    error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, d domain.AdvisoryDispatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, d)
	return f.err
}

func (f *fakeDispatcher) dispatched() []domain.AdvisoryDispatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AdvisoryDispatch, len(f.events))
	copy(out, f.events)
	return out
}

type orchestratorFixture struct {
	users      *store.Users
	logs       *store.CallLogs
	resolver   *fakeResolver
	rainfall   *fakeRainfall
	generator  *templateGenerator
	synth      *fakeSynthesizer
	dispatcher *fakeDispatcher
	clock      *clockwork.FakeClock
}

var (
	kanoCoord  = domain.Coordinate{Lat: 12.0022, Lon: 8.5920}
	lagosCoord = domain.Coordinate{Lat: 6.4520, Lon: 3.4001}
	abujaCoord = domain.Coordinate{Lat: 9.0643, Lon: 7.4892}
)

func newOrchestratorFixture(t *testing.T) (*Orchestrator, *orchestratorFixture) {
	t.Helper()

	f := &orchestratorFixture{
		users: store.NewUsers(),
		logs:  store.NewCallLogs(),
		resolver: &fakeResolver{coords: map[string]domain.Coordinate{
			"kano":  kanoCoord,
			"lagos": lagosCoord,
			"abuja": abujaCoord,
		}},
		rainfall: &fakeRainfall{mm: map[domain.Coordinate]float64{
			lagosCoord: 50.0,
		}},
		generator:  &templateGenerator{},
		synth:      &fakeSynthesizer{},
		dispatcher: &fakeDispatcher{},
		clock:      clockwork.NewFakeClockAt(time.Date(2025, 2, 21, 12, 0, 0, 0, time.UTC)),
	}

	f.users.Create(domain.User{ID: "u-amina", Name: "Amina", LGA: "Kano", Phone: "+2348031112222"})
	f.users.Create(domain.User{ID: "u-bola", Name: "Bola", LGA: "Lagos", Phone: "+2348033334444"})
	f.users.Create(domain.User{ID: "u-chidi", Name: "Chidi", LGA: "Abuja", Phone: "+2348035556666"})
	f.users.Create(domain.User{ID: "u-dayo", Name: "Dayo", LGA: "Atlantis", Phone: "+2348037778888"})

	orch := NewOrchestrator(Deps{
		Users:       f.users,
		Resolver:    f.resolver,
		Rainfall:    f.rainfall,
		Classifier:  domain.NewClassifier(domain.DefaultRainfallThresholdMm),
		Generator:   f.generator,
		Synthesizer: f.synth,
		Dispatcher:  f.dispatcher,
		Logs:        f.logs,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:     observability.NewMetricsForTesting(),
		Clock:       f.clock,
	})
	return orch, f
}

func TestEvaluateAndNotify_UnknownUser(t *testing.T) {
	orch, f := newOrchestratorFixture(t)

	outcome := orch.EvaluateAndNotify(context.Background(), "no-such-user")

	assert.Equal(t, domain.OutcomeUserNotFound, outcome.Status)
	assert.Equal(t, int64(0), f.resolver.calls.Load())
	assert.Equal(t, 0, f.logs.Len())
}

func TestEvaluateAndNotify_HotspotElevated(t *testing.T) {
	orch, f := newOrchestratorFixture(t)

	outcome := orch.EvaluateAndNotify(context.Background(), "u-amina")

	require.Equal(t, domain.OutcomeElevated, outcome.Status)
	assert.Equal(t, domain.RiskHigh, outcome.RiskLevel)
	assert.Equal(t, []domain.RiskFactor{domain.FactorLassaFever}, outcome.Factors)
	assert.Equal(t, 0.0, outcome.RainfallMm)

	assert.Contains(t, outcome.Script, "Amina")
	assert.Contains(t, outcome.Script, "Kano")
	assert.Contains(t, outcome.Script, "Lassa fever")
	assert.Contains(t, outcome.Script, "cover your food")
	assert.Equal(t, yarngpt.PlaceholderAudioURL, outcome.AudioURL)

	require.Equal(t, 1, f.logs.Len())
	call, ok := f.logs.Get(outcome.CallID)
	require.True(t, ok)
	assert.Equal(t, "u-amina", call.UserID)
	assert.Equal(t, domain.RiskHigh, call.RiskLevel)
	assert.Equal(t, outcome.Script, call.Script)
	assert.Equal(t, f.clock.Now().UTC(), call.Timestamp)
	assert.Nil(t, call.Response)

	events := f.dispatcher.dispatched()
	require.Len(t, events, 1)
	assert.Equal(t, outcome.CallID, events[0].CallID)
	assert.Equal(t, "+2348031112222", events[0].Phone)
	assert.Equal(t, outcome.Script, events[0].Script)
}

func TestEvaluateAndNotify_HeavyRainElevated(t *testing.T) {
	orch, f := newOrchestratorFixture(t)

	outcome := orch.EvaluateAndNotify(context.Background(), "u-bola")

	require.Equal(t, domain.OutcomeElevated, outcome.Status)
	assert.Equal(t, 50.0, outcome.RainfallMm)
	assert.Equal(t, []domain.RiskFactor{domain.FactorHeavyRain}, outcome.Factors)
	assert.Contains(t, outcome.Script, "mosquito net")
	assert.Equal(t, 1, f.logs.Len())
}

func TestEvaluateAndNotify_LowRisk(t *testing.T) {
	orch, f := newOrchestratorFixture(t)

	outcome := orch.EvaluateAndNotify(context.Background(), "u-chidi")

	assert.Equal(t, domain.OutcomeLowRisk, outcome.Status)
	assert.Equal(t, domain.RiskLow, outcome.RiskLevel)
	assert.Empty(t, outcome.Factors)
	assert.Empty(t, outcome.Script)
	assert.Empty(t, outcome.AudioURL)

	assert.Equal(t, 0, f.logs.Len())
	assert.Equal(t, int64(0), f.generator.calls.Load())
	assert.Equal(t, int64(0), f.synth.calls.Load())
	assert.Empty(t, f.dispatcher.dispatched())
}

func TestEvaluateAndNotify_CoordinatesMissing(t *testing.T) {
	orch, f := newOrchestratorFixture(t)

	outcome := orch.EvaluateAndNotify(context.Background(), "u-dayo")

	assert.Equal(t, domain.OutcomeCoordinatesMissing, outcome.Status)
	assert.Equal(t, int64(0), f.rainfall.calls.Load(), "weather must not be fetched without coordinates")
	assert.Equal(t, 0, f.logs.Len())
}

func TestEvaluateAndNotify_RepeatedElevationsAppendSeparateLogs(t *testing.T) {
	orch, f := newOrchestratorFixture(t)

	first := orch.EvaluateAndNotify(context.Background(), "u-amina")
	second := orch.EvaluateAndNotify(context.Background(), "u-amina")

	assert.Equal(t, 2, f.logs.Len())
	assert.NotEqual(t, first.CallID, second.CallID)
}

func TestEvaluateAndNotify_DispatchFailureDoesNotChangeOutcome(t *testing.T) {
	orch, f := newOrchestratorFixture(t)
	f.dispatcher.err = errors.New("broker unreachable")

	outcome := orch.EvaluateAndNotify(context.Background(), "u-amina")

	assert.Equal(t, domain.OutcomeElevated, outcome.Status)
	assert.Equal(t, 1, f.logs.Len())
}

func TestEvaluateAndNotify_NilDispatcher(t *testing.T) {
	orch, f := newOrchestratorFixture(t)
	orch.dispatcher = nil

	outcome := orch.EvaluateAndNotify(context.Background(), "u-amina")

	assert.Equal(t, domain.OutcomeElevated, outcome.Status)
	assert.Equal(t, 1, f.logs.Len())
}

func TestRecordResponse(t *testing.T) {
	orch, _ := newOrchestratorFixture(t)

	err := orch.RecordResponse("no-such-call", "I dey fine")
	assert.ErrorIs(t, err, store.ErrNotFound)

	outcome := orch.EvaluateAndNotify(context.Background(), "u-amina")
	require.NoError(t, orch.RecordResponse(outcome.CallID, "I dey fine"))

	call, ok := orch.Log(outcome.CallID)
	require.True(t, ok)
	require.NotNil(t, call.Response)
	assert.Equal(t, "I dey fine", *call.Response)
}

func TestEvaluateAndNotify_Concurrent(t *testing.T) {
	orch, f := newOrchestratorFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			orch.EvaluateAndNotify(context.Background(), "u-amina")
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, f.logs.Len())

	seen := make(map[string]bool)
	for _, call := range f.logs.List() {
		assert.False(t, seen[call.ID], "call ids must be unique")
		seen[call.ID] = true
	}
}
