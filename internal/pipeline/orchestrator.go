package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/observability"
	"github.com/sabihealth/advisory-service/internal/store"
)

// UserDirectory reads registered users for evaluation.
type UserDirectory interface {
	Get(id string) (domain.User, bool)
	IDs() []string
}

// Deps wires the orchestrator to its stores and upstream adapters.
// Dispatcher may be nil, in which case elevated outcomes are not published.
type Deps struct {
	Users       UserDirectory
	Resolver    domain.CoordinateResolver
	Rainfall    domain.RainfallSource
	Classifier  *domain.Classifier
	Generator   domain.AdvisoryGenerator
	Synthesizer domain.VoiceSynthesizer
	Dispatcher  domain.Dispatcher
	Logs        *store.CallLogs
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	Clock       clockwork.Clock
}

// Orchestrator runs the full risk evaluation sequence for a single user:
// coordinate resolution, rainfall aggregation, risk classification and, for
// elevated risk, advisory generation, voice synthesis and call logging.
type Orchestrator struct {
	users       UserDirectory
	resolver    domain.CoordinateResolver
	rainfall    domain.RainfallSource
	classifier  *domain.Classifier
	generator   domain.AdvisoryGenerator
	synthesizer domain.VoiceSynthesizer
	dispatcher  domain.Dispatcher
	logs        *store.CallLogs
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
}

// NewOrchestrator creates an Orchestrator from deps. A nil Clock defaults to
// the real wall clock.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	return &Orchestrator{
		users:       deps.Users,
		resolver:    deps.Resolver,
		rainfall:    deps.Rainfall,
		classifier:  deps.Classifier,
		generator:   deps.Generator,
		synthesizer: deps.Synthesizer,
		dispatcher:  deps.Dispatcher,
		logs:        deps.Logs,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		clock:       deps.Clock,
	}
}

// EvaluateAndNotify evaluates one user end to end. It never returns an error:
// every failure mode maps to an outcome status, and upstream degradation is
// absorbed by the adapters' fallback behavior.
func (o *Orchestrator) EvaluateAndNotify(ctx context.Context, userID string) domain.CallOutcome {
	user, ok := o.users.Get(userID)
	if !ok {
		o.logger.Warn("evaluation for unknown user", "user_id", userID)
		return o.finish(domain.CallOutcome{Status: domain.OutcomeUserNotFound})
	}

	coord, ok := o.resolver.Resolve(ctx, user.LGA)
	if !ok {
		o.logger.Warn("no coordinates for region, skipping evaluation",
			"user_id", userID, "lga", user.LGA)
		return o.finish(domain.CallOutcome{Status: domain.OutcomeCoordinatesMissing})
	}

	rainfall := o.rainfall.TrailingRainfall(ctx, coord)
	level, factors := o.classifier.Classify(user.LGA, rainfall)

	if level == domain.RiskLow {
		o.logger.Info("risk low, no advisory",
			"user_id", userID, "lga", user.LGA, "rainfall_mm", rainfall)
		return o.finish(domain.CallOutcome{
			Status:     domain.OutcomeLowRisk,
			RiskLevel:  domain.RiskLow,
			RainfallMm: rainfall,
		})
	}

	script := o.generator.Generate(ctx, user.Name, user.LGA, factors)
	audioURL := o.synthesizer.Synthesize(ctx, script)

	call := domain.CallLog{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Timestamp: o.clock.Now().UTC(),
		RiskLevel: level,
		Script:    script,
	}
	o.logs.Append(call)
	o.metrics.CallLogsAppended.Inc()

	o.logger.Info("advisory call initiated",
		"user_id", userID,
		"lga", user.LGA,
		"rainfall_mm", rainfall,
		"factors", len(factors),
		"call_id", call.ID,
	)

	o.publish(ctx, user, call, factors, audioURL)

	return o.finish(domain.CallOutcome{
		Status:     domain.OutcomeElevated,
		RiskLevel:  level,
		RainfallMm: rainfall,
		Factors:    factors,
		Script:     script,
		AudioURL:   audioURL,
		CallID:     call.ID,
	})
}

// RecordResponse attaches the user's spoken reply to an existing call log.
// Returns store.ErrNotFound when the call id is unknown.
func (o *Orchestrator) RecordResponse(callID, response string) error {
	return o.logs.SetResponse(callID, response)
}

// Log returns the call log with the given id.
func (o *Orchestrator) Log(callID string) (domain.CallLog, bool) {
	return o.logs.Get(callID)
}

// Logs returns a snapshot of all call logs in append order.
func (o *Orchestrator) Logs() []domain.CallLog {
	return o.logs.List()
}

// publish hands an elevated outcome to the dispatcher. Publish failures are
// logged and do not affect the evaluation result.
func (o *Orchestrator) publish(ctx context.Context, user domain.User, call domain.CallLog, factors []domain.RiskFactor, audioURL string) {
	if o.dispatcher == nil {
		return
	}
	dispatch := domain.AdvisoryDispatch{
		CallID:     call.ID,
		UserID:     user.ID,
		Phone:      user.Phone,
		LGA:        user.LGA,
		RiskLevel:  call.RiskLevel,
		Factors:    factors,
		Script:     call.Script,
		AudioURL:   audioURL,
		DispatchAt: call.Timestamp,
	}
	if err := o.dispatcher.Dispatch(ctx, dispatch); err != nil {
		o.logger.Error("dispatch publish failed", "error", err, "call_id", call.ID)
	}
}

func (o *Orchestrator) finish(outcome domain.CallOutcome) domain.CallOutcome {
	o.metrics.EvaluationsTotal.WithLabelValues(string(outcome.Status)).Inc()
	return outcome
}
