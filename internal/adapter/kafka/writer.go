// Package kafka publishes advisory dispatch events for the downstream
// telephony dialer.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/sabihealth/advisory-service/internal/config"
	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/observability"
)

// Writer produces dispatch events to the delivery topic.
// It implements domain.Dispatcher.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured dispatch topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaDispatchTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Dispatch serializes and publishes one advisory to the delivery topic.
func (w *Writer) Dispatch(ctx context.Context, d domain.AdvisoryDispatch) error {
	msg, err := serializeToMessage(d)
	if err != nil {
		w.metrics.DispatchErrors.Inc()
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.metrics.DispatchErrors.Inc()
		return fmt.Errorf("publish dispatch: %w", err)
	}
	w.metrics.DispatchPublished.Inc()
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an AdvisoryDispatch into a Kafka message keyed
// by call id so replays of the same call land in one partition.
func serializeToMessage(d domain.AdvisoryDispatch) (kafkago.Message, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dispatch: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(d.CallID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(d.RiskLevel)},
			{Key: "dispatch_at", Value: []byte(d.DispatchAt.Format(time.RFC3339))},
		},
	}, nil
}
