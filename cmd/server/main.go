package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sabihealth/advisory-service/internal/adapter/gemini"
	"github.com/sabihealth/advisory-service/internal/adapter/geodata"
	httpadapter "github.com/sabihealth/advisory-service/internal/adapter/http"
	kafkaadapter "github.com/sabihealth/advisory-service/internal/adapter/kafka"
	"github.com/sabihealth/advisory-service/internal/adapter/openmeteo"
	"github.com/sabihealth/advisory-service/internal/adapter/yarngpt"
	"github.com/sabihealth/advisory-service/internal/config"
	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/observability"
	"github.com/sabihealth/advisory-service/internal/pipeline"
	"github.com/sabihealth/advisory-service/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	static, err := geodata.LoadStaticTable()
	if err != nil {
		logger.Error("failed to load fallback coordinates", "error", err)
		os.Exit(1)
	}
	remote := geodata.NewClient(cfg.GeoDatasetURL, cfg.GeoTimeout, logger)
	resolver := geodata.NewResolver(remote, static, logger, metrics)

	rainfall := openmeteo.NewClient(cfg.WeatherURL, cfg.WeatherTimeout, logger, metrics)
	generator := gemini.NewGenerator(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout, logger, metrics)
	synthesizer := yarngpt.NewSynthesizer(cfg, logger, metrics)

	users := store.NewUsers()
	logs := store.NewCallLogs()

	// Dispatch publishing is feature-flagged via KAFKA_BROKERS.
	var dispatcher domain.Dispatcher
	var writer *kafkaadapter.Writer
	if cfg.DispatchEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		dispatcher = writer
		logger.Info("dispatch publishing enabled", "topic", cfg.KafkaDispatchTopic)
	} else {
		logger.Info("dispatch publishing disabled")
	}

	orch := pipeline.NewOrchestrator(pipeline.Deps{
		Users:       users,
		Resolver:    resolver,
		Rainfall:    rainfall,
		Classifier:  domain.NewClassifier(cfg.RainfallThresholdMm),
		Generator:   generator,
		Synthesizer: synthesizer,
		Dispatcher:  dispatcher,
		Logs:        logs,
		Logger:      logger,
		Metrics:     metrics,
	})

	scheduler := pipeline.NewScheduler(users, orch, cfg.SweepInterval, nil, logger, metrics)
	scheduler.Start()

	srv := httpadapter.New(cfg, httpadapter.Deps{
		Users:        users,
		Orchestrator: orch,
		Resolver:     resolver,
		Rainfall:     rainfall,
		Classifier:   domain.NewClassifier(cfg.RainfallThresholdMm),
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("advisory service starting", "addr", cfg.HTTPAddr, "sweep_interval", cfg.SweepInterval)

	if err := srv.Run(ctx); err != nil {
		logger.Error("http server error", "error", err)
	}

	logger.Info("shutting down")
	scheduler.Stop()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	logger.Info("shutdown complete")
}
