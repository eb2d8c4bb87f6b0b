package config

import (
	"errors"
	"os"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	PublicBaseURL   string
	AudioDir        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	SweepInterval time.Duration

	// Coordinate resolution.
	GeoDatasetURL string
	GeoTimeout    time.Duration

	// Weather aggregation.
	WeatherURL          string
	WeatherTimeout      time.Duration
	RainfallThresholdMm float64

	// Gemini advisory generation.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration

	// YarnGPT voice synthesis.
	YarnGPTURL          string
	YarnGPTAPIKey       string
	YarnGPTVoice        string
	SynthesisTimeout    time.Duration
	SynthesisRetryDelay time.Duration

	// Dispatch transport (enabled when KAFKA_BROKERS is set).
	KafkaBrokers       []string
	KafkaDispatchTopic string
	DispatchEnabled    bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	sweepInterval, err := durationEnv("SWEEP_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	geoTimeout, err := durationEnv("GEO_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := durationEnv("WEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geminiTimeout, err := durationEnv("GEMINI_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	synthesisTimeout, err := durationEnv("SYNTHESIS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	synthesisRetryDelay, err := durationEnv("SYNTHESIS_RETRY_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	rainfallThreshold, err := floatEnv("RAINFALL_THRESHOLD_MM", 20.0)
	if err != nil {
		return nil, err
	}

	// The original deployment read GOOGLE_API_KEY; GEMINI_API_KEY wins when
	// both are set.
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		geminiKey = os.Getenv("GOOGLE_API_KEY")
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		PublicBaseURL:   envOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		AudioDir:        envOrDefault("AUDIO_DIR", "audio"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SweepInterval: sweepInterval,

		GeoDatasetURL: envOrDefault("GEO_DATASET_URL", "https://temikeezy.github.io/nigeria-geojson-data/data/full.json"),
		GeoTimeout:    geoTimeout,

		WeatherURL:          envOrDefault("WEATHER_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherTimeout:      weatherTimeout,
		RainfallThresholdMm: rainfallThreshold,

		GeminiAPIKey:  geminiKey,
		GeminiModel:   envOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiTimeout: geminiTimeout,

		YarnGPTURL:          envOrDefault("YARNGPT_URL", "https://yarngpt.ai/api/v1/tts"),
		YarnGPTAPIKey:       os.Getenv("YARNGPT_API_KEY"),
		YarnGPTVoice:        envOrDefault("YARNGPT_VOICE", "Idera"),
		SynthesisTimeout:    synthesisTimeout,
		SynthesisRetryDelay: synthesisRetryDelay,

		KafkaBrokers:       brokers,
		KafkaDispatchTopic: envOrDefault("KAFKA_DISPATCH_TOPIC", "advisory-dispatch"),
		DispatchEnabled:    len(brokers) > 0,
	}

	if cfg.GeoDatasetURL == "" {
		return nil, errors.New("GEO_DATASET_URL is required")
	}
	if cfg.WeatherURL == "" {
		return nil, errors.New("WEATHER_URL is required")
	}
	if cfg.DispatchEnabled && cfg.KafkaDispatchTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_DISPATCH_TOPIC is empty")
	}

	return cfg, nil
}
