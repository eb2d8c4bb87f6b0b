// Package yarngpt synthesizes advisory scripts into audio via the YarnGPT
// TTS API, with a bounded retry budget and a placeholder artifact for
// degraded mode.
package yarngpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sabihealth/advisory-service/internal/config"
	"github.com/sabihealth/advisory-service/internal/observability"
)

// PlaceholderAudioURL is returned whenever synthesis is unconfigured or the
// backend stays down through the whole retry budget.
const PlaceholderAudioURL = "https://example.com/audio.mp3"

// maxAttempts bounds retries. No distinction is made between retryable and
// permanent failures; everything is retried up to the budget, then degraded.
const maxAttempts = 3

// Synthesizer implements domain.VoiceSynthesizer against YarnGPT.
type Synthesizer struct {
	apiKey        string
	voice         string
	baseURL       string
	publicBaseURL string
	audioDir      string
	retryDelay    time.Duration
	httpClient    *http.Client
	logger        *slog.Logger
	metrics       *observability.Metrics
	clock         clockwork.Clock
}

// NewSynthesizer creates a YarnGPT synthesizer from config.
func NewSynthesizer(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Synthesizer {
	return &Synthesizer{
		apiKey:        cfg.YarnGPTAPIKey,
		voice:         cfg.YarnGPTVoice,
		baseURL:       cfg.YarnGPTURL,
		publicBaseURL: cfg.PublicBaseURL,
		audioDir:      cfg.AudioDir,
		retryDelay:    cfg.SynthesisRetryDelay,
		httpClient: &http.Client{
			Timeout: cfg.SynthesisTimeout,
		},
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
}

// Synthesize turns a script into an audio artifact URL. Without a credential
// it returns the placeholder immediately; otherwise it tries the backend up
// to three times with a fixed delay between attempts and degrades to the
// placeholder after the last failure.
func (s *Synthesizer) Synthesize(ctx context.Context, script string) string {
	if s.apiKey == "" {
		s.logger.Debug("YARNGPT_API_KEY not set, using placeholder audio URL")
		s.metrics.SynthesisFallback.Inc()
		return PlaceholderAudioURL
	}

	var audio []byte
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		s.metrics.SynthesisAttempts.Inc()

		data, err := s.request(ctx, script)
		if err == nil {
			audio = data
			break
		}

		s.logger.Warn("yarngpt synthesis attempt failed",
			"attempt", attempt,
			"error", err,
		)
		if attempt == maxAttempts {
			s.logger.Warn("yarngpt failed after all retries, returning placeholder")
			s.metrics.SynthesisFallback.Inc()
			return PlaceholderAudioURL
		}
		if !s.sleep(ctx) {
			s.metrics.SynthesisFallback.Inc()
			return PlaceholderAudioURL
		}
	}

	url, err := s.store(audio)
	if err != nil {
		s.logger.Error("storing synthesized audio failed", "error", err)
		s.metrics.SynthesisFallback.Inc()
		return PlaceholderAudioURL
	}
	return url
}

func (s *Synthesizer) request(ctx context.Context, script string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{
		"text":            script,
		"voice":           s.voice,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yarngpt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("yarngpt API error: status %d: %s", resp.StatusCode, b)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio payload: %w", err)
	}
	return audio, nil
}

// store persists the audio under a random filename and returns the public
// URL the telephony layer will fetch it from.
func (s *Synthesizer) store(audio []byte) (string, error) {
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	filename := uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(s.audioDir, filename), audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}

	return strings.TrimRight(s.publicBaseURL, "/") + "/audio/" + filename, nil
}

func (s *Synthesizer) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(s.retryDelay):
		return true
	}
}
