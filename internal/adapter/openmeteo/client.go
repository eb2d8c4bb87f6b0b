// Package openmeteo fetches hourly precipitation from the Open-Meteo
// forecast API and reduces it to a trailing 24-hour total.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/observability"
)

// hourlyLayout is Open-Meteo's naive timestamp format. With timezone=UTC
// forced on every request, these parse directly as UTC wall times.
const hourlyLayout = "2006-01-02T15:04"

// Client implements domain.RainfallSource against Open-Meteo.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
}

// NewClient creates an Open-Meteo client using the real clock.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
}

// TrailingRainfall returns the rainfall total in millimetres over the 24
// hours before now, inclusive at the lower bound. It is a total function:
// transport errors, malformed payloads and empty series all yield 0 so that
// rainfall absence never aborts an evaluation.
func (c *Client) TrailingRainfall(ctx context.Context, coord domain.Coordinate) float64 {
	params := url.Values{
		"latitude":  {strconv.FormatFloat(coord.Lat, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(coord.Lon, 'f', -1, 64)},
		"hourly":    {"precipitation"},
		"past_days": {"1"},
		"timezone":  {"UTC"},
	}

	series, err := c.fetchHourly(ctx, params)
	if err != nil {
		c.logger.Warn("rainfall fetch failed, treating as dry",
			"lat", coord.Lat,
			"lon", coord.Lon,
			"error", err,
		)
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return 0
	}

	if len(series.Time) == 0 || len(series.Precipitation) == 0 {
		c.metrics.WeatherRequests.WithLabelValues("empty").Inc()
		return 0
	}
	c.metrics.WeatherRequests.WithLabelValues("success").Inc()

	cutoff := c.clock.Now().UTC().Add(-24 * time.Hour)
	return sumSince(series, cutoff)
}

func (c *Client) fetchHourly(ctx context.Context, params url.Values) (hourly, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return hourly{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return hourly{}, fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return hourly{}, fmt.Errorf("open-meteo error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return hourly{}, fmt.Errorf("decode response: %w", err)
	}
	return payload.Hourly, nil
}

// sumSince adds every sample at or after the cutoff. Samples with malformed
// timestamps are skipped rather than failing the whole series.
func sumSince(series hourly, cutoff time.Time) float64 {
	n := len(series.Time)
	if len(series.Precipitation) < n {
		n = len(series.Precipitation)
	}

	var total float64
	for i := 0; i < n; i++ {
		t, err := parseHourly(series.Time[i])
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			total += series.Precipitation[i]
		}
	}
	return total
}

// parseHourly accepts both the naive hourly layout and full RFC 3339, which
// some Open-Meteo mirrors emit.
func parseHourly(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(hourlyLayout, s, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Open-Meteo response types.

type response struct {
	Hourly hourly `json:"hourly"`
}

type hourly struct {
	Time          []string  `json:"time"`
	Precipitation []float64 `json:"precipitation"`
}
