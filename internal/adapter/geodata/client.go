// Package geodata resolves LGA names to coordinates using the remote
// nigeria-geojson dataset, an in-process cache, and an embedded static
// fallback table.
package geodata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sabihealth/advisory-service/internal/domain"
)

// Client fetches the bulk LGA dataset and scans it for a region match.
type Client struct {
	datasetURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a remote dataset client.
func NewClient(datasetURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		datasetURL: datasetURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Lookup fetches the dataset and returns the coordinates for a region,
// preferring the first ward's coordinates and falling back to LGA-level
// ones. found is false when the dataset has no matching LGA.
func (c *Client) Lookup(ctx context.Context, region string) (domain.Coordinate, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.datasetURL, nil)
	if err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("fetch LGA dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Coordinate{}, false, fmt.Errorf("LGA dataset error: status %d: %s", resp.StatusCode, body)
	}

	var states []state
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		return domain.Coordinate{}, false, fmt.Errorf("decode LGA dataset: %w", err)
	}

	key := domain.NormalizeRegion(region)
	for _, st := range states {
		for _, lga := range st.LGAs {
			if domain.NormalizeRegion(lga.Name) != key {
				continue
			}
			if coord, ok := lgaCoordinate(lga); ok {
				return coord, true, nil
			}
		}
	}
	return domain.Coordinate{}, false, nil
}

// lgaCoordinate picks the first ward's coordinates as the LGA approximation,
// then the LGA-level pair if no ward carries one.
func lgaCoordinate(l lga) (domain.Coordinate, bool) {
	if len(l.Wards) > 0 {
		w := l.Wards[0]
		if w.Latitude != nil && w.Longitude != nil {
			return domain.Coordinate{Lat: *w.Latitude, Lon: *w.Longitude}, true
		}
	}
	if l.Latitude != nil && l.Longitude != nil {
		return domain.Coordinate{Lat: *l.Latitude, Lon: *l.Longitude}, true
	}
	return domain.Coordinate{}, false
}

// nigeria-geojson dataset types: states → LGAs → wards.

type state struct {
	State string `json:"state"`
	LGAs  []lga  `json:"lgas"`
}

type lga struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Wards     []ward   `json:"wards"`
}

type ward struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}
