package geodata

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sabihealth/advisory-service/internal/domain"
	"github.com/sabihealth/advisory-service/internal/observability"
)

// Resolver implements domain.CoordinateResolver with three ordered tiers:
// process-local cache, remote dataset, embedded static table. Remote
// failures are logged and degrade to the next tier, never surfaced.
type Resolver struct {
	remote  *Client
	static  *StaticTable
	logger  *slog.Logger
	metrics *observability.Metrics

	mu sync.RWMutex
	// cache entries are never evicted within the process lifetime. Growth
	// is unbounded but keyed by the finite set of known LGAs; staleness is
	// the accepted price of not re-fetching the bulk dataset per call.
	cache map[string]domain.Coordinate
}

// NewResolver creates the tiered resolver.
func NewResolver(remote *Client, static *StaticTable, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		remote:  remote,
		static:  static,
		logger:  logger,
		metrics: metrics,
		cache:   make(map[string]domain.Coordinate),
	}
}

// Resolve maps a region name to coordinates. ok is false only when all
// three tiers miss.
func (r *Resolver) Resolve(ctx context.Context, region string) (domain.Coordinate, bool) {
	key := domain.NormalizeRegion(region)
	if key == "" {
		r.metrics.ResolveTier.WithLabelValues("miss").Inc()
		return domain.Coordinate{}, false
	}

	r.mu.RLock()
	coord, hit := r.cache[key]
	r.mu.RUnlock()
	if hit {
		r.metrics.ResolveTier.WithLabelValues("cache").Inc()
		return coord, true
	}

	coord, found, err := r.remote.Lookup(ctx, key)
	if err != nil {
		r.logger.Warn("remote LGA lookup failed, falling back to static table",
			"region", key,
			"error", err,
		)
	} else if found {
		r.mu.Lock()
		r.cache[key] = coord
		r.mu.Unlock()
		r.metrics.ResolveTier.WithLabelValues("remote").Inc()
		return coord, true
	}

	if coord, ok := r.static.Lookup(key); ok {
		r.metrics.ResolveTier.WithLabelValues("static").Inc()
		return coord, true
	}

	r.metrics.ResolveTier.WithLabelValues("miss").Inc()
	return domain.Coordinate{}, false
}
