package geodata

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/sabihealth/advisory-service/internal/domain"
)

// fallbackJSON is the local static table of title-cased LGA names to
// [lat, lon] pairs, used when both the cache and the remote dataset miss.
//
//go:embed fallback_coords.json
var fallbackJSON []byte

// StaticTable is the immutable last-resort coordinate source.
type StaticTable struct {
	coords map[string]domain.Coordinate
}

// LoadStaticTable parses the embedded fallback table. Keys are normalized at
// load so lookups share the resolver's region key.
func LoadStaticTable() (*StaticTable, error) {
	var raw map[string][2]float64
	if err := json.Unmarshal(fallbackJSON, &raw); err != nil {
		return nil, fmt.Errorf("parse fallback coordinates: %w", err)
	}

	coords := make(map[string]domain.Coordinate, len(raw))
	for name, pair := range raw {
		coords[domain.NormalizeRegion(name)] = domain.Coordinate{Lat: pair[0], Lon: pair[1]}
	}
	return &StaticTable{coords: coords}, nil
}

// Lookup returns the static coordinates for a region.
func (t *StaticTable) Lookup(region string) (domain.Coordinate, bool) {
	c, ok := t.coords[domain.NormalizeRegion(region)]
	return c, ok
}
