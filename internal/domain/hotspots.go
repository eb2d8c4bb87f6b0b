package domain

// hotspotRegistry maps normalized LGA names to the disease factors they are
// known hotspots for. Static configuration: loaded once, never mutated.
var hotspotRegistry = map[string][]RiskFactor{
	"kano":      {FactorLassaFever},
	"benue":     {FactorLassaFever},
	"maiduguri": {FactorCholera},
	"sokoto":    {FactorMalaria},
}

// HotspotFactors returns the disease factors registered for a region, or nil
// when the region is not a known hotspot.
func HotspotFactors(region string) []RiskFactor {
	return hotspotRegistry[NormalizeRegion(region)]
}

// IsHotspot reports whether a region appears in the hotspot registry.
func IsHotspot(region string) bool {
	_, ok := hotspotRegistry[NormalizeRegion(region)]
	return ok
}
