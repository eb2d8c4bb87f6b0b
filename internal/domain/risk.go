package domain

// DefaultRainfallThresholdMm is the trailing-24h rainfall total at or above
// which the heavy-rain factor applies.
const DefaultRainfallThresholdMm = 20.0

// Classifier derives a risk level from the hotspot registry and a rainfall
// total. Pure and synchronous: identical inputs always produce identical
// output.
type Classifier struct {
	thresholdMm float64
}

// NewClassifier creates a Classifier with the given rainfall threshold.
// Non-positive thresholds fall back to the default.
func NewClassifier(thresholdMm float64) *Classifier {
	if thresholdMm <= 0 {
		thresholdMm = DefaultRainfallThresholdMm
	}
	return &Classifier{thresholdMm: thresholdMm}
}

// Classify evaluates both rules, never short-circuiting, so disease and
// rainfall factors can co-occur. The level is HIGH iff any factor applies.
func (c *Classifier) Classify(region string, rainfallMm float64) (RiskLevel, []RiskFactor) {
	var factors []RiskFactor

	factors = append(factors, HotspotFactors(region)...)

	if rainfallMm >= c.thresholdMm {
		factors = append(factors, FactorHeavyRain)
	}

	if len(factors) == 0 {
		return RiskLow, nil
	}
	return RiskHigh, factors
}
