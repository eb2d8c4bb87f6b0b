package domain

import "context"

// CoordinateResolver maps a region name to coordinates. Implementations are
// total: remote failures degrade through their fallback tiers and only an
// exhausted chain reports false.
type CoordinateResolver interface {
	Resolve(ctx context.Context, region string) (Coordinate, bool)
}

// RainfallSource reports the trailing 24-hour rainfall total in millimetres
// for a coordinate. Implementations return 0 rather than an error when the
// upstream is unreachable or the payload is malformed.
type RainfallSource interface {
	TrailingRainfall(ctx context.Context, c Coordinate) float64
}

// AdvisoryGenerator produces a non-empty advisory script for a user. A
// failing or unconfigured backend yields the templated fallback, never an
// error.
type AdvisoryGenerator interface {
	Generate(ctx context.Context, userName, lga string, factors []RiskFactor) string
}

// VoiceSynthesizer turns a script into an audio artifact URL. A failing or
// unconfigured backend yields a well-known placeholder URL.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, script string) string
}

// Dispatcher hands a logged advisory to the delivery transport.
type Dispatcher interface {
	Dispatch(ctx context.Context, d AdvisoryDispatch) error
}
