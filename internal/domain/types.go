package domain

import (
	"strings"
	"time"
)

// Coordinate is a WGS-84 latitude/longitude pair for an LGA. Once resolved
// for a region it is treated as immutable for the process lifetime.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// User is a registered advisory recipient. The pipeline only ever reads it.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	LGA   string `json:"lga"`
	Phone string `json:"phone"`
}

// RiskLevel is the discrete outcome of classification. LOW is the safe
// default; HIGH requires at least one contributing factor.
type RiskLevel string

const (
	RiskLow  RiskLevel = "LOW"
	RiskHigh RiskLevel = "HIGH"
)

// RiskFactor labels one contributing cause of elevated risk.
type RiskFactor string

const (
	FactorLassaFever RiskFactor = "Lassa fever"
	FactorCholera    RiskFactor = "cholera"
	FactorMalaria    RiskFactor = "malaria"
	FactorHeavyRain  RiskFactor = "heavy rain"
)

// CallLog records one completed elevated-risk evaluation. Append-only except
// for Response, which is set at most once by an out-of-band acknowledgment.
type CallLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	RiskLevel RiskLevel `json:"risk_level"`
	Script    string    `json:"script"`
	Response  *string   `json:"response"`
}

// OutcomeStatus discriminates the terminal states of one evaluation.
type OutcomeStatus string

const (
	OutcomeUserNotFound       OutcomeStatus = "user_not_found"
	OutcomeCoordinatesMissing OutcomeStatus = "coordinates_missing"
	OutcomeLowRisk            OutcomeStatus = "low_risk"
	OutcomeElevated           OutcomeStatus = "call_initiated"
)

// CallOutcome is the result of one end-to-end evaluation for a single user.
// Script, AudioURL and CallID are populated only for OutcomeElevated.
type CallOutcome struct {
	Status     OutcomeStatus `json:"status"`
	RiskLevel  RiskLevel     `json:"risk,omitempty"`
	RainfallMm float64       `json:"rainfall_mm"`
	Factors    []RiskFactor  `json:"factors,omitempty"`
	Script     string        `json:"script,omitempty"`
	AudioURL   string        `json:"audio_url,omitempty"`
	CallID     string        `json:"call_id,omitempty"`
}

// AdvisoryDispatch is the event published for the downstream dialer after an
// elevated evaluation has been logged.
type AdvisoryDispatch struct {
	CallID     string       `json:"call_id"`
	UserID     string       `json:"user_id"`
	Phone      string       `json:"phone"`
	LGA        string       `json:"lga"`
	RiskLevel  RiskLevel    `json:"risk_level"`
	Factors    []RiskFactor `json:"factors"`
	Script     string       `json:"script"`
	AudioURL   string       `json:"audio_url"`
	DispatchAt time.Time    `json:"dispatch_at"`
}

// NormalizeRegion produces the case- and whitespace-insensitive key used to
// join coordinates, hotspot data and user records.
func NormalizeRegion(region string) string {
	return strings.ToLower(strings.TrimSpace(region))
}
