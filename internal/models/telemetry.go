package models

import "time"

// SensorConfig identifies one simulated sensor and its expected operating band.
type SensorConfig struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Nominal float64 `json:"nominal" yaml:"nominal"`
	Tol     float64 `json:"tol" yaml:"tol"`
}

// Sample is one emitted reading on the simulation clock. Elapsed is seconds
// since the sampling loop started.
type Sample struct {
	Elapsed float64 `json:"elapsed"`
	Value   float64 `json:"value"`
}

// FaultMode enumerates the injectable perturbations.
type FaultMode string

const (
	FaultNone       FaultMode = "none"
	FaultSpike      FaultMode = "spike"
	FaultNoisy      FaultMode = "noisy"
	FaultDrift      FaultMode = "drift"
	FaultStuck      FaultMode = "stuck"
	FaultOutOfRange FaultMode = "out_of_range"
)

// ValidFaultMode reports whether mode names a known injection.
func ValidFaultMode(mode FaultMode) bool {
	switch mode {
	case FaultNone, FaultSpike, FaultNoisy, FaultDrift, FaultStuck, FaultOutOfRange:
		return true
	}
	return false
}

// FaultCode identifies a BITE classification outcome.
type FaultCode string

const (
	CodeOutOfRange   FaultCode = "E01"
	CodeIntermittent FaultCode = "E02"
	CodeStuck        FaultCode = "E03"
	CodeDrift        FaultCode = "E04"
	CodeNoisy        FaultCode = "E05"
	CodeOK           FaultCode = "OK"
)

// Severity ranks fault impact.
type Severity string

const (
	SeverityNone    Severity = "NONE"
	SeverityLow     Severity = "LOW"
	SeverityMedium  Severity = "MEDIUM"
	SeverityHigh    Severity = "HIGH"
	SeverityUnknown Severity = "UNKNOWN"
)

// HealthState is the operator-facing rollup derived from the severity of the
// last recorded BITE result for a sensor.
type HealthState string

const (
	HealthOK        HealthState = "OK"
	HealthAttention HealthState = "ATTENTION"
	HealthDegraded  HealthState = "DEGRADED"
	HealthCritical  HealthState = "CRITICAL"
)

// HealthFromSeverity maps a severity onto the operator health rollup.
func HealthFromSeverity(sev Severity) HealthState {
	switch sev {
	case SeverityHigh:
		return HealthCritical
	case SeverityMedium:
		return HealthDegraded
	case SeverityLow:
		return HealthAttention
	default:
		return HealthOK
	}
}

// FaultEvent is one classified BITE outcome. Events are immutable once built.
type FaultEvent struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	SensorID       string    `json:"sensor_id"`
	SensorName     string    `json:"sensor_name"`
	Code           FaultCode `json:"code"`
	Description    string    `json:"description"`
	Severity       Severity  `json:"severity"`
	Value          float64   `json:"value"`
	Detail         string    `json:"detail"`
	Recommendation string    `json:"recommendation"`
}
