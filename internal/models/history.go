package models

import "time"

// FaultQuery filters journal reads.
type FaultQuery struct {
	SensorID string
	Since    time.Time
	Limit    int
}

// FaultSummary aggregates the journal for the summary endpoint.
type FaultSummary struct {
	Total      int                     `json:"total"`
	ByCode     map[FaultCode]int       `json:"by_code"`
	BySeverity map[Severity]int        `json:"by_severity"`
	Sensors    map[string]SensorFaults `json:"sensors"`
}

// SensorFaults summarises one sensor's recorded faults.
type SensorFaults struct {
	Count        int       `json:"count"`
	DominantCode FaultCode `json:"dominant_code"`
	LastSeen     time.Time `json:"last_seen"`
}
