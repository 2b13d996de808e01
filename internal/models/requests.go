package models

import "time"

// ApplyFaultRequest injects a fault mode into one sensor; mode "none" resets.
type ApplyFaultRequest struct {
	Mode FaultMode `json:"mode"`
}

// RunBITERequest selects the sensor for an on-demand check; "all" fans out to
// the whole roster.
type RunBITERequest struct {
	Sensor string `json:"sensor"`
}

// BITEResult is the outcome of an on-demand check for a single sensor.
type BITEResult struct {
	SensorID string    `json:"sensor_id"`
	Code     FaultCode `json:"code,omitempty"`
	Severity Severity  `json:"severity,omitempty"`
	Detail   string    `json:"detail"`
	Value    float64   `json:"value"`
	NoData   bool      `json:"no_data,omitempty"`
}

// SetIntervalRequest adjusts the sampling cadence for subsequent ticks.
type SetIntervalRequest struct {
	Ms int `json:"ms"`
}

// SensorStatus is the roster view with live per-sensor state.
type SensorStatus struct {
	SensorConfig
	Value     float64     `json:"value"`
	FaultMode FaultMode   `json:"fault_mode"`
	Health    HealthState `json:"health"`
	LastSeen  time.Time   `json:"last_seen"`
}
