package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/avionix/bite-engine/internal/metrics"
	"github.com/avionix/bite-engine/internal/models"
	"github.com/avionix/bite-engine/internal/utils"
)

// SampleLoop defines the command and query surface of the sampling loop the
// service orchestrates.
type SampleLoop interface {
	ApplyFault(ctx context.Context, sensorID string, mode models.FaultMode) error
	ClearAllFaults(ctx context.Context) error
	RunBITE(ctx context.Context, sensor string) ([]models.BITEResult, error)
	SetInterval(ctx context.Context, ms int) (time.Duration, error)
	Interval(ctx context.Context) (time.Duration, error)
	Sensors(ctx context.Context) ([]models.SensorStatus, error)
	Samples(ctx context.Context, sensorID string) ([]models.Sample, error)
	Faults(ctx context.Context, q models.FaultQuery) ([]models.FaultEvent, error)
	Summary(ctx context.Context) (models.FaultSummary, error)
	Recommendation(ctx context.Context) (string, error)
}

// BITEService fronts the sampling loop for the control API: it validates
// operator commands, counts outcomes, and tracks on-demand BITE latency.
type BITEService struct {
	logger    *slog.Logger
	loop      SampleLoop
	latencies *utils.LatencyTracker
}

// NewBITEService constructs the service facade.
func NewBITEService(logger *slog.Logger, loop SampleLoop) *BITEService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BITEService{
		logger:    logger,
		loop:      loop,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// ApplyFault injects a fault mode into one sensor; mode "none" resets it.
func (s *BITEService) ApplyFault(ctx context.Context, sensorID string, mode models.FaultMode) error {
	if sensorID == "" {
		metrics.ObserveCommand("apply_fault", metrics.OutcomeError)
		return utils.NewAppError("apply_fault", "sensor id cannot be empty", nil)
	}
	if !models.ValidFaultMode(mode) {
		metrics.ObserveCommand("apply_fault", metrics.OutcomeError)
		return utils.NewAppError("apply_fault", "unknown fault mode "+string(mode), nil)
	}

	if err := s.loop.ApplyFault(ctx, sensorID, mode); err != nil {
		metrics.ObserveCommand("apply_fault", metrics.OutcomeError)
		return err
	}
	metrics.ObserveCommand("apply_fault", metrics.OutcomeSuccess)
	return nil
}

// ClearAllFaults resets every sensor to nominal behaviour.
func (s *BITEService) ClearAllFaults(ctx context.Context) error {
	if err := s.loop.ClearAllFaults(ctx); err != nil {
		metrics.ObserveCommand("clear_all_faults", metrics.OutcomeError)
		return err
	}
	metrics.ObserveCommand("clear_all_faults", metrics.OutcomeSuccess)
	return nil
}

// RunBITE performs an on-demand check for one sensor or the whole roster.
func (s *BITEService) RunBITE(ctx context.Context, sensor string) ([]models.BITEResult, error) {
	start := time.Now()
	results, err := s.loop.RunBITE(ctx, sensor)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveCommand("run_bite", metrics.OutcomeError)
		return nil, err
	}

	s.latencies.Observe(duration)
	metrics.ObserveBITERun(duration)
	metrics.ObserveCommand("run_bite", metrics.OutcomeSuccess)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("BITE run latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", count))
	}
	return results, nil
}

// SetInterval adjusts the sampling cadence; invalid values fall back to the
// loop's configured default.
func (s *BITEService) SetInterval(ctx context.Context, ms int) (time.Duration, error) {
	effective, err := s.loop.SetInterval(ctx, ms)
	if err != nil {
		metrics.ObserveCommand("set_interval", metrics.OutcomeError)
		return 0, err
	}
	metrics.ObserveCommand("set_interval", metrics.OutcomeSuccess)
	return effective, nil
}

// Interval reports the current sampling cadence.
func (s *BITEService) Interval(ctx context.Context) (time.Duration, error) {
	return s.loop.Interval(ctx)
}

// Sensors returns the roster with live values, fault modes, and health.
func (s *BITEService) Sensors(ctx context.Context) ([]models.SensorStatus, error) {
	return s.loop.Sensors(ctx)
}

// Samples returns the retained window for one sensor, oldest first.
func (s *BITEService) Samples(ctx context.Context, sensorID string) ([]models.Sample, error) {
	if sensorID == "" {
		return nil, utils.NewAppError("samples", "sensor id cannot be empty", nil)
	}
	return s.loop.Samples(ctx, sensorID)
}

// Faults returns journaled fault events matching the query, newest first.
func (s *BITEService) Faults(ctx context.Context, q models.FaultQuery) ([]models.FaultEvent, error) {
	return s.loop.Faults(ctx, q)
}

// Summary aggregates the fault journal by code, severity, and sensor.
func (s *BITEService) Summary(ctx context.Context) (models.FaultSummary, error) {
	return s.loop.Summary(ctx)
}

// Recommendation returns the current maintenance recommendation, empty when
// no HIGH or MEDIUM fault has been recorded.
func (s *BITEService) Recommendation(ctx context.Context) (string, error) {
	return s.loop.Recommendation(ctx)
}
