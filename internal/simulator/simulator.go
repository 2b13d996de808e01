package simulator

import (
	"math"
	"math/rand"

	"github.com/avionix/bite-engine/internal/models"
)

// windowSize bounds the recent values retained for BITE statistics.
const windowSize = 10

// Sensor simulates one avionics channel: a nominal value plus instrument
// noise, with externally injectable fault modes. A Sensor is stepped by a
// single driver; it performs no locking of its own.
type Sensor struct {
	cfg        models.SensorConfig
	noiseLevel float64
	rng        *rand.Rand

	elapsed    float64
	value      float64
	mode       models.FaultMode
	driftRate  float64
	stuckValue *float64
	window     []float64
}

// New constructs a simulator for cfg. The random source drives Gaussian
// instrument noise and spike timing; pass a seeded source for deterministic
// output.
func New(cfg models.SensorConfig, rng *rand.Rand) *Sensor {
	return &Sensor{
		cfg:        cfg,
		noiseLevel: 0.005*math.Abs(cfg.Nominal) + 0.1,
		rng:        rng,
		value:      cfg.Nominal,
		mode:       models.FaultNone,
		window:     make([]float64, 0, windowSize),
	}
}

// Step advances the simulation clock by dt seconds and returns the new
// sample. The returned value is also pushed onto the recent window.
func (s *Sensor) Step(dt float64) float64 {
	s.elapsed += dt

	// A latched stuck value overrides every other effect.
	if s.stuckValue != nil {
		s.value = *s.stuckValue
		s.push(s.value)
		return s.value
	}

	s.value = s.cfg.Nominal + s.driftRate*s.elapsed
	s.value += s.rng.NormFloat64() * s.noiseLevel

	switch s.mode {
	case models.FaultSpike:
		if s.rng.Float64() < 0.02 {
			sign := float64(5)
			if s.rng.Intn(2) == 1 {
				sign = -5
			}
			s.value += sign * s.cfg.Tol
		}
	case models.FaultNoisy:
		s.value += s.rng.NormFloat64() * 3 * s.noiseLevel
	case models.FaultDrift:
		s.driftRate = 0.1 * s.cfg.Tol
	case models.FaultStuck:
		// Latched here; takes effect starting next tick.
		v := s.cfg.Nominal
		s.stuckValue = &v
	case models.FaultOutOfRange:
		s.value = s.cfg.Nominal + 10*s.cfg.Tol
	}

	s.push(s.value)
	return s.value
}

// Inject activates a fault mode. Mode "none" clears all injected faults.
func (s *Sensor) Inject(mode models.FaultMode) {
	if mode == models.FaultNone {
		s.ResetFaults()
		return
	}
	s.mode = mode
}

// ResetFaults clears the fault mode, drift rate, and stuck latch together.
// The sensor returns to nominal-plus-noise behaviour on the next step.
func (s *Sensor) ResetFaults() {
	s.mode = models.FaultNone
	s.driftRate = 0
	s.stuckValue = nil
}

// Window returns a copy of the recent values used for BITE statistics.
func (s *Sensor) Window() []float64 {
	out := make([]float64, len(s.window))
	copy(out, s.window)
	return out
}

// Config returns the immutable sensor configuration.
func (s *Sensor) Config() models.SensorConfig {
	return s.cfg
}

// Mode returns the active fault mode.
func (s *Sensor) Mode() models.FaultMode {
	return s.mode
}

// Value returns the most recent sample.
func (s *Sensor) Value() float64 {
	return s.value
}

// Elapsed returns the simulation clock in seconds.
func (s *Sensor) Elapsed() float64 {
	return s.elapsed
}

func (s *Sensor) push(v float64) {
	if len(s.window) == windowSize {
		copy(s.window, s.window[1:])
		s.window[windowSize-1] = v
		return
	}
	s.window = append(s.window, v)
}
