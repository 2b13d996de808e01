package simulator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/avionix/bite-engine/internal/models"
)

func altimeter() models.SensorConfig {
	return models.SensorConfig{ID: "S1", Name: "Altitude Sensor", Nominal: 10000, Tol: 200}
}

func gyro() models.SensorConfig {
	return models.SensorConfig{ID: "S3", Name: "Gyro (pitch)", Nominal: 0, Tol: 2}
}

func TestStepDeterministicWithSeed(t *testing.T) {
	a := New(altimeter(), rand.New(rand.NewSource(42)))
	b := New(altimeter(), rand.New(rand.NewSource(42)))

	for i := 0; i < 50; i++ {
		va := a.Step(0.5)
		vb := b.Step(0.5)
		if va != vb {
			t.Fatalf("step %d diverged: %v vs %v", i, va, vb)
		}
	}
}

func TestStepTracksNominal(t *testing.T) {
	s := New(altimeter(), rand.New(rand.NewSource(1)))
	for i := 0; i < 100; i++ {
		v := s.Step(0.5)
		if math.Abs(v-10000) > 5*200 {
			t.Fatalf("healthy sensor strayed out of range at step %d: %v", i, v)
		}
	}
}

func TestOutOfRangeOverridesNoise(t *testing.T) {
	s := New(altimeter(), rand.New(rand.NewSource(7)))
	s.Inject(models.FaultOutOfRange)

	if v := s.Step(0.5); v != 12000 {
		t.Fatalf("expected forced 12000, got %v", v)
	}
}

func TestStuckLatchesNominal(t *testing.T) {
	s := New(altimeter(), rand.New(rand.NewSource(3)))
	s.Inject(models.FaultStuck)

	// The latch is set during the first step and takes effect afterwards.
	s.Step(0.5)
	for i := 0; i < 6; i++ {
		if v := s.Step(0.5); v != 10000 {
			t.Fatalf("stuck sensor moved at step %d: %v", i, v)
		}
	}
}

func TestDriftAccumulatesAndResets(t *testing.T) {
	s := New(gyro(), rand.New(rand.NewSource(11)))
	s.Inject(models.FaultDrift)

	var last float64
	for i := 0; i < 20; i++ {
		last = s.Step(1)
	}
	// drift rate 0.1*tol = 0.2/s over ~20s dwarfs the 0.1 noise level
	if last < 2 {
		t.Fatalf("expected drifted value above 2, got %v", last)
	}

	s.ResetFaults()
	if v := s.Step(1); math.Abs(v) > 1 {
		t.Fatalf("expected nominal-plus-noise after reset, got %v", v)
	}
}

func TestResetClearsStuckLatch(t *testing.T) {
	s := New(gyro(), rand.New(rand.NewSource(5)))
	s.Inject(models.FaultStuck)
	s.Step(1)
	s.Step(1)

	s.ResetFaults()
	if s.Mode() != models.FaultNone {
		t.Fatalf("expected mode none after reset, got %s", s.Mode())
	}

	var moved bool
	prev := s.Step(1)
	for i := 0; i < 10; i++ {
		if v := s.Step(1); v != prev {
			moved = true
			break
		}
	}
	if !moved {
		t.Fatalf("sensor still frozen after reset")
	}
}

func TestInjectNoneResets(t *testing.T) {
	s := New(gyro(), rand.New(rand.NewSource(9)))
	s.Inject(models.FaultDrift)
	s.Step(1)
	s.Inject(models.FaultNone)

	if s.Mode() != models.FaultNone {
		t.Fatalf("expected mode none, got %s", s.Mode())
	}
	if v := s.Step(1); math.Abs(v) > 1 {
		t.Fatalf("expected drift rate cleared, got %v", v)
	}
}

func TestWindowBounded(t *testing.T) {
	s := New(altimeter(), rand.New(rand.NewSource(2)))

	var last float64
	for i := 0; i < 25; i++ {
		last = s.Step(0.5)
	}

	w := s.Window()
	if len(w) != 10 {
		t.Fatalf("expected window of 10, got %d", len(w))
	}
	if w[len(w)-1] != last {
		t.Fatalf("expected newest value %v at tail, got %v", last, w[len(w)-1])
	}
}
