package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/avionix/bite-engine/internal/models"
)

func TestRegisterIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should tolerate duplicates: %v", err)
	}
}

func TestObserveFaultEvent(t *testing.T) {
	before := testutil.ToFloat64(faultEventsTotal.WithLabelValues("E01", "HIGH"))
	ObserveFaultEvent(models.CodeOutOfRange, models.SeverityHigh)
	after := testutil.ToFloat64(faultEventsTotal.WithLabelValues("E01", "HIGH"))
	if after-before != 1 {
		t.Fatalf("expected counter to advance by 1, got %v", after-before)
	}
}

func TestSetSensorHealthLevels(t *testing.T) {
	SetSensorHealth("S1", models.HealthCritical)
	if v := testutil.ToFloat64(sensorHealth.WithLabelValues("S1")); v != 3 {
		t.Fatalf("expected CRITICAL level 3, got %v", v)
	}
	SetSensorHealth("S1", models.HealthOK)
	if v := testutil.ToFloat64(sensorHealth.WithLabelValues("S1")); v != 0 {
		t.Fatalf("expected OK level 0, got %v", v)
	}
}

func TestObserveTickNegativeDuration(t *testing.T) {
	// Clock skew must not panic the histogram.
	ObserveTick(-time.Second)
}
