package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/avionix/bite-engine/internal/models"
)

const (
	// OutcomeSuccess labels commands that were accepted.
	OutcomeSuccess = "success"
	// OutcomeError labels commands rejected or failed.
	OutcomeError = "error"
)

var (
	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bite_engine",
			Name:      "ticks_total",
			Help:      "Total number of sampling ticks executed.",
		},
	)

	samplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bite_engine",
			Name:      "samples_total",
			Help:      "Total number of samples emitted, partitioned by sensor.",
		},
		[]string{"sensor"},
	)

	faultEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bite_engine",
			Name:      "fault_events_total",
			Help:      "Total number of recorded fault events, partitioned by code and severity.",
		},
		[]string{"code", "severity"},
	)

	tickSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bite_engine",
			Name:      "tick_seconds",
			Help:      "Sampling tick latency in seconds.",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	biteRunSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bite_engine",
			Name:      "bite_run_seconds",
			Help:      "On-demand BITE run latency in seconds.",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		},
	)

	recorderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bite_engine",
			Name:      "recorder_errors_total",
			Help:      "Total number of recorder sink failures, partitioned by sink.",
		},
		[]string{"sink"},
	)

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bite_engine",
			Name:      "commands_total",
			Help:      "Total number of operator commands, partitioned by command and outcome.",
		},
		[]string{"command", "outcome"},
	)

	sensorHealth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "bite_engine",
			Name:      "sensor_health",
			Help:      "Sensor health rollup (0 OK, 1 ATTENTION, 2 DEGRADED, 3 CRITICAL).",
		},
		[]string{"sensor"},
	)
)

// Register attaches bite-engine collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		ticksTotal,
		samplesTotal,
		faultEventsTotal,
		tickSeconds,
		biteRunSeconds,
		recorderErrorsTotal,
		commandsTotal,
		sensorHealth,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveTick records one sampling tick and its duration.
func ObserveTick(duration time.Duration) {
	ticksTotal.Inc()
	if duration < 0 {
		duration = 0
	}
	tickSeconds.Observe(duration.Seconds())
}

// ObserveSample counts one emitted sample for a sensor.
func ObserveSample(sensorID string) {
	samplesTotal.WithLabelValues(sensorID).Inc()
}

// ObserveFaultEvent counts one recorded fault event.
func ObserveFaultEvent(code models.FaultCode, severity models.Severity) {
	faultEventsTotal.WithLabelValues(string(code), string(severity)).Inc()
}

// ObserveBITERun records an on-demand BITE run duration.
func ObserveBITERun(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	biteRunSeconds.Observe(duration.Seconds())
}

// RecorderError counts a sink failure.
func RecorderError(sink string) {
	recorderErrorsTotal.WithLabelValues(sink).Inc()
}

// ObserveCommand counts an operator command and its outcome.
func ObserveCommand(command, outcome string) {
	if outcome != OutcomeError {
		outcome = OutcomeSuccess
	}
	commandsTotal.WithLabelValues(command, outcome).Inc()
}

// SetSensorHealth exports the health rollup for a sensor.
func SetSensorHealth(sensorID string, health models.HealthState) {
	var level float64
	switch health {
	case models.HealthAttention:
		level = 1
	case models.HealthDegraded:
		level = 2
	case models.HealthCritical:
		level = 3
	}
	sensorHealth.WithLabelValues(sensorID).Set(level)
}
