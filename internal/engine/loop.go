package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/avionix/bite-engine/internal/catalog"
	"github.com/avionix/bite-engine/internal/classifier"
	"github.com/avionix/bite-engine/internal/history"
	"github.com/avionix/bite-engine/internal/metrics"
	"github.com/avionix/bite-engine/internal/models"
	"github.com/avionix/bite-engine/internal/recorder"
	"github.com/avionix/bite-engine/internal/simulator"
)

var (
	// ErrUnknownSensor reports a command naming a sensor outside the roster.
	ErrUnknownSensor = errors.New("unknown sensor")
	// ErrInvalidFaultMode reports an injection with an unrecognised mode.
	ErrInvalidFaultMode = errors.New("invalid fault mode")
	// ErrStopped reports a command issued after the loop has shut down.
	ErrStopped = errors.New("sampling loop stopped")
)

// RunAllSensors selects the whole roster for an on-demand BITE run.
const RunAllSensors = "all"

// Options tunes the sampling loop.
type Options struct {
	// Interval is the initial sampling cadence.
	Interval time.Duration
	// DefaultInterval is the fallback applied when an adjustment is invalid.
	DefaultInterval time.Duration
	// RetentionSec is the span of samples kept per sensor, in simulation seconds.
	RetentionSec float64
	// Seed drives the simulators' random sources. Zero seeds from the clock.
	Seed int64
}

// sensorState bundles one sensor's simulator with its buffered samples and
// operator-facing health rollup.
type sensorState struct {
	sim      *simulator.Sensor
	buffer   *SampleBuffer
	health   models.HealthState
	lastSeen time.Time
}

// Loop drives the sensor roster: it steps every simulator on a cadence,
// classifies each sample, and records the resulting fault events. All state is
// owned by the Run goroutine; commands and queries execute there between
// ticks, so no further locking is needed.
type Loop struct {
	logger   *slog.Logger
	catalog  *catalog.Catalog
	fanout   *recorder.Fanout
	journal  *history.Journal
	commands chan func()
	stopped  chan struct{}

	interval        time.Duration
	defaultInterval time.Duration
	lastTick        time.Time
	recommendation  string

	order   []string
	sensors map[string]*sensorState
}

// NewLoop builds a loop over the configured roster. Sensors are stepped in
// roster order; each gets its own random source derived from opts.Seed so a
// fixed seed reproduces the full telemetry stream.
func NewLoop(logger *slog.Logger, cat *catalog.Catalog, fanout *recorder.Fanout, journal *history.Journal, roster []models.SensorConfig, opts Options) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if cat == nil {
		cat = catalog.Builtin()
	}
	if journal == nil {
		journal = history.NewJournal(0)
	}
	if opts.DefaultInterval <= 0 {
		opts.DefaultInterval = 500 * time.Millisecond
	}
	if opts.Interval <= 0 {
		opts.Interval = opts.DefaultInterval
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	l := &Loop{
		logger:          logger,
		catalog:         cat,
		fanout:          fanout,
		journal:         journal,
		commands:        make(chan func()),
		stopped:         make(chan struct{}),
		interval:        opts.Interval,
		defaultInterval: opts.DefaultInterval,
		order:           make([]string, 0, len(roster)),
		sensors:         make(map[string]*sensorState, len(roster)),
	}

	for i, cfg := range roster {
		rng := rand.New(rand.NewSource(seed + int64(i)))
		l.order = append(l.order, cfg.ID)
		l.sensors[cfg.ID] = &sensorState{
			sim:    simulator.New(cfg, rng),
			buffer: NewSampleBuffer(opts.RetentionSec),
			health: models.HealthOK,
		}
		metrics.SetSensorHealth(cfg.ID, models.HealthOK)
	}

	return l
}

// Run samples until ctx is cancelled. It must be called exactly once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	l.logger.Info("sampling loop started",
		slog.Duration("interval", l.interval),
		slog.Int("sensors", len(l.order)))

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("sampling loop stopped")
			return nil
		case cmd := <-l.commands:
			cmd()
		case <-timer.C:
			l.tick(ctx, time.Now())
			timer.Reset(l.interval)
		}
	}
}

// do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}
	select {
	case l.commands <- wrapped:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tick advances every sensor by the wall-clock delta since the previous tick.
// The first tick uses dt zero so the stream starts at nominal.
func (l *Loop) tick(ctx context.Context, now time.Time) {
	started := time.Now()

	dt := 0.0
	if !l.lastTick.IsZero() {
		dt = now.Sub(l.lastTick).Seconds()
	}
	l.lastTick = now

	for _, id := range l.order {
		l.processSensor(ctx, l.sensors[id], dt, now)
	}

	metrics.ObserveTick(time.Since(started))
}

// processSensor steps one simulator, archives the sample, and records any
// non-passing classification. A panic here is contained to the one sensor so
// the rest of the roster keeps sampling.
func (l *Loop) processSensor(ctx context.Context, st *sensorState, dt float64, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("sensor processing panicked",
				slog.String("sensor", st.sim.Config().ID),
				slog.Any("panic", r))
		}
	}()

	cfg := st.sim.Config()
	value := st.sim.Step(dt)
	sample := models.Sample{Elapsed: st.sim.Elapsed(), Value: value}
	st.buffer.Append(sample)
	st.lastSeen = now

	metrics.ObserveSample(cfg.ID)
	l.fanout.ArchiveSample(ctx, cfg, sample, now)

	res := classifier.Classify(cfg.Nominal, cfg.Tol, st.sim.Window(), value)
	if res.Code == models.CodeOK {
		return
	}
	l.record(ctx, st, res, value, now)
}

// record turns a classification into a journaled fault event, refreshes the
// sensor health rollup, and fans the event out to the sinks. HIGH and MEDIUM
// severities replace the rolling maintenance recommendation; lower ones leave
// it untouched.
func (l *Loop) record(ctx context.Context, st *sensorState, res classifier.Result, value float64, now time.Time) models.FaultEvent {
	cfg := st.sim.Config()
	entry := l.catalog.Lookup(res.Code)

	ev := models.FaultEvent{
		ID:             uuid.NewString(),
		Timestamp:      now,
		SensorID:       cfg.ID,
		SensorName:     cfg.Name,
		Code:           entry.Code,
		Description:    entry.Description,
		Severity:       entry.Severity,
		Value:          value,
		Detail:         res.Detail,
		Recommendation: entry.Recommendation,
	}

	l.journal.Append(ev)
	st.health = models.HealthFromSeverity(entry.Severity)
	if entry.Severity == models.SeverityHigh || entry.Severity == models.SeverityMedium {
		l.recommendation = entry.Recommendation
	}

	metrics.ObserveFaultEvent(entry.Code, entry.Severity)
	metrics.SetSensorHealth(cfg.ID, st.health)

	l.fanout.Record(ctx, ev)

	if entry.Severity == models.SeverityNone {
		l.logger.Info("BITE passed",
			slog.String("sensor", cfg.ID),
			slog.Float64("value", value))
	} else {
		l.logger.Warn("fault detected",
			slog.String("sensor", cfg.ID),
			slog.String("name", cfg.Name),
			slog.String("code", string(entry.Code)),
			slog.String("description", entry.Description),
			slog.String("severity", string(entry.Severity)),
			slog.Float64("value", value),
			slog.String("detail", res.Detail))
	}

	return ev
}

// ApplyFault injects a fault mode into one sensor. Mode "none" clears the
// sensor's injected faults instead.
func (l *Loop) ApplyFault(ctx context.Context, sensorID string, mode models.FaultMode) error {
	var cmdErr error
	err := l.do(ctx, func() {
		st, ok := l.sensors[sensorID]
		if !ok {
			cmdErr = fmt.Errorf("%w: %s", ErrUnknownSensor, sensorID)
			return
		}
		if !models.ValidFaultMode(mode) {
			cmdErr = fmt.Errorf("%w: %q", ErrInvalidFaultMode, mode)
			return
		}
		st.sim.Inject(mode)
		if mode == models.FaultNone {
			l.logger.Info("cleared faults", slog.String("sensor", sensorID))
		} else {
			l.logger.Info("injected fault",
				slog.String("sensor", sensorID),
				slog.String("mode", string(mode)))
		}
	})
	if err != nil {
		return err
	}
	return cmdErr
}

// ClearAllFaults resets every sensor to nominal behaviour.
func (l *Loop) ClearAllFaults(ctx context.Context) error {
	return l.do(ctx, func() {
		for _, id := range l.order {
			l.sensors[id].sim.ResetFaults()
		}
		l.logger.Info("cleared all injected faults")
	})
}

// RunBITE performs an on-demand check against the latest buffered sample.
// Sensor "all" or "" fans out to the whole roster. Unlike the per-tick path,
// an on-demand run records passing results too, so a recovered sensor's health
// rolls back to OK.
func (l *Loop) RunBITE(ctx context.Context, sensor string) ([]models.BITEResult, error) {
	var (
		results []models.BITEResult
		cmdErr  error
	)
	err := l.do(ctx, func() {
		ids := l.order
		if sensor != "" && sensor != RunAllSensors {
			if _, ok := l.sensors[sensor]; !ok {
				cmdErr = fmt.Errorf("%w: %s", ErrUnknownSensor, sensor)
				return
			}
			ids = []string{sensor}
		}
		now := time.Now()
		results = make([]models.BITEResult, 0, len(ids))
		for _, id := range ids {
			results = append(results, l.runBITEOne(ctx, l.sensors[id], now))
		}
	})
	if err != nil {
		return nil, err
	}
	if cmdErr != nil {
		return nil, cmdErr
	}
	return results, nil
}

func (l *Loop) runBITEOne(ctx context.Context, st *sensorState, now time.Time) models.BITEResult {
	cfg := st.sim.Config()
	latest, ok := st.buffer.Latest()
	if !ok {
		l.logger.Info("no samples for BITE run", slog.String("sensor", cfg.ID))
		return models.BITEResult{SensorID: cfg.ID, Detail: "No data available", NoData: true}
	}

	res := classifier.Classify(cfg.Nominal, cfg.Tol, st.sim.Window(), latest.Value)
	ev := l.record(ctx, st, res, latest.Value, now)
	return models.BITEResult{
		SensorID: cfg.ID,
		Code:     ev.Code,
		Severity: ev.Severity,
		Detail:   ev.Detail,
		Value:    ev.Value,
	}
}

// SetInterval adjusts the sampling cadence, taking effect after the current
// period elapses. Non-positive values fall back to the configured default
// rather than failing.
func (l *Loop) SetInterval(ctx context.Context, ms int) (time.Duration, error) {
	var effective time.Duration
	err := l.do(ctx, func() {
		next := time.Duration(ms) * time.Millisecond
		if next <= 0 {
			next = l.defaultInterval
		}
		l.interval = next
		effective = next
		l.logger.Info("sampling interval updated", slog.Duration("interval", next))
	})
	return effective, err
}

// Interval reports the current sampling cadence.
func (l *Loop) Interval(ctx context.Context) (time.Duration, error) {
	var interval time.Duration
	err := l.do(ctx, func() { interval = l.interval })
	return interval, err
}

// Sensors returns the roster with live values, fault modes, and health.
func (l *Loop) Sensors(ctx context.Context) ([]models.SensorStatus, error) {
	var out []models.SensorStatus
	err := l.do(ctx, func() {
		out = make([]models.SensorStatus, 0, len(l.order))
		for _, id := range l.order {
			st := l.sensors[id]
			out = append(out, models.SensorStatus{
				SensorConfig: st.sim.Config(),
				Value:        st.sim.Value(),
				FaultMode:    st.sim.Mode(),
				Health:       st.health,
				LastSeen:     st.lastSeen,
			})
		}
	})
	return out, err
}

// Samples returns the buffered window for one sensor, oldest first.
func (l *Loop) Samples(ctx context.Context, sensorID string) ([]models.Sample, error) {
	var (
		out    []models.Sample
		cmdErr error
	)
	err := l.do(ctx, func() {
		st, ok := l.sensors[sensorID]
		if !ok {
			cmdErr = fmt.Errorf("%w: %s", ErrUnknownSensor, sensorID)
			return
		}
		out = st.buffer.Samples()
	})
	if err != nil {
		return nil, err
	}
	if cmdErr != nil {
		return nil, cmdErr
	}
	return out, nil
}

// Faults returns journaled fault events matching the query, newest first.
func (l *Loop) Faults(ctx context.Context, q models.FaultQuery) ([]models.FaultEvent, error) {
	var out []models.FaultEvent
	err := l.do(ctx, func() { out = l.journal.Query(q) })
	return out, err
}

// Summary aggregates the journal by code, severity, and sensor.
func (l *Loop) Summary(ctx context.Context) (models.FaultSummary, error) {
	var out models.FaultSummary
	err := l.do(ctx, func() { out = l.journal.Summary() })
	return out, err
}

// Recommendation returns the latest maintenance recommendation, or "" when no
// HIGH or MEDIUM fault has been recorded yet.
func (l *Loop) Recommendation(ctx context.Context) (string, error) {
	var out string
	err := l.do(ctx, func() { out = l.recommendation })
	return out, err
}
