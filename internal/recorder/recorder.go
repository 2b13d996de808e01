package recorder

import (
	"context"
	"log/slog"
	"time"

	"github.com/avionix/bite-engine/internal/metrics"
	"github.com/avionix/bite-engine/internal/models"
)

// Recorder consumes fault events. Implementations are called from the
// sampling loop goroutine and must not block indefinitely.
type Recorder interface {
	Name() string
	Record(ctx context.Context, ev models.FaultEvent) error
}

// SampleArchiver is implemented by sinks that also archive raw samples. ts is
// the wall-clock time of the tick that produced the sample.
type SampleArchiver interface {
	ArchiveSample(ctx context.Context, cfg models.SensorConfig, s models.Sample, ts time.Time) error
}

// Fanout dispatches fault events to every configured sink. A sink failure is
// logged and counted; it never stops the remaining sinks or the caller, so a
// broken sink cannot halt sampling.
type Fanout struct {
	sinks  []Recorder
	logger *slog.Logger
}

// NewFanout constructs a fanout over the provided sinks.
func NewFanout(logger *slog.Logger, sinks ...Recorder) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{sinks: sinks, logger: logger}
}

// Record delivers the event to all sinks.
func (f *Fanout) Record(ctx context.Context, ev models.FaultEvent) {
	for _, sink := range f.sinks {
		if err := sink.Record(ctx, ev); err != nil {
			metrics.RecorderError(sink.Name())
			f.logger.Error("fault record failed",
				slog.String("sink", sink.Name()),
				slog.String("sensor", ev.SensorID),
				slog.Any("error", err))
		}
	}
}

// ArchiveSample delivers a raw sample to every sink that archives samples.
func (f *Fanout) ArchiveSample(ctx context.Context, cfg models.SensorConfig, s models.Sample, ts time.Time) {
	for _, sink := range f.sinks {
		archiver, ok := sink.(SampleArchiver)
		if !ok {
			continue
		}
		if err := archiver.ArchiveSample(ctx, cfg, s, ts); err != nil {
			metrics.RecorderError(sink.Name())
			f.logger.Error("sample archive failed",
				slog.String("sink", sink.Name()),
				slog.String("sensor", cfg.ID),
				slog.Any("error", err))
		}
	}
}

// Sinks returns the configured sink names, for startup logging.
func (f *Fanout) Sinks() []string {
	names := make([]string, 0, len(f.sinks))
	for _, sink := range f.sinks {
		names = append(names, sink.Name())
	}
	return names
}
