package recorder

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/avionix/bite-engine/internal/models"
)

type stubSink struct {
	name   string
	err    error
	events []models.FaultEvent
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Record(ctx context.Context, ev models.FaultEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

type stubArchiver struct {
	stubSink
	samples []models.Sample
}

func (s *stubArchiver) ArchiveSample(ctx context.Context, cfg models.SensorConfig, sample models.Sample, ts time.Time) error {
	s.samples = append(s.samples, sample)
	return nil
}

func TestFanoutIsolatesSinkFailures(t *testing.T) {
	broken := &stubSink{name: "broken", err: errors.New("disk full")}
	healthy := &stubSink{name: "healthy"}
	fanout := NewFanout(slog.New(slog.NewTextHandler(os.Stdout, nil)), broken, healthy)

	fanout.Record(context.Background(), models.FaultEvent{ID: "ev-1"})

	if len(healthy.events) != 1 {
		t.Fatalf("expected healthy sink to receive the event despite the broken one")
	}
}

func TestFanoutArchivesOnlyToArchivers(t *testing.T) {
	plain := &stubSink{name: "plain"}
	archiver := &stubArchiver{stubSink: stubSink{name: "archiver"}}
	fanout := NewFanout(nil, plain, archiver)

	cfg := models.SensorConfig{ID: "S1"}
	fanout.ArchiveSample(context.Background(), cfg, models.Sample{Elapsed: 1, Value: 10000}, time.Now())

	if len(archiver.samples) != 1 {
		t.Fatalf("expected archiver to receive the sample")
	}
	if len(plain.events) != 0 {
		t.Fatalf("plain sink must not receive samples")
	}
}

func TestFanoutSinkNames(t *testing.T) {
	fanout := NewFanout(nil, &stubSink{name: "csv"}, &stubSink{name: "postgres"})
	names := fanout.Sinks()
	if len(names) != 2 || names[0] != "csv" || names[1] != "postgres" {
		t.Fatalf("unexpected sink names: %v", names)
	}
}
