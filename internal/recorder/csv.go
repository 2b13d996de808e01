package recorder

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/avionix/bite-engine/internal/models"
	"github.com/avionix/bite-engine/internal/utils"
)

// csvHeader matches the historical fault-log layout; keep in sync with Record.
var csvHeader = []string{"timestamp", "sensor_id", "sensor_name", "code", "description", "severity", "value", "details"}

// CSV appends fault events to a flat CSV log. The header row is written only
// when the file is new, so restarts keep appending to the same log. Fault
// events are rare, so each record is flushed immediately for durability.
type CSV struct {
	mu   sync.Mutex
	path string
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
}

// NewCSV opens (or creates) the fault log at path.
func NewCSV(path string) (*CSV, error) {
	info, statErr := os.Stat(path)
	needHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, utils.NewAppError("recorder.csv", "open fault log", err)
	}

	bw := bufio.NewWriter(f)
	r := &CSV{path: path, file: f, buf: bw, csv: csv.NewWriter(bw)}

	if needHeader {
		if err := r.csv.Write(csvHeader); err != nil {
			f.Close()
			return nil, utils.NewAppError("recorder.csv", "write header", err)
		}
		if err := r.flush(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return r, nil
}

// Name identifies the sink in logs and metrics.
func (r *CSV) Name() string { return "csv" }

// Record appends one event row and flushes it through to the OS.
func (r *CSV) Record(ctx context.Context, ev models.FaultEvent) error {
	row := []string{
		utils.LocalTimestamp(ev.Timestamp),
		ev.SensorID,
		ev.SensorName,
		string(ev.Code),
		ev.Description,
		string(ev.Severity),
		fmt.Sprintf("%.3f", ev.Value),
		ev.Detail,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.csv.Write(row); err != nil {
		return utils.NewAppError("recorder.csv", "append record", err)
	}
	return r.flush()
}

// Close flushes buffered rows and closes the log file.
func (r *CSV) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.flush(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

func (r *CSV) flush() error {
	r.csv.Flush()
	if err := r.csv.Error(); err != nil {
		return utils.NewAppError("recorder.csv", "flush", err)
	}
	if err := r.buf.Flush(); err != nil {
		return utils.NewAppError("recorder.csv", "flush", err)
	}
	return nil
}
