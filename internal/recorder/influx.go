package recorder

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/avionix/bite-engine/internal/models"
	"github.com/avionix/bite-engine/internal/utils"
)

// Influx archives fault events and raw samples as InfluxDB points. Fault
// events land in the fault_events measurement; samples in sensor_samples.
type Influx struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInflux constructs the sink from connection settings.
func NewInflux(url, token, org, bucket string) *Influx {
	client := influxdb2.NewClient(url, token)
	return &Influx{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
	}
}

// NewInfluxWithWriteAPI wires an existing write API, used by tests.
func NewInfluxWithWriteAPI(writeAPI api.WriteAPIBlocking) *Influx {
	return &Influx{writeAPI: writeAPI}
}

// Name identifies the sink in logs and metrics.
func (i *Influx) Name() string { return "influx" }

// Record writes one fault event point.
func (i *Influx) Record(ctx context.Context, ev models.FaultEvent) error {
	p := influxdb2.NewPoint(
		"fault_events",
		map[string]string{
			"sensor_id": ev.SensorID,
			"code":      string(ev.Code),
			"severity":  string(ev.Severity),
		},
		map[string]interface{}{
			"value":  ev.Value,
			"detail": ev.Detail,
		},
		ev.Timestamp,
	)
	if err := i.writeAPI.WritePoint(ctx, p); err != nil {
		return utils.NewAppError("recorder.influx", "write fault event", err)
	}
	return nil
}

// ArchiveSample writes one raw sample point. ts is the wall-clock time of
// the tick that produced the sample.
func (i *Influx) ArchiveSample(ctx context.Context, cfg models.SensorConfig, s models.Sample, ts time.Time) error {
	p := influxdb2.NewPoint(
		"sensor_samples",
		map[string]string{"sensor_id": cfg.ID},
		map[string]interface{}{
			"value":   s.Value,
			"elapsed": s.Elapsed,
		},
		ts,
	)
	if err := i.writeAPI.WritePoint(ctx, p); err != nil {
		return utils.NewAppError("recorder.influx", "write sample", err)
	}
	return nil
}

// Close shuts down the underlying client, if this sink owns one.
func (i *Influx) Close() {
	if i.client != nil {
		i.client.Close()
	}
}
