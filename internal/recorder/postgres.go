package recorder

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/avionix/bite-engine/internal/models"
	"github.com/avionix/bite-engine/internal/utils"
)

const insertFaultEvent = `INSERT INTO fault_events (id, recorded_at, sensor_id, sensor_name, code, description, severity, value, detail, recommendation) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) ON CONFLICT (id) DO NOTHING`

// Postgres persists fault events into a fault_events table. Event IDs are
// unique, so replayed inserts are idempotent.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs the sink over an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres dials the DSN and verifies connectivity before returning a sink.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, utils.NewAppError("recorder.postgres", "open", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, utils.NewAppError("recorder.postgres", "ping", err)
	}
	return NewPostgres(db), nil
}

// Name identifies the sink in logs and metrics.
func (p *Postgres) Name() string { return "postgres" }

// Record inserts one fault event row.
func (p *Postgres) Record(ctx context.Context, ev models.FaultEvent) error {
	_, err := p.db.ExecContext(ctx, insertFaultEvent,
		ev.ID,
		ev.Timestamp,
		ev.SensorID,
		ev.SensorName,
		string(ev.Code),
		ev.Description,
		string(ev.Severity),
		ev.Value,
		ev.Detail,
		ev.Recommendation,
	)
	if err != nil {
		return utils.NewAppError("recorder.postgres", "insert fault event", err)
	}
	return nil
}

// Close releases the database handle.
func (p *Postgres) Close() error {
	return p.db.Close()
}
