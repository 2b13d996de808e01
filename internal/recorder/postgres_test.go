package recorder

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avionix/bite-engine/internal/models"
)

func TestPostgresRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewPostgres(db)
	ts := time.Now()
	ev := models.FaultEvent{
		ID:             "ev-42",
		Timestamp:      ts,
		SensorID:       "S2",
		SensorName:     "Airspeed Sensor",
		Code:           models.CodeNoisy,
		Description:    "Noisy Signal",
		Severity:       models.SeverityLow,
		Value:          261.482,
		Detail:         "High noise (std=9.14)",
		Recommendation: "Check shielding; apply filtering.",
	}

	mock.ExpectExec(regexp.QuoteMeta(insertFaultEvent)).
		WithArgs("ev-42", ts, "S2", "Airspeed Sensor", "E05", "Noisy Signal", "LOW", 261.482, "High noise (std=9.14)", "Check shielding; apply filtering.").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := sink.Record(context.Background(), ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(insertFaultEvent)).
		WillReturnError(errors.New("connection reset"))

	sink := NewPostgres(db)
	if err := sink.Record(context.Background(), models.FaultEvent{ID: "ev-1"}); err == nil {
		t.Fatalf("expected insert error")
	}
}

func TestPostgresName(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	if sink := NewPostgres(db); sink.Name() != "postgres" {
		t.Fatalf("expected sink name postgres, got %s", sink.Name())
	}
}
