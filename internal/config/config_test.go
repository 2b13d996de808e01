package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("address = %q, want :8080", cfg.Server.Address)
	}
	if cfg.Sampling.IntervalMS != DefaultIntervalMS {
		t.Errorf("interval = %d, want %d", cfg.Sampling.IntervalMS, DefaultIntervalMS)
	}
	if cfg.Sampling.RetentionSec != 30 {
		t.Errorf("retention = %v, want 30", cfg.Sampling.RetentionSec)
	}
	if len(cfg.Sensors) != 3 {
		t.Fatalf("roster size = %d, want 3", len(cfg.Sensors))
	}
	if cfg.Sensors[0].ID != "S1" || cfg.Sensors[0].Nominal != 10000 || cfg.Sensors[0].Tol != 200 {
		t.Errorf("unexpected first sensor: %+v", cfg.Sensors[0])
	}
	if cfg.Recorders.CSV.Path != "bite_log.csv" {
		t.Errorf("csv path = %q", cfg.Recorders.CSV.Path)
	}
	if cfg.History.Capacity != 1000 {
		t.Errorf("history capacity = %d", cfg.History.Capacity)
	}
}

func TestLoadFromFile(t *testing.T) {
	raw := `
server:
  address: ":9090"
sampling:
  intervalMs: 250
  retentionSec: 60
sensors:
  - id: T1
    name: Test Sensor
    nominal: 5.0
    tol: 0.5
recorders:
  csv:
    path: /tmp/faults.csv
  webhook:
    url: http://localhost:9999/events
    retries: 5
    timeout: 2s
logging:
  level: debug
  json: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if cfg.Sampling.IntervalMS != 250 || cfg.Sampling.RetentionSec != 60 {
		t.Errorf("sampling = %+v", cfg.Sampling)
	}
	if len(cfg.Sensors) != 1 || cfg.Sensors[0].ID != "T1" {
		t.Errorf("sensors = %+v", cfg.Sensors)
	}
	if cfg.Recorders.Webhook.Retries != 5 || cfg.Recorders.Webhook.Timeout != 2*time.Second {
		t.Errorf("webhook = %+v", cfg.Recorders.Webhook)
	}
	if !cfg.Logging.JSON || cfg.Logging.Level != "debug" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	// Unset sections keep their defaults.
	if cfg.Server.MetricsAddress != ":2112" {
		t.Errorf("metrics address = %q", cfg.Server.MetricsAddress)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sensors: {not: [valid"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BITE_ENGINE_LISTEN", ":7070")
	t.Setenv("BITE_ENGINE_LOG_LEVEL", "warn")
	t.Setenv("BITE_ENGINE_LOG_FORMAT", "json")
	t.Setenv("BITE_ENGINE_INTERVAL_MS", "100")
	t.Setenv("BITE_ENGINE_CSV_PATH", "/tmp/override.csv")
	t.Setenv("BITE_ENGINE_POSTGRES_DSN", "postgres://localhost/bite")
	t.Setenv("BITE_ENGINE_WEBHOOK_URL", "http://sink:9000/events")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if cfg.Logging.Level != "warn" || !cfg.Logging.JSON {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Sampling.IntervalMS != 100 {
		t.Errorf("interval = %d", cfg.Sampling.IntervalMS)
	}
	if cfg.Recorders.CSV.Path != "/tmp/override.csv" {
		t.Errorf("csv path = %q", cfg.Recorders.CSV.Path)
	}
	if cfg.Recorders.Postgres.DSN != "postgres://localhost/bite" {
		t.Errorf("postgres dsn = %q", cfg.Recorders.Postgres.DSN)
	}
	if cfg.Recorders.Webhook.URL != "http://sink:9000/events" {
		t.Errorf("webhook url = %q", cfg.Recorders.Webhook.URL)
	}
}

func TestInvalidIntervalFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sampling:\n  intervalMs: -5\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sampling.IntervalMS != DefaultIntervalMS {
		t.Errorf("interval = %d, want default %d", cfg.Sampling.IntervalMS, DefaultIntervalMS)
	}
}
