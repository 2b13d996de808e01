package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avionix/bite-engine/internal/models"
)

// Config captures the settings required to boot the BITE engine.
type Config struct {
	Server    ServerConfig          `yaml:"server"`
	Sampling  SamplingConfig        `yaml:"sampling"`
	Sensors   []models.SensorConfig `yaml:"sensors"`
	Recorders RecordersConfig       `yaml:"recorders"`
	Catalog   CatalogConfig         `yaml:"catalog"`
	Logging   LoggingConfig         `yaml:"logging"`
	History   HistoryConfig         `yaml:"history"`
}

// ServerConfig controls the control-API and metrics listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// SamplingConfig controls the tick cadence and sample retention.
type SamplingConfig struct {
	IntervalMS   int     `yaml:"intervalMs"`
	RetentionSec float64 `yaml:"retentionSec"`
	Seed         int64   `yaml:"seed"`
}

// RecordersConfig groups the fault-event sinks. The CSV sink is always on;
// the others activate only when configured.
type RecordersConfig struct {
	CSV      CSVConfig      `yaml:"csv"`
	Postgres PostgresConfig `yaml:"postgres"`
	Influx   InfluxConfig   `yaml:"influx"`
	Webhook  WebhookConfig  `yaml:"webhook"`
}

// CSVConfig locates the append-only fault log.
type CSVConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig configures the durable fault-event sink.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// InfluxConfig configures the time-series archiver sink.
type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// WebhookConfig configures the HTTP event poster.
type WebhookConfig struct {
	URL     string        `yaml:"url"`
	Retries int           `yaml:"retries"`
	Timeout time.Duration `yaml:"timeout"`
}

// CatalogConfig locates an optional fault-catalog override pack.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// HistoryConfig bounds the in-memory fault journal.
type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// DefaultIntervalMS is the sampling cadence used when none is configured or
// the configured one is invalid.
const DefaultIntervalMS = 500

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BITE_ENGINE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return &cfg, nil
}

// DefaultRoster returns the built-in sensor roster.
func DefaultRoster() []models.SensorConfig {
	return []models.SensorConfig{
		{ID: "S1", Name: "Altitude Sensor", Nominal: 10000, Tol: 200},
		{ID: "S2", Name: "Airspeed Sensor", Nominal: 250, Tol: 15},
		{ID: "S3", Name: "Gyro (pitch)", Nominal: 0, Tol: 2},
	}
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    15 * time.Second,
			GracefulTimeout: 10 * time.Second,
		},
		Sampling: SamplingConfig{
			IntervalMS:   DefaultIntervalMS,
			RetentionSec: 30,
		},
		Sensors: DefaultRoster(),
		Recorders: RecordersConfig{
			CSV:     CSVConfig{Path: "bite_log.csv"},
			Webhook: WebhookConfig{Retries: 3, Timeout: 5 * time.Second},
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		History: HistoryConfig{Capacity: 1000},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BITE_ENGINE_LISTEN"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("BITE_ENGINE_METRICS_LISTEN"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("BITE_ENGINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BITE_ENGINE_LOG_FORMAT"); strings.EqualFold(v, "json") {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("BITE_ENGINE_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Sampling.IntervalMS = ms
		}
	}
	if v := os.Getenv("BITE_ENGINE_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sampling.Seed = seed
		}
	}
	if v := os.Getenv("BITE_ENGINE_CSV_PATH"); v != "" {
		cfg.Recorders.CSV.Path = v
	}
	if v := os.Getenv("BITE_ENGINE_POSTGRES_DSN"); v != "" {
		cfg.Recorders.Postgres.DSN = v
	}
	if v := os.Getenv("BITE_ENGINE_INFLUX_URL"); v != "" {
		cfg.Recorders.Influx.URL = v
	}
	if v := os.Getenv("BITE_ENGINE_INFLUX_TOKEN"); v != "" {
		cfg.Recorders.Influx.Token = v
	}
	if v := os.Getenv("BITE_ENGINE_INFLUX_ORG"); v != "" {
		cfg.Recorders.Influx.Org = v
	}
	if v := os.Getenv("BITE_ENGINE_INFLUX_BUCKET"); v != "" {
		cfg.Recorders.Influx.Bucket = v
	}
	if v := os.Getenv("BITE_ENGINE_WEBHOOK_URL"); v != "" {
		cfg.Recorders.Webhook.URL = v
	}
	if v := os.Getenv("BITE_ENGINE_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
}

// normalize applies the fall-back rules: an invalid cadence reverts to the
// default instead of failing startup, and an empty roster reverts to the
// built-in sensors.
func normalize(cfg *Config) {
	if cfg.Sampling.IntervalMS <= 0 {
		cfg.Sampling.IntervalMS = DefaultIntervalMS
	}
	if cfg.Sampling.RetentionSec <= 0 {
		cfg.Sampling.RetentionSec = 30
	}
	if len(cfg.Sensors) == 0 {
		cfg.Sensors = DefaultRoster()
	}
	if cfg.Recorders.CSV.Path == "" {
		cfg.Recorders.CSV.Path = "bite_log.csv"
	}
	if cfg.Recorders.Webhook.Retries <= 0 {
		cfg.Recorders.Webhook.Retries = 3
	}
	if cfg.Recorders.Webhook.Timeout <= 0 {
		cfg.Recorders.Webhook.Timeout = 5 * time.Second
	}
	if cfg.History.Capacity <= 0 {
		cfg.History.Capacity = 1000
	}
}

// Interval returns the sampling cadence as a duration.
func (s SamplingConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMS) * time.Millisecond
}
