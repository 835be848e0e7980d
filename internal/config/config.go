package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port               string   `json:"port" yaml:"port"`
	RequestTimeoutSec  int      `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	ShutdownTimeoutSec int      `json:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`
	CORSOrigins        []string `json:"cors_origins" yaml:"cors_origins"`
	// Compression is "zstd", "gzip" or "none". zstd falls back to gzip for
	// clients that do not accept it.
	Compression string `json:"compression" yaml:"compression"`
}

// Source selects where the price series comes from.
type Source struct {
	Kind        string `json:"kind" yaml:"kind"` // file | http | postgres
	Path        string `json:"path" yaml:"path"`
	URL         string `json:"url" yaml:"url"`
	DateColumn  string `json:"date_column" yaml:"date_column"`
	PriceColumn string `json:"price_column" yaml:"price_column"`
	DateLayout  string `json:"date_layout" yaml:"date_layout"`
	TimeoutSec  int    `json:"timeout_sec" yaml:"timeout_sec"`

	MaxRequestsPerMinute  int `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	MinRequestIntervalSec int `json:"min_request_interval_sec" yaml:"min_request_interval_sec"`
	Burst                 int `json:"burst" yaml:"burst"`
	CacheTTLSeconds       int `json:"cache_ttl_sec" yaml:"cache_ttl_sec"`
}

// Postgres holds the connection and table used by the postgres source.
type Postgres struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Name     string `json:"name" yaml:"name"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode"`
	MaxConns int    `json:"max_conns" yaml:"max_conns"`
	MinConns int    `json:"min_conns" yaml:"min_conns"`

	Table       string `json:"table" yaml:"table"`
	DateColumn  string `json:"date_column" yaml:"date_column"`
	PriceColumn string `json:"price_column" yaml:"price_column"`
}

// Model configures the analysis and the seasonal ARIMA forecast.
type Model struct {
	P             int     `json:"p" yaml:"p"`
	D             int     `json:"d" yaml:"d"`
	Q             int     `json:"q" yaml:"q"`
	SeasonalP     int     `json:"seasonal_p" yaml:"seasonal_p"`
	SeasonalD     int     `json:"seasonal_d" yaml:"seasonal_d"`
	SeasonalQ     int     `json:"seasonal_q" yaml:"seasonal_q"`
	Period        int     `json:"period" yaml:"period"`
	Steps         int     `json:"steps" yaml:"steps"`
	Confidence    float64 `json:"confidence" yaml:"confidence"`
	RollingWindow int     `json:"rolling_window" yaml:"rolling_window"`
	ADFAutolag    string  `json:"adf_autolag" yaml:"adf_autolag"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
	ReportTTLSec  int     `json:"report_ttl_sec" yaml:"report_ttl_sec"`
	FitTimeoutSec int     `json:"fit_timeout_sec" yaml:"fit_timeout_sec"`
	AssetName     string  `json:"asset_name" yaml:"asset_name"`
}

type Log struct {
	Level  string `json:"level" yaml:"level"`   // debug | info | warn | error
	Format string `json:"format" yaml:"format"` // text | json
}

type Config struct {
	Server   Server   `json:"server" yaml:"server"`
	Source   Source   `json:"source" yaml:"source"`
	Postgres Postgres `json:"postgres" yaml:"postgres"`
	Model    Model    `json:"model" yaml:"model"`
	Log      Log      `json:"log" yaml:"log"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:               "8080",
			RequestTimeoutSec:  30,
			ShutdownTimeoutSec: 10,
			Compression:        "zstd",
		},
		Source: Source{
			Kind:                 "file",
			Path:                 "data/gold_price_data.csv",
			DateColumn:           "Date",
			PriceColumn:          "Price",
			DateLayout:           "2006-01",
			TimeoutSec:           10,
			MaxRequestsPerMinute: 6,
			Burst:                2,
		},
		Postgres: Postgres{
			Host:        "localhost",
			Port:        5432,
			Name:        "prices",
			User:        "postgres",
			SSLMode:     "prefer",
			MaxConns:    4,
			MinConns:    0,
			Table:       "gold_prices",
			DateColumn:  "date",
			PriceColumn: "price",
		},
		Model: Model{
			P: 1, D: 1, Q: 1,
			SeasonalP: 1, SeasonalD: 1, SeasonalQ: 1,
			Period:        12,
			Steps:         48,
			Confidence:    0.95,
			RollingWindow: 12,
			ADFAutolag:    "AIC",
			MaxIterations: 500,
			FitTimeoutSec: 20,
			AssetName:     "Gold",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads config from path. JSON is the default; .yaml and .yml files are
// parsed as YAML after ${VAR} expansion. If path is empty, config.json or
// config.yaml in the working directory is used when present, otherwise the
// defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

func applyEnv(cfg *Config) {
	setString("PORT", &cfg.Server.Port, false)
	setInt("REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec, 1)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitCSV(v)
	}
	setString("COMPRESSION", &cfg.Server.Compression, true)

	setString("SOURCE_KIND", &cfg.Source.Kind, true)
	setString("SOURCE_PATH", &cfg.Source.Path, false)
	setString("SOURCE_URL", &cfg.Source.URL, false)
	setInt("SOURCE_CACHE_TTL_SEC", &cfg.Source.CacheTTLSeconds, 0)
	setInt("SOURCE_MAX_RPM", &cfg.Source.MaxRequestsPerMinute, 0)
	setInt("SOURCE_MIN_INTERVAL_SEC", &cfg.Source.MinRequestIntervalSec, 0)

	setString("PGHOST", &cfg.Postgres.Host, false)
	setInt("PGPORT", &cfg.Postgres.Port, 1)
	setString("PGDATABASE", &cfg.Postgres.Name, false)
	setString("PGUSER", &cfg.Postgres.User, false)
	setString("PGPASSWORD", &cfg.Postgres.Password, false)
	setString("PGSSLMODE", &cfg.Postgres.SSLMode, false)

	setInt("FORECAST_STEPS", &cfg.Model.Steps, 1)
	setInt("REPORT_TTL_SEC", &cfg.Model.ReportTTLSec, 0)

	setString("LOG_LEVEL", &cfg.Log.Level, true)
	setString("LOG_FORMAT", &cfg.Log.Format, true)
}

func setString(key string, dst *string, lower bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if lower {
		v = strings.ToLower(v)
	}
	*dst = v
}

// setInt overrides dst with the integer in key. Values that do not parse or
// fall below minimum are ignored with a warning.
func setInt(key string, dst *int, minimum int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	x, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("ignoring environment override", "key", key, "value", v, "error", err)
		return
	}
	if x < minimum {
		slog.Warn("ignoring environment override", "key", key, "value", x, "minimum", minimum)
		return
	}
	*dst = x
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case "file":
		if c.Source.Path == "" {
			return errors.New("source.path is required for kind file")
		}
	case "http":
		if c.Source.URL == "" {
			return errors.New("source.url is required for kind http")
		}
	case "postgres":
		if err := c.Postgres.validate("postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("source.kind must be file, http or postgres, got %q", c.Source.Kind)
	}

	m := c.Model
	if m.P < 0 || m.D < 0 || m.Q < 0 || m.SeasonalP < 0 || m.SeasonalD < 0 || m.SeasonalQ < 0 {
		return errors.New("model orders must be >= 0")
	}
	if m.Period < 2 {
		return fmt.Errorf("model.period must be >= 2, got %d", m.Period)
	}
	if m.Steps < 1 {
		return fmt.Errorf("model.steps must be >= 1, got %d", m.Steps)
	}
	if m.Confidence <= 0 || m.Confidence >= 1 {
		return fmt.Errorf("model.confidence must be in (0, 1), got %g", m.Confidence)
	}
	if m.RollingWindow < 1 {
		return errors.New("model.rolling_window must be >= 1")
	}
	switch strings.ToUpper(m.ADFAutolag) {
	case "", "AIC", "BIC":
	default:
		return fmt.Errorf("model.adf_autolag must be AIC, BIC or empty, got %q", m.ADFAutolag)
	}

	switch c.Server.Compression {
	case "", "none", "gzip", "zstd":
	default:
		return fmt.Errorf("server.compression must be zstd, gzip or none, got %q", c.Server.Compression)
	}
	return nil
}

func (db *Postgres) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Table == "" {
		return fmt.Errorf("%s.table is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 || db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) must be between 0 and max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
