// Package app wires configuration into the components shared by the server
// and the command line tool.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"goldforecast/internal/config"
	"goldforecast/internal/database"
	"goldforecast/internal/forecast"
	"goldforecast/internal/httpx"
	"goldforecast/internal/sarima"
	"goldforecast/internal/series"
	"goldforecast/internal/source"
	"goldforecast/internal/source/cache"
	"goldforecast/internal/source/file"
	"goldforecast/internal/source/postgres"
	"goldforecast/internal/source/ratelimit"
	"goldforecast/internal/source/remote"
)

// NewLogger builds the process logger from cfg.
func NewLogger(w io.Writer, cfg config.Log) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// CSVOptions returns the CSV layout configured for file and http sources.
func CSVOptions(cfg config.Source) series.CSVOptions {
	return series.CSVOptions{
		DateColumn:  cfg.DateColumn,
		ValueColumn: cfg.PriceColumn,
		DateLayout:  cfg.DateLayout,
	}
}

// BuildSource assembles the configured source with its rate limit and cache.
// The returned close function releases any database pool.
func BuildSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (source.Source, func(), error) {
	closeFn := func() {}
	var src source.Source
	switch cfg.Source.Kind {
	case "file":
		src = file.New(cfg.Source.Path, CSVOptions(cfg.Source))
	case "http":
		client := httpx.New(time.Duration(cfg.Source.TimeoutSec) * time.Second)
		r, err := remote.New(cfg.Source.URL,
			remote.WithHTTPClient(client),
			remote.WithCSVOptions(CSVOptions(cfg.Source)),
		)
		if err != nil {
			return nil, closeFn, err
		}
		src = rateLimited(r, cfg.Source)
	case "postgres":
		logger.Info("connecting to database",
			"host", cfg.Postgres.Host,
			"port", cfg.Postgres.Port,
			"database", cfg.Postgres.Name,
		)
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, closeFn, err
		}
		closeFn = pool.Close
		src = rateLimited(&postgres.Source{
			DB:          pool,
			Table:       cfg.Postgres.Table,
			DateColumn:  cfg.Postgres.DateColumn,
			PriceColumn: cfg.Postgres.PriceColumn,
		}, cfg.Source)
	default:
		return nil, closeFn, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	if cfg.Source.CacheTTLSeconds > 0 {
		name := src.Name()
		src = &cache.Source{
			S:   src,
			TTL: time.Duration(cfg.Source.CacheTTLSeconds) * time.Second,
			OnStale: func(err error) {
				logger.Warn("serving stale series", "source", name, "err", err)
			},
		}
	}
	return src, closeFn, nil
}

// rateLimited prefers a token bucket when a per minute rate is set, otherwise
// a minimum interval.
func rateLimited(src source.Source, cfg config.Source) source.Source {
	switch {
	case cfg.MaxRequestsPerMinute > 0:
		return &ratelimit.TokenBucketSource{S: src, TB: ratelimit.PerMinute(cfg.MaxRequestsPerMinute, cfg.Burst)}
	case cfg.MinRequestIntervalSec > 0:
		return &ratelimit.MinInterval{S: src, Interval: time.Duration(cfg.MinRequestIntervalSec) * time.Second}
	}
	return src
}

// ServiceOptions maps the model section onto pipeline options.
func ServiceOptions(m config.Model) forecast.Options {
	return forecast.Options{
		Asset:         m.AssetName,
		Order:         sarima.Order{P: m.P, D: m.D, Q: m.Q},
		Seasonal:      sarima.SeasonalOrder{P: m.SeasonalP, D: m.SeasonalD, Q: m.SeasonalQ, M: m.Period},
		Horizon:       m.Steps,
		Confidence:    m.Confidence,
		RollingWindow: m.RollingWindow,
		ADFAutolag:    m.ADFAutolag,
		ADFMaxLag:     -1,
		MaxIterations: m.MaxIterations,
		ReportTTL:     time.Duration(m.ReportTTLSec) * time.Second,
		BuildTimeout:  time.Duration(m.FitTimeoutSec) * time.Second,
	}
}
