package app_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goldforecast/internal/app"
	"goldforecast/internal/config"
	"goldforecast/internal/source/cache"
	"goldforecast/internal/source/file"
	"goldforecast/internal/source/ratelimit"
)

func TestNewLogger_LevelAndFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := app.NewLogger(&buf, config.Log{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)
	require.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	require.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestBuildSource(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Source.Path = "prices.csv"

		src, closeFn, err := app.BuildSource(t.Context(), cfg, logger)
		require.NoError(t, err)
		defer closeFn()

		require.IsType(t, &file.Source{}, src)
		require.Equal(t, "file:prices.csv", src.Name())
	})

	t.Run("file with cache", func(t *testing.T) {
		cfg := config.Default()
		cfg.Source.CacheTTLSeconds = 60

		src, closeFn, err := app.BuildSource(t.Context(), cfg, logger)
		require.NoError(t, err)
		defer closeFn()

		c, ok := src.(*cache.Source)
		require.True(t, ok)
		require.Equal(t, time.Minute, c.TTL)
	})

	t.Run("http uses token bucket", func(t *testing.T) {
		cfg := config.Default()
		cfg.Source.Kind = "http"
		cfg.Source.URL = "https://example.com/gold.csv"

		src, closeFn, err := app.BuildSource(t.Context(), cfg, logger)
		require.NoError(t, err)
		defer closeFn()

		require.IsType(t, &ratelimit.TokenBucketSource{}, src)
		require.Equal(t, "http:https://example.com/gold.csv", src.Name())
	})

	t.Run("http uses min interval without rpm", func(t *testing.T) {
		cfg := config.Default()
		cfg.Source.Kind = "http"
		cfg.Source.URL = "https://example.com/gold.csv"
		cfg.Source.MaxRequestsPerMinute = 0
		cfg.Source.MinRequestIntervalSec = 5

		src, _, err := app.BuildSource(t.Context(), cfg, logger)
		require.NoError(t, err)

		mi, ok := src.(*ratelimit.MinInterval)
		require.True(t, ok)
		require.Equal(t, 5*time.Second, mi.Interval)
	})

	t.Run("bad url", func(t *testing.T) {
		cfg := config.Default()
		cfg.Source.Kind = "http"
		cfg.Source.URL = "ftp://example.com/gold.csv"

		_, _, err := app.BuildSource(t.Context(), cfg, logger)
		require.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		cfg := config.Default()
		cfg.Source.Kind = "s3"

		_, _, err := app.BuildSource(t.Context(), cfg, logger)
		require.ErrorContains(t, err, "unknown source kind")
	})
}

func TestServiceOptions(t *testing.T) {
	t.Parallel()

	m := config.Default().Model
	m.ReportTTLSec = 30

	opts := app.ServiceOptions(m)

	require.Equal(t, "Gold", opts.Asset)
	require.Equal(t, "(1,1,1)", opts.Order.String())
	require.Equal(t, "(1,1,1,12)", opts.Seasonal.String())
	require.Equal(t, 48, opts.Horizon)
	require.Equal(t, 0.95, opts.Confidence)
	require.Equal(t, 12, opts.RollingWindow)
	require.Equal(t, 30*time.Second, opts.ReportTTL)
	require.Equal(t, 20*time.Second, opts.BuildTimeout)
}
