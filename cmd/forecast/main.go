package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"goldforecast/internal/app"
	"goldforecast/internal/chart"
	"goldforecast/internal/config"
	"goldforecast/internal/export"
	"goldforecast/internal/forecast"
)

func main() {
	var (
		configPath string
		csvPath    string
		steps      int
		xlsxPath   string
		pngPath    string
		full       bool
	)
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config file (json or yaml)")
	flag.StringVar(&csvPath, "csv", "", "read this CSV instead of the configured source")
	flag.IntVar(&steps, "steps", 0, "forecast horizon in months (default from config)")
	flag.StringVar(&xlsxPath, "xlsx", "", "write the report as an Excel workbook")
	flag.StringVar(&pngPath, "png", "", "write the chart as a PNG")
	flag.BoolVar(&full, "full", false, "print the full report instead of the summary")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(configPath, csvPath, steps, xlsxPath, pngPath, full); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, csvPath string, steps int, xlsxPath, pngPath string, full bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if csvPath != "" {
		cfg.Source.Kind, cfg.Source.Path = "file", csvPath
	}
	if steps > 0 {
		cfg.Model.Steps = steps
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := app.NewLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, closeSource, err := app.BuildSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	rep, err := forecast.NewService(src, app.ServiceOptions(cfg.Model), logger).Build(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", forecast.KindOf(err), err)
	}

	if xlsxPath != "" {
		if err := writeFile(xlsxPath, func(f *os.File) error { return export.WriteXLSX(f, rep) }); err != nil {
			return err
		}
		logger.Info("workbook written", "path", xlsxPath)
	}
	if pngPath != "" {
		if err := writeFile(pngPath, func(f *os.File) error {
			return chart.PNG(f, rep, chart.DefaultWidth, chart.DefaultHeight)
		}); err != nil {
			return err
		}
		logger.Info("chart written", "path", pngPath)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if full {
		return enc.Encode(rep)
	}
	return enc.Encode(rep.Summary())
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
