// Package file loads a price series from a CSV file on disk.
package file

import (
	"context"
	"fmt"
	"os"

	"goldforecast/internal/series"
	"goldforecast/internal/source"
)

// Source reads Path on every Load.
type Source struct {
	Path    string
	Options series.CSVOptions
}

func New(path string, opts series.CSVOptions) *Source {
	return &Source{Path: path, Options: opts}
}

func (s *Source) Name() string { return "file:" + s.Path }

func (s *Source) Load(ctx context.Context) (*series.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrUnavailable, err)
	}
	defer f.Close()

	ser, err := series.ParseCSV(f, s.Options)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	return ser, nil
}
