// Package source defines where the monthly price series is loaded from.
package source

import (
	"context"
	"errors"

	"goldforecast/internal/series"
)

// ErrUnavailable marks failures to reach or read the upstream data, as opposed
// to data that was read but is malformed.
var ErrUnavailable = errors.New("source unavailable")

// Source loads a complete price series.
//
//go:generate mockgen -package=forecast_test -destination=../forecast/mock_source_test.go -source=source.go Source
type Source interface {
	Name() string
	Load(ctx context.Context) (*series.Series, error)
}

// Func adapts a function to a Source.
type Func struct {
	Label string
	Fn    func(ctx context.Context) (*series.Series, error)
}

func (f Func) Name() string { return f.Label }

func (f Func) Load(ctx context.Context) (*series.Series, error) { return f.Fn(ctx) }
