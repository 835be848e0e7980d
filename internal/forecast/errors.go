package forecast

import (
	"context"
	"errors"

	"goldforecast/internal/aggregate"
	"goldforecast/internal/sarima"
	"goldforecast/internal/series"
	"goldforecast/internal/source"
	"goldforecast/internal/stats"
)

// Pipeline stages, in execution order.
const (
	StageLoad      = "load"
	StageDecompose = "decompose"
	StageADF       = "adf"
	StageRolling   = "rolling"
	StageFit       = "fit"
	StageForecast  = "forecast"
	StageAverages  = "averages"
)

// StageError records which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Kind groups failures by who is at fault.
type Kind int

const (
	KindInternal Kind = iota
	// KindSource means the upstream data could not be reached.
	KindSource
	// KindData means the data was read but cannot be analysed.
	KindData
	// KindModel means the model failed to fit or forecast.
	KindModel
	// KindTimeout means the request ran out of time.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindData:
		return "data"
	case KindModel:
		return "model"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// KindOf classifies an error returned by Service.Report.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	case errors.Is(err, source.ErrUnavailable):
		return KindSource
	case errors.Is(err, series.ErrEmpty),
		errors.Is(err, series.ErrIrregular),
		errors.Is(err, series.ErrMissingColumn),
		errors.Is(err, stats.ErrInsufficientData),
		errors.Is(err, sarima.ErrInsufficientData),
		errors.Is(err, aggregate.ErrNoValues):
		return KindData
	}
	var se *StageError
	if errors.As(err, &se) {
		switch se.Stage {
		case StageLoad, StageDecompose, StageADF, StageRolling:
			return KindData
		case StageFit, StageForecast:
			return KindModel
		}
	}
	return KindInternal
}
