// Package forecast runs the analysis pipeline: load the series, decompose it,
// test for a unit root, compute rolling statistics, fit the seasonal ARIMA
// model, forecast and summarise.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"goldforecast/internal/aggregate"
	"goldforecast/internal/sarima"
	"goldforecast/internal/series"
	"goldforecast/internal/source"
	"goldforecast/internal/stats"
)

// Options configure the pipeline. Zero values select the defaults of
// DefaultOptions.
type Options struct {
	Asset         string
	Order         sarima.Order
	Seasonal      sarima.SeasonalOrder
	Horizon       int // months past the last observation
	Confidence    float64
	RollingWindow int
	ADFAutolag    string
	ADFMaxLag     int // negative selects the default lag bound
	MaxIterations int
	// ReportTTL keeps a report for reuse; zero recomputes on every request.
	ReportTTL time.Duration
	// BuildTimeout bounds one pipeline run, independent of the caller.
	BuildTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Asset:         "Gold",
		Order:         sarima.Order{P: 1, D: 1, Q: 1},
		Seasonal:      sarima.SeasonalOrder{P: 1, D: 1, Q: 1, M: 12},
		Horizon:       48,
		Confidence:    0.95,
		RollingWindow: 12,
		ADFAutolag:    "AIC",
		ADFMaxLag:     -1,
		MaxIterations: 500,
		BuildTimeout:  time.Minute,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Asset == "" {
		o.Asset = def.Asset
	}
	if o.Order == (sarima.Order{}) && o.Seasonal == (sarima.SeasonalOrder{}) {
		o.Order, o.Seasonal = def.Order, def.Seasonal
	}
	if o.Horizon <= 0 {
		o.Horizon = def.Horizon
	}
	if o.Confidence <= 0 || o.Confidence >= 1 {
		o.Confidence = def.Confidence
	}
	if o.RollingWindow <= 0 {
		o.RollingWindow = def.RollingWindow
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = def.MaxIterations
	}
	if o.BuildTimeout <= 0 {
		o.BuildTimeout = def.BuildTimeout
	}
	return o
}

// Service produces reports from a Source. It is safe for concurrent use:
// simultaneous requests share one pipeline run.
type Service struct {
	src    source.Source
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	cached  *Report
	expires time.Time
}

func NewService(src source.Source, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{src: src, opts: opts.withDefaults(), logger: logger, now: time.Now}
}

// Options returns the effective options.
func (s *Service) Options() Options { return s.opts }

// Report returns a cached report while it is fresh, otherwise it runs the
// pipeline. ctx only bounds how long the caller waits; the shared run is
// bounded by BuildTimeout.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	if r := s.fresh(); r != nil {
		return r, nil
	}

	ch := s.group.DoChan("report", func() (any, error) {
		if r := s.fresh(); r != nil {
			return r, nil
		}
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.BuildTimeout)
		defer cancel()
		r, err := s.Build(buildCtx)
		if err != nil {
			return nil, err
		}
		if s.opts.ReportTTL > 0 {
			s.mu.Lock()
			s.cached, s.expires = r, s.now().Add(s.opts.ReportTTL)
			s.mu.Unlock()
		}
		return r, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Report), nil
	}
}

func (s *Service) fresh() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && s.now().Before(s.expires) {
		return s.cached
	}
	return nil
}

// Invalidate drops any cached report.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Build runs the full pipeline once without consulting the cache.
func (s *Service) Build(ctx context.Context) (*Report, error) {
	start := s.now()
	ser, err := s.src.Load(ctx)
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Err: err}
	}
	s.logger.Debug("series loaded", "source", s.src.Name(), "observations", ser.Len())
	return s.analyse(ctx, ser, start)
}

// Analyse runs every stage after loading on an already loaded series.
func (s *Service) Analyse(ctx context.Context, ser *series.Series) (*Report, error) {
	return s.analyse(ctx, ser, s.now())
}

func (s *Service) analyse(ctx context.Context, ser *series.Series, start time.Time) (*Report, error) {
	o := s.opts
	values := ser.Values
	period := o.Seasonal.M
	if period < 2 {
		period = 12
	}

	decomp, err := stats.Decompose(values, period, stats.Additive)
	if err != nil {
		return nil, &StageError{Stage: StageDecompose, Err: err}
	}

	adf, err := stats.ADF(values, o.ADFMaxLag, o.ADFAutolag)
	if err != nil {
		return nil, &StageError{Stage: StageADF, Err: err}
	}

	if len(values) < o.RollingWindow {
		return nil, &StageError{Stage: StageRolling, Err: fmt.Errorf("%w: rolling window %d over %d observations",
			stats.ErrInsufficientData, o.RollingWindow, len(values))}
	}
	rolling := stats.RollingMean(values, o.RollingWindow)
	rollingDiff := stats.DiffSeries(rolling)

	model := sarima.New(o.Order, o.Seasonal)
	model.Options.MaxIterations = o.MaxIterations
	if err := model.Fit(ctx, values); err != nil {
		return nil, &StageError{Stage: StageFit, Err: err}
	}
	if !model.Converged {
		s.logger.Warn("model did not converge", "status", model.Status, "iterations", model.Iterations)
	}

	last := ser.Last().Date
	dates := series.MonthEndRange(last, series.AddMonths(last, o.Horizon))
	if len(dates) == 0 {
		return nil, &StageError{Stage: StageForecast, Err: sarima.ErrInvalidSteps}
	}
	fc, err := model.Forecast(len(dates), o.Confidence)
	if err != nil {
		return nil, &StageError{Stage: StageForecast, Err: err}
	}

	avg, err := aggregate.Compute(values, fc.Mean)
	if err != nil {
		return nil, &StageError{Stage: StageAverages, Err: err}
	}

	r := &Report{
		Asset:       o.Asset,
		Title:       fmt.Sprintf("%s Price Forecast till %d", o.Asset, dates[len(dates)-1].Year()),
		Source:      s.src.Name(),
		GeneratedAt: s.now().UTC(),
		Confidence:  fc.Confidence,
		History:     make([]HistoryPoint, len(values)),
		Forecast:    make([]ForecastPoint, len(dates)),
		ADF:         adf,
		Model:       model.Summary(),
		Averages:    avg,
	}
	for i, v := range values {
		r.History[i] = HistoryPoint{
			Date:        ser.Dates[i],
			Price:       v,
			RollingMean: Number(rolling[i]),
			RollingDiff: Number(rollingDiff[i]),
			Trend:       Number(decomp.Trend[i]),
			Seasonal:    Number(decomp.Seasonal[i]),
			Resid:       Number(decomp.Resid[i]),
		}
	}
	for i, d := range dates {
		r.Forecast[i] = ForecastPoint{Date: d, Mean: fc.Mean[i], Lower: fc.Lower[i], Upper: fc.Upper[i]}
	}

	s.logger.Info("report built",
		"source", r.Source,
		"observations", len(values),
		"forecast_months", len(dates),
		"adf_p", adf.PValue,
		"aic", model.AIC,
		"elapsed", s.now().Sub(start),
	)
	return r, nil
}
