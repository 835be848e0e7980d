// Package export writes a report as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"goldforecast/internal/forecast"
)

const (
	SheetHistory  = "History"
	SheetForecast = "Forecast"
	SheetSummary  = "Summary"
)

var (
	historyHeader  = []string{"Date", "Price", "Rolling Mean", "Rolling Mean Diff", "Trend", "Seasonal", "Resid"}
	forecastHeader = []string{"Date", "Forecast", "Lower", "Upper"}
)

// WriteXLSX writes r as a workbook with History, Forecast and Summary sheets.
func WriteXLSX(w io.Writer, r *forecast.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetHistory); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	for _, name := range []string{SheetForecast, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("xlsx: new sheet %s: %w", name, err)
		}
	}

	if err := writeHeader(f, SheetHistory, historyHeader); err != nil {
		return err
	}
	for i, h := range r.History {
		row := []any{h.Date.Format("2006-01-02"), h.Price,
			cell(h.RollingMean), cell(h.RollingDiff), cell(h.Trend), cell(h.Seasonal), cell(h.Resid)}
		if err := writeRow(f, SheetHistory, i+2, row); err != nil {
			return err
		}
	}

	if err := writeHeader(f, SheetForecast, forecastHeader); err != nil {
		return err
	}
	for i, p := range r.Forecast {
		row := []any{p.Date.Format("2006-01-02"), p.Mean, p.Lower, p.Upper}
		if err := writeRow(f, SheetForecast, i+2, row); err != nil {
			return err
		}
	}

	for i, kv := range summaryRows(r) {
		if err := writeRow(f, SheetSummary, i+1, kv); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string) error {
	for i, h := range header {
		c, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := f.SetCellValue(sheet, c, h); err != nil {
			return fmt.Errorf("xlsx: %s!%s: %w", sheet, c, err)
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, 16); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		c, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := f.SetCellValue(sheet, c, v); err != nil {
			return fmt.Errorf("xlsx: %s!%s: %w", sheet, c, err)
		}
	}
	return nil
}

// cell leaves undefined statistics blank.
func cell(n forecast.Number) any {
	if !n.Valid() {
		return nil
	}
	return float64(n)
}

func summaryRows(r *forecast.Report) [][]any {
	rows := [][]any{
		{"Title", r.Title},
		{"Source", r.Source},
		{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Observations", len(r.History)},
		{"Forecast months", len(r.Forecast)},
		{"Confidence", r.Confidence},
		{"Past 3 months average", r.Averages.Past3.InexactFloat64()},
		{"Past 6 months average", r.Averages.Past6.InexactFloat64()},
		{"Forecast 3 months average", r.Averages.Forecast3.InexactFloat64()},
		{"Forecast 6 months average", r.Averages.Forecast6.InexactFloat64()},
	}
	if a := r.ADF; a != nil {
		rows = append(rows,
			[]any{"ADF statistic", a.Statistic},
			[]any{"ADF p-value", a.PValue},
			[]any{"ADF used lag", a.UsedLag},
			[]any{"ADF observations", a.NObs},
		)
		levels := make([]string, 0, len(a.CriticalValues))
		for k := range a.CriticalValues {
			levels = append(levels, k)
		}
		sort.Strings(levels)
		for _, k := range levels {
			rows = append(rows, []any{"ADF critical " + k, a.CriticalValues[k]})
		}
	}
	if m := r.Model; m != nil {
		rows = append(rows,
			[]any{"Model", fmt.Sprintf("SARIMA%s%s", m.Order, m.Seasonal)},
			[]any{"Sigma2", m.Sigma2},
			[]any{"Log likelihood", m.LogLik},
			[]any{"AIC", m.AIC},
			[]any{"BIC", m.BIC},
			[]any{"Converged", m.Converged},
		)
		names := make([]string, 0, len(m.Params))
		for k := range m.Params {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			rows = append(rows, []any{k, m.Params[k]})
		}
	}
	return rows
}
