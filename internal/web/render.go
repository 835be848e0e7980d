// Package web serves the forecast page, its JSON API and downloads.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"goldforecast/internal/chart"
	"goldforecast/internal/forecast"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// PageData is the context of forecast.html.
type PageData struct {
	Title  string
	Figure template.JS
	Report *forecast.Report

	Past3MonthsAverage       string
	Past6MonthsAverage       string
	Forecasted3MonthsAverage string
	Forecasted6MonthsAverage string
}

// NewPageData renders the figure for r and formats its averages.
func NewPageData(r *forecast.Report, opts chart.PlotlyOptions) (PageData, error) {
	fig, err := chart.Plotly(r, opts).JSON()
	if err != nil {
		return PageData{}, fmt.Errorf("encode figure: %w", err)
	}
	a := r.Averages
	return PageData{
		Title:                    r.Title,
		Figure:                   template.JS(fig),
		Report:                   r,
		Past3MonthsAverage:       a.Past3.StringFixed(2),
		Past6MonthsAverage:       a.Past6.StringFixed(2),
		Forecasted3MonthsAverage: a.Forecast3.StringFixed(2),
		Forecasted6MonthsAverage: a.Forecast6.StringFixed(2),
	}, nil
}

// ErrorData is the context of error.html.
type ErrorData struct {
	Status     int
	StatusText string
	Message    string
	RequestID  string
}

// Render executes the named template into w. Output is buffered so a failing
// template never leaves a half written page.
func Render(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func renderError(w http.ResponseWriter, status int, msg, requestID string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = Render(w, "error.html", ErrorData{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    msg,
		RequestID:  requestID,
	})
}
