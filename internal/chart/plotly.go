// Package chart renders a report as a Plotly figure for the browser and as a
// static PNG.
package chart

import (
	"encoding/json"
	"strconv"

	"goldforecast/internal/forecast"
)

// Colours of the plotly_dark template.
const (
	darkBackground = "#111111"
	darkFont       = "#f2f5fa"
	darkGrid       = "#283442"
	originalColour = "#636efa"
	forecastColour = "#ef553b"
	bandColour     = "rgba(239,85,59,0.18)"
)

// Default figure size in pixels.
const (
	DefaultWidth  = 1200
	DefaultHeight = 500
)

type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"`
}

type Trace struct {
	Type       string    `json:"type"`
	Mode       string    `json:"mode"`
	Name       string    `json:"name"`
	X          []string  `json:"x"`
	Y          []float64 `json:"y"`
	Line       *Line     `json:"line,omitempty"`
	Fill       string    `json:"fill,omitempty"`
	FillColor  string    `json:"fillcolor,omitempty"`
	ShowLegend *bool     `json:"showlegend,omitempty"`
	HoverInfo  string    `json:"hoverinfo,omitempty"`
}

type Text struct {
	Text string `json:"text"`
}

type Font struct {
	Color string `json:"color,omitempty"`
}

type Axis struct {
	Title     Text   `json:"title"`
	GridColor string `json:"gridcolor,omitempty"`
	ZeroLine  bool   `json:"zeroline"`
}

type Layout struct {
	Title        Text   `json:"title"`
	XAxis        Axis   `json:"xaxis"`
	YAxis        Axis   `json:"yaxis"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PaperBGColor string `json:"paper_bgcolor"`
	PlotBGColor  string `json:"plot_bgcolor"`
	Font         Font   `json:"font"`
}

// Figure is the JSON document handed to Plotly.newPlot.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// JSON encodes the figure.
func (f Figure) JSON() ([]byte, error) { return json.Marshal(f) }

// PlotlyOptions control optional parts of the figure.
type PlotlyOptions struct {
	Width, Height int
	// Interval adds the forecast prediction interval as a shaded band.
	Interval bool
}

// Plotly builds the "Original" and "Forecast" line chart for r in the dark
// theme.
func Plotly(r *forecast.Report, opts PlotlyOptions) Figure {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	original := Trace{Type: "scatter", Mode: "lines", Name: "Original", Line: &Line{Color: originalColour}}
	for _, h := range r.History {
		original.X = append(original.X, h.Date.Format("2006-01-02"))
		original.Y = append(original.Y, h.Price)
	}
	fc := Trace{Type: "scatter", Mode: "lines", Name: "Forecast", Line: &Line{Color: forecastColour}}
	for _, f := range r.Forecast {
		fc.X = append(fc.X, f.Date.Format("2006-01-02"))
		fc.Y = append(fc.Y, f.Mean)
	}

	data := []Trace{original}
	if opts.Interval && len(r.Forecast) > 0 {
		hide := false
		upper := Trace{Type: "scatter", Mode: "lines", Name: "Upper", X: fc.X,
			Line: &Line{Width: 0}, ShowLegend: &hide, HoverInfo: "skip"}
		lower := Trace{Type: "scatter", Mode: "lines", Name: intervalName(r.Confidence), X: fc.X,
			Line: &Line{Width: 0}, Fill: "tonexty", FillColor: bandColour, HoverInfo: "skip"}
		for _, f := range r.Forecast {
			upper.Y = append(upper.Y, f.Upper)
			lower.Y = append(lower.Y, f.Lower)
		}
		data = append(data, upper, lower)
	}
	data = append(data, fc)

	return Figure{
		Data: data,
		Layout: Layout{
			Title:        Text{Text: r.Title},
			XAxis:        Axis{Title: Text{Text: "Date"}, GridColor: darkGrid},
			YAxis:        Axis{Title: Text{Text: "Price"}, GridColor: darkGrid},
			Width:        opts.Width,
			Height:       opts.Height,
			PaperBGColor: darkBackground,
			PlotBGColor:  darkBackground,
			Font:         Font{Color: darkFont},
		},
	}
}

func intervalName(confidence float64) string {
	pct := int(confidence*100 + 0.5)
	if pct <= 0 || pct >= 100 {
		return "Interval"
	}
	return strconv.Itoa(pct) + "% interval"
}
