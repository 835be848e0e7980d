package chart

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"goldforecast/internal/forecast"
)

var (
	pngBackground = color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}
	pngForeground = color.RGBA{R: 0xf2, G: 0xf5, B: 0xfa, A: 0xff}
	pngGrid       = color.RGBA{R: 0x28, G: 0x34, B: 0x42, A: 0xff}
	pngOriginal   = color.RGBA{R: 0x63, G: 0x6e, B: 0xfa, A: 0xff}
	pngForecast   = color.RGBA{R: 0xef, G: 0x55, B: 0x3b, A: 0xff}
	pngBand       = color.RGBA{R: 0xef, G: 0x55, B: 0x3b, A: 0x38}
)

// PNG writes a static chart of r, width by height pixels at 96 dpi.
func PNG(w io.Writer, r *forecast.Report, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if len(r.History) == 0 {
		return fmt.Errorf("chart: report has no history")
	}

	p := plot.New()
	p.Title.Text = r.Title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006"}
	darken(p)

	grid := plotter.NewGrid()
	grid.Vertical.Color = pngGrid
	grid.Horizontal.Color = pngGrid
	p.Add(grid)

	if len(r.Forecast) > 0 {
		band := make(plotter.XYs, 0, 2*len(r.Forecast))
		for _, f := range r.Forecast {
			band = append(band, plotter.XY{X: float64(f.Date.Unix()), Y: f.Upper})
		}
		for i := len(r.Forecast) - 1; i >= 0; i-- {
			f := r.Forecast[i]
			band = append(band, plotter.XY{X: float64(f.Date.Unix()), Y: f.Lower})
		}
		poly, err := plotter.NewPolygon(band)
		if err != nil {
			return fmt.Errorf("chart: interval: %w", err)
		}
		poly.Color = pngBand
		poly.LineStyle.Width = 0
		p.Add(poly)
	}

	hist := make(plotter.XYs, len(r.History))
	for i, h := range r.History {
		hist[i] = plotter.XY{X: float64(h.Date.Unix()), Y: h.Price}
	}
	original, err := plotter.NewLine(hist)
	if err != nil {
		return fmt.Errorf("chart: history: %w", err)
	}
	original.Color = pngOriginal
	original.Width = vg.Points(1.5)
	p.Add(original)
	p.Legend.Add("Original", original)

	if len(r.Forecast) > 0 {
		fc := make(plotter.XYs, len(r.Forecast))
		for i, f := range r.Forecast {
			fc[i] = plotter.XY{X: float64(f.Date.Unix()), Y: f.Mean}
		}
		line, err := plotter.NewLine(fc)
		if err != nil {
			return fmt.Errorf("chart: forecast: %w", err)
		}
		line.Color = pngForecast
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("Forecast", line)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	// 96 dpi: one pixel is 0.75 points.
	wt, err := p.WriterTo(vg.Length(width)*0.75, vg.Length(height)*0.75, "png")
	if err != nil {
		return fmt.Errorf("chart: render: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("chart: write: %w", err)
	}
	return nil
}

func darken(p *plot.Plot) {
	p.BackgroundColor = pngBackground
	p.Title.TextStyle.Color = pngForeground
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Legend.TextStyle.Color = pngForeground
	for _, a := range []*plot.Axis{&p.X, &p.Y} {
		a.LineStyle.Color = pngForeground
		a.Label.TextStyle.Color = pngForeground
		a.Tick.Label.Color = pngForeground
		a.Tick.LineStyle.Color = pngForeground
	}
}
