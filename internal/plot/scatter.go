// Package plot renders the pseudo Q score scatter as a standalone
// interactive HTML page and writes the scored table as CSV.
package plot

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"scholarmap/internal/qscore"
)

// Point is one plotted author.
type Point struct {
	X, Y float64
	Name string
}

// Points groups plottable rows by bucket. x is the calculated score and y
// is ln(h-index); rows with a non-finite coordinate are left out.
func Points(rows []qscore.Row) map[qscore.Label][]Point {
	out := make(map[qscore.Label][]Point, len(qscore.Labels))
	for _, r := range rows {
		x := r.Calculated
		y := math.Log(float64(r.HIndex))
		if !finite(x) || !finite(y) {
			continue
		}
		out[r.Bucket] = append(out[r.Bucket], Point{X: x, Y: y, Name: r.Name})
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Scatter builds the chart. Hovering a point shows "Name: <author>".
func Scatter(rows []qscore.Row, keyword string) *charts.Scatter {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Pseudo Q score: " + keyword,
			Width:     "1100px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Pseudo Q score chart for: " + keyword,
			Left:  "center",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Pseudo Q score", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "log of h-index", Type: "value"}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: "Name: {b}",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Left: "left", Top: "top"}),
	)

	groups := Points(rows)
	for _, label := range qscore.Labels {
		pts := groups[label]
		data := make([]opts.ScatterData, 0, len(pts))
		for _, p := range pts {
			data = append(data, opts.ScatterData{Name: p.Name, Value: []float64{p.X, p.Y}, SymbolSize: 10})
		}
		sc.AddSeries(label.LegendText(), data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: qscore.Colors[label]}),
		)
	}
	return sc
}

// Render writes the chart page to w.
func Render(w io.Writer, sc *charts.Scatter) error {
	if err := sc.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// WriteHTML renders the chart to path, creating parent directories.
func WriteHTML(path string, sc *charts.Scatter) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Render(f, sc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
