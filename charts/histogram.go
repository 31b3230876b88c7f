// Package charts renders the compensation histograms shown on the dashboard.
package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"total-comp/models"
)

// Bin is one histogram bucket covering [Low, High); the last bin also includes High.
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Bins buckets values into equal-width bins, choosing the bin count with
// Sturges' rule. All-equal input yields a single zero-width bin. NaN and
// infinite values are skipped.
func Bins(values []float64) []Bin {
	values = finite(values)
	if len(values) == 0 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []Bin{{Low: lo, High: hi, Count: len(values)}}
	}

	// Binning runs on values scaled into [-1, 1] so a spread near MaxFloat64
	// stays finite.
	s := math.Max(math.Abs(lo), math.Abs(hi))
	nlo, span := lo/s, hi/s-lo/s
	if span == 0 {
		return []Bin{{Low: lo, High: hi, Count: len(values)}}
	}

	k := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	edge := func(i int) float64 {
		return s * (nlo + span*float64(i)/float64(k))
	}

	bins := make([]Bin, k)
	for i := range bins {
		bins[i].Low = edge(i)
		bins[i].High = edge(i + 1)
	}
	bins[0].Low = lo
	bins[k-1].High = hi

	for _, v := range values {
		i := int((v/s - nlo) / span * float64(k))
		switch {
		case i < 0:
			i = 0
		case i >= k:
			i = k - 1
		}
		bins[i].Count++
	}
	return bins
}

func finite(values []float64) []float64 {
	for i, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			out := append(make([]float64, 0, len(values)), values[:i]...)
			for _, w := range values[i+1:] {
				if !math.IsInf(w, 0) && !math.IsNaN(w) {
					out = append(out, w)
				}
			}
			return out
		}
	}
	return values
}

const (
	barWidth   = 28
	barSpacing = 4
	minWidth   = 640
	height     = 400
)

var barColor = drawing.Color{R: 99, G: 110, B: 250, A: 255}

// RenderHistogram writes a PNG histogram of values to w. The y-axis is hidden;
// bar labels carry the bin's lower edge. Empty input is ErrEmptyFilterResult.
func RenderHistogram(w io.Writer, title string, values []float64) error {
	bins := Bins(values)
	if len(bins) == 0 {
		return errors.Wrapf(models.ErrEmptyFilterResult, "histogram %s", title)
	}

	bars := make([]chart.Value, 0, len(bins))
	maxCount := 0
	for _, b := range bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
		bars = append(bars, chart.Value{
			Label: shortNumber(b.Low),
			Value: float64(b.Count),
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor, StrokeWidth: 1},
		})
	}

	width := len(bars)*(barWidth+barSpacing) + 120
	if width < minWidth {
		width = minWidth
	}

	bc := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.Style{FontSize: 8},
		YAxis: chart.YAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}

	if err := bc.Render(chart.PNG, w); err != nil {
		return errors.Wrapf(err, "render histogram %s", title)
	}
	return nil
}

// shortNumber abbreviates large values for axis labels: 125000 → "125k".
func shortNumber(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.0fk", v/1e3)
	case a == math.Trunc(a):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}
