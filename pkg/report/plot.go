package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// HistogramBins is the number of bins used by SaveHistogram.
const HistogramBins = 18

// SaveHistogram renders the Ax angle distribution of every summary into one
// image. The format follows the file extension (.png, .svg, .pdf).
func SaveHistogram(sums []Summary, path string) error {
	var values plotter.Values
	for _, s := range sums {
		values = append(values, s.Angles...)
	}
	if len(values) == 0 {
		return fmt.Errorf("histogram: no frames to plot")
	}

	p := plot.New()
	p.Title.Text = "Local X axis vs global X"
	p.X.Label.Text = "Angle (deg)"
	p.Y.Label.Text = "Elements"

	h, err := plotter.NewHist(values, HistogramBins)
	if err != nil {
		return fmt.Errorf("histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("histogram: save %s: %w", path, err)
	}
	return nil
}
