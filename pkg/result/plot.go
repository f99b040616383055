package result

import (
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WritePlot renders the result as a PNG: waveforms against the sweep axis,
// with a log frequency axis and magnitude traces for AC results.
func (r *Result) WritePlot(path string) error {
	if r.axisName == "" {
		return errors.New("result: single-point results cannot be plotted")
	}
	if len(r.axis) == 0 {
		return errors.New("result: nothing to plot")
	}

	p := plot.New()
	p.X.Label.Text = axisLabel(r.axisName)
	if r.isComplex {
		p.Y.Label.Text = "magnitude"
	}

	if r.axisName == AxisFreq {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	var lines []interface{}
	for _, label := range r.labels {
		values := r.magnitudes(label)
		xys := make(plotter.XYs, len(values))
		for i := range values {
			xys[i].X = r.axis[i]
			xys[i].Y = values[i]
		}
		name := label
		if r.isComplex {
			name = "|" + strings.TrimSpace(label) + "|"
		}
		lines = append(lines, name, xys)
	}

	if err := plotutil.AddLines(p, lines...); err != nil {
		return errors.Wrap(err, "adding plot lines")
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving plot to %s", path)
	}

	return nil
}
