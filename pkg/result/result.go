// Package result collects analysis output: one append-only sequence per
// MNA variable, keyed by the indexer's labels and kept in indexer order,
// plus the sweep axis under its reserved name ("time", "freq" or "sweep").
package result

import (
	"encoding/csv"
	"io"
	"math"
	"math/cmplx"
	"strconv"

	"github.com/pkg/errors"
)

// Reserved axis names.
const (
	AxisTime  = "time"
	AxisFreq  = "freq"
	AxisSweep = "sweep"
)

type Result struct {
	axisName  string
	axis      []float64
	labels    []string
	real      map[string][]float64
	cplx      map[string][]complex128
	isComplex bool
}

// New creates a real-valued result for the given variable labels.
// axisName may be empty for single-point analyses (OP).
func New(axisName string, labels []string) *Result {
	return &Result{
		axisName: axisName,
		labels:   labels,
		real:     make(map[string][]float64, len(labels)),
	}
}

// NewComplex creates a complex-valued result (AC analysis).
func NewComplex(axisName string, labels []string) *Result {
	return &Result{
		axisName:  axisName,
		labels:    labels,
		cplx:      make(map[string][]complex128, len(labels)),
		isComplex: true,
	}
}

// Append records one solved point. x is parallel to the label list.
func (r *Result) Append(axisValue float64, x []float64) error {
	if r.isComplex {
		return errors.New("result: Append on complex result")
	}
	if len(x) != len(r.labels) {
		return errors.Errorf("result: got %d values for %d variables", len(x), len(r.labels))
	}

	r.axis = append(r.axis, axisValue)
	for i, label := range r.labels {
		r.real[label] = append(r.real[label], x[i])
	}
	return nil
}

// AppendComplex records one solved frequency point.
func (r *Result) AppendComplex(axisValue float64, x []complex128) error {
	if !r.isComplex {
		return errors.New("result: AppendComplex on real result")
	}
	if len(x) != len(r.labels) {
		return errors.Errorf("result: got %d values for %d variables", len(x), len(r.labels))
	}

	r.axis = append(r.axis, axisValue)
	for i, label := range r.labels {
		r.cplx[label] = append(r.cplx[label], x[i])
	}
	return nil
}

func (r *Result) AxisName() string {
	return r.axisName
}

func (r *Result) Axis() []float64 {
	return r.axis
}

func (r *Result) Labels() []string {
	return r.labels
}

func (r *Result) Len() int {
	return len(r.axis)
}

func (r *Result) IsComplex() bool {
	return r.isComplex
}

// Values returns the real sequence for a label.
func (r *Result) Values(label string) ([]float64, bool) {
	v, ok := r.real[label]
	return v, ok
}

// ComplexValues returns the complex sequence for a label.
func (r *Result) ComplexValues(label string) ([]complex128, bool) {
	v, ok := r.cplx[label]
	return v, ok
}

// WriteCSV emits one row per point: the axis column (when present)
// followed by one column per variable. Complex variables expand to
// magnitude and phase-in-degrees columns.
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, 1+2*len(r.labels))
	if r.axisName != "" {
		header = append(header, r.axisName)
	}
	for _, label := range r.labels {
		if r.isComplex {
			header = append(header, label+"_mag", label+"_phase")
		} else {
			header = append(header, label)
		}
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}

	for i := range r.axis {
		row := make([]string, 0, len(header))
		if r.axisName != "" {
			row = append(row, formatFloat(r.axis[i]))
		}
		for _, label := range r.labels {
			if r.isComplex {
				v := r.cplx[label][i]
				row = append(row, formatFloat(cmplx.Abs(v)))
				row = append(row, formatFloat(cmplx.Phase(v)*180.0/math.Pi))
			} else {
				row = append(row, formatFloat(r.real[label][i]))
			}
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing CSV row %d", i)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// magnitudes returns |x| per point for a label, for plotting.
func (r *Result) magnitudes(label string) []float64 {
	if !r.isComplex {
		return r.real[label]
	}
	seq := r.cplx[label]
	mags := make([]float64, len(seq))
	for i, v := range seq {
		mags[i] = cmplx.Abs(v)
	}
	return mags
}

func axisLabel(axisName string) string {
	switch axisName {
	case AxisTime:
		return "t [s]"
	case AxisFreq:
		return "f [Hz]"
	case AxisSweep:
		return "sweep value"
	default:
		return axisName
	}
}
