package analysis

import (
	"math"

	"github.com/pkg/errors"

	"github.com/prokie/krets/pkg/circuit"
	"github.com/prokie/krets/pkg/device"
	"github.com/prokie/krets/pkg/result"
)

// Frequency scales.
const (
	ScaleLin = "lin"
	ScaleDec = "dec"
)

// ACAnalysis solves the complex small-signal system over a frequency
// sweep, linearizing nonlinear devices at the operating point first.
type ACAnalysis struct {
	BaseAnalysis
	op          *OperatingPoint
	startFreq   float64
	stopFreq    float64
	numPoints   int
	scale       string
	frequencies []float64
}

func NewAC(fStart, fStop float64, nPoints int, scale string) *ACAnalysis {
	return &ACAnalysis{
		BaseAnalysis: *NewBaseAnalysis(),
		op:           NewOP(),
		startFreq:    fStart,
		stopFreq:     fStop,
		numPoints:    nPoints,
		scale:        scale,
	}
}

func (ac *ACAnalysis) SetTolerances(tol Tolerances) {
	ac.BaseAnalysis.SetTolerances(tol)
	ac.op.SetTolerances(tol)
}

func (ac *ACAnalysis) Setup(ckt *circuit.Circuit) error {
	ac.Circuit = ckt

	if !ckt.Matrix().IsComplex() {
		return errors.New("AC analysis requires a complex system matrix")
	}

	// Bias point; the nonlinear devices keep their linearization from the
	// final Newton assembly.
	if err := ac.op.Setup(ckt); err != nil {
		return err
	}
	if err := ac.op.Execute(); err != nil {
		return errors.Wrap(err, "operating point for AC bias")
	}

	ac.generateFrequencyPoints()

	return nil
}

func (ac *ACAnalysis) Execute() error {
	if ac.Circuit == nil {
		return errors.New("circuit not set")
	}

	size := ac.Circuit.Size()
	mat := ac.Circuit.Matrix()
	ac.res = result.NewComplex(result.AxisFreq, ac.Circuit.Labels())

	for _, freq := range ac.frequencies {
		status := &device.CircuitStatus{
			Mode:      device.ACAnalysis,
			Frequency: freq,
			Temp:      defaultTemp,
		}

		mat.Clear()
		if err := ac.Circuit.Stamp(status); err != nil {
			return errors.Wrapf(err, "at f=%g", freq)
		}
		if err := mat.Solve(); err != nil {
			return errors.Wrapf(err, "at f=%g", freq)
		}

		point := make([]complex128, size)
		for i := 1; i <= size; i++ {
			re, im := mat.ComplexSolution(i)
			point[i-1] = complex(re, im)
		}

		if err := ac.res.AppendComplex(freq, point); err != nil {
			return err
		}
	}

	return nil
}

func (ac *ACAnalysis) generateFrequencyPoints() {
	if ac.numPoints < 2 {
		ac.frequencies = []float64{ac.startFreq}
		return
	}

	ac.frequencies = make([]float64, ac.numPoints)
	switch ac.scale {
	case ScaleDec:
		logStart := math.Log10(ac.startFreq)
		logStop := math.Log10(ac.stopFreq)
		step := (logStop - logStart) / float64(ac.numPoints-1)
		for i := range ac.frequencies {
			ac.frequencies[i] = math.Pow(10, logStart+float64(i)*step)
		}

	default: // linear
		step := (ac.stopFreq - ac.startFreq) / float64(ac.numPoints-1)
		for i := range ac.frequencies {
			ac.frequencies[i] = ac.startFreq + float64(i)*step
		}
	}
}

// Frequencies exposes the generated sweep points.
func (ac *ACAnalysis) Frequencies() []float64 {
	return ac.frequencies
}
