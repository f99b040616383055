package analysis

import (
	"github.com/pkg/errors"

	"github.com/prokie/krets/pkg/circuit"
	"github.com/prokie/krets/pkg/device"
	"github.com/prokie/krets/pkg/result"
)

// OperatingPoint computes the DC bias: capacitors open, inductors shorted.
type OperatingPoint struct {
	BaseAnalysis
	solution []float64
}

func NewOP() *OperatingPoint {
	return &OperatingPoint{BaseAnalysis: *NewBaseAnalysis()}
}

func (op *OperatingPoint) Setup(ckt *circuit.Circuit) error {
	op.Circuit = ckt
	return nil
}

func (op *OperatingPoint) Execute() error {
	if op.Circuit == nil {
		return errors.New("circuit not set")
	}

	status := &device.CircuitStatus{
		Mode: device.OperatingPointAnalysis,
		Temp: defaultTemp,
	}

	solution, err := op.solve(status)
	if err != nil {
		return errors.Wrap(err, "operating point")
	}

	op.solution = make([]float64, len(solution))
	copy(op.solution, solution)

	op.res = result.New("", op.Circuit.Labels())
	return op.res.Append(0, solution[1:op.Circuit.Size()+1])
}

// Solution returns the 1-based bias vector for engines that build on the
// operating point.
func (op *OperatingPoint) Solution() []float64 {
	return op.solution
}
