package analysis

import (
	"math"

	"github.com/pkg/errors"

	"github.com/prokie/krets/pkg/circuit"
	"github.com/prokie/krets/pkg/device"
	"github.com/prokie/krets/pkg/result"
)

// DCSweep steps one independent source across a value range and records
// the operating point at each step. Each point warm-starts from the
// previous solution.
type DCSweep struct {
	BaseAnalysis
	sourceName string
	start      float64
	stop       float64
	step       float64
}

func NewDCSweep(source string, start, stop, step float64) *DCSweep {
	return &DCSweep{
		BaseAnalysis: *NewBaseAnalysis(),
		sourceName:   source,
		start:        start,
		stop:         stop,
		step:         step,
	}
}

func (dc *DCSweep) Setup(ckt *circuit.Circuit) error {
	dc.Circuit = ckt

	if _, ok := ckt.FindSweepable(dc.sourceName); !ok {
		return errors.Errorf("sweep source %s not found or not an independent source", dc.sourceName)
	}
	return nil
}

func (dc *DCSweep) Execute() error {
	if dc.Circuit == nil {
		return errors.New("circuit not set")
	}

	source, _ := dc.Circuit.FindSweepable(dc.sourceName)
	orig := source.GetValue()
	defer source.SetValue(orig)

	dc.res = result.New(result.AxisSweep, dc.Circuit.Labels())

	status := &device.CircuitStatus{
		Mode: device.OperatingPointAnalysis,
		Temp: defaultTemp,
	}

	numPoints := int(math.Floor((dc.stop-dc.start)/dc.step+0.5)) + 1
	for i := 0; i < numPoints; i++ {
		value := dc.start + float64(i)*dc.step
		source.SetValue(value)

		solution, err := dc.solve(status)
		if err != nil {
			return errors.Wrapf(err, "at %s=%g", dc.sourceName, value)
		}

		if err := dc.res.Append(value, solution[1:dc.Circuit.Size()+1]); err != nil {
			return err
		}
	}

	return nil
}
