package analysis

import (
	"github.com/pkg/errors"

	"github.com/prokie/krets/pkg/circuit"
	"github.com/prokie/krets/pkg/device"
	"github.com/prokie/krets/pkg/result"
)

// Transient integrates from t=0 to tStop with fixed-step Backward Euler.
// The operating point provides the initial condition unless UIC is
// requested, in which case the circuit starts relaxed.
type Transient struct {
	BaseAnalysis
	op        *OperatingPoint
	startTime float64
	stopTime  float64
	timeStep  float64
	useUIC    bool

	initial []float64 // 1-based initial condition at t=0
}

func NewTransient(tStart, tStop, tStep float64, uic bool) *Transient {
	return &Transient{
		BaseAnalysis: *NewBaseAnalysis(),
		op:           NewOP(),
		startTime:    tStart,
		stopTime:     tStop,
		timeStep:     tStep,
		useUIC:       uic,
	}
}

func (tr *Transient) SetTolerances(tol Tolerances) {
	tr.BaseAnalysis.SetTolerances(tol)
	tr.op.SetTolerances(tol)
}

func (tr *Transient) Setup(ckt *circuit.Circuit) error {
	tr.Circuit = ckt

	if tr.useUIC {
		// Relaxed start: zero node voltages and branch currents.
		tr.initial = make([]float64, ckt.Size()+1)
		return nil
	}

	if err := tr.op.Setup(ckt); err != nil {
		return err
	}
	if err := tr.op.Execute(); err != nil {
		return errors.Wrap(err, "operating point for transient initial condition")
	}
	tr.initial = tr.op.Solution()

	return nil
}

func (tr *Transient) Execute() error {
	if tr.Circuit == nil {
		return errors.New("circuit not set")
	}

	ckt := tr.Circuit
	size := ckt.Size()
	tr.res = result.New(result.AxisTime, ckt.Labels())

	// Seed companion-model state (capacitor voltage, inductor current)
	// from the initial condition.
	seedStatus := &device.CircuitStatus{
		Mode:     device.TransientAnalysis,
		Time:     0,
		TimeStep: tr.timeStep,
		Temp:     defaultTemp,
	}
	ckt.UpdateState(tr.initial, seedStatus)
	if err := ckt.UpdateNonlinearVoltages(tr.initial); err != nil {
		return err
	}

	if tr.startTime <= 0 {
		if err := tr.res.Append(0, tr.initial[1:size+1]); err != nil {
			return err
		}
	}

	time := 0.0
	for time < tr.stopTime {
		next := time + tr.timeStep
		if next > tr.stopTime {
			next = tr.stopTime
		}

		status := &device.CircuitStatus{
			Mode:     device.TransientAnalysis,
			Time:     next,
			TimeStep: next - time,
			Temp:     defaultTemp,
		}

		solution, err := tr.solve(status)
		if err != nil {
			return errors.Wrapf(err, "at t=%g", next)
		}

		ckt.UpdateState(solution, status)
		time = next

		if time >= tr.startTime {
			if err := tr.res.Append(time, solution[1:size+1]); err != nil {
				return err
			}
		}
	}

	return nil
}
