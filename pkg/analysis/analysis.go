// Package analysis hosts the four engines (operating point, DC sweep, AC
// small-signal, transient) and the shared Newton-Raphson driver they
// orchestrate.
package analysis

import (
	stderrors "errors"
	"math"

	"github.com/pkg/errors"

	"github.com/prokie/krets/pkg/circuit"
	"github.com/prokie/krets/pkg/device"
	"github.com/prokie/krets/pkg/result"
)

// ErrConvergence reports that Newton-Raphson exhausted its iteration
// budget at some sweep or time point.
var ErrConvergence = stderrors.New("analysis: failed to converge")

const defaultTemp = 300.0 // K

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
	Results() *result.Result
}

// Tolerances control the componentwise Newton convergence test.
type Tolerances struct {
	Rel     float64 // relative tolerance
	VAbs    float64 // absolute tolerance for node-voltage rows
	IAbs    float64 // absolute tolerance for branch-current rows
	MaxIter int
}

func DefaultTolerances() Tolerances {
	return Tolerances{
		Rel:     1e-3,
		VAbs:    1e-6,
		IAbs:    1e-12,
		MaxIter: 100,
	}
}

type BaseAnalysis struct {
	Circuit *circuit.Circuit
	tol     Tolerances
	res     *result.Result
}

func NewBaseAnalysis() *BaseAnalysis {
	return &BaseAnalysis{tol: DefaultTolerances()}
}

func (a *BaseAnalysis) SetTolerances(tol Tolerances) {
	a.tol = tol
}

func (a *BaseAnalysis) Results() *result.Result {
	return a.res
}

// solve assembles and solves the MNA system for the given context. Linear
// circuits take a single factor-and-solve; nonlinear circuits iterate
// Newton-Raphson until the componentwise test passes.
func (a *BaseAnalysis) solve(status *device.CircuitStatus) ([]float64, error) {
	ckt := a.Circuit
	mat := ckt.Matrix()

	if !ckt.HasNonlinear() {
		mat.Clear()
		if err := ckt.Stamp(status); err != nil {
			return nil, err
		}
		if err := mat.Solve(); err != nil {
			return nil, err
		}
		return mat.Solution(), nil
	}

	var oldSolution []float64
	for iter := 0; iter < a.tol.MaxIter; iter++ {
		mat.Clear()
		// The first assembly linearizes about the devices' stored trial
		// voltages: zero on a fresh circuit, the previous point otherwise.
		if iter > 0 {
			if err := ckt.UpdateNonlinearVoltages(oldSolution); err != nil {
				return nil, err
			}
		}
		if err := ckt.Stamp(status); err != nil {
			return nil, err
		}
		if err := mat.Solve(); err != nil {
			return nil, err
		}

		solution := mat.Solution()
		if iter > 0 && a.converged(oldSolution, solution) {
			return solution, nil
		}

		if oldSolution == nil {
			oldSolution = make([]float64, len(solution))
		}
		copy(oldSolution, solution)
	}

	return nil, errors.Wrapf(ErrConvergence, "after %d iterations", a.tol.MaxIter)
}

// converged applies |dx| <= rel*max(|new|,|old|) + tau per component, with
// tau chosen by variable kind: VAbs for node rows, IAbs for branch rows.
func (a *BaseAnalysis) converged(oldSol, newSol []float64) bool {
	numNodes := a.Circuit.NumNodes()
	size := a.Circuit.Size()

	for i := 1; i <= size; i++ {
		tau := a.tol.IAbs
		if i <= numNodes {
			tau = a.tol.VAbs
		}
		diff := math.Abs(newSol[i] - oldSol[i])
		if diff > a.tol.Rel*math.Max(math.Abs(newSol[i]), math.Abs(oldSol[i]))+tau {
			return false
		}
	}
	return true
}
