package device

import (
	"math"

	"github.com/prokie/krets/pkg/matrix"
)

// Inductor always carries a branch-current unknown: it is a short in DC,
// an impedance jwL in AC, and a Backward Euler companion in transient.
type Inductor struct {
	BaseDevice
	current   float64 // branch current at the previous accepted step
	branchIdx int
}

var _ TimeDependent = (*Inductor)(nil)
var _ Branched = (*Inductor)(nil)

func NewInductor(name string, nodeNames []string, value float64) *Inductor {
	return &Inductor{
		BaseDevice: BaseDevice{
			Name:      name,
			Nodes:     make([]int, len(nodeNames)),
			NodeNames: nodeNames,
			Value:     value,
		},
	}
}

func (l *Inductor) GetType() string { return "L" }

func (l *Inductor) NeedsBranch() bool { return true }

func (l *Inductor) BranchIndex() int { return l.branchIdx }

func (l *Inductor) SetBranchIndex(idx int) { l.branchIdx = idx }

func (l *Inductor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := l.Nodes[0], l.Nodes[1]
	bIdx := l.branchIdx

	switch status.Mode {
	case ACAnalysis:
		// v+ - v- - jwL*i = 0
		reactance := 2 * math.Pi * status.Frequency * l.Value
		if n1 != 0 {
			m.AddComplexElement(n1, bIdx, 1, 0)
			m.AddComplexElement(bIdx, n1, 1, 0)
		}
		if n2 != 0 {
			m.AddComplexElement(n2, bIdx, -1, 0)
			m.AddComplexElement(bIdx, n2, -1, 0)
		}
		m.AddComplexElement(bIdx, bIdx, 0, -reactance)

	case TransientAnalysis:
		// Backward Euler companion: v+ - v- - (L/h)*i = -(L/h)*i_n
		req := l.Value / status.TimeStep
		if n1 != 0 {
			m.AddElement(n1, bIdx, 1)
			m.AddElement(bIdx, n1, 1)
		}
		if n2 != 0 {
			m.AddElement(n2, bIdx, -1)
			m.AddElement(bIdx, n2, -1)
		}
		m.AddElement(bIdx, bIdx, -req)
		m.AddRHS(bIdx, -req*l.current)

	default:
		// OP and DC: short circuit, a zero-volt source.
		if n1 != 0 {
			m.AddElement(n1, bIdx, 1)
			m.AddElement(bIdx, n1, 1)
		}
		if n2 != 0 {
			m.AddElement(n2, bIdx, -1)
			m.AddElement(bIdx, n2, -1)
		}
	}

	return nil
}

func (l *Inductor) UpdateState(solution []float64, status *CircuitStatus) {
	l.current = solution[l.branchIdx]
}

// Current reports i_n, the current used by the next companion stamp.
func (l *Inductor) Current() float64 {
	return l.current
}
