package device

import (
	"github.com/pkg/errors"

	"github.com/prokie/krets/pkg/matrix"
)

type Resistor struct {
	BaseDevice
	Group2    bool // branch current as an explicit unknown
	branchIdx int
}

func NewResistor(name string, nodeNames []string, value float64, group2 bool) *Resistor {
	return &Resistor{
		BaseDevice: BaseDevice{
			Name:      name,
			Nodes:     make([]int, len(nodeNames)),
			NodeNames: nodeNames,
			Value:     value,
		},
		Group2: group2,
	}
}

func (r *Resistor) GetType() string { return "R" }

func (r *Resistor) NeedsBranch() bool { return r.Group2 }

func (r *Resistor) BranchIndex() int { return r.branchIdx }

func (r *Resistor) SetBranchIndex(idx int) { r.branchIdx = idx }

func (r *Resistor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(r.Nodes) != 2 {
		return errors.Errorf("resistor %s: requires exactly 2 nodes", r.Name)
	}

	if r.Group2 {
		return r.stampBranch(m, status)
	}

	n1, n2 := r.Nodes[0], r.Nodes[1]
	g := 1.0 / r.Value

	if status.Mode == ACAnalysis {
		if n1 != 0 {
			m.AddComplexElement(n1, n1, g, 0)
			if n2 != 0 {
				m.AddComplexElement(n1, n2, -g, 0)
			}
		}
		if n2 != 0 {
			if n1 != 0 {
				m.AddComplexElement(n2, n1, -g, 0)
			}
			m.AddComplexElement(n2, n2, g, 0)
		}
		return nil
	}

	if n1 != 0 {
		m.AddElement(n1, n1, g)
		if n2 != 0 {
			m.AddElement(n1, n2, -g)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddElement(n2, n1, -g)
		}
		m.AddElement(n2, n2, g)
	}

	return nil
}

// stampBranch writes the group-2 form: v+ - v- - R*i = 0 with the branch
// current i as unknown k.
func (r *Resistor) stampBranch(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := r.Nodes[0], r.Nodes[1]
	bIdx := r.branchIdx

	if status.Mode == ACAnalysis {
		if n1 != 0 {
			m.AddComplexElement(n1, bIdx, 1, 0)
			m.AddComplexElement(bIdx, n1, 1, 0)
		}
		if n2 != 0 {
			m.AddComplexElement(n2, bIdx, -1, 0)
			m.AddComplexElement(bIdx, n2, -1, 0)
		}
		m.AddComplexElement(bIdx, bIdx, -r.Value, 0)
		return nil
	}

	if n1 != 0 {
		m.AddElement(n1, bIdx, 1)
		m.AddElement(bIdx, n1, 1)
	}
	if n2 != 0 {
		m.AddElement(n2, bIdx, -1)
		m.AddElement(bIdx, n2, -1)
	}
	m.AddElement(bIdx, bIdx, -r.Value)

	return nil
}
