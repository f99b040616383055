package device

import (
	"github.com/pkg/errors"

	"github.com/prokie/krets/pkg/matrix"
)

// Operating regions of the square-law model.
const (
	regionCutoff = iota
	regionLinear
	regionSaturation
)

// Mosfet is an n-channel square-law device on nodes (drain, gate, source).
// The gate draws no current; the drain current is linearized into Gds and
// gm about the trial voltages.
type Mosfet struct {
	BaseDevice
	Beta   float64 // transconductance parameter (A/V^2)
	Vth    float64 // threshold voltage
	Lambda float64 // channel-length modulation; 0 disables

	// Linearization state
	vgs    float64
	vds    float64
	id     float64
	gds    float64
	gm     float64
	region int
}

var _ NonLinear = (*Mosfet)(nil)

func NewMosfet(name string, nodeNames []string) *Mosfet {
	return &Mosfet{
		BaseDevice: BaseDevice{
			Name:      name,
			Nodes:     make([]int, len(nodeNames)),
			NodeNames: nodeNames,
		},
		Beta:   2e-5,
		Vth:    0.7,
		Lambda: 0.0,
	}
}

func (mf *Mosfet) GetType() string { return "M" }

func (mf *Mosfet) SetModelParameters(params map[string]float64) {
	if beta, ok := params["beta"]; ok {
		mf.Beta = beta
	}
	if vth, ok := params["vth"]; ok {
		mf.Vth = vth
	}
	if lambda, ok := params["lambda"]; ok {
		mf.Lambda = lambda
	}
}

// evaluate computes id, gds and gm for the stored trial voltages.
func (mf *Mosfet) evaluate() {
	vov := mf.vgs - mf.Vth

	switch {
	case vov <= 0:
		mf.region = regionCutoff
		mf.id = 0
		mf.gds = 0
		mf.gm = 0

	case mf.vds < vov:
		mf.region = regionLinear
		mf.id = mf.Beta * (vov*mf.vds - mf.vds*mf.vds/2)
		mf.gds = mf.Beta * (vov - mf.vds)
		mf.gm = mf.Beta * mf.vds

	default:
		mf.region = regionSaturation
		mf.id = mf.Beta / 2 * vov * vov * (1 + mf.Lambda*mf.vds)
		mf.gds = mf.Beta / 2 * mf.Lambda * vov * vov
		mf.gm = mf.Beta * vov * (1 + mf.Lambda*mf.vds)
	}
}

func (mf *Mosfet) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(mf.Nodes) != 3 {
		return errors.Errorf("mosfet %s: requires exactly 3 nodes (drain, gate, source)", mf.Name)
	}

	nd, ns := mf.Nodes[0], mf.Nodes[2]

	if status.Mode == ACAnalysis {
		// Small-signal conductances frozen at the bias point; no rhs.
		mf.stampConductances(func(i, j int, v float64) {
			m.AddComplexElement(i, j, v, 0)
		})
		return nil
	}

	mf.evaluate()
	ieq := mf.id - mf.gds*mf.vds - mf.gm*mf.vgs

	mf.stampConductances(m.AddElement)
	if nd != 0 {
		m.AddRHS(nd, -ieq)
	}
	if ns != 0 {
		m.AddRHS(ns, ieq)
	}

	return nil
}

// stampConductances writes the Gds/gm pattern through add; the gate row
// receives nothing.
func (mf *Mosfet) stampConductances(add func(i, j int, v float64)) {
	nd, ng, ns := mf.Nodes[0], mf.Nodes[1], mf.Nodes[2]

	if nd != 0 {
		add(nd, nd, mf.gds)
		if ns != 0 {
			add(nd, ns, -(mf.gds + mf.gm))
		}
		if ng != 0 {
			add(nd, ng, mf.gm)
		}
	}
	if ns != 0 {
		if nd != 0 {
			add(ns, nd, -mf.gds)
		}
		add(ns, ns, mf.gds+mf.gm)
		if ng != 0 {
			add(ns, ng, -mf.gm)
		}
	}
}

func (mf *Mosfet) UpdateVoltages(solution []float64) error {
	if len(mf.Nodes) != 3 {
		return errors.Errorf("mosfet %s: requires exactly 3 nodes (drain, gate, source)", mf.Name)
	}

	var vd, vg, vs float64
	if mf.Nodes[0] != 0 {
		vd = solution[mf.Nodes[0]]
	}
	if mf.Nodes[1] != 0 {
		vg = solution[mf.Nodes[1]]
	}
	if mf.Nodes[2] != 0 {
		vs = solution[mf.Nodes[2]]
	}

	mf.vgs = vg - vs
	mf.vds = vd - vs

	return nil
}
