package device

import (
	"math"

	"github.com/pkg/errors"

	"github.com/prokie/krets/internal/consts"
	"github.com/prokie/krets/pkg/matrix"
	"github.com/prokie/krets/pkg/util"
)

// maxExpArg caps the Shockley exponent so a wild Newton iterate cannot
// overflow the linearization.
const maxExpArg = 40.0

type Diode struct {
	BaseDevice
	Is float64 // saturation current
	N  float64 // emission coefficient
	Vt float64 // thermal voltage; kT/q at 300 K unless overridden

	// Linearization state
	vd float64 // trial junction voltage
	id float64 // current at vd
	gd float64 // conductance at vd
}

var _ NonLinear = (*Diode)(nil)

func NewDiode(name string, nodeNames []string) *Diode {
	return &Diode{
		BaseDevice: BaseDevice{
			Name:      name,
			Nodes:     make([]int, len(nodeNames)),
			NodeNames: nodeNames,
		},
		Is: 1e-12,
		N:  1.0,
		Vt: consts.ThermalVoltage(consts.REFTEMP),
	}
}

func (d *Diode) GetType() string { return "D" }

// SetModelParameters applies is/n/vt overrides from the netlist card.
func (d *Diode) SetModelParameters(params map[string]float64) {
	if is, ok := params["is"]; ok {
		d.Is = is
	}
	if n, ok := params["n"]; ok {
		d.N = n
	}
	if vt, ok := params["vt"]; ok {
		d.Vt = vt
	}
}

func (d *Diode) current(vd float64) float64 {
	arg := util.Clamp(vd/(d.N*d.Vt), -maxExpArg, maxExpArg)
	return d.Is * (math.Exp(arg) - 1.0)
}

func (d *Diode) conductance(vd float64) float64 {
	arg := util.Clamp(vd/(d.N*d.Vt), -maxExpArg, maxExpArg)
	return d.Is / (d.N * d.Vt) * math.Exp(arg)
}

func (d *Diode) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(d.Nodes) != 2 {
		return errors.Errorf("diode %s: requires exactly 2 nodes", d.Name)
	}

	n1, n2 := d.Nodes[0], d.Nodes[1]

	if status.Mode == ACAnalysis {
		// Small-signal conductance frozen at the bias point.
		if n1 != 0 {
			m.AddComplexElement(n1, n1, d.gd, 0)
			if n2 != 0 {
				m.AddComplexElement(n1, n2, -d.gd, 0)
			}
		}
		if n2 != 0 {
			if n1 != 0 {
				m.AddComplexElement(n2, n1, -d.gd, 0)
			}
			m.AddComplexElement(n2, n2, d.gd, 0)
		}
		return nil
	}

	d.id = d.current(d.vd)
	d.gd = d.conductance(d.vd)
	ieq := d.id - d.gd*d.vd

	if n1 != 0 {
		m.AddElement(n1, n1, d.gd)
		if n2 != 0 {
			m.AddElement(n1, n2, -d.gd)
		}
		m.AddRHS(n1, -ieq)
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddElement(n2, n1, -d.gd)
		}
		m.AddElement(n2, n2, d.gd)
		m.AddRHS(n2, ieq)
	}

	return nil
}

func (d *Diode) UpdateVoltages(solution []float64) error {
	if len(d.Nodes) != 2 {
		return errors.Errorf("diode %s: requires exactly 2 nodes", d.Name)
	}

	var v1, v2 float64
	if d.Nodes[0] != 0 {
		v1 = solution[d.Nodes[0]]
	}
	if d.Nodes[1] != 0 {
		v2 = solution[d.Nodes[1]]
	}
	d.vd = v1 - v2

	return nil
}
