package device

import (
	"math"

	"github.com/prokie/krets/pkg/matrix"
)

type Capacitor struct {
	BaseDevice
	voltage float64 // voltage across the device at the previous accepted step
}

var _ TimeDependent = (*Capacitor)(nil)

func NewCapacitor(name string, nodeNames []string, value float64) *Capacitor {
	return &Capacitor{
		BaseDevice: BaseDevice{
			Name:      name,
			Nodes:     make([]int, len(nodeNames)),
			NodeNames: nodeNames,
			Value:     value,
		},
	}
}

func (c *Capacitor) GetType() string { return "C" }

func (c *Capacitor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := c.Nodes[0], c.Nodes[1]

	switch status.Mode {
	case ACAnalysis:
		// Admittance jwC
		susceptance := 2 * math.Pi * status.Frequency * c.Value
		if n1 != 0 {
			m.AddComplexElement(n1, n1, 0, susceptance)
			if n2 != 0 {
				m.AddComplexElement(n1, n2, 0, -susceptance)
			}
		}
		if n2 != 0 {
			if n1 != 0 {
				m.AddComplexElement(n2, n1, 0, -susceptance)
			}
			m.AddComplexElement(n2, n2, 0, susceptance)
		}

	case TransientAnalysis:
		// Backward Euler companion: geq = C/h in parallel with Ieq = geq*u_n.
		geq := c.Value / status.TimeStep
		ieq := geq * c.voltage

		if n1 != 0 {
			m.AddElement(n1, n1, geq)
			if n2 != 0 {
				m.AddElement(n1, n2, -geq)
			}
			m.AddRHS(n1, ieq)
		}
		if n2 != 0 {
			if n1 != 0 {
				m.AddElement(n2, n1, -geq)
			}
			m.AddElement(n2, n2, geq)
			m.AddRHS(n2, -ieq)
		}

	default:
		// OP and DC: open circuit.
	}

	return nil
}

func (c *Capacitor) UpdateState(solution []float64, status *CircuitStatus) {
	v1, v2 := 0.0, 0.0
	if c.Nodes[0] != 0 {
		v1 = solution[c.Nodes[0]]
	}
	if c.Nodes[1] != 0 {
		v2 = solution[c.Nodes[1]]
	}
	c.voltage = v1 - v2
}

// Voltage reports u_n, the voltage used by the next companion stamp.
func (c *Capacitor) Voltage() float64 {
	return c.voltage
}
