package device

import (
	"github.com/prokie/krets/pkg/matrix"
)

type CurrentSource struct {
	BaseDevice
	wave Waveform
	ac   acSpec
}

var _ Sweepable = (*CurrentSource)(nil)

func NewCurrentSource(name string, nodeNames []string, wave Waveform) *CurrentSource {
	return &CurrentSource{
		BaseDevice: BaseDevice{
			Name:      name,
			Nodes:     make([]int, len(nodeNames)),
			NodeNames: nodeNames,
			Value:     wave.At(0),
		},
		wave: wave,
	}
}

func (c *CurrentSource) GetType() string { return "I" }

func (c *CurrentSource) SetAC(mag, phase float64) {
	c.ac = acSpec{present: true, mag: mag, phase: phase}
}

func (c *CurrentSource) SetValue(value float64) {
	c.Value = value
	c.wave.DCValue = value
}

func (c *CurrentSource) Current(t float64) float64 {
	return c.wave.At(t)
}

// Stamp injects the source current: positive current flows from n+ through
// the source to n-, so b[n+] loses and b[n-] gains.
func (c *CurrentSource) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := c.Nodes[0], c.Nodes[1]

	if status.Mode == ACAnalysis {
		re, im := c.ac.phasor()
		if n1 != 0 {
			m.AddComplexRHS(n1, -re, -im)
		}
		if n2 != 0 {
			m.AddComplexRHS(n2, re, im)
		}
		return nil
	}

	value := c.wave.At(status.Time)
	if n1 != 0 {
		m.AddRHS(n1, -value)
	}
	if n2 != 0 {
		m.AddRHS(n2, value)
	}

	return nil
}
