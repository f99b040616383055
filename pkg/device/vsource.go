package device

import (
	"github.com/prokie/krets/pkg/matrix"
)

type VoltageSource struct {
	BaseDevice
	wave      Waveform
	ac        acSpec
	branchIdx int
}

var _ Branched = (*VoltageSource)(nil)
var _ Sweepable = (*VoltageSource)(nil)

func NewVoltageSource(name string, nodeNames []string, wave Waveform) *VoltageSource {
	return &VoltageSource{
		BaseDevice: BaseDevice{
			Name:      name,
			Nodes:     make([]int, len(nodeNames)),
			NodeNames: nodeNames,
			Value:     wave.At(0),
		},
		wave: wave,
	}
}

func (v *VoltageSource) GetType() string { return "V" }

func (v *VoltageSource) NeedsBranch() bool { return true }

func (v *VoltageSource) BranchIndex() int { return v.branchIdx }

func (v *VoltageSource) SetBranchIndex(idx int) { v.branchIdx = idx }

// SetAC tags the source with a small-signal phasor for AC analysis.
func (v *VoltageSource) SetAC(mag, phase float64) {
	v.ac = acSpec{present: true, mag: mag, phase: phase}
}

// SetValue replaces the DC value; used by the DC sweep engine.
func (v *VoltageSource) SetValue(value float64) {
	v.Value = value
	v.wave.DCValue = value
}

// Voltage evaluates the source at time t.
func (v *VoltageSource) Voltage(t float64) float64 {
	return v.wave.At(t)
}

func (v *VoltageSource) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := v.Nodes[0], v.Nodes[1]
	bIdx := v.branchIdx

	if status.Mode == ACAnalysis {
		if n1 != 0 {
			m.AddComplexElement(n1, bIdx, 1, 0)
			m.AddComplexElement(bIdx, n1, 1, 0)
		}
		if n2 != 0 {
			m.AddComplexElement(n2, bIdx, -1, 0)
			m.AddComplexElement(bIdx, n2, -1, 0)
		}
		re, im := v.ac.phasor()
		m.AddComplexRHS(bIdx, re, im)
		return nil
	}

	// v1 - v2 = V
	if n1 != 0 {
		m.AddElement(n1, bIdx, 1)
		m.AddElement(bIdx, n1, 1)
	}
	if n2 != 0 {
		m.AddElement(n2, bIdx, -1)
		m.AddElement(bIdx, n2, -1)
	}
	m.AddRHS(bIdx, v.wave.At(status.Time))

	return nil
}
