// Package device holds the closed set of circuit elements and their MNA
// stamps. A stamp adds a device's contribution to the system matrix and
// right hand side for the analysis mode carried by CircuitStatus.
package device

import (
	"github.com/prokie/krets/pkg/matrix"
)

type Device interface {
	GetName() string
	GetType() string
	GetNodeNames() []string
	GetNodes() []int
	GetValue() float64
	SetNodes(nodes []int)
	Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error
}

// Branched is implemented by devices that introduce a branch-current
// unknown (group 2): voltage sources, inductors, group-2 resistors.
type Branched interface {
	Device
	NeedsBranch() bool
	BranchIndex() int
	SetBranchIndex(idx int)
}

// NonLinear devices linearize about a trial solution; the Newton driver
// pushes each iterate back into the device before restamping.
type NonLinear interface {
	UpdateVoltages(solution []float64) error
}

// TimeDependent devices carry companion-model state (capacitor voltage,
// inductor current) between accepted transient steps.
type TimeDependent interface {
	UpdateState(solution []float64, status *CircuitStatus)
}

// Sweepable devices can have their DC value replaced by the DC sweep
// engine.
type Sweepable interface {
	Device
	SetValue(value float64)
}

type AnalysisMode int

const (
	OperatingPointAnalysis AnalysisMode = iota
	DCSweepAnalysis
	ACAnalysis
	TransientAnalysis
)

type SourceType int

const (
	DC SourceType = iota
	SIN
	PULSE
	PWL
)

// CircuitStatus carries the analysis context a stamp depends on.
type CircuitStatus struct {
	Mode      AnalysisMode
	Time      float64 // transient time of the step being solved
	TimeStep  float64 // transient step h
	Frequency float64 // AC frequency (Hz)
	Temp      float64 // device temperature (K)
}

type BaseDevice struct {
	Name      string
	Nodes     []int
	NodeNames []string
	Value     float64
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) GetNodes() []int {
	return d.Nodes
}

func (d *BaseDevice) GetNodeNames() []string {
	return d.NodeNames
}

func (d *BaseDevice) GetValue() float64 {
	return d.Value
}

func (d *BaseDevice) SetNodes(nodes []int) {
	d.Nodes = nodes
}
