// Package circuit assembles parsed elements into an MNA system: it
// assigns matrix rows to nodes and branch currents, builds the device
// instances and runs the per-device stamp loop.
package circuit

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"

	"github.com/prokie/krets/pkg/device"
	"github.com/prokie/krets/pkg/matrix"
	"github.com/prokie/krets/pkg/netlist"
)

// ErrTopology reports a netlist the indexer cannot map: no ground
// reference, or two devices with the same identifier that both need a
// branch-current row.
var ErrTopology = stderrors.New("circuit: topology error")

// Circuit owns the variable index for one analysis run. Rows 1..numNodes
// are node voltages in first-seen order; the remaining rows are branch
// currents in element declaration order. The index is frozen once Build
// returns.
type Circuit struct {
	name        string
	nodeMap     map[string]int
	nodeOrder   []string
	branchMap   map[string]int
	branchOrder []string
	numNodes    int

	devices   []device.Device
	nonlinear []device.NonLinear
	timeDeps  []device.TimeDependent

	mat       *matrix.CircuitMatrix
	isComplex bool
}

func New(name string, isComplex bool) *Circuit {
	return &Circuit{
		name:      name,
		nodeMap:   make(map[string]int),
		branchMap: make(map[string]int),
		isComplex: isComplex,
	}
}

func isGround(node string) bool {
	return node == "0" || node == "gnd"
}

// Build indexes the elements, creates the devices and the system matrix,
// and performs the initial stamp so the sparse structure is complete.
func (c *Circuit) Build(elements []netlist.Element) error {
	groundSeen := false

	// Pass 1: node rows in first-seen order.
	for _, elem := range elements {
		for _, nodeName := range elem.Nodes {
			if isGround(nodeName) {
				groundSeen = true
				continue
			}
			if _, exists := c.nodeMap[nodeName]; !exists {
				c.nodeMap[nodeName] = len(c.nodeOrder) + 1
				c.nodeOrder = append(c.nodeOrder, nodeName)
			}
		}
	}
	c.numNodes = len(c.nodeOrder)

	if !groundSeen {
		return errors.Wrap(ErrTopology, "no ground reference (node 0) in circuit")
	}

	// Pass 2: devices, then branch rows in declaration order.
	for _, elem := range elements {
		dev, err := netlist.CreateDevice(elem)
		if err != nil {
			return err
		}

		nodeIndices := make([]int, len(elem.Nodes))
		for i, nodeName := range elem.Nodes {
			if isGround(nodeName) {
				nodeIndices[i] = 0
				continue
			}
			nodeIndices[i] = c.nodeMap[nodeName]
		}
		dev.SetNodes(nodeIndices)

		if br, ok := dev.(device.Branched); ok && br.NeedsBranch() {
			if _, exists := c.branchMap[dev.GetName()]; exists {
				return errors.Wrapf(ErrTopology, "duplicate branch unknown for %s", dev.GetName())
			}
			idx := c.numNodes + len(c.branchOrder) + 1
			c.branchMap[dev.GetName()] = idx
			c.branchOrder = append(c.branchOrder, dev.GetName())
			br.SetBranchIndex(idx)
		}

		if nl, ok := dev.(device.NonLinear); ok {
			c.nonlinear = append(c.nonlinear, nl)
		}
		if td, ok := dev.(device.TimeDependent); ok {
			c.timeDeps = append(c.timeDeps, td)
		}

		c.devices = append(c.devices, dev)
	}

	mat, err := matrix.NewMatrix(c.Size(), c.isComplex)
	if err != nil {
		return err
	}
	c.mat = mat

	if err := c.Stamp(&device.CircuitStatus{Mode: device.OperatingPointAnalysis}); err != nil {
		return err
	}
	c.mat.SetupElements()

	return nil
}

// Stamp accumulates every device contribution for the given analysis
// context. The matrix must be cleared by the caller beforehand.
func (c *Circuit) Stamp(status *device.CircuitStatus) error {
	for _, dev := range c.devices {
		if err := dev.Stamp(c.mat, status); err != nil {
			return errors.Wrapf(err, "stamping device %s", dev.GetName())
		}
	}
	return nil
}

// UpdateNonlinearVoltages pushes a Newton iterate into every nonlinear
// device ahead of the next assembly.
func (c *Circuit) UpdateNonlinearVoltages(solution []float64) error {
	for _, nl := range c.nonlinear {
		if err := nl.UpdateVoltages(solution); err != nil {
			return err
		}
	}
	return nil
}

// UpdateState commits an accepted transient solution into the companion
// state of every energy-storage device.
func (c *Circuit) UpdateState(solution []float64, status *device.CircuitStatus) {
	for _, td := range c.timeDeps {
		td.UpdateState(solution, status)
	}
}

// Size is the MNA dimension N: node rows plus branch rows.
func (c *Circuit) Size() int {
	return c.numNodes + len(c.branchOrder)
}

func (c *Circuit) NumNodes() int {
	return c.numNodes
}

func (c *Circuit) HasNonlinear() bool {
	return len(c.nonlinear) > 0
}

func (c *Circuit) Matrix() *matrix.CircuitMatrix {
	return c.mat
}

func (c *Circuit) Devices() []device.Device {
	return c.devices
}

func (c *Circuit) Name() string {
	return c.name
}

// RowOfNode returns the matrix row of a node label; ground has no row.
func (c *Circuit) RowOfNode(node string) (int, bool) {
	if isGround(node) {
		return 0, false
	}
	idx, ok := c.nodeMap[node]
	return idx, ok
}

// RowOfBranch returns the matrix row of an element's branch current.
func (c *Circuit) RowOfBranch(elementID string) (int, bool) {
	idx, ok := c.branchMap[elementID]
	return idx, ok
}

// Labels returns the variable labels in matrix row order: V(<node>) for
// rows 1..numNodes, then I(<element>) for the branch rows.
func (c *Circuit) Labels() []string {
	labels := make([]string, 0, c.Size())
	for _, node := range c.nodeOrder {
		labels = append(labels, fmt.Sprintf("V(%s)", node))
	}
	for _, name := range c.branchOrder {
		labels = append(labels, fmt.Sprintf("I(%s)", name))
	}
	return labels
}

// FindSweepable locates an independent source by identifier for the DC
// sweep engine.
func (c *Circuit) FindSweepable(name string) (device.Sweepable, bool) {
	for _, dev := range c.devices {
		if dev.GetName() == name {
			if sw, ok := dev.(device.Sweepable); ok {
				return sw, true
			}
			return nil, false
		}
	}
	return nil, false
}

func (c *Circuit) Destroy() {
	if c.mat != nil {
		c.mat.Destroy()
	}
}
