package circuit

import (
	"errors"
	"reflect"
	"testing"

	"github.com/prokie/krets/pkg/netlist"
)

func parse(t *testing.T, input string) []netlist.Element {
	t.Helper()
	elements, err := netlist.Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return elements
}

func build(t *testing.T, input string, isComplex bool) *Circuit {
	t.Helper()
	ckt := New("test", isComplex)
	if err := ckt.Build(parse(t, input)); err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(ckt.Destroy)
	return ckt
}

func TestNodeIndexFirstSeenOrder(t *testing.T) {
	ckt := build(t, `V1 in 0 10
R1 in out 1k
R2 out 0 1k
`, false)

	if idx, ok := ckt.RowOfNode("in"); !ok || idx != 1 {
		t.Errorf("in -> %d, want 1", idx)
	}
	if idx, ok := ckt.RowOfNode("out"); !ok || idx != 2 {
		t.Errorf("out -> %d, want 2", idx)
	}
	if ckt.NumNodes() != 2 {
		t.Errorf("NumNodes = %d", ckt.NumNodes())
	}
}

func TestGroundHasNoIndex(t *testing.T) {
	ckt := build(t, "R1 a 0 1k\nV1 a 0 1\n", false)

	if _, ok := ckt.RowOfNode("0"); ok {
		t.Error("ground must not have a row")
	}
	if _, ok := ckt.RowOfNode("gnd"); ok {
		t.Error("gnd must not have a row")
	}
}

func TestBranchRowsInDeclarationOrder(t *testing.T) {
	// V1, L1 and the group-2 R2 each get a branch row, in card order,
	// after the node rows.
	ckt := build(t, `V1 in 0 1
L1 in mid 1m
R1 mid out 1k
R2 out 0 1k G2
`, false)

	// Nodes: in=1, mid=2, out=3. Branches: V1=4, L1=5, R2=6.
	if ckt.Size() != 6 {
		t.Fatalf("Size = %d, want 6", ckt.Size())
	}
	wantBranches := map[string]int{"V1": 4, "L1": 5, "R2": 6}
	for name, want := range wantBranches {
		if idx, ok := ckt.RowOfBranch(name); !ok || idx != want {
			t.Errorf("branch %s -> %d, want %d", name, idx, want)
		}
	}
	if _, ok := ckt.RowOfBranch("R1"); ok {
		t.Error("group-1 resistor must not have a branch row")
	}
}

func TestLabelsMatchIndexOrder(t *testing.T) {
	ckt := build(t, `V1 in 0 1
L1 in out 1m
R1 out 0 1k
`, false)

	want := []string{"V(in)", "V(out)", "I(V1)", "I(L1)"}
	if got := ckt.Labels(); !reflect.DeepEqual(got, want) {
		t.Errorf("Labels = %v, want %v", got, want)
	}
	if len(ckt.Labels()) != ckt.Size() {
		t.Errorf("label count %d != size %d", len(ckt.Labels()), ckt.Size())
	}
}

func TestNoGroundIsTopologyError(t *testing.T) {
	ckt := New("floating", false)
	err := ckt.Build(parse(t, "R1 a b 1k\nV1 a b 1\n"))
	if !errors.Is(err, ErrTopology) {
		t.Errorf("expected ErrTopology, got %v", err)
	}
}

func TestBJTIsRejectedAtBuild(t *testing.T) {
	ckt := New("bjt", false)
	err := ckt.Build(parse(t, "V1 c 0 5\nQ1 c b 0\n"))
	if !errors.Is(err, netlist.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestFindSweepable(t *testing.T) {
	ckt := build(t, "V1 a 0 1\nI1 a 0 1m\nR1 a 0 1k\n", false)

	if _, ok := ckt.FindSweepable("V1"); !ok {
		t.Error("V1 should be sweepable")
	}
	if _, ok := ckt.FindSweepable("I1"); !ok {
		t.Error("I1 should be sweepable")
	}
	if _, ok := ckt.FindSweepable("R1"); ok {
		t.Error("R1 must not be sweepable")
	}
	if _, ok := ckt.FindSweepable("V9"); ok {
		t.Error("unknown element must not be sweepable")
	}
}

func TestHasNonlinear(t *testing.T) {
	linear := build(t, "V1 a 0 1\nR1 a 0 1k\n", false)
	if linear.HasNonlinear() {
		t.Error("RV circuit reported nonlinear")
	}

	diode := build(t, "V1 a 0 1\nR1 a b 1k\nD1 b 0\n", false)
	if !diode.HasNonlinear() {
		t.Error("diode circuit reported linear")
	}
}
