package analysis

import (
	"math"
	"testing"

	"github.com/prokie/krets/pkg/result"
)

func TestDCSweepResistor(t *testing.T) {
	ckt := buildCircuit(t, "V1 in 0 0\nR1 in 0 10\n", false)

	dc := NewDCSweep("V1", 0, 5, 1)
	if err := dc.Setup(ckt); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := dc.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	res := dc.Results()
	if res.AxisName() != result.AxisSweep {
		t.Errorf("axis name = %q", res.AxisName())
	}
	if res.Len() != 6 {
		t.Fatalf("points = %d, want 6", res.Len())
	}

	axis := res.Axis()
	currents, ok := res.Values("I(V1)")
	if !ok {
		t.Fatal("missing I(V1)")
	}

	for i, v := range axis {
		if math.Abs(v-float64(i)) > 1e-12 {
			t.Errorf("axis[%d] = %g, want %d", i, v, i)
		}
		want := -v / 10
		if math.Abs(currents[i]-want) > 1e-9 {
			t.Errorf("I(V1) at V=%g: got %g, want %g", v, currents[i], want)
		}
	}
}

func TestDCSweepCurrentSource(t *testing.T) {
	ckt := buildCircuit(t, "I1 0 a 1m\nR1 a 0 1k\n", false)

	dc := NewDCSweep("I1", 0, 2e-3, 1e-3)
	if err := dc.Setup(ckt); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := dc.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	voltages, ok := dc.Results().Values("V(a)")
	if !ok {
		t.Fatal("missing V(a)")
	}
	want := []float64{0, 1, 2} // I * R with the source pushing into a
	for i, w := range want {
		if math.Abs(voltages[i]-w) > 1e-9 {
			t.Errorf("V(a)[%d] = %g, want %g", i, voltages[i], w)
		}
	}
}

func TestDCSweepDiode(t *testing.T) {
	// Warm-started Newton across the sweep: every point must converge and
	// the diode current must grow monotonically.
	ckt := buildCircuit(t, "V1 a 0 0\nR1 a b 100\nD1 b 0\n", false)

	dc := NewDCSweep("V1", 0, 1, 0.1)
	if err := dc.Setup(ckt); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := dc.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	vb, ok := dc.Results().Values("V(b)")
	if !ok {
		t.Fatal("missing V(b)")
	}
	for i := 1; i < len(vb); i++ {
		if vb[i] < vb[i-1]-1e-9 {
			t.Errorf("V(b) not monotonic at point %d: %g -> %g", i, vb[i-1], vb[i])
		}
	}
	if last := vb[len(vb)-1]; last < 0.3 || last > 0.7 {
		t.Errorf("V(b) at 1 V drive = %g, want a forward diode drop", last)
	}
}

func TestDCSweepRestoresSourceValue(t *testing.T) {
	ckt := buildCircuit(t, "V1 in 0 3\nR1 in 0 10\n", false)

	dc := NewDCSweep("V1", 0, 5, 1)
	if err := dc.Setup(ckt); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := dc.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	source, _ := ckt.FindSweepable("V1")
	if got := source.GetValue(); got != 3 {
		t.Errorf("source value after sweep = %g, want 3", got)
	}
}

func TestDCSweepUnknownSource(t *testing.T) {
	ckt := buildCircuit(t, "V1 in 0 1\nR1 in 0 10\n", false)

	dc := NewDCSweep("V9", 0, 1, 1)
	if err := dc.Setup(ckt); err == nil {
		t.Error("expected error for unknown sweep source")
	}
}
