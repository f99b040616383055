package analysis

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/prokie/krets/pkg/result"
)

const rcLowPass = `V1 in 0 0 AC 1
R1 in out 1000
C1 out 0 1u
`

func runAC(t *testing.T, input string, fStart, fStop float64, nPoints int, scale string) *ACAnalysis {
	t.Helper()

	ckt := buildCircuit(t, input, true)
	ac := NewAC(fStart, fStop, nPoints, scale)
	if err := ac.Setup(ckt); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := ac.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return ac
}

func TestACLowPassCornerFrequency(t *testing.T) {
	// -3 dB at f = 1/(2*pi*R*C).
	corner := 1.0 / (2 * math.Pi * 1000 * 1e-6)
	ac := runAC(t, rcLowPass, corner, corner, 1, ScaleLin)

	vout, ok := ac.Results().ComplexValues("V(out)")
	if !ok || len(vout) != 1 {
		t.Fatal("missing V(out)")
	}

	mag := cmplx.Abs(vout[0])
	want := 1.0 / math.Sqrt2
	if math.Abs(mag-want)/want > 0.01 {
		t.Errorf("|V(out)| at corner = %g, want %g within 1%%", mag, want)
	}

	// Phase lags by 45 degrees at the corner.
	phase := cmplx.Phase(vout[0]) * 180 / math.Pi
	if math.Abs(phase+45) > 1 {
		t.Errorf("phase at corner = %g deg, want -45", phase)
	}
}

func TestACLowPassDecadeSweep(t *testing.T) {
	ac := runAC(t, rcLowPass, 1, 10e3, 41, ScaleDec)

	res := ac.Results()
	if res.AxisName() != result.AxisFreq {
		t.Errorf("axis name = %q", res.AxisName())
	}
	if res.Len() != 41 {
		t.Fatalf("points = %d, want 41", res.Len())
	}

	freqs := res.Axis()
	if math.Abs(freqs[0]-1) > 1e-9 || math.Abs(freqs[40]-10e3) > 1e-6 {
		t.Errorf("frequency range = [%g, %g]", freqs[0], freqs[40])
	}

	// Low-pass magnitude must fall monotonically with frequency.
	vout, _ := ac.Results().ComplexValues("V(out)")
	for i := 1; i < len(vout); i++ {
		if cmplx.Abs(vout[i]) > cmplx.Abs(vout[i-1])+1e-12 {
			t.Errorf("|V(out)| not monotonic at point %d", i)
		}
	}

	// Check each point against the analytic transfer function.
	for i, f := range freqs {
		wRC := 2 * math.Pi * f * 1000 * 1e-6
		want := 1 / math.Sqrt(1+wRC*wRC)
		got := cmplx.Abs(vout[i])
		if math.Abs(got-want)/want > 1e-6 {
			t.Errorf("|V(out)| at %g Hz = %g, want %g", f, got, want)
		}
	}
}

func TestACBiasAgreesWithOP(t *testing.T) {
	// As f -> 0 the AC solution driven with the DC value reproduces the
	// operating point.
	input := `V1 in 0 1 AC 1
R1 in out 1000
C1 out 0 1u
`
	opRun := runOP(t, buildCircuit(t, input, false))
	vop := value(t, opRun, "V(out)")

	ac := runAC(t, input, 1e-6, 1e-6, 1, ScaleLin)
	vac, _ := ac.Results().ComplexValues("V(out)")

	if math.Abs(real(vac[0])-vop) > 1e-6 {
		t.Errorf("AC at near-zero frequency: %g, OP: %g", real(vac[0]), vop)
	}
	if math.Abs(imag(vac[0])) > 1e-6 {
		t.Errorf("imaginary part at near-zero frequency = %g", imag(vac[0]))
	}
}

func TestACInductorHighPass(t *testing.T) {
	// RL high-pass: V(out) -> 0 at low frequency, -> 1 at high frequency.
	input := `V1 in 0 0 AC 1
R1 in out 1000
L1 out 0 1m
`
	ac := runAC(t, input, 10, 10e6, 25, ScaleDec)

	vout, _ := ac.Results().ComplexValues("V(out)")
	if low := cmplx.Abs(vout[0]); low > 0.01 {
		t.Errorf("|V(out)| at 10 Hz = %g, want near 0", low)
	}
	if high := cmplx.Abs(vout[len(vout)-1]); math.Abs(high-1) > 0.01 {
		t.Errorf("|V(out)| at 10 MHz = %g, want near 1", high)
	}
}

func TestACDiodeLinearizedAtBias(t *testing.T) {
	// A forward-biased diode presents its small-signal conductance; the
	// attenuation at low frequency follows the resistive divider R vs
	// 1/gd.
	input := `V1 in 0 1 AC 1
R1 in out 1000
D1 out 0
`
	ac := runAC(t, input, 1, 1, 1, ScaleLin)

	vout, _ := ac.Results().ComplexValues("V(out)")
	mag := cmplx.Abs(vout[0])
	if mag <= 0 || mag >= 0.2 {
		t.Errorf("|V(out)| = %g, want strong attenuation from the diode conductance", mag)
	}
}

func TestACFrequencyGeneration(t *testing.T) {
	ac := NewAC(1, 1000, 4, ScaleDec)
	ac.generateFrequencyPoints()

	want := []float64{1, 10, 100, 1000}
	for i, w := range want {
		if math.Abs(ac.Frequencies()[i]-w)/w > 1e-9 {
			t.Errorf("freq[%d] = %g, want %g", i, ac.Frequencies()[i], w)
		}
	}

	lin := NewAC(0, 100, 5, ScaleLin)
	lin.generateFrequencyPoints()
	if lin.Frequencies()[1] != 25 {
		t.Errorf("lin freq[1] = %g, want 25", lin.Frequencies()[1])
	}
}
