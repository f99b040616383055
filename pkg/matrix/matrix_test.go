package matrix

import (
	"errors"
	"math"
	"testing"
)

func TestSolveReal(t *testing.T) {
	m, err := NewMatrix(2, false)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Destroy()
	m.SetupElements()

	// | 2 1 | x = |  5 |
	// | 1 3 |     | 10 |
	m.AddElement(1, 1, 2)
	m.AddElement(1, 2, 1)
	m.AddElement(2, 1, 1)
	m.AddElement(2, 2, 3)
	m.AddRHS(1, 5)
	m.AddRHS(2, 10)

	if err := m.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	sol := m.Solution()
	if math.Abs(sol[1]-1) > 1e-12 || math.Abs(sol[2]-3) > 1e-12 {
		t.Errorf("solution = (%g, %g), want (1, 3)", sol[1], sol[2])
	}
}

func TestSolveRepeatedIdentical(t *testing.T) {
	m, err := NewMatrix(2, false)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Destroy()
	m.SetupElements()

	assemble := func() {
		m.Clear()
		m.AddElement(1, 1, 1e-3)
		m.AddElement(1, 2, -1e-3)
		m.AddElement(2, 1, -1e-3)
		m.AddElement(2, 2, 2e-3)
		m.AddRHS(1, 5e-3)
	}

	assemble()
	if err := m.Solve(); err != nil {
		t.Fatalf("first solve: %v", err)
	}
	first := append([]float64(nil), m.Solution()...)

	assemble()
	if err := m.Solve(); err != nil {
		t.Fatalf("second solve: %v", err)
	}
	second := m.Solution()

	for i := 1; i <= 2; i++ {
		if first[i] != second[i] {
			t.Errorf("component %d differs between identical solves: %g vs %g", i, first[i], second[i])
		}
	}
}

func TestSolveSingular(t *testing.T) {
	m, err := NewMatrix(3, false)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Destroy()
	m.SetupElements()

	// Two identical rows: the incidence pattern of parallel voltage
	// sources on one node.
	m.AddElement(1, 2, 1)
	m.AddElement(1, 3, 1)
	m.AddElement(2, 1, 1)
	m.AddElement(3, 1, 1)
	m.AddRHS(2, 1)
	m.AddRHS(3, 2)

	if err := m.Solve(); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}

func TestSolveComplex(t *testing.T) {
	m, err := NewMatrix(1, true)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Destroy()
	m.SetupElements()

	// (j2) x = 2  ->  x = -j
	m.AddComplexElement(1, 1, 0, 2)
	m.AddComplexRHS(1, 2, 0)

	if err := m.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	re, im := m.ComplexSolution(1)
	if math.Abs(re) > 1e-12 || math.Abs(im+1) > 1e-12 {
		t.Errorf("solution = %g%+gi, want 0-1i", re, im)
	}
}

func TestAddGroundDropped(t *testing.T) {
	m, err := NewMatrix(1, false)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Destroy()
	m.SetupElements()

	// Contributions aimed at ground (index 0) and out-of-range rows must
	// vanish without touching the system.
	m.AddElement(0, 1, 99)
	m.AddElement(1, 0, 99)
	m.AddRHS(0, 99)
	m.AddElement(2, 2, 99)

	m.AddElement(1, 1, 2)
	m.AddRHS(1, 4)

	if err := m.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if got := m.Solution()[1]; math.Abs(got-2) > 1e-12 {
		t.Errorf("solution = %g, want 2", got)
	}
}

func TestClearResetsSystem(t *testing.T) {
	m, err := NewMatrix(1, false)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Destroy()
	m.SetupElements()

	m.AddElement(1, 1, 5)
	m.AddRHS(1, 5)
	m.Clear()

	if re, _ := m.Element(1, 1); re != 0 {
		t.Errorf("matrix entry after Clear = %g, want 0", re)
	}
	if m.RHS()[1] != 0 {
		t.Errorf("rhs after Clear = %g, want 0", m.RHS()[1])
	}
}
