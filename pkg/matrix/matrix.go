// Package matrix owns the MNA system: a square sparse matrix A, the right
// hand side b and the solution vector, over the LU engine from
// github.com/edp1096/sparse. Rows 1..numNodes are KCL rows, the remaining
// rows hold branch-current equations. Everything is 1-based; index 0 is
// ground and is silently dropped.
package matrix

import (
	stderrors "errors"

	"github.com/edp1096/sparse"
	"github.com/pkg/errors"
)

// ErrSingular reports a non-invertible system matrix.
var ErrSingular = stderrors.New("matrix: singular matrix")

type CircuitMatrix struct {
	Size         int
	matrix       *sparse.Matrix
	rhs          []float64
	rhsImag      []float64
	solution     []float64
	solutionImag []float64
	isComplex    bool
	config       *sparse.Configuration
}

// NewMatrix creates an empty N x N system. Complex systems are used for AC
// analysis; everything else is real.
func NewMatrix(size int, isComplex bool) (*CircuitMatrix, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 isComplex,
		SeparatedComplexVectors: true,
		Expandable:              true,
		Translate:               true,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, errors.Wrap(err, "creating sparse matrix")
	}

	vectorSize := size + 1 // 1-based indexing
	return &CircuitMatrix{
		Size:         size,
		matrix:       mat,
		rhs:          make([]float64, vectorSize),
		rhsImag:      make([]float64, vectorSize),
		solution:     make([]float64, vectorSize),
		solutionImag: make([]float64, vectorSize),
		isComplex:    isComplex,
		config:       config,
	}, nil
}

// SetupElements pre-creates every matrix element so the sparse structure is
// stable across repeated Clear/stamp/factor cycles.
func (m *CircuitMatrix) SetupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (m *CircuitMatrix) AddComplexElement(i, j int, real, imag float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return
	}
	element := m.matrix.GetElement(int64(i), int64(j))
	element.Real += real
	element.Imag += imag
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if i <= 0 || i > m.Size {
		return
	}
	m.rhs[i] += value
}

func (m *CircuitMatrix) AddComplexRHS(i int, real, imag float64) {
	if i <= 0 || i > m.Size {
		return
	}
	m.rhs[i] += real
	m.rhsImag[i] += imag
}

// Clear zeroes A and b ahead of a (re)assembly. The sparse structure is kept.
func (m *CircuitMatrix) Clear() {
	m.matrix.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
	for i := range m.rhsImag {
		m.rhsImag[i] = 0
	}
}

// Solve factors A and solves A x = b. The assembled rhs is not consumed, so
// the caller may inspect it after the solve.
func (m *CircuitMatrix) Solve() error {
	var err error

	if err = m.matrix.Factor(); err != nil {
		return errors.Wrapf(ErrSingular, "factorization failed: %v", err)
	}

	if m.isComplex {
		m.solution, m.solutionImag, err = m.matrix.SolveComplex(m.rhs, m.rhsImag)
	} else {
		m.solution, err = m.matrix.Solve(m.rhs)
	}
	if err != nil {
		return errors.Wrap(err, "matrix solve failed")
	}

	return nil
}

// Solution returns the 1-based real solution vector (the real part for
// complex systems).
func (m *CircuitMatrix) Solution() []float64 {
	return m.solution
}

func (m *CircuitMatrix) SolutionImag() []float64 {
	return m.solutionImag
}

// ComplexSolution returns component i of the solution as (real, imag).
func (m *CircuitMatrix) ComplexSolution(i int) (float64, float64) {
	if i <= 0 || i > m.Size {
		return 0, 0
	}
	if !m.isComplex {
		return m.solution[i], 0
	}
	return m.solution[i], m.solutionImag[i]
}

func (m *CircuitMatrix) RHS() []float64 {
	return m.rhs
}

func (m *CircuitMatrix) IsComplex() bool {
	return m.isComplex
}

// Element returns the accumulated (real, imag) entry at (i, j). Used by
// tests to check stamp symmetry and conservation.
func (m *CircuitMatrix) Element(i, j int) (float64, float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return 0, 0
	}
	e := m.matrix.GetElement(int64(i), int64(j))
	return e.Real, e.Imag
}

func (m *CircuitMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
