package matrix

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/cmplx"

	"github.com/edp1096/sparse"
	"go.uber.org/zap"

	"github.com/edp1096/circuitkit/internal/consts"
)

var (
	ErrSingular    = errors.New("singular system")
	ErrOutOfBounds = errors.New("matrix index out of bounds")
)

// CircuitMatrix is a complex MNA system A x = b with 1-based indices.
type CircuitMatrix struct {
	Size             int
	matrix           *sparse.Matrix
	rhs              []float64 // interleaved re/im, 1-based
	solution         []float64
	gross            []float64 // sum of stamped magnitudes per column
	config           *sparse.Configuration
	logger           *zap.Logger
	singularityRatio float64
	err              error
}

var _ DeviceMatrix = (*CircuitMatrix)(nil)

func NewMatrix(size int, logger *zap.Logger) (*CircuitMatrix, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid matrix size: %d", size)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	vectorSize := 2 * (size + 1)
	m := &CircuitMatrix{
		Size:             size,
		matrix:           mat,
		rhs:              make([]float64, vectorSize),
		solution:         make([]float64, vectorSize),
		gross:            make([]float64, size+1),
		config:           config,
		logger:           logger,
		singularityRatio: consts.SingularityRatio,
	}
	m.SetupElements()

	return m, nil
}

func (m *CircuitMatrix) SetSingularityRatio(ratio float64) {
	if ratio > 0 {
		m.singularityRatio = ratio
	}
}

// SetupElements allocates every entry so that the pivot search sees a
// dense structure.
func (m *CircuitMatrix) SetupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *CircuitMatrix) outOfBounds(kind string, i, j int) {
	m.logger.Warn("matrix index out of bounds",
		zap.String("kind", kind), zap.Int("i", i), zap.Int("j", j), zap.Int("size", m.Size))
	if m.err == nil {
		m.err = fmt.Errorf("%w: %s (i=%d, j=%d, size=%d)", ErrOutOfBounds, kind, i, j, m.Size)
	}
}

func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	m.AddComplexElement(i, j, value, 0)
}

func (m *CircuitMatrix) AddComplexElement(i, j int, real, imag float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		m.outOfBounds("element", i, j)
		return
	}

	element := m.matrix.GetElement(int64(i), int64(j))
	element.Real += real
	element.Imag += imag
	m.gross[j] += math.Hypot(real, imag)
}

func (m *CircuitMatrix) AddRHS(i int, value float64) {
	m.AddComplexRHS(i, value, 0)
}

func (m *CircuitMatrix) AddComplexRHS(i int, real, imag float64) {
	if i <= 0 || i > m.Size {
		m.outOfBounds("rhs", i, 0)
		return
	}
	m.rhs[2*i] += real
	m.rhs[2*i+1] += imag
}

// Solve factors the system and solves it. A zero pivot, a non-finite result
// or a result whose terms |A_ij x_j| dwarf the right-hand side is reported
// as ErrSingular. Each unknown is weighed by its own column so that branch
// currents and node voltages are compared in their own units.
func (m *CircuitMatrix) Solve() error {
	if m.err != nil {
		return m.err
	}

	err := m.matrix.Factor()
	if err != nil {
		return fmt.Errorf("%w: matrix factorization failed: %v", ErrSingular, err)
	}
	for step := 1; step <= m.Size; step++ {
		pivot := m.matrix.Diags[step]
		if pivot == nil || (pivot.Real == 0 && pivot.Imag == 0) {
			return fmt.Errorf("%w: zero pivot at step %d", ErrSingular, step)
		}
	}

	solution, _, err := m.matrix.SolveComplex(m.rhs, nil)
	if err != nil {
		return fmt.Errorf("%w: matrix solve failed: %v", ErrSingular, err)
	}

	var termMax, bMax float64
	for i := 1; i <= m.Size; i++ {
		x := complex(solution[2*i], solution[2*i+1])
		if cmplx.IsNaN(x) || cmplx.IsInf(x) {
			return fmt.Errorf("%w: non-finite solution at row %d", ErrSingular, i)
		}
		termMax = math.Max(termMax, cmplx.Abs(x)*m.gross[i])
		bMax = math.Max(bMax, cmplx.Abs(complex(m.rhs[2*i], m.rhs[2*i+1])))
	}

	if termMax > 0 {
		if bMax == 0 || termMax/bMax > m.singularityRatio {
			m.logger.Debug("rejecting ill-conditioned solution",
				zap.Float64("term_max", termMax), zap.Float64("b_max", bMax))
			return fmt.Errorf("%w: solution terms %g out of proportion with the system", ErrSingular, termMax)
		}
	}

	m.solution = solution
	m.logger.Debug("matrix solved", zap.Int("size", m.Size), zap.Int("fillins", m.matrix.FillinCount()))
	return nil
}

func (m *CircuitMatrix) GetComplexSolution(i int) (float64, float64) {
	if i <= 0 || i > m.Size {
		return 0, 0
	}
	return m.solution[2*i], m.solution[2*i+1]
}

func (m *CircuitMatrix) Solution(i int) complex128 {
	re, im := m.GetComplexSolution(i)
	return complex(re, im)
}

// PrintSystem writes the assembled equations. Call it before Solve: the
// factorization overwrites the entries in place.
func (m *CircuitMatrix) PrintSystem(w io.Writer) {
	fmt.Fprintf(w, "\nCircuit Equations (%dx%d):\n", m.Size, m.Size)
	fmt.Fprintln(w, "Node equations first, followed by branch equations")

	for i := 1; i <= m.Size; i++ {
		fmt.Fprintf(w, "Equation %d:\n", i)
		rowHasElements := false
		for j := 1; j <= m.Size; j++ {
			element := m.matrix.GetElement(int64(i), int64(j))
			if element.Real == 0 && element.Imag == 0 {
				continue
			}
			if element.Imag == 0 {
				fmt.Fprintf(w, "  %+g*x%d ", element.Real, j)
			} else {
				fmt.Fprintf(w, "  (%g + j%g)*x%d ", element.Real, element.Imag, j)
			}
			rowHasElements = true
		}
		if rowHasElements {
			fmt.Fprintf(w, " = %g + j%g\n", m.rhs[2*i], m.rhs[2*i+1])
		} else {
			fmt.Fprintln(w, "  (empty)")
		}
	}
}

func (m *CircuitMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
		m.matrix = nil
	}
}
