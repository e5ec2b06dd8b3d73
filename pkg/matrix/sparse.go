package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// SparseLU factors the system with the sparse package. It is the backend for
// large networks, where B has at most 2*branches + buses stored elements.
type SparseLU struct {
	config sparse.Configuration
}

func NewSparseLU() *SparseLU {
	return &SparseLU{
		config: sparse.Configuration{
			Real:                    true,
			Complex:                 false,
			SeparatedComplexVectors: false,
			Expandable:              true,
			Translate:               false,
			ModifiedNodal:           true,
			TiesMultiplier:          5,
			PrinterWidth:            140,
			Annotate:                0,
		},
	}
}

func (s *SparseLU) Name() string { return "sparse" }

func (s *SparseLU) Solve(b *Susceptance, rhs []float64) ([]float64, error) {
	err := checkSystem(b, rhs)
	if err != nil {
		return nil, err
	}

	size := b.Size()
	if size == 0 {
		return []float64{}, nil
	}

	config := s.config // each solve owns its configuration
	mat, err := sparse.Create(int64(size), &config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v", err)
	}
	defer mat.Destroy()

	mat.Clear()
	for i := 0; i < size; i++ {
		cols, vals := b.Row(i)
		for k, j := range cols {
			addElement(mat, size, i+1, j+1, vals[k])
		}
	}

	// 1-based indexing
	vec := make([]float64, size+1)
	copy(vec[1:], rhs)

	err = mat.Factor()
	if err != nil {
		return nil, fmt.Errorf("%w: factorization failed: %v", ErrSingular, err)
	}

	solution, err := mat.Solve(vec)
	if err != nil {
		return nil, fmt.Errorf("%w: solve failed: %v", ErrSingular, err)
	}
	if len(solution) < size+1 {
		return nil, fmt.Errorf("%w: solution length %d, want %d", ErrDimensionMismatch, len(solution), size+1)
	}

	x := make([]float64, size)
	copy(x, solution[1:size+1])
	if err := checkFinite(x); err != nil {
		return nil, err
	}
	return x, nil
}

func addElement(mat *sparse.Matrix, size, i, j int, value float64) {
	if i <= 0 || j <= 0 || i > size || j > size {
		return
	}
	mat.GetElement(int64(i), int64(j)).Real += value
}
