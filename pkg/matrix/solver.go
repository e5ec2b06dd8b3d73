// Package matrix assembles the DC susceptance matrix of a topology and solves
// linear systems over it with a sparse or a dense LU backend.
package matrix

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSingular is returned by a backend that cannot factor the matrix.
	ErrSingular = errors.New("matrix: singular matrix")

	// ErrDimensionMismatch is returned when a vector does not match the matrix size.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")
)

// LinearSolver solves B*x = rhs for a square Susceptance matrix.
type LinearSolver interface {
	Name() string
	Solve(b *Susceptance, rhs []float64) ([]float64, error)
}

func checkSystem(b *Susceptance, rhs []float64) error {
	if len(rhs) != b.Size() {
		return fmt.Errorf("%w: rhs length %d, matrix size %d", ErrDimensionMismatch, len(rhs), b.Size())
	}
	return nil
}

func checkFinite(x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite solution at row %d", ErrSingular, i)
		}
	}
	return nil
}
