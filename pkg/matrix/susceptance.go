package matrix

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Susceptance is a square matrix in compressed-row form. Column indices of a
// row are sorted ascending and the diagonal of an assembled matrix is always
// stored, even when it is zero (isolated bus).
type Susceptance struct {
	n      int
	rowPtr []int
	cols   []int
	vals   []float64
}

func (b *Susceptance) Size() int { return b.n }

func (b *Susceptance) NonZeros() int { return len(b.vals) }

// Row returns views of the stored column indices and values of row i.
func (b *Susceptance) Row(i int) ([]int, []float64) {
	lo, hi := b.rowPtr[i], b.rowPtr[i+1]
	return b.cols[lo:hi], b.vals[lo:hi]
}

func (b *Susceptance) At(i, j int) float64 {
	if i < 0 || j < 0 || i >= b.n || j >= b.n {
		return 0
	}
	cols, vals := b.Row(i)
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return vals[k]
	}
	return 0
}

func (b *Susceptance) RowSum(i int) float64 {
	_, vals := b.Row(i)
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum
}

// Norm is the Frobenius norm of the stored entries.
func (b *Susceptance) Norm() float64 {
	if len(b.vals) == 0 {
		return 0
	}
	return floats.Norm(b.vals, 2)
}

// MulVec returns B*x.
func (b *Susceptance) MulVec(x []float64) ([]float64, error) {
	if len(x) != b.n {
		return nil, fmt.Errorf("%w: vector length %d, matrix size %d", ErrDimensionMismatch, len(x), b.n)
	}
	out := make([]float64, b.n)
	for i := 0; i < b.n; i++ {
		cols, vals := b.Row(i)
		sum := 0.0
		for k, j := range cols {
			sum += vals[k] * x[j]
		}
		out[i] = sum
	}
	return out, nil
}

// Without returns the matrix with row and column k removed; indices above k
// shift down by one.
func (b *Susceptance) Without(k int) *Susceptance {
	if k < 0 || k >= b.n {
		return b
	}

	out := &Susceptance{
		n:      b.n - 1,
		rowPtr: make([]int, 1, b.n),
		cols:   make([]int, 0, len(b.cols)),
		vals:   make([]float64, 0, len(b.vals)),
	}
	for i := 0; i < b.n; i++ {
		if i == k {
			continue
		}
		cols, vals := b.Row(i)
		for p, j := range cols {
			if j == k {
				continue
			}
			if j > k {
				j--
			}
			out.cols = append(out.cols, j)
			out.vals = append(out.vals, vals[p])
		}
		out.rowPtr = append(out.rowPtr, len(out.cols))
	}
	return out
}

// Dense expands the matrix row by row.
func (b *Susceptance) Dense() [][]float64 {
	out := make([][]float64, b.n)
	for i := range out {
		out[i] = make([]float64, b.n)
		cols, vals := b.Row(i)
		for k, j := range cols {
			out[i][j] = vals[k]
		}
	}
	return out
}

// Fprint writes the matrix and a short summary, 0-based bus indices.
func (b *Susceptance) Fprint(w io.Writer) {
	fmt.Fprintf(w, "\nSusceptance matrix (%dx%d):\n", b.n, b.n)
	fmt.Fprintf(w, "%4s", "")
	for j := 0; j < b.n; j++ {
		fmt.Fprintf(w, "%10d", j)
	}
	fmt.Fprintln(w)

	maxElement := 0.0
	minElement := 0.0
	for i := 0; i < b.n; i++ {
		fmt.Fprintf(w, "%4d", i)
		for j := 0; j < b.n; j++ {
			value := b.At(i, j)
			fmt.Fprintf(w, "%10.3f", value)
			if value > maxElement {
				maxElement = value
			}
			if value < minElement {
				minElement = value
			}
		}
		fmt.Fprintln(w)
	}

	density := 0.0
	if b.n > 0 {
		density = float64(b.NonZeros()) * 100 / float64(b.n*b.n)
	}
	fmt.Fprintf(w, "Largest element in matrix = %.3f\n", maxElement)
	fmt.Fprintf(w, "Smallest element in matrix = %.3f\n", minElement)
	fmt.Fprintf(w, "Stored elements = %d\n", b.NonZeros())
	fmt.Fprintf(w, "Density = %.2f%%\n", density)
}
