package matrix

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/toy-powerflow/pkg/grid"
)

const eps = 1e-9

func twoBus(t *testing.T, reactance float64) *grid.Topology {
	t.Helper()
	topo := grid.NewTopology()
	a := topo.AddBusOfType(grid.Slack)
	b := topo.AddBus()
	_, err := topo.AddBranch(a, b, grid.Line(0, reactance))
	require.NoError(t, err)
	return topo
}

// randomMesh builds a connected network: a spanning chain plus random extra
// branches, some of them parallel.
func randomMesh(t *testing.T, n, extra int, seed int64) *grid.Topology {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	topo := grid.NewTopology()
	topo.AddBusOfType(grid.Slack)
	for i := 1; i < n; i++ {
		topo.AddBus()
		_, err := topo.AddBranch(grid.BusID(rng.Intn(i)), grid.BusID(i), grid.Line(0, 0.05+rng.Float64()))
		require.NoError(t, err)
	}
	for k := 0; k < extra; k++ {
		a, b := rng.Intn(n), rng.Intn(n)
		if a == b {
			continue
		}
		_, err := topo.AddBranch(grid.BusID(a), grid.BusID(b), grid.Line(0, 0.05+rng.Float64()))
		require.NoError(t, err)
	}
	return topo
}

func TestAssembleTwoBus(t *testing.T) {
	b, err := Assemble(twoBus(t, 0.1), 1)
	require.NoError(t, err)

	want := [][]float64{{10, -10}, {-10, 10}}
	got := b.Dense()
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], got[i][j], eps, "B[%d][%d]", i, j)
		}
	}
	assert.Equal(t, 4, b.NonZeros())
}

func TestAssembleParallelBranchesSum(t *testing.T) {
	topo := twoBus(t, 0.1)
	_, err := topo.AddBranch(1, 0, grid.Line(0, 0.2))
	require.NoError(t, err)

	b, err := Assemble(topo, 1)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, b.At(0, 0), eps)
	assert.InDelta(t, -15.0, b.At(0, 1), eps)
	assert.InDelta(t, -15.0, b.At(1, 0), eps)
	assert.InDelta(t, 15.0, b.At(1, 1), eps)
	assert.Equal(t, 4, b.NonZeros())
}

func TestAssembleSkipsOutOfService(t *testing.T) {
	topo := twoBus(t, 0.1)
	open := grid.Line(0, 0) // zero reactance is fine when the branch is open
	open.OutOfService = true
	_, err := topo.AddBranch(0, 1, open)
	require.NoError(t, err)

	b, err := Assemble(topo, 1)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, b.At(1, 1), eps)
}

func TestAssembleRejectsBadReactance(t *testing.T) {
	for _, x := range []float64{0, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Assemble(twoBus(t, x), 1)
		assert.ErrorIs(t, err, grid.ErrTopology, "reactance %v", x)
	}
}

func TestAssembleIsolatedBusKeepsDiagonal(t *testing.T) {
	topo := grid.NewTopology()
	topo.AddBusOfType(grid.Slack)
	topo.AddBus()

	b, err := Assemble(topo, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, b.NonZeros())
	cols, vals := b.Row(1)
	assert.Equal(t, []int{1}, cols)
	assert.Equal(t, []float64{0}, vals)
}

func TestAssembleEmpty(t *testing.T) {
	b, err := Assemble(grid.NewTopology(), 4)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Size())
}

func TestRowSumsAreZero(t *testing.T) {
	topo := randomMesh(t, 60, 90, 7)
	for _, workers := range []int{1, 3, 8} {
		b, err := Assemble(topo, workers)
		require.NoError(t, err)
		for i := 0; i < b.Size(); i++ {
			assert.InDelta(t, 0.0, b.RowSum(i), 1e-9, "workers=%d row %d", workers, i)
		}
	}
}

func TestParallelAssemblyMatchesSequential(t *testing.T) {
	topo := randomMesh(t, 80, 150, 11)
	seq, err := Assemble(topo, 1)
	require.NoError(t, err)
	par, err := Assemble(topo, 6)
	require.NoError(t, err)

	require.Equal(t, seq.Size(), par.Size())
	require.Equal(t, seq.NonZeros(), par.NonZeros())
	for i := 0; i < seq.Size(); i++ {
		for j := 0; j < seq.Size(); j++ {
			assert.InDelta(t, seq.At(i, j), par.At(i, j), 1e-12)
		}
	}
}

func TestAssembledMatrixIsSymmetric(t *testing.T) {
	b, err := Assemble(randomMesh(t, 30, 40, 3), 2)
	require.NoError(t, err)
	for i := 0; i < b.Size(); i++ {
		for j := 0; j < i; j++ {
			assert.InDelta(t, b.At(i, j), b.At(j, i), 1e-12)
		}
	}
}

func TestWithoutRemovesRowAndColumn(t *testing.T) {
	topo := grid.NewTopology()
	for i := 0; i < 3; i++ {
		topo.AddBus()
	}
	_, err := topo.AddBranch(0, 1, grid.Line(0, 0.1))
	require.NoError(t, err)
	_, err = topo.AddBranch(1, 2, grid.Line(0, 0.2))
	require.NoError(t, err)

	b, err := Assemble(topo, 1)
	require.NoError(t, err)

	red := b.Without(0)
	require.Equal(t, 2, red.Size())
	want := [][]float64{{15, -5}, {-5, 5}}
	got := red.Dense()
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], got[i][j], eps)
		}
	}

	mid := b.Without(1)
	assert.InDelta(t, 10.0, mid.At(0, 0), eps)
	assert.InDelta(t, 0.0, mid.At(0, 1), eps)
	assert.InDelta(t, 5.0, mid.At(1, 1), eps)

	assert.Same(t, b, b.Without(5))
}

func TestMulVec(t *testing.T) {
	b, err := Assemble(twoBus(t, 0.1), 1)
	require.NoError(t, err)

	y, err := b.MulVec([]float64{0, -0.1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, y[0], eps)
	assert.InDelta(t, -1.0, y[1], eps)

	_, err = b.MulVec([]float64{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFprint(t *testing.T) {
	b, err := Assemble(twoBus(t, 0.1), 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	b.Fprint(&buf)
	out := buf.String()
	assert.Contains(t, out, "Susceptance matrix (2x2)")
	assert.Contains(t, out, "-10.000")
	assert.Contains(t, out, "Density = 100.00%")
}

func TestNormIsFrobenius(t *testing.T) {
	b, err := Assemble(twoBus(t, 0.1), 1)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, b.Norm(), eps)

	empty, err := Assemble(grid.NewTopology(), 1)
	require.NoError(t, err)
	assert.Zero(t, empty.Norm())
}
