package matrix

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/edp1096/toy-powerflow/pkg/grid"
)

// Assemble builds the DC susceptance matrix of topo from branch reactances:
// every in-service branch (i, j, X) adds 1/X to B[i][i] and B[j][j] and
// subtracts it from B[i][j] and B[j][i]. Rows are split across workers; each
// row is written by one goroutine only.
func Assemble(topo *grid.Topology, workers int) (*Susceptance, error) {
	err := validateReactances(topo)
	if err != nil {
		return nil, err
	}

	n := topo.BusCount()
	rows := make([]row, n)
	if n == 0 {
		return compress(rows), nil
	}

	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				r, err := assembleRow(topo, grid.BusID(i))
				if err != nil {
					return fmt.Errorf("assembling row %d: %w", i, err)
				}
				rows[i] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return compress(rows), nil
}

func validateReactances(topo *grid.Topology) error {
	for id := 0; id < topo.BranchCount(); id++ {
		br, err := topo.Branch(grid.BranchID(id))
		if err != nil {
			return err
		}
		if br.OutOfService {
			continue
		}
		x := br.Reactance
		switch {
		case x == 0:
			return fmt.Errorf("%w: branch %d has zero reactance", grid.ErrTopology, id)
		case math.IsNaN(x) || math.IsInf(x, 0):
			return fmt.Errorf("%w: branch %d has non-finite reactance %v", grid.ErrTopology, id, x)
		}
	}
	return nil
}

type row struct {
	cols []int
	vals []float64
}

func (r *row) Len() int           { return len(r.cols) }
func (r *row) Less(a, b int) bool { return r.cols[a] < r.cols[b] }
func (r *row) Swap(a, b int) {
	r.cols[a], r.cols[b] = r.cols[b], r.cols[a]
	r.vals[a], r.vals[b] = r.vals[b], r.vals[a]
}

func assembleRow(topo *grid.Topology, bus grid.BusID) (row, error) {
	neighbors, err := topo.BranchesOf(bus)
	if err != nil {
		return row{}, err
	}

	r := row{
		cols: make([]int, 1, len(neighbors)+1),
		vals: make([]float64, 1, len(neighbors)+1),
	}
	r.cols[0] = int(bus) // diagonal first
	slot := map[grid.BusID]int{bus: 0}

	for _, nb := range neighbors {
		br, err := topo.Branch(nb.Branch)
		if err != nil {
			return row{}, err
		}
		if br.OutOfService {
			continue
		}

		y := 1.0 / br.Reactance
		r.vals[0] += y

		k, ok := slot[nb.Bus]
		if !ok {
			k = len(r.cols)
			slot[nb.Bus] = k
			r.cols = append(r.cols, int(nb.Bus))
			r.vals = append(r.vals, 0)
		}
		r.vals[k] -= y // parallel branches accumulate
	}

	sort.Sort(&r)
	return r, nil
}

func compress(rows []row) *Susceptance {
	nnz := 0
	for _, r := range rows {
		nnz += len(r.cols)
	}

	b := &Susceptance{
		n:      len(rows),
		rowPtr: make([]int, 1, len(rows)+1),
		cols:   make([]int, 0, nnz),
		vals:   make([]float64, 0, nnz),
	}
	for _, r := range rows {
		b.cols = append(b.cols, r.cols...)
		b.vals = append(b.vals, r.vals...)
		b.rowPtr = append(b.rowPtr, len(b.cols))
	}
	return b
}
