// Package solver defines the power-flow solver contract and the DC power
// flow implementation.
package solver

import "github.com/edp1096/toy-powerflow/pkg/grid"

// Solver is implemented by every power-flow algorithm. Solve never mutates
// the topology. On success it updates the state in place (angles at least)
// and returns a Result; on failure it returns an error, no result, and leaves
// the state unspecified.
type Solver interface {
	Name() string
	Solve(topology *grid.Topology, state *grid.StateStore) (Result, error)
}

// Result describes one solve. It is produced once per call.
type Result struct {
	Iterations int     // 1 for direct solvers, 0 when nothing had to be solved
	Residual   float64 // final mismatch norm
	Converged  bool
}

func Converged(iterations int, residual float64) Result {
	return Result{Iterations: iterations, Residual: residual, Converged: true}
}

func Failed(iterations int, residual float64) Result {
	return Result{Iterations: iterations, Residual: residual, Converged: false}
}
