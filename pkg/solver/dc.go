package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-powerflow/pkg/grid"
	"github.com/edp1096/toy-powerflow/pkg/matrix"
)

// DCPowerFlow is the linearized power flow: flat voltage magnitudes,
// resistance neglected, sin(dθ) ≈ dθ. It solves B·θ = P with the slack row
// and column removed.
type DCPowerFlow struct {
	opts options
}

func NewDCPowerFlow(opts ...Option) *DCPowerFlow {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &DCPowerFlow{opts: o}
}

func (s *DCPowerFlow) Name() string { return "DC Power Flow" }

func (s *DCPowerFlow) Tolerance() float64 { return s.opts.tolerance }

// BuildBMatrix assembles the full susceptance matrix of topology.
func (s *DCPowerFlow) BuildBMatrix(topology *grid.Topology) (*matrix.Susceptance, error) {
	if topology == nil {
		return nil, fmt.Errorf("%w: nil topology", grid.ErrTopology)
	}
	return matrix.Assemble(topology, s.opts.workers)
}

func (s *DCPowerFlow) Solve(topology *grid.Topology, state *grid.StateStore) (Result, error) {
	if topology == nil {
		return Result{}, fmt.Errorf("%w: nil topology", grid.ErrTopology)
	}
	if state == nil {
		return Result{}, fmt.Errorf("%w: nil state", grid.ErrState)
	}

	n := topology.BusCount()
	if n == 0 {
		return Result{}, fmt.Errorf("%w: no buses", grid.ErrSimulation)
	}
	if state.BusCount() != n {
		return Result{}, fmt.Errorf("%w: topology has %d buses, state has %d", grid.ErrState, n, state.BusCount())
	}

	slack, err := topology.SlackBus()
	if err != nil {
		return Result{}, err
	}
	if err := checkFiniteInputs(state, slack); err != nil {
		return Result{}, err
	}

	b, err := s.BuildBMatrix(topology)
	if err != nil {
		return Result{}, err
	}

	log := s.opts.logger.WithFields(logrus.Fields{
		"solver":   s.Name(),
		"buses":    n,
		"branches": topology.BranchCount(),
		"slack":    slack,
	})
	log.WithFields(logrus.Fields{"nnz": b.NonZeros(), "workers": s.opts.workers}).Debug("assembled susceptance matrix")

	// Slack only: the angle is the reference, nothing to solve.
	if n == 1 {
		return Converged(0, 0), nil
	}

	err = checkIslands(topology, slack)
	if err != nil {
		return Result{}, err
	}

	angle := state.VoltageAngle()
	power := state.ActivePower()
	thetaSlack := angle[slack]

	reduced := b.Without(int(slack))
	rhs := make([]float64, 0, n-1)
	for i := 0; i < n; i++ {
		if i == int(slack) {
			continue
		}
		rhs = append(rhs, power[i]-b.At(i, int(slack))*thetaSlack)
	}

	backend := s.backendFor(reduced.Size())
	log.WithField("backend", backend.Name()).Debug("solving reduced system")

	theta, err := backend.Solve(reduced, rhs)
	if err != nil {
		if errors.Is(err, matrix.ErrSingular) {
			return Result{}, fmt.Errorf("%w: singular B matrix: %v", grid.ErrSimulation, err)
		}
		return Result{}, fmt.Errorf("%w: solving reduced system: %v", grid.ErrSimulation, err)
	}

	k := 0
	for i := 0; i < n; i++ {
		if i == int(slack) {
			continue
		}
		angle[i] = theta[k]
		k++
	}

	injected, err := b.MulVec(angle)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", grid.ErrState, err)
	}
	residual := mismatchNorm(injected, power, -1)

	// Backward-error guard on the solved rows. The slack row mismatch is the
	// slack output and is left out.
	solved := mismatchNorm(injected, power, int(slack))
	limit := s.opts.tolerance * (b.Norm()*floats.Norm(angle, 2) + floats.Norm(rhs, 2))
	log.WithFields(logrus.Fields{
		"residual": residual,
		"solved":   solved,
		"limit":    limit,
	}).Debug("dc power flow solved")
	if math.IsNaN(solved) || solved > limit {
		return Result{}, fmt.Errorf("%w: %s returned angles with mismatch %g above %g", grid.ErrSimulation, backend.Name(), solved, limit)
	}

	return Converged(1, residual), nil
}

func (s *DCPowerFlow) backendFor(size int) matrix.LinearSolver {
	if s.opts.backend != nil {
		return s.opts.backend
	}
	if size <= s.opts.denseThreshold {
		return matrix.NewDenseLU()
	}
	return matrix.NewSparseLU()
}

// checkIslands fails when a bus has no in-service path to the slack bus; its
// row in the reduced system would make the matrix singular.
func checkIslands(topology *grid.Topology, slack grid.BusID) error {
	reach, err := topology.Reachable(slack)
	if err != nil {
		return err
	}
	for i, ok := range reach {
		if !ok {
			return fmt.Errorf("%w: singular B matrix: bus %d has no path to slack bus %d", grid.ErrSimulation, i, slack)
		}
	}
	return nil
}

// checkFiniteInputs rejects NaN or Inf injections and a non-finite slack
// angle before they reach the factorization.
func checkFiniteInputs(state *grid.StateStore, slack grid.BusID) error {
	for i, p := range state.ActivePower() {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: active power at bus %d is %v", grid.ErrState, i, p)
		}
	}
	if a := state.VoltageAngle()[slack]; math.IsNaN(a) || math.IsInf(a, 0) {
		return fmt.Errorf("%w: slack bus %d angle is %v", grid.ErrState, slack, a)
	}
	return nil
}

// mismatchNorm is |B·θ - P| over every row except skip (-1 keeps all rows).
func mismatchNorm(injected, power []float64, skip int) float64 {
	diff := make([]float64, 0, len(power))
	for i := range power {
		if i == skip {
			continue
		}
		diff = append(diff, injected[i]-power[i])
	}
	return floats.Norm(diff, 2)
}
