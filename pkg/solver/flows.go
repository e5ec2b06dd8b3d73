package solver

import (
	"fmt"

	"github.com/edp1096/toy-powerflow/pkg/grid"
	"github.com/edp1096/toy-powerflow/pkg/matrix"
)

// Flow is the DC active power on a branch, positive from From to To (p.u.).
type Flow struct {
	Branch grid.BranchID
	From   grid.BusID
	To     grid.BusID
	P      float64
}

// BranchFlows returns (θfrom - θto)/X for every branch of a solved state.
// Out-of-service branches carry no flow.
func BranchFlows(topology *grid.Topology, state *grid.StateStore) ([]Flow, error) {
	if err := checkShape(topology, state); err != nil {
		return nil, err
	}

	angle := state.VoltageAngle()
	flows := make([]Flow, topology.BranchCount())
	for id := range flows {
		bid := grid.BranchID(id)
		br, err := topology.Branch(bid)
		if err != nil {
			return nil, err
		}
		from, to, err := topology.Endpoints(bid)
		if err != nil {
			return nil, err
		}
		flows[id] = Flow{Branch: bid, From: from, To: to}
		if br.OutOfService {
			continue
		}
		if br.Reactance == 0 {
			return nil, fmt.Errorf("%w: branch %d has zero reactance", grid.ErrTopology, id)
		}
		flows[id].P = (angle[from] - angle[to]) / br.Reactance
	}
	return flows, nil
}

// BusInjections returns B·θ, the net injection at every bus implied by the
// angles in state. At the slack bus this is the power it has to supply.
func BusInjections(topology *grid.Topology, state *grid.StateStore) ([]float64, error) {
	if err := checkShape(topology, state); err != nil {
		return nil, err
	}
	b, err := matrix.Assemble(topology, 1)
	if err != nil {
		return nil, err
	}
	injected, err := b.MulVec(state.VoltageAngle())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", grid.ErrState, err)
	}
	return injected, nil
}

func checkShape(topology *grid.Topology, state *grid.StateStore) error {
	if topology == nil {
		return fmt.Errorf("%w: nil topology", grid.ErrTopology)
	}
	if state == nil {
		return fmt.Errorf("%w: nil state", grid.ErrState)
	}
	if topology.BusCount() != state.BusCount() {
		return fmt.Errorf("%w: topology has %d buses, state has %d", grid.ErrState, topology.BusCount(), state.BusCount())
	}
	return nil
}
