// Package network turns case records into a solvable network: a topology,
// the injection elements attached to it and the starting voltages of every
// bus.
package network

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/edp1096/toy-powerflow/pkg/device"
	"github.com/edp1096/toy-powerflow/pkg/grid"
	"github.com/edp1096/toy-powerflow/pkg/solver"
)

type Network struct {
	name      string
	topology  *grid.Topology
	elements  []grid.Element
	byBus     map[grid.BusID][]int
	magnitude map[grid.BusID]float64
	angle     map[grid.BusID]float64
	log       logrus.FieldLogger
}

func New(name string) *Network {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Network{
		name:      name,
		topology:  grid.NewTopology(),
		elements:  make([]grid.Element, 0),
		byBus:     make(map[grid.BusID][]int),
		magnitude: make(map[grid.BusID]float64),
		angle:     make(map[grid.BusID]float64),
		log:       l,
	}
}

func (n *Network) Name() string { return n.name }

func (n *Network) Topology() *grid.Topology { return n.topology }

func (n *Network) Elements() []grid.Element { return n.elements }

func (n *Network) SetLogger(l logrus.FieldLogger) {
	if l != nil {
		n.log = l
	}
}

// AddElement appends e to the injection list. Elements attached to a bus
// must reference one that already exists in the topology.
func (n *Network) AddElement(e grid.Element) error {
	if e == nil {
		return fmt.Errorf("network %s: nil element", n.name)
	}
	idx := len(n.elements)
	if loc, ok := e.(grid.Located); ok {
		bus := loc.BusIndex()
		if bus < 0 || int(bus) >= n.topology.BusCount() {
			return fmt.Errorf("adding %s: %w: %d (network has %d buses)",
				e.ElementType(), grid.ErrInvalidBusID, bus, n.topology.BusCount())
		}
		n.byBus[bus] = append(n.byBus[bus], idx)
	}
	n.elements = append(n.elements, e)
	return nil
}

// ElementsAt returns the elements attached to bus in insertion order.
func (n *Network) ElementsAt(bus grid.BusID) []grid.Element {
	idx := n.byBus[bus]
	out := make([]grid.Element, len(idx))
	for i, k := range idx {
		out[i] = n.elements[k]
	}
	return out
}

// SetInitialVoltage overrides the flat start of one bus.
func (n *Network) SetInitialVoltage(bus grid.BusID, magnitude, angle float64) error {
	if bus < 0 || int(bus) >= n.topology.BusCount() {
		return fmt.Errorf("%w: %d", grid.ErrInvalidBusID, bus)
	}
	n.magnitude[bus] = magnitude
	n.angle[bus] = angle
	return nil
}

func (n *Network) NewState() *grid.StateStore {
	return grid.NewStateStore(n.topology.BusCount())
}

// Prepare resets state, loads the initial voltages and applies every element
// once. Preparing the same store twice gives the same injections.
func (n *Network) Prepare(state *grid.StateStore) error {
	if state == nil {
		return fmt.Errorf("%w: nil state", grid.ErrState)
	}
	if state.BusCount() != n.topology.BusCount() {
		return fmt.Errorf("%w: network has %d buses, state has %d",
			grid.ErrState, n.topology.BusCount(), state.BusCount())
	}

	state.Reset()
	for bus, v := range n.magnitude {
		state.VoltageMagnitude()[bus] = v
	}
	for bus, a := range n.angle {
		state.VoltageAngle()[bus] = a
	}
	if err := grid.ApplyAll(state, n.elements...); err != nil {
		return fmt.Errorf("preparing network %s: %w", n.name, err)
	}

	n.log.WithFields(logrus.Fields{
		"network":  n.name,
		"buses":    state.BusCount(),
		"elements": len(n.elements),
	}).Debug("state prepared")
	return nil
}

// Solve prepares a fresh state and runs s on it.
func (n *Network) Solve(s solver.Solver) (*grid.StateStore, solver.Result, error) {
	state := n.NewState()
	if err := n.Prepare(state); err != nil {
		return nil, solver.Result{}, err
	}
	res, err := s.Solve(n.topology, state)
	if err != nil {
		return nil, res, fmt.Errorf("%s on %s: %w", s.Name(), n.name, err)
	}
	n.log.WithFields(logrus.Fields{
		"network":   n.name,
		"solver":    s.Name(),
		"converged": res.Converged,
		"residual":  res.Residual,
	}).Info("power flow finished")
	return state, res, nil
}

// Build creates a network from case records. Powers are converted to
// per-unit on d.BaseMVA.
func Build(d *Data) (*Network, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil data", ErrInvalidData)
	}
	if !(d.BaseMVA > 0) {
		return nil, fmt.Errorf("%w: base_mva must be positive, got %g", ErrInvalidData, d.BaseMVA)
	}
	base := d.BaseMVA
	net := New(d.Name)

	for _, bd := range d.Buses {
		net.topology.AddBusOfType(bd.BusType)
	}
	for i, bd := range d.Buses {
		bus := grid.BusID(i)
		net.magnitude[bus] = bd.VoltageMagnitude
		net.angle[bus] = bd.VoltageAngle
		if bd.ActivePower == 0 && bd.ReactivePower == 0 {
			continue
		}
		inj := device.NewBusInjection(bus, bd.BusType, bd.ActivePower/base, bd.ReactivePower/base)
		inj.Name = fmt.Sprintf("bus%d", i)
		if err := net.AddElement(inj); err != nil {
			return nil, fmt.Errorf("bus %d: %w", i, err)
		}
	}

	for i, br := range d.Branches {
		attr := grid.Branch{
			Resistance:   br.Resistance,
			Reactance:    br.Reactance,
			Susceptance:  br.Susceptance,
			TapRatio:     br.TapRatio,
			PhaseShift:   br.PhaseShift,
			OutOfService: !br.InService,
		}
		if _, err := net.topology.AddBranch(grid.BusID(br.FromBus), grid.BusID(br.ToBus), attr); err != nil {
			return nil, fmt.Errorf("branch %d: %w", i, err)
		}
	}

	for i, g := range d.Generators {
		gen := device.NewGeneratorWithLimits(grid.BusID(g.Bus), g.ActivePower/base, g.VoltageSetpoint,
			g.PMin/base, g.PMax/base, g.QMin/base, g.QMax/base)
		gen.Name = fmt.Sprintf("gen%d", i)
		gen.ReactivePower = g.ReactivePower / base
		gen.SetInService(g.InService)
		if err := net.AddElement(gen); err != nil {
			return nil, fmt.Errorf("generator %d: %w", i, err)
		}
	}

	for i, l := range d.Loads {
		load := device.NewLoad(grid.BusID(l.Bus), l.ActivePower/base, l.ReactivePower/base)
		load.Name = fmt.Sprintf("load%d", i)
		load.SetInService(l.InService)
		if err := net.AddElement(load); err != nil {
			return nil, fmt.Errorf("load %d: %w", i, err)
		}
	}

	return net, nil
}
