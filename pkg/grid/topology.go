// Package grid holds the structural and numeric core shared by every solver:
// the bus/branch topology, the per-unit state store and the injection
// protocol devices use to write into it.
package grid

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-powerflow/internal/consts"
)

type BusID int

type BranchID int

type BusType int

const (
	PQ BusType = iota // Active and reactive power specified (load bus)
	PV                // Voltage magnitude and active power specified (generator bus)
	Slack             // Angle reference, absorbs the power mismatch
)

func (t BusType) String() string {
	switch t {
	case Slack:
		return "Slack"
	case PV:
		return "PV"
	case PQ:
		return "PQ"
	default:
		return fmt.Sprintf("BusType(%d)", int(t))
	}
}

func (t BusType) MarshalText() ([]byte, error) {
	switch t {
	case Slack, PV, PQ:
		return []byte(t.String()), nil
	}
	return nil, fmt.Errorf("unknown bus type %d", int(t))
}

func (t *BusType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Slack", "slack":
		*t = Slack
	case "PV", "pv":
		*t = PV
	case "PQ", "pq":
		*t = PQ
	default:
		return fmt.Errorf("unknown bus type %q", string(text))
	}
	return nil
}

// Branch carries the per-unit series and shunt parameters of a line or
// transformer. The zero value of OutOfService means the branch is energized.
type Branch struct {
	Resistance   float64
	Reactance    float64
	Susceptance  float64 // Total line charging
	TapRatio     float64 // 0 or 1 for lines
	PhaseShift   float64 // radians
	OutOfService bool
}

func Line(resistance, reactance float64) Branch {
	return Branch{Resistance: resistance, Reactance: reactance, TapRatio: 1}
}

func LineWithCharging(resistance, reactance, susceptance float64) Branch {
	return Branch{Resistance: resistance, Reactance: reactance, Susceptance: susceptance, TapRatio: 1}
}

func Transformer(resistance, reactance, tapRatio float64) Branch {
	return Branch{Resistance: resistance, Reactance: reactance, TapRatio: tapRatio}
}

func (b Branch) InService() bool { return !b.OutOfService }

// Kind reports "Branch::Line" or "Branch::Transformer" depending on the tap.
func (b Branch) Kind() string {
	tap := b.TapRatio
	if tap == 0 {
		tap = 1
	}
	if math.Abs(tap-1.0) < consts.TapEpsilon {
		return "Branch::Line"
	}
	return "Branch::Transformer"
}

// Impedance returns |Z| = sqrt(R^2 + X^2).
func (b Branch) Impedance() float64 {
	return math.Hypot(b.Resistance, b.Reactance)
}

// Admittance returns the series admittance 1/Z as (g, b). A zero impedance
// yields (0, 0).
func (b Branch) Admittance() (float64, float64) {
	z2 := b.Resistance*b.Resistance + b.Reactance*b.Reactance
	if z2 > 0 {
		return b.Resistance / z2, -b.Reactance / z2
	}
	return 0, 0
}

// Neighbor is one adjacency entry: the bus on the other end and the branch
// that reaches it.
type Neighbor struct {
	Bus    BusID
	Branch BranchID
}

type branchEntry struct {
	from, to BusID
	attr     Branch
}

// Topology is an undirected multigraph over dense bus indices. Parallel
// branches stay distinct edges. It is built between solves and only read
// during them, so one Topology may back several concurrent solves.
type Topology struct {
	busTypes  []BusType
	branches  []branchEntry
	adjacency [][]Neighbor
}

func NewTopology() *Topology {
	return &Topology{}
}

// AddBus appends a PQ bus and returns its id.
func (t *Topology) AddBus() BusID {
	return t.AddBusOfType(PQ)
}

func (t *Topology) AddBusOfType(busType BusType) BusID {
	id := BusID(len(t.busTypes))
	t.busTypes = append(t.busTypes, busType)
	t.adjacency = append(t.adjacency, nil)
	return id
}

func (t *Topology) SetBusType(bus BusID, busType BusType) error {
	if !t.hasBus(bus) {
		return fmt.Errorf("%w: %d", ErrInvalidBusID, bus)
	}
	t.busTypes[bus] = busType
	return nil
}

func (t *Topology) BusType(bus BusID) (BusType, error) {
	if !t.hasBus(bus) {
		return PQ, fmt.Errorf("%w: %d", ErrInvalidBusID, bus)
	}
	return t.busTypes[bus], nil
}

// AddBranch records a branch between two existing buses. Both directions are
// added to the adjacency so BranchesOf sees it from either end.
func (t *Topology) AddBranch(from, to BusID, attr Branch) (BranchID, error) {
	if !t.hasBus(from) {
		return -1, fmt.Errorf("%w: from bus %d", ErrInvalidBusID, from)
	}
	if !t.hasBus(to) {
		return -1, fmt.Errorf("%w: to bus %d", ErrInvalidBusID, to)
	}
	if from == to {
		return -1, fmt.Errorf("%w: self-loop at bus %d", ErrTopology, from)
	}

	id := BranchID(len(t.branches))
	t.branches = append(t.branches, branchEntry{from: from, to: to, attr: attr})
	t.adjacency[from] = append(t.adjacency[from], Neighbor{Bus: to, Branch: id})
	t.adjacency[to] = append(t.adjacency[to], Neighbor{Bus: from, Branch: id})
	return id, nil
}

func (t *Topology) Branch(id BranchID) (Branch, error) {
	if !t.hasBranch(id) {
		return Branch{}, fmt.Errorf("%w: %d", ErrInvalidBranchID, id)
	}
	return t.branches[id].attr, nil
}

func (t *Topology) Endpoints(id BranchID) (BusID, BusID, error) {
	if !t.hasBranch(id) {
		return -1, -1, fmt.Errorf("%w: %d", ErrInvalidBranchID, id)
	}
	e := t.branches[id]
	return e.from, e.to, nil
}

func (t *Topology) BusCount() int { return len(t.busTypes) }

func (t *Topology) BranchCount() int { return len(t.branches) }

// BranchesOf returns the (neighbor, branch) pairs incident to bus in
// insertion order. The slice is a copy.
func (t *Topology) BranchesOf(bus BusID) ([]Neighbor, error) {
	if !t.hasBus(bus) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBusID, bus)
	}
	out := make([]Neighbor, len(t.adjacency[bus]))
	copy(out, t.adjacency[bus])
	return out, nil
}

// SlackBus returns the unique bus flagged Slack.
func (t *Topology) SlackBus() (BusID, error) {
	slack := BusID(-1)
	for i, bt := range t.busTypes {
		if bt != Slack {
			continue
		}
		if slack >= 0 {
			return -1, fmt.Errorf("%w: multiple slack buses (%d and %d)", ErrTopology, slack, i)
		}
		slack = BusID(i)
	}
	if slack < 0 {
		return -1, fmt.Errorf("%w: no slack bus", ErrTopology)
	}
	return slack, nil
}

// Reachable marks every bus connected to root through in-service branches.
func (t *Topology) Reachable(root BusID) ([]bool, error) {
	if !t.hasBus(root) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBusID, root)
	}

	seen := make([]bool, len(t.busTypes))
	seen[root] = true
	queue := []BusID{root}
	for len(queue) > 0 {
		bus := queue[0]
		queue = queue[1:]
		for _, nb := range t.adjacency[bus] {
			if seen[nb.Bus] || t.branches[nb.Branch].attr.OutOfService {
				continue
			}
			seen[nb.Bus] = true
			queue = append(queue, nb.Bus)
		}
	}
	return seen, nil
}

func (t *Topology) hasBus(bus BusID) bool {
	return bus >= 0 && int(bus) < len(t.busTypes)
}

func (t *Topology) hasBranch(id BranchID) bool {
	return id >= 0 && int(id) < len(t.branches)
}
