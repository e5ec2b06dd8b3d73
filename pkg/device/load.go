package device

import (
	"math"

	"github.com/edp1096/toy-powerflow/pkg/grid"
)

// Load consumes power; positive values are consumption and enter the state
// as negative injections.
type Load struct {
	BaseDevice
	ActivePower   float64
	ReactivePower float64
}

func NewLoad(bus grid.BusID, activePower, reactivePower float64) *Load {
	return &Load{
		BaseDevice:    *NewBaseDevice("", bus),
		ActivePower:   activePower,
		ReactivePower: reactivePower,
	}
}

func NewResistiveLoad(bus grid.BusID, activePower float64) *Load {
	return NewLoad(bus, activePower, 0)
}

// NewLoadWithPowerFactor splits an apparent power into P and lagging Q.
func NewLoadWithPowerFactor(bus grid.BusID, apparentPower, powerFactor float64) *Load {
	p := apparentPower * powerFactor
	q := apparentPower * math.Sqrt(1.0-powerFactor*powerFactor)
	return NewLoad(bus, p, q)
}

func (l *Load) ElementType() string { return "Load" }

func (l *Load) Apply(state *grid.StateStore) error {
	return l.inject(state, -l.ActivePower, -l.ReactivePower)
}
