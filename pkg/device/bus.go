package device

import "github.com/edp1096/toy-powerflow/pkg/grid"

// BusInjection is the net scheduled injection a bus record carries on its own,
// independent of any generator or load attached to it.
type BusInjection struct {
	BaseDevice
	Type          grid.BusType
	ActivePower   float64
	ReactivePower float64
}

func NewBusInjection(bus grid.BusID, busType grid.BusType, activePower, reactivePower float64) *BusInjection {
	return &BusInjection{
		BaseDevice:    *NewBaseDevice("", bus),
		Type:          busType,
		ActivePower:   activePower,
		ReactivePower: reactivePower,
	}
}

func (b *BusInjection) ElementType() string { return "Bus::" + b.Type.String() }

func (b *BusInjection) Apply(state *grid.StateStore) error {
	return b.inject(state, b.ActivePower, b.ReactivePower)
}
