// Package device implements the injection elements a network folds into a
// state store before solving. All quantities are per-unit on the system base.
package device

import "github.com/edp1096/toy-powerflow/pkg/grid"

type BaseDevice struct {
	Name      string
	Bus       grid.BusID
	InService bool
}

func NewBaseDevice(name string, bus grid.BusID) *BaseDevice {
	return &BaseDevice{
		Name:      name,
		Bus:       bus,
		InService: true,
	}
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) BusIndex() grid.BusID {
	return d.Bus
}

func (d *BaseDevice) SetInService(inService bool) {
	d.InService = inService
}

// inject adds (p, q) at the device bus when the device is in service.
func (d *BaseDevice) inject(state *grid.StateStore, p, q float64) error {
	if !d.InService {
		return nil
	}
	return state.AddPower(d.Bus, p, q)
}
