package device

import "github.com/edp1096/toy-powerflow/pkg/grid"

// Generator injects its scheduled output at its bus. Limits are carried for
// downstream tools and are not enforced here.
type Generator struct {
	BaseDevice
	ActivePower     float64
	ReactivePower   float64
	VoltageSetpoint float64
	PMin, PMax      float64
	QMin, QMax      float64
}

func NewGenerator(bus grid.BusID, activePower, voltageSetpoint float64) *Generator {
	return &Generator{
		BaseDevice:      *NewBaseDevice("", bus),
		ActivePower:     activePower,
		VoltageSetpoint: voltageSetpoint,
		PMin:            0,
		PMax:            activePower * 2.0,
		QMin:            -activePower,
		QMax:            activePower,
	}
}

func NewGeneratorWithLimits(bus grid.BusID, activePower, voltageSetpoint, pMin, pMax, qMin, qMax float64) *Generator {
	return &Generator{
		BaseDevice:      *NewBaseDevice("", bus),
		ActivePower:     activePower,
		VoltageSetpoint: voltageSetpoint,
		PMin:            pMin,
		PMax:            pMax,
		QMin:            qMin,
		QMax:            qMax,
	}
}

func (g *Generator) ElementType() string { return "Generator" }

func (g *Generator) Apply(state *grid.StateStore) error {
	return g.inject(state, g.ActivePower, g.ReactivePower)
}
