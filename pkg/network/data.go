package network

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/edp1096/toy-powerflow/internal/consts"
	"github.com/edp1096/toy-powerflow/pkg/grid"
)

// Data is the exchange form of a network case. Bus indices are positions in
// Buses. Branch parameters are per-unit, powers are MW / MVAr on BaseMVA.
type Data struct {
	Name       string          `json:"name" yaml:"name"`
	BaseMVA    float64         `json:"base_mva" yaml:"base_mva"`
	Buses      []BusData       `json:"buses" yaml:"buses"`
	Branches   []BranchData    `json:"branches" yaml:"branches"`
	Generators []GeneratorData `json:"generators,omitempty" yaml:"generators,omitempty"`
	Loads      []LoadData      `json:"loads,omitempty" yaml:"loads,omitempty"`
}

type BusData struct {
	BusType          grid.BusType `json:"bus_type" yaml:"bus_type"`
	VoltageMagnitude float64      `json:"voltage_magnitude" yaml:"voltage_magnitude"`
	VoltageAngle     float64      `json:"voltage_angle" yaml:"voltage_angle"` // radians
	ActivePower      float64      `json:"active_power" yaml:"active_power"`
	ReactivePower    float64      `json:"reactive_power" yaml:"reactive_power"`
	BaseVoltageKV    float64      `json:"base_voltage_kv" yaml:"base_voltage_kv"`
}

type BranchData struct {
	FromBus     int     `json:"from_bus" yaml:"from_bus"`
	ToBus       int     `json:"to_bus" yaml:"to_bus"`
	Resistance  float64 `json:"resistance" yaml:"resistance"`
	Reactance   float64 `json:"reactance" yaml:"reactance"`
	Susceptance float64 `json:"susceptance" yaml:"susceptance"`
	TapRatio    float64 `json:"tap_ratio" yaml:"tap_ratio"`
	PhaseShift  float64 `json:"phase_shift" yaml:"phase_shift"`
	InService   bool    `json:"in_service" yaml:"in_service"`
}

type GeneratorData struct {
	Bus             int     `json:"bus" yaml:"bus"`
	ActivePower     float64 `json:"active_power" yaml:"active_power"`
	ReactivePower   float64 `json:"reactive_power" yaml:"reactive_power"`
	VoltageSetpoint float64 `json:"voltage_setpoint" yaml:"voltage_setpoint"`
	PMin            float64 `json:"p_min" yaml:"p_min"`
	PMax            float64 `json:"p_max" yaml:"p_max"`
	QMin            float64 `json:"q_min" yaml:"q_min"`
	QMax            float64 `json:"q_max" yaml:"q_max"`
	InService       bool    `json:"in_service" yaml:"in_service"`
}

type LoadData struct {
	Bus           int     `json:"bus" yaml:"bus"`
	ActivePower   float64 `json:"active_power" yaml:"active_power"`
	ReactivePower float64 `json:"reactive_power" yaml:"reactive_power"`
	InService     bool    `json:"in_service" yaml:"in_service"`
}

// NewData returns an empty case on the default base.
func NewData(name string) *Data {
	return &Data{Name: name, BaseMVA: consts.DefaultBaseMVA}
}

// Each record decodes on top of its defaults, so fields missing from the
// input keep them. The alias types drop the methods to avoid recursion.

func (d *Data) UnmarshalJSON(b []byte) error {
	type plain Data
	v := plain{BaseMVA: consts.DefaultBaseMVA}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*d = Data(v)
	return nil
}

func (d *Data) UnmarshalYAML(node *yaml.Node) error {
	type plain Data
	v := plain{BaseMVA: consts.DefaultBaseMVA}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*d = Data(v)
	return nil
}

func (b *BusData) UnmarshalJSON(raw []byte) error {
	type plain BusData
	v := plain{VoltageMagnitude: 1.0}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*b = BusData(v)
	return nil
}

func (b *BusData) UnmarshalYAML(node *yaml.Node) error {
	type plain BusData
	v := plain{VoltageMagnitude: 1.0}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*b = BusData(v)
	return nil
}

func (b *BranchData) UnmarshalJSON(raw []byte) error {
	type plain BranchData
	v := plain{TapRatio: 1.0, InService: true}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*b = BranchData(v)
	return nil
}

func (b *BranchData) UnmarshalYAML(node *yaml.Node) error {
	type plain BranchData
	v := plain{TapRatio: 1.0, InService: true}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*b = BranchData(v)
	return nil
}

func (g *GeneratorData) UnmarshalJSON(raw []byte) error {
	type plain GeneratorData
	v := plain{VoltageSetpoint: 1.0, InService: true}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*g = GeneratorData(v)
	return nil
}

func (g *GeneratorData) UnmarshalYAML(node *yaml.Node) error {
	type plain GeneratorData
	v := plain{VoltageSetpoint: 1.0, InService: true}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*g = GeneratorData(v)
	return nil
}

func (l *LoadData) UnmarshalJSON(raw []byte) error {
	type plain LoadData
	v := plain{InService: true}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*l = LoadData(v)
	return nil
}

func (l *LoadData) UnmarshalYAML(node *yaml.Node) error {
	type plain LoadData
	v := plain{InService: true}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*l = LoadData(v)
	return nil
}
