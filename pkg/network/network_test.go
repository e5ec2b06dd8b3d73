package network

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/toy-powerflow/pkg/device"
	"github.com/edp1096/toy-powerflow/pkg/grid"
	"github.com/edp1096/toy-powerflow/pkg/solver"
)

const threeBusJSON = `{
  "name": "three-bus",
  "buses": [
    {"bus_type": "Slack", "voltage_magnitude": 1.02},
    {"bus_type": "PQ"},
    {"bus_type": "PQ", "active_power": -10}
  ],
  "branches": [
    {"from_bus": 0, "to_bus": 1, "resistance": 0.01, "reactance": 0.1},
    {"from_bus": 1, "to_bus": 2, "resistance": 0.02, "reactance": 0.2}
  ],
  "loads": [
    {"bus": 1, "active_power": 50, "reactive_power": 10},
    {"bus": 2, "active_power": 20}
  ]
}`

const threeBusYAML = `
name: three-bus
buses:
  - bus_type: Slack
    voltage_magnitude: 1.02
  - bus_type: PQ
  - bus_type: PQ
    active_power: -10
branches:
  - {from_bus: 0, to_bus: 1, resistance: 0.01, reactance: 0.1}
  - {from_bus: 1, to_bus: 2, resistance: 0.02, reactance: 0.2}
loads:
  - {bus: 1, active_power: 50, reactive_power: 10}
  - {bus: 2, active_power: 20}
`

func TestDecodingAppliesDefaults(t *testing.T) {
	parsers := map[string]func() (*Data, error){
		"json": func() (*Data, error) { return ParseJSON([]byte(threeBusJSON)) },
		"yaml": func() (*Data, error) { return ParseYAML([]byte(threeBusYAML)) },
	}
	for name, parse := range parsers {
		t.Run(name, func(t *testing.T) {
			d, err := parse()
			require.NoError(t, err)

			assert.Equal(t, "three-bus", d.Name)
			assert.Equal(t, 100.0, d.BaseMVA)
			require.Len(t, d.Buses, 3)
			assert.Equal(t, grid.Slack, d.Buses[0].BusType)
			assert.Equal(t, 1.02, d.Buses[0].VoltageMagnitude)
			assert.Equal(t, 1.0, d.Buses[1].VoltageMagnitude)
			assert.Equal(t, -10.0, d.Buses[2].ActivePower)

			require.Len(t, d.Branches, 2)
			assert.Equal(t, 1.0, d.Branches[0].TapRatio)
			assert.True(t, d.Branches[1].InService)
			assert.Empty(t, d.Generators)
			require.Len(t, d.Loads, 2)
			assert.True(t, d.Loads[0].InService)
		})
	}
}

func TestExplicitValuesOverrideDefaults(t *testing.T) {
	d, err := ParseJSON([]byte(`{
		"base_mva": 50,
		"buses": [{"bus_type": "Slack"}, {"bus_type": "PV"}],
		"branches": [{"from_bus": 0, "to_bus": 1, "reactance": 0.1, "in_service": false, "tap_ratio": 0.95}],
		"generators": [{"bus": 1, "active_power": 25, "in_service": false}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, 50.0, d.BaseMVA)
	assert.Equal(t, grid.PV, d.Buses[1].BusType)
	assert.False(t, d.Branches[0].InService)
	assert.Equal(t, 0.95, d.Branches[0].TapRatio)
	assert.False(t, d.Generators[0].InService)
	assert.Equal(t, 1.0, d.Generators[0].VoltageSetpoint)
}

func TestMalformedInput(t *testing.T) {
	_, err := ParseJSON([]byte(`{"buses": [`))
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = ParseJSON([]byte(`{"buses": [{"bus_type": "Swing"}]}`))
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = ParseYAML([]byte("buses: [\n  - bus_type: [1, 2]\n"))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestEncodeDecodeKeepsCase(t *testing.T) {
	orig, err := ParseJSON([]byte(threeBusJSON))
	require.NoError(t, err)

	b, err := orig.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(b), "bus_type: Slack")
	fromYAML, err := ParseYAML(b)
	require.NoError(t, err)
	assert.Equal(t, orig, fromYAML)

	b, err = orig.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"from_bus": 1`)
	fromJSON, err := ParseJSON(b)
	require.NoError(t, err)
	assert.Equal(t, orig, fromJSON)
}

func TestLoadAndSaveByExtension(t *testing.T) {
	dir := t.TempDir()
	orig, err := ParseJSON([]byte(threeBusJSON))
	require.NoError(t, err)

	for _, name := range []string{"case.json", "case.yaml", "case.YML"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, orig.Save(path))
			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, orig, got)
		})
	}

	assert.ErrorIs(t, orig.Save(filepath.Join(dir, "case.m")), ErrUnknownFormat)
	_, err = Load(filepath.Join(dir, "case.raw"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("buses: {"), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestBuildConvertsToPerUnit(t *testing.T) {
	d, err := ParseJSON([]byte(threeBusJSON))
	require.NoError(t, err)
	net, err := Build(d)
	require.NoError(t, err)

	assert.Equal(t, "three-bus", net.Name())
	assert.Equal(t, 3, net.Topology().BusCount())
	assert.Equal(t, 2, net.Topology().BranchCount())
	slack, err := net.Topology().SlackBus()
	require.NoError(t, err)
	assert.Equal(t, grid.BusID(0), slack)

	// bus 2 injection record + one load
	at2 := net.ElementsAt(2)
	require.Len(t, at2, 2)
	assert.Equal(t, "Bus::PQ", at2[0].ElementType())
	assert.Equal(t, "Load", at2[1].ElementType())
	assert.Empty(t, net.ElementsAt(0))

	state := net.NewState()
	require.NoError(t, net.Prepare(state))
	assert.InDelta(t, 1.02, state.VoltageMagnitude()[0], 1e-12)
	assert.InDelta(t, -0.5, state.ActivePower()[1], 1e-12)
	assert.InDelta(t, -0.1, state.ReactivePower()[1], 1e-12)
	assert.InDelta(t, -0.3, state.ActivePower()[2], 1e-12)
}

func TestBuildSolvesThreeBusCase(t *testing.T) {
	d, err := ParseYAML([]byte(threeBusYAML))
	require.NoError(t, err)
	net, err := Build(d)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	net.SetLogger(logger)

	state, res, err := net.Solve(solver.NewDCPowerFlow())
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 0.0, state.VoltageAngle()[0], 1e-12)
	assert.InDelta(t, -0.08, state.VoltageAngle()[1], 1e-9)
	assert.InDelta(t, -0.14, state.VoltageAngle()[2], 1e-9)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "power flow finished", hook.LastEntry().Message)
}

func TestBuildRejectsBadReferences(t *testing.T) {
	tests := []struct {
		name string
		data *Data
		want error
	}{
		{"nil", nil, ErrInvalidData},
		{"zero base", &Data{BaseMVA: 0}, ErrInvalidData},
		{
			"branch to missing bus",
			&Data{BaseMVA: 100, Buses: []BusData{{BusType: grid.Slack}}, Branches: []BranchData{{FromBus: 0, ToBus: 3, Reactance: 0.1}}},
			grid.ErrInvalidBusID,
		},
		{
			"self loop",
			&Data{BaseMVA: 100, Buses: []BusData{{BusType: grid.Slack}}, Branches: []BranchData{{FromBus: 0, ToBus: 0, Reactance: 0.1}}},
			grid.ErrTopology,
		},
		{
			"generator on missing bus",
			&Data{BaseMVA: 100, Buses: []BusData{{BusType: grid.Slack}}, Generators: []GeneratorData{{Bus: 1}}},
			grid.ErrInvalidBusID,
		},
		{
			"load on missing bus",
			&Data{BaseMVA: 100, Loads: []LoadData{{Bus: 0}}},
			grid.ErrInvalidBusID,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.data)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPrepareIsRepeatable(t *testing.T) {
	net := New("manual")
	net.Topology().AddBusOfType(grid.Slack)
	net.Topology().AddBus()
	_, err := net.Topology().AddBranch(0, 1, grid.Line(0, 0.1))
	require.NoError(t, err)
	require.NoError(t, net.AddElement(device.NewLoad(1, 1.0, 0)))
	require.NoError(t, net.SetInitialVoltage(0, 1.05, 0))

	state := net.NewState()
	require.NoError(t, net.Prepare(state))
	require.NoError(t, net.Prepare(state))
	assert.Equal(t, []float64{0, -1.0}, state.ActivePower())
	assert.Equal(t, []float64{1.05, 1.0}, state.VoltageMagnitude())

	assert.ErrorIs(t, net.Prepare(grid.NewStateStore(5)), grid.ErrState)
	assert.ErrorIs(t, net.Prepare(nil), grid.ErrState)
	assert.ErrorIs(t, net.SetInitialVoltage(4, 1, 0), grid.ErrInvalidBusID)
}

func TestAddElementChecksBus(t *testing.T) {
	net := New("empty")
	net.Topology().AddBus()

	err := net.AddElement(device.NewGenerator(3, 1, 1))
	assert.ErrorIs(t, err, grid.ErrInvalidBusID)
	assert.Empty(t, net.Elements())
	assert.Error(t, net.AddElement(nil))

	require.NoError(t, net.AddElement(device.NewGenerator(0, 1, 1)))
	assert.Len(t, net.ElementsAt(0), 1)
}

func TestSolveReportsSolverFailure(t *testing.T) {
	net := New("islanded")
	net.Topology().AddBusOfType(grid.Slack)
	net.Topology().AddBus()

	state, _, err := net.Solve(solver.NewDCPowerFlow())
	assert.Nil(t, state)
	assert.ErrorIs(t, err, grid.ErrSimulation)
}
