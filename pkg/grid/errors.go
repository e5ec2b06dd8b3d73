package grid

import "errors"

// Every failure the kernel reports wraps exactly one of these sentinels.
// Callers match them with errors.Is; the wrapped message carries the context
// (bus index, branch index, reason).
var (
	// ErrInvalidBusID is returned when a bus index is outside 0..BusCount-1.
	ErrInvalidBusID = errors.New("grid: invalid bus id")

	// ErrInvalidBranchID is returned when a branch index is outside 0..BranchCount-1.
	ErrInvalidBranchID = errors.New("grid: invalid branch id")

	// ErrTopology marks a structural defect: self-loop, zero reactance,
	// missing or duplicate slack bus.
	ErrTopology = errors.New("grid: topology error")

	// ErrState marks a shape mismatch between a topology and a state store.
	ErrState = errors.New("grid: state error")

	// ErrSimulation marks a numerical failure: empty network, singular system.
	ErrSimulation = errors.New("grid: simulation error")
)
