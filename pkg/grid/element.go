package grid

import "fmt"

// Element is anything that contributes a nodal injection to a StateStore:
// generators, loads, scheduled bus injections. Contributions are additive, so
// each element is applied once per preparation of a state.
//
// Branches are not Elements. Their effect is an admittance term the solver
// reads from the Topology.
type Element interface {
	ElementType() string
	Apply(state *StateStore) error
}

// Located is implemented by elements attached to a single bus.
type Located interface {
	BusIndex() BusID
}

// Named is implemented by elements that carry a user-facing name.
type Named interface {
	GetName() string
}

// ApplyAll applies elements in order and stops at the first failure.
func ApplyAll(state *StateStore, elements ...Element) error {
	for i, e := range elements {
		if err := e.Apply(state); err != nil {
			return fmt.Errorf("applying element %d (%s): %w", i, describe(e), err)
		}
	}
	return nil
}

func describe(e Element) string {
	if n, ok := e.(Named); ok && n.GetName() != "" {
		return e.ElementType() + " " + n.GetName()
	}
	return e.ElementType()
}
