package grid

import "fmt"

// StateStore keeps the per-unit bus quantities in four index-aligned arrays.
// Their length is fixed at construction; a different bus count needs a new
// StateStore. One store belongs to one solve at a time.
type StateStore struct {
	voltageMagnitude []float64 // p.u.
	voltageAngle     []float64 // radians
	activePower      []float64 // p.u., positive = injection
	reactivePower    []float64 // p.u., positive = injection
}

func NewStateStore(busCount int) *StateStore {
	if busCount < 0 {
		busCount = 0
	}
	s := &StateStore{
		voltageMagnitude: make([]float64, busCount),
		voltageAngle:     make([]float64, busCount),
		activePower:      make([]float64, busCount),
		reactivePower:    make([]float64, busCount),
	}
	s.Reset()
	return s
}

func (s *StateStore) BusCount() int { return len(s.voltageMagnitude) }

// Reset restores flat-start defaults in place.
func (s *StateStore) Reset() {
	for i := range s.voltageMagnitude {
		s.voltageMagnitude[i] = 1.0
		s.voltageAngle[i] = 0
		s.activePower[i] = 0
		s.reactivePower[i] = 0
	}
}

func (s *StateStore) VoltageMagnitude() []float64 { return s.voltageMagnitude }

func (s *StateStore) VoltageAngle() []float64 { return s.voltageAngle }

func (s *StateStore) ActivePower() []float64 { return s.activePower }

func (s *StateStore) ReactivePower() []float64 { return s.reactivePower }

// AddPower accumulates an injection at bus.
func (s *StateStore) AddPower(bus BusID, p, q float64) error {
	if bus < 0 || int(bus) >= s.BusCount() {
		return fmt.Errorf("%w: %d (state has %d buses)", ErrInvalidBusID, bus, s.BusCount())
	}
	s.activePower[bus] += p
	s.reactivePower[bus] += q
	return nil
}

func (s *StateStore) Clone() *StateStore {
	return &StateStore{
		voltageMagnitude: append([]float64(nil), s.voltageMagnitude...),
		voltageAngle:     append([]float64(nil), s.voltageAngle...),
		activePower:      append([]float64(nil), s.activePower...),
		reactivePower:    append([]float64(nil), s.reactivePower...),
	}
}
