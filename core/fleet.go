package core

import "github.com/signalsfoundry/vessel-radar/model"

// fleet holds the pending pool and the live set of one run. It is owned by
// the engine and only touched under the engine lock.
type fleet struct {
	pending []*model.Vessel
	live    []*model.Vessel
}

// newFleet takes ownership of the parsed vessels; all start pending.
func newFleet(vessels []*model.Vessel) *fleet {
	pending := make([]*model.Vessel, len(vessels))
	copy(pending, vessels)
	return &fleet{
		pending: pending,
		live:    make([]*model.Vessel, 0, len(vessels)),
	}
}

// admit moves every pending vessel whose start time has been reached into
// the live set, preserving source order, and returns the admitted vessels.
func (f *fleet) admit(now float64) []*model.Vessel {
	var admitted []*model.Vessel
	remaining := f.pending[:0]
	for _, v := range f.pending {
		if v.StartTime <= now {
			admitted = append(admitted, v)
			continue
		}
		remaining = append(remaining, v)
	}
	// Clear the tail so admitted vessels are not retained twice.
	for i := len(remaining); i < len(f.pending); i++ {
		f.pending[i] = nil
	}
	f.pending = remaining
	f.live = append(f.live, admitted...)
	return admitted
}

// snapshot copies the live set in admission order.
func (f *fleet) snapshot() []model.Vessel {
	out := make([]model.Vessel, len(f.live))
	for i, v := range f.live {
		out[i] = *v
	}
	return out
}
