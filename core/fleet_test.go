package core

import (
	"testing"

	"github.com/signalsfoundry/vessel-radar/model"
)

func TestFleetAdmitPreservesSourceOrder(t *testing.T) {
	f := newFleet([]*model.Vessel{
		{ID: 1, StartTime: 5},
		{ID: 2, StartTime: 0},
		{ID: 3, StartTime: 5},
		{ID: 4, StartTime: 10},
	})

	if got := f.admit(0); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("admit(0) = %+v, want vessel 2", got)
	}
	if got := f.admit(4.9); len(got) != 0 {
		t.Fatalf("admit(4.9) = %+v, want nothing", got)
	}
	got := f.admit(7)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("admit(7) = %+v, want vessels 1 and 3", got)
	}
	if len(f.pending) != 1 || f.pending[0].ID != 4 {
		t.Fatalf("pending = %+v, want vessel 4", f.pending)
	}

	ids := []int{}
	for _, v := range f.snapshot() {
		ids = append(ids, v.ID)
	}
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 1 || ids[2] != 3 {
		t.Fatalf("live order = %v, want [2 1 3]", ids)
	}
}

func TestFleetAdmitsOnlyOnce(t *testing.T) {
	f := newFleet([]*model.Vessel{{ID: 1, StartTime: 0}})
	f.admit(0)
	f.admit(1)
	f.admit(2)
	if len(f.live) != 1 {
		t.Fatalf("vessel admitted %d times", len(f.live))
	}
}
