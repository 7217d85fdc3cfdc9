package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/vessel-radar/model"
)

func TestSeparationMatchesVesselDistance(t *testing.T) {
	a := &model.Vessel{X: 7.83, Y: 105.84}
	b := &model.Vessel{X: 42.92, Y: 66.28}

	if got, want := Separation(a, b), a.DistanceTo(b); math.Abs(got-want) > 1e-9 {
		t.Fatalf("Separation = %v, DistanceTo = %v", got, want)
	}
	if Separation(a, a) != 0 {
		t.Fatalf("Separation of a vessel with itself should be 0")
	}
}
