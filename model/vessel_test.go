package model

import (
	"errors"
	"math"
	"testing"
)

func TestVesselDistanceTo(t *testing.T) {
	v1 := &Vessel{ID: 1, Type: Human, X: 7.83, Y: 105.84, VX0: 1, VY0: 1, StartTime: 1}
	v2 := &Vessel{ID: 2, Type: Human, X: 42.92, Y: 66.28, VX0: 1, VY0: 1, StartTime: 1}

	want := math.Sqrt(math.Pow(42.92-7.83, 2) + math.Pow(105.84-66.28, 2))
	if got := v1.DistanceTo(v2); math.Abs(got-want) > 1e-9 {
		t.Fatalf("DistanceTo = %v, want %v", got, want)
	}
	if got := v2.DistanceTo(v1); math.Abs(got-want) > 1e-9 {
		t.Fatalf("DistanceTo should be symmetric, got %v want %v", got, want)
	}
}

func TestParseVesselType(t *testing.T) {
	for _, want := range []VesselType{Human, SpeedBoat, FishingBoat, CargoVessel, PassengerVessel} {
		got, err := ParseVesselType(want.String())
		if err != nil {
			t.Fatalf("ParseVesselType(%q): %v", want.String(), err)
		}
		if got != want {
			t.Fatalf("ParseVesselType(%q) = %v, want %v", want.String(), got, want)
		}
	}

	for _, bad := range []string{"human", "SPEEDBOAT", "Submarine", "", "1"} {
		got, err := ParseVesselType(bad)
		if !errors.Is(err, ErrUnknownVesselType) {
			t.Fatalf("ParseVesselType(%q) error = %v, want ErrUnknownVesselType", bad, err)
		}
		if got != VesselTypeUnknown {
			t.Fatalf("ParseVesselType(%q) = %v, want VesselTypeUnknown", bad, got)
		}
	}

	if VesselType(42).String() != "Unknown" {
		t.Fatalf("unexpected name for out-of-range type: %s", VesselType(42))
	}
}

func TestVesselInRange(t *testing.T) {
	cases := []struct {
		x, y float64
		r    int
		want bool
	}{
		{0, 0, 0, true},
		{3, 4, 5, true},
		{3, 4.01, 5, false},
		{-100, 0, 100, true},
		{-100, -1, 100, false},
	}
	for _, c := range cases {
		v := &Vessel{X: c.x, Y: c.y}
		if got := v.InRange(c.r); got != c.want {
			t.Fatalf("InRange(%v,%v r=%d) = %v, want %v", c.x, c.y, c.r, got, c.want)
		}
	}
}

func TestVesselString(t *testing.T) {
	v := Vessel{ID: 7, Type: CargoVessel, X: 1.5, Y: -2, VX0: 0.1, VY0: 0}
	if got, want := v.String(), "7 - CargoVessel - (1.5,-2), (0.1, 0)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestScenarioParametersEndTime(t *testing.T) {
	p := ScenarioParameters{StartTime: 10, TimeStep: 1, TotalTime: 50}
	if p.EndTime() != 60 {
		t.Fatalf("EndTime() = %v, want 60", p.EndTime())
	}
}
