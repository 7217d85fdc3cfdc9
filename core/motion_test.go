package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/vessel-radar/model"
)

func TestLinearMotionModel_Advance(t *testing.T) {
	v := &model.Vessel{ID: 1, X: 100, Y: -50, VX0: 0.1, VY0: 0.1}
	m := LinearMotionModel{}

	m.Advance(v, 10)
	if math.Abs(v.X-101) > 1e-9 || math.Abs(v.Y+49) > 1e-9 {
		t.Fatalf("position after one step = (%v,%v), want (101,-49)", v.X, v.Y)
	}

	m.Advance(v, 10)
	want := 2 * math.Sqrt(0.1*0.1+0.1*0.1) * 10
	if math.Abs(v.CourseDistance-want) > 1e-9 {
		t.Fatalf("CourseDistance = %v, want %v", v.CourseDistance, want)
	}
	if v.UpdateTime != 20 {
		t.Fatalf("UpdateTime = %v, want 20", v.UpdateTime)
	}
}

func TestLinearMotionModel_ExtrapolatesFromCurrentState(t *testing.T) {
	v := &model.Vessel{X: 0, Y: 0, VX0: 2, VY0: 0, StartTime: 50}
	m := LinearMotionModel{}

	m.Advance(v, 1)
	v.X = 10 // position owned by the vessel, not recomputed from StartTime
	m.Advance(v, 1)
	if v.X != 12 {
		t.Fatalf("X = %v, want 12", v.X)
	}
}

func TestLinearMotionModel_StationaryVessel(t *testing.T) {
	v := &model.Vessel{X: 3, Y: 4}
	LinearMotionModel{}.Advance(v, 5)
	if v.X != 3 || v.Y != 4 || v.CourseDistance != 0 || v.UpdateTime != 5 {
		t.Fatalf("stationary vessel changed unexpectedly: %+v", v)
	}
}

func TestStaticMotionModel_NoChange(t *testing.T) {
	v := &model.Vessel{X: 1, Y: 2, VX0: 9, VY0: 9}
	StaticMotionModel{}.Advance(v, 1)
	if v.X != 1 || v.Y != 2 || v.CourseDistance != 0 {
		t.Fatalf("static motion should not move the vessel, got %+v", v)
	}
	if v.UpdateTime != 1 {
		t.Fatalf("UpdateTime = %v, want 1", v.UpdateTime)
	}
}
