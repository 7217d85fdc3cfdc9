package core

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/signalsfoundry/vessel-radar/model"
)

// MotionModel advances a live vessel by dt units of simulation time.
type MotionModel interface {
	Advance(v *model.Vessel, dt float64)
}

// LinearMotionModel extrapolates from the vessel's own accumulated state
// using its constant velocity. Positions are never recomputed from
// StartTime.
type LinearMotionModel struct{}

// Advance moves v by (VX0, VY0)*dt and accumulates course distance and
// elapsed time.
func (LinearMotionModel) Advance(v *model.Vessel, dt float64) {
	step := r2.Scale(dt, velocity(v))
	pos := r2.Add(position(v), step)

	v.X, v.Y = pos.X, pos.Y
	v.CourseDistance += r2.Norm(step)
	v.UpdateTime += dt
}

// StaticMotionModel leaves positions unchanged but still accounts for
// elapsed time.
type StaticMotionModel struct{}

// Advance for static motion only accumulates UpdateTime.
func (StaticMotionModel) Advance(v *model.Vessel, dt float64) {
	v.UpdateTime += dt
}
