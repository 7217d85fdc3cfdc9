package core

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/signalsfoundry/vessel-radar/model"
)

func position(v *model.Vessel) r2.Vec {
	return r2.Vec{X: v.X, Y: v.Y}
}

func velocity(v *model.Vessel) r2.Vec {
	return r2.Vec{X: v.VX0, Y: v.VY0}
}

// Separation is the planar distance between two vessels.
func Separation(a, b *model.Vessel) float64 {
	return r2.Norm(r2.Sub(position(a), position(b)))
}
