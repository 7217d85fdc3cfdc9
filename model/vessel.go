package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownVesselType is returned when a type name does not match any
// VesselType enumerant.
var ErrUnknownVesselType = errors.New("unknown vessel type")

// VesselType classifies a simulated target.
type VesselType int

const (
	VesselTypeUnknown VesselType = iota
	Human
	SpeedBoat
	FishingBoat
	CargoVessel
	PassengerVessel
)

var vesselTypeNames = map[VesselType]string{
	Human:           "Human",
	SpeedBoat:       "SpeedBoat",
	FishingBoat:     "FishingBoat",
	CargoVessel:     "CargoVessel",
	PassengerVessel: "PassengerVessel",
}

// String returns the canonical scenario name of t, or "Unknown".
func (t VesselType) String() string {
	if name, ok := vesselTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ParseVesselType maps a canonical type name to its VesselType. Matching is
// case-sensitive.
func ParseVesselType(name string) (VesselType, error) {
	for t, n := range vesselTypeNames {
		if n == name {
			return t, nil
		}
	}
	return VesselTypeUnknown, fmt.Errorf("%w: %q", ErrUnknownVesselType, name)
}

// Vessel is a simulated moving point target. Positions are planar and use
// the same distance unit as the alarm thresholds and radar range.
type Vessel struct {
	ID   int
	Type VesselType

	X float64
	Y float64

	// VX0 and VY0 are the constant velocity components.
	VX0 float64
	VY0 float64

	// StartTime is the simulation time at which the vessel goes live.
	StartTime float64

	// CourseDistance and UpdateTime accumulate while the vessel is live.
	CourseDistance float64
	UpdateTime     float64
}

// DistanceTo returns the Euclidean distance between v and o.
func (v *Vessel) DistanceTo(o *Vessel) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Speed is the magnitude of the vessel's velocity.
func (v *Vessel) Speed() float64 {
	return math.Hypot(v.VX0, v.VY0)
}

// InRange reports whether the vessel lies within a radar of radius r
// centred on the origin.
func (v *Vessel) InRange(r int) bool {
	rr := float64(r)
	return v.X*v.X+v.Y*v.Y <= rr*rr
}

func (v Vessel) String() string {
	return fmt.Sprintf("%d - %s - (%g,%g), (%g, %g)", v.ID, v.Type, v.X, v.Y, v.VX0, v.VY0)
}
