package model

// Proximity thresholds in distance units. A pair at or below
// AlarmHighDistance is High; at or below AlarmLowDistance is Low.
const (
	AlarmHighDistance = 50.0
	AlarmLowDistance  = 200.0
)

// AlarmKind is the severity of a proximity alarm.
type AlarmKind int

const (
	AlarmLow AlarmKind = iota + 1
	AlarmHigh
)

func (k AlarmKind) String() string {
	switch k {
	case AlarmLow:
		return "low"
	case AlarmHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Alarm reports two live vessels within a risk distance of one another.
// First and Second are copies taken at detection time.
type Alarm struct {
	Kind     AlarmKind
	First    Vessel
	Second   Vessel
	Distance float64
	Time     float64
}
