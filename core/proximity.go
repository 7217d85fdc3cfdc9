package core

import "github.com/signalsfoundry/vessel-radar/model"

// Classify maps a separation onto an alarm severity. ok is false when the
// distance is outside both risk thresholds.
func Classify(distance float64) (kind model.AlarmKind, ok bool) {
	switch {
	case distance <= model.AlarmHighDistance:
		return model.AlarmHigh, true
	case distance <= model.AlarmLowDistance:
		return model.AlarmLow, true
	default:
		return 0, false
	}
}

// ScanProximity checks every unordered pair of vessels once, in index
// order (0,1), (0,2), ..., (1,2), ..., and returns at most one alarm per
// pair carrying the highest severity that applies.
func ScanProximity(vessels []*model.Vessel, now float64) []model.Alarm {
	var alarms []model.Alarm
	for i := 0; i < len(vessels); i++ {
		a := vessels[i]
		for j := i + 1; j < len(vessels); j++ {
			b := vessels[j]
			d := Separation(a, b)
			kind, ok := Classify(d)
			if !ok {
				continue
			}
			alarms = append(alarms, model.Alarm{
				Kind:     kind,
				First:    *a,
				Second:   *b,
				Distance: d,
				Time:     now,
			})
		}
	}
	return alarms
}
