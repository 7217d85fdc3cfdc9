package model

// ScenarioParameters is the global run configuration parsed from a
// scenario. Times are in simulation units; Range is the radar radius.
type ScenarioParameters struct {
	StartTime float64
	TimeStep  float64
	TotalTime float64
	Range     int
}

// EndTime is the simulation time at which a run is exhausted.
func (p ScenarioParameters) EndTime() float64 {
	return p.StartTime + p.TotalTime
}
