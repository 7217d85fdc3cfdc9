package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/vessel-radar/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		distance float64
		kind     model.AlarmKind
		ok       bool
	}{
		{0, model.AlarmHigh, true},
		{49.999, model.AlarmHigh, true},
		{50, model.AlarmHigh, true},
		{50.0001, model.AlarmLow, true},
		{200, model.AlarmLow, true},
		{200.0001, 0, false},
		{math.Inf(1), 0, false},
		{math.NaN(), 0, false},
	}
	for _, c := range cases {
		kind, ok := Classify(c.distance)
		if kind != c.kind || ok != c.ok {
			t.Fatalf("Classify(%v) = (%v,%v), want (%v,%v)", c.distance, kind, ok, c.kind, c.ok)
		}
	}
}

func TestScanProximity_OneAlarmPerPair(t *testing.T) {
	vessels := []*model.Vessel{
		{ID: 1, X: 0, Y: 0},
		{ID: 2, X: 30, Y: 40},   // 50 from 1
		{ID: 3, X: 0, Y: 120},   // 120 from 1, ~85.4 from 2
		{ID: 4, X: 900, Y: 900}, // far from everyone
	}

	alarms := ScanProximity(vessels, 7)

	type pair struct{ a, b int }
	want := map[pair]model.AlarmKind{
		{1, 2}: model.AlarmHigh,
		{1, 3}: model.AlarmLow,
		{2, 3}: model.AlarmLow,
	}
	if len(alarms) != len(want) {
		t.Fatalf("got %d alarms, want %d: %+v", len(alarms), len(want), alarms)
	}
	seen := make(map[pair]bool)
	for _, a := range alarms {
		p := pair{a.First.ID, a.Second.ID}
		if a.First.ID > a.Second.ID {
			t.Fatalf("pair emitted out of index order: %+v", p)
		}
		if seen[p] {
			t.Fatalf("pair %+v reported twice", p)
		}
		seen[p] = true
		if want[p] != a.Kind {
			t.Fatalf("pair %+v kind = %v, want %v", p, a.Kind, want[p])
		}
		if a.Time != 7 {
			t.Fatalf("alarm time = %v, want 7", a.Time)
		}
	}
}

func TestScanProximity_DeterministicOrder(t *testing.T) {
	vessels := []*model.Vessel{
		{ID: 5, X: 0, Y: 0},
		{ID: 3, X: 10, Y: 0},
		{ID: 9, X: 20, Y: 0},
	}
	alarms := ScanProximity(vessels, 0)
	got := make([][2]int, 0, len(alarms))
	for _, a := range alarms {
		got = append(got, [2]int{a.First.ID, a.Second.ID})
	}
	want := [][2]int{{5, 3}, {5, 9}, {3, 9}}
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestScanProximity_NoVessels(t *testing.T) {
	if alarms := ScanProximity(nil, 0); len(alarms) != 0 {
		t.Fatalf("expected no alarms, got %+v", alarms)
	}
	if alarms := ScanProximity([]*model.Vessel{{ID: 1}}, 0); len(alarms) != 0 {
		t.Fatalf("single vessel should not alarm, got %+v", alarms)
	}
}
