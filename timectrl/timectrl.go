package timectrl

import (
	"sync"
	"time"
)

// SimClock exposes the current simulation time. Simulation time is a
// unitless float that advances by Step on every tick.
type SimClock interface {
	// Now returns the current simulation time.
	Now() float64
}

// Mode describes how the TimeController maps ticks onto wall-clock time.
type Mode int

const (
	// RealTime fires one tick per Interval.
	RealTime Mode = iota
	// Accelerated divides Interval by Speed.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// ParseMode maps a config string onto a Mode, defaulting to RealTime.
func ParseMode(s string) Mode {
	if s == "accelerated" {
		return Accelerated
	}
	return RealTime
}

// MinInterval bounds how fast an accelerated controller may tick.
const MinInterval = time.Millisecond

// TimeController drives simulation time and notifies registered listeners.
// It implements SimClock.
type TimeController struct {
	mu        sync.RWMutex
	StartTime float64
	Step      float64
	Interval  time.Duration
	Mode      Mode
	Speed     float64

	// currentTime tracks the current simulation time. It is updated
	// as the controller advances time.
	currentTime float64

	listeners []func(float64)

	stopOnce sync.Once
	stop     chan struct{}
}

// NewTimeController constructs a controller that advances simulation time
// by step once per interval of wall-clock time.
func NewTimeController(start, step float64, interval time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Step:        step,
		Interval:    interval,
		Mode:        mode,
		Speed:       1,
		currentTime: start,
		stop:        make(chan struct{}),
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime overrides the current simulation time.
func (tc *TimeController) SetTime(t float64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// AddListener registers a callback invoked on every tick. Listeners must
// be registered before Start.
func (tc *TimeController) AddListener(fn func(float64)) {
	tc.listeners = append(tc.listeners, fn)
}

// TickInterval is the effective wall-clock period between ticks.
func (tc *TimeController) TickInterval() time.Duration {
	d := tc.Interval
	if tc.Mode == Accelerated && tc.Speed > 0 {
		d = time.Duration(float64(d) / tc.Speed)
	}
	if d < MinInterval {
		d = MinInterval
	}
	return d
}

// Start runs the controller in a separate goroutine until duration units
// of simulation time have elapsed or Stop is called. A non-positive
// duration runs until Stop. The returned channel is closed on exit.
func (tc *TimeController) Start(duration float64) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		simTime := tc.StartTime
		tc.currentTime = simTime
		tc.mu.Unlock()

		// Times are derived from the tick count so repeated additions of a
		// decimal step do not drift.
		var ticks int64
		elapsed := 0.0

		ticker := time.NewTicker(tc.TickInterval())
		defer ticker.Stop()

		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			select {
			case <-tc.stop:
				return
			case <-ticker.C:
			}
			// A listener may have stopped the loop during the previous tick.
			if tc.Stopped() {
				return
			}

			ticks++
			elapsed = float64(ticks) * tc.Step
			simTime = tc.StartTime + elapsed

			tc.mu.Lock()
			tc.currentTime = simTime
			tc.mu.Unlock()

			for _, fn := range tc.listeners {
				fn(simTime)
			}
		}
	}()
	return done
}

// Stop ends the tick loop. It is idempotent, does not wait for the loop to
// exit and never interrupts a tick already in progress.
func (tc *TimeController) Stop() {
	tc.stopOnce.Do(func() { close(tc.stop) })
}

// Stopped reports whether Stop has been called.
func (tc *TimeController) Stopped() bool {
	select {
	case <-tc.stop:
		return true
	default:
		return false
	}
}
