package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/vessel-radar/internal/logging"
	"github.com/signalsfoundry/vessel-radar/model"
	"github.com/signalsfoundry/vessel-radar/scenario"
	"github.com/signalsfoundry/vessel-radar/timectrl"
)

var (
	// ErrAlreadyRunning is returned by Start while a run is in progress.
	ErrAlreadyRunning = errors.New("simulation already running")
	// ErrInvalidScenario indicates parsed parameters that cannot drive a run.
	ErrInvalidScenario = errors.New("invalid scenario parameters")
	// ErrNilSource is returned when Start is called without a source.
	ErrNilSource = errors.New("nil scenario source")
)

// Run results reported to the MetricsRecorder.
const (
	RunCompleted = "completed"
	RunStopped   = "stopped"
	RunFailed    = "failed"
)

const tracerName = "github.com/signalsfoundry/vessel-radar/core"

// endTolerance, scaled by the time step, absorbs float rounding in the
// end-of-run check.
const endTolerance = 1e-9

// maxTickInterval is the largest wall-clock interval a time step maps to.
const maxTickInterval = time.Duration(math.MaxInt64)

// Update is delivered to after-update observers once per tick, after
// motion and alarms for that tick have settled.
type Update struct {
	Tick    int
	Time    float64
	Live    int
	Pending int
	// Final is set on the tick that exhausts the run.
	Final bool
}

// MetricsRecorder receives engine counters. Implementations must be safe
// for use from the tick goroutine.
type MetricsRecorder interface {
	ObserveTick(elapsed time.Duration, live, pending int)
	RecordAlarm(kind model.AlarmKind)
	RecordRun(result string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveTick(time.Duration, int, int) {}
func (noopMetrics) RecordAlarm(model.AlarmKind)         {}
func (noopMetrics) RecordRun(string)                    {}

type updateSub struct {
	id int
	fn func(Update)
}

type alarmSub struct {
	id int
	fn func(model.Alarm)
}

// SimulationEngine owns the vessel sets and the clock of one simulation
// and advances them on a fixed cadence. Readers get copies; only the tick
// routine mutates vessel state.
type SimulationEngine struct {
	// startMu serialises Start and Stop so parsing happens outside mu.
	startMu sync.Mutex

	mu       sync.RWMutex
	params   model.ScenarioParameters
	fleet    *fleet
	now      float64
	tick     int
	alarms   []model.Alarm
	running  bool
	outcome  string
	clock    *timectrl.TimeController
	done     chan struct{}
	runCtx   context.Context
	runLog   logging.Logger
	scenario string

	subMu      sync.Mutex
	nextSubID  int
	updateSubs []updateSub
	alarmSubs  []alarmSub

	parser   *scenario.Parser
	motion   MotionModel
	log      logging.Logger
	metrics  MetricsRecorder
	tracer   trace.Tracer
	mode     timectrl.Mode
	speed    float64
	interval time.Duration
}

// EngineOption customises SimulationEngine construction.
type EngineOption func(*SimulationEngine)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) EngineOption {
	return func(e *SimulationEngine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetricsRecorder attaches a recorder for tick, alarm and run counters.
func WithMetricsRecorder(m MetricsRecorder) EngineOption {
	return func(e *SimulationEngine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithTracer overrides the tracer used for parse and tick spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *SimulationEngine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithParser sets the parser used by Start, e.g. to supply parameter
// defaults.
func WithParser(p *scenario.Parser) EngineOption {
	return func(e *SimulationEngine) {
		if p != nil {
			e.parser = p
		}
	}
}

// WithMotionModel replaces the default linear motion model.
func WithMotionModel(m MotionModel) EngineOption {
	return func(e *SimulationEngine) {
		if m != nil {
			e.motion = m
		}
	}
}

// WithMode selects real-time or accelerated ticking. speed only applies to
// Accelerated mode.
func WithMode(mode timectrl.Mode, speed float64) EngineOption {
	return func(e *SimulationEngine) {
		e.mode = mode
		if speed > 0 {
			e.speed = speed
		}
	}
}

// WithTickInterval fixes the wall-clock period between ticks instead of
// deriving it from the scenario time step.
func WithTickInterval(d time.Duration) EngineOption {
	return func(e *SimulationEngine) {
		e.interval = d
	}
}

// NewSimulationEngine returns a stopped engine.
func NewSimulationEngine(opts ...EngineOption) *SimulationEngine {
	done := make(chan struct{})
	close(done)
	e := &SimulationEngine{
		fleet:   newFleet(nil),
		done:    done,
		parser:  &scenario.Parser{},
		motion:  LinearMotionModel{},
		log:     logging.Noop(),
		metrics: noopMetrics{},
		tracer:  otel.Tracer(tracerName),
		mode:    timectrl.RealTime,
		speed:   1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Start parses src and begins ticking. On any error the engine stays
// stopped and the state of a previous run is left untouched. Cancelling
// ctx stops the run.
func (e *SimulationEngine) Start(ctx context.Context, src scenario.Source) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if src == nil {
		return ErrNilSource
	}

	e.startMu.Lock()
	defer e.startMu.Unlock()

	if e.Running() {
		return ErrAlreadyRunning
	}

	base := e.log
	if l := logging.LoggerFromContext(ctx); l != nil {
		base = l
	}
	runCtx, runLog := logging.WithRunLogger(context.WithoutCancel(ctx), base.With(logging.String("scenario", src.Name())))

	sc, err := e.parse(ctx, src)
	if err != nil {
		e.metrics.RecordRun(RunFailed)
		runLog.Error(ctx, "scenario rejected", logging.String("error", err.Error()))
		return fmt.Errorf("start %s: %w", src.Name(), err)
	}
	if sc.Params.TimeStep <= 0 {
		e.metrics.RecordRun(RunFailed)
		err := fmt.Errorf("%w: time step %v must be positive", ErrInvalidScenario, sc.Params.TimeStep)
		runLog.Error(ctx, "scenario rejected", logging.String("error", err.Error()))
		return fmt.Errorf("start %s: %w", src.Name(), err)
	}

	f := newFleet(sc.Vessels)
	f.admit(sc.Params.StartTime)

	clock := timectrl.NewTimeController(sc.Params.StartTime, sc.Params.TimeStep, e.tickInterval(sc.Params), e.mode)
	clock.Speed = e.speed
	clock.AddListener(func(simTime float64) { e.onTick(clock, simTime) })

	done := make(chan struct{})

	e.mu.Lock()
	e.params = sc.Params
	e.fleet = f
	e.now = sc.Params.StartTime
	e.tick = 0
	e.alarms = nil
	e.running = true
	e.outcome = RunStopped
	e.clock = clock
	e.done = done
	e.runCtx = runCtx
	e.runLog = runLog
	e.scenario = src.Name()
	e.mu.Unlock()

	runLog.Info(ctx, "simulation started",
		logging.Int("vessels", len(sc.Vessels)),
		logging.Int("live", len(f.live)),
		logging.Any("start_time", sc.Params.StartTime),
		logging.Any("time_step", sc.Params.TimeStep),
		logging.Any("total_time", sc.Params.TotalTime),
		logging.Int("range", sc.Params.Range),
		logging.String("mode", e.mode.String()),
		logging.String("tick_interval", clock.TickInterval().String()),
	)

	finished := clock.Start(0)
	go func() {
		select {
		case <-finished:
		case <-ctx.Done():
			clock.Stop()
			<-finished
		}
		e.finish(clock, done)
	}()
	return nil
}

func (e *SimulationEngine) parse(ctx context.Context, src scenario.Source) (*scenario.Scenario, error) {
	_, span := e.tracer.Start(ctx, "scenario.parse", trace.WithAttributes(
		attribute.String("scenario.name", src.Name()),
	))
	defer span.End()

	sc, err := e.parser.ParseSource(src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("scenario.vessels", len(sc.Vessels)))
	return sc, nil
}

func (e *SimulationEngine) tickInterval(p model.ScenarioParameters) time.Duration {
	if e.interval > 0 {
		return e.interval
	}
	secs := p.TimeStep * float64(time.Second)
	if secs >= float64(maxTickInterval) {
		return maxTickInterval
	}
	return time.Duration(secs)
}

// Stop disables future ticks. It is idempotent, safe to call from an
// observer and does not wait for an in-flight tick; use Done for that.
// A Stop issued while Start is still parsing waits for it and then stops
// the run it started.
func (e *SimulationEngine) Stop() {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	e.mu.Lock()
	clock := e.clock
	e.running = false
	e.mu.Unlock()
	if clock != nil {
		clock.Stop()
	}
}

// Done is closed once the current (or most recent) run has fully ended.
func (e *SimulationEngine) Done() <-chan struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.done
}

// Running reports whether a run is in progress.
func (e *SimulationEngine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Result reports how the most recent run ended: RunCompleted, RunStopped
// or RunFailed. It is empty before the first Start and only final once
// Done is closed.
func (e *SimulationEngine) Result() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.outcome
}

// Now returns the current simulation time.
func (e *SimulationEngine) Now() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.now
}

// Tick returns the number of ticks executed in the current run.
func (e *SimulationEngine) Tick() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tick
}

// Vessels returns copies of the live vessels in admission order.
func (e *SimulationEngine) Vessels() []model.Vessel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fleet.snapshot()
}

// Pending returns how many vessels have not been admitted yet.
func (e *SimulationEngine) Pending() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.fleet.pending)
}

// Range returns the radar radius of the loaded scenario.
func (e *SimulationEngine) Range() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params.Range
}

// Scenario returns the name of the most recently started source.
func (e *SimulationEngine) Scenario() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenario
}

// Parameters returns the global parameters of the loaded scenario.
func (e *SimulationEngine) Parameters() model.ScenarioParameters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params
}

// CurrentAlarms returns the alarms raised by the most recent tick. The scan
// only runs while at least one alarm observer is subscribed.
func (e *SimulationEngine) CurrentAlarms() []model.Alarm {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]model.Alarm, len(e.alarms))
	copy(out, e.alarms)
	return out
}

// SubscribeUpdate registers fn to run after every tick. Observers are
// called synchronously on the tick goroutine in registration order and
// are kept across runs.
func (e *SimulationEngine) SubscribeUpdate(fn func(Update)) (unsubscribe func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.nextSubID++
	id := e.nextSubID
	e.updateSubs = append(e.updateSubs, updateSub{id: id, fn: fn})
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		for i, s := range e.updateSubs {
			if s.id == id {
				e.updateSubs = append(e.updateSubs[:i:i], e.updateSubs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeAlarm registers fn to receive every proximity alarm.
func (e *SimulationEngine) SubscribeAlarm(fn func(model.Alarm)) (unsubscribe func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	e.nextSubID++
	id := e.nextSubID
	e.alarmSubs = append(e.alarmSubs, alarmSub{id: id, fn: fn})
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		for i, s := range e.alarmSubs {
			if s.id == id {
				e.alarmSubs = append(e.alarmSubs[:i:i], e.alarmSubs[i+1:]...)
				return
			}
		}
	}
}

func (e *SimulationEngine) subscribers() ([]updateSub, []alarmSub) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	return append([]updateSub(nil), e.updateSubs...), append([]alarmSub(nil), e.alarmSubs...)
}

// onTick runs one simulation step for the run driven by clock.
func (e *SimulationEngine) onTick(clock *timectrl.TimeController, simTime float64) {
	started := time.Now()
	updateSubs, alarmSubs := e.subscribers()

	e.mu.Lock()
	if e.clock != clock || !e.running {
		e.mu.Unlock()
		return
	}
	ctx, span := e.tracer.Start(e.runCtx, "engine.tick")
	defer span.End()
	log := e.runLog

	e.now = simTime
	e.tick++
	admitted := e.fleet.admit(simTime)
	for _, v := range e.fleet.live {
		e.motion.Advance(v, e.params.TimeStep)
	}

	var alarms []model.Alarm
	if len(alarmSubs) > 0 {
		alarms = ScanProximity(e.fleet.live, simTime)
	}
	e.alarms = alarms

	remaining := e.params.TotalTime - (simTime - e.params.StartTime)
	exhausted := remaining <= e.params.TimeStep*endTolerance
	update := Update{
		Tick:    e.tick,
		Time:    simTime,
		Live:    len(e.fleet.live),
		Pending: len(e.fleet.pending),
		Final:   exhausted,
	}
	e.mu.Unlock()

	span.SetAttributes(
		attribute.Int("tick", update.Tick),
		attribute.Float64("sim.time", simTime),
		attribute.Int("vessels.live", update.Live),
		attribute.Int("alarms", len(alarms)),
	)
	for _, v := range admitted {
		log.Debug(ctx, "vessel admitted", logging.Int("vessel_id", v.ID), logging.String("type", v.Type.String()))
	}

	err := deliver(func() {
		for _, a := range alarms {
			e.metrics.RecordAlarm(a.Kind)
			for _, s := range alarmSubs {
				s.fn(a)
			}
		}
		for _, s := range updateSubs {
			s.fn(update)
		}
	})
	e.metrics.ObserveTick(time.Since(started), update.Live, update.Pending)

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(ctx, "observer failed; stopping simulation", logging.Int("tick", update.Tick), logging.String("error", err.Error()))
		e.stopWith(clock, RunFailed)
	case exhausted:
		e.stopWith(clock, RunCompleted)
	}
}

// stopWith stops the run driven by clock and records why. An explicit Stop
// that already ended the run keeps its RunStopped result.
func (e *SimulationEngine) stopWith(clock *timectrl.TimeController, outcome string) {
	e.mu.Lock()
	if e.clock == clock && e.running {
		e.outcome = outcome
		e.running = false
	}
	e.mu.Unlock()
	clock.Stop()
}

// finish runs once the tick loop of clock has exited.
func (e *SimulationEngine) finish(clock *timectrl.TimeController, done chan struct{}) {
	e.mu.Lock()
	current := e.clock == clock
	if current {
		e.running = false
	}
	outcome, ticks, now, log, ctx := e.outcome, e.tick, e.now, e.runLog, e.runCtx
	e.mu.Unlock()

	if current {
		e.metrics.RecordRun(outcome)
		log.Info(ctx, "simulation finished",
			logging.String("result", outcome),
			logging.Int("ticks", ticks),
			logging.Any("sim_time", now),
		)
	} else {
		// A newer run replaced this one after Stop.
		e.metrics.RecordRun(RunStopped)
	}
	close(done)
}

// deliver runs fn, converting an observer panic into an error.
func deliver(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	fn()
	return nil
}
