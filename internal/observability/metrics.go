package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/vessel-radar/model"
)

// SimCollector bundles Prometheus metrics for the simulation engine and the
// health endpoint. It satisfies core.MetricsRecorder.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks         prometheus.Counter
	TickDurations prometheus.Histogram
	LiveVessels   prometheus.Gauge
	Pending       prometheus.Gauge
	Alarms        *prometheus.CounterVec
	Runs          *prometheus.CounterVec

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec
}

// NewSimCollector registers simulator Prometheus metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radar_ticks_total",
		Help: "Total number of simulation ticks processed.",
	}), "radar_ticks_total")
	if err != nil {
		return nil, err
	}

	tickDurations, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "radar_tick_duration_seconds",
		Help:    "Wall-clock time spent processing a single tick, observers included.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}), "radar_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	live, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "radar_live_vessels",
		Help: "Vessels currently moving in the simulation.",
	}), "radar_live_vessels")
	if err != nil {
		return nil, err
	}
	pending, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "radar_pending_vessels",
		Help: "Vessels waiting for their start time.",
	}), "radar_pending_vessels")
	if err != nil {
		return nil, err
	}

	alarms, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_alarms_total",
		Help: "Proximity alarms raised, labeled by severity.",
	}, []string{"kind"}), "radar_alarms_total")
	if err != nil {
		return nil, err
	}
	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_runs_total",
		Help: "Finished simulation runs, labeled by result.",
	}, []string{"result"}), "radar_runs_total")
	if err != nil {
		return nil, err
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_rpc_requests_total",
		Help: "Total number of handled RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "radar_rpc_requests_total")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radar_rpc_duration_seconds",
		Help:    "RPC latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service", "method"}), "radar_rpc_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:      gatherer,
		Ticks:         ticks,
		TickDurations: tickDurations,
		LiveVessels:   live,
		Pending:       pending,
		Alarms:        alarms,
		Runs:          runs,
		RPCRequests:   requests,
		RPCDurations:  durations,
	}, nil
}

// ObserveTick counts a processed tick and refreshes the fleet gauges.
func (c *SimCollector) ObserveTick(elapsed time.Duration, live, pending int) {
	if c == nil {
		return
	}
	if c.Ticks != nil {
		c.Ticks.Inc()
	}
	if c.TickDurations != nil {
		c.TickDurations.Observe(elapsed.Seconds())
	}
	if c.LiveVessels != nil {
		c.LiveVessels.Set(float64(live))
	}
	if c.Pending != nil {
		c.Pending.Set(float64(pending))
	}
}

// RecordAlarm increments the alarm counter for kind.
func (c *SimCollector) RecordAlarm(kind model.AlarmKind) {
	if c == nil || c.Alarms == nil {
		return
	}
	c.Alarms.WithLabelValues(kind.String()).Inc()
}

// RecordRun increments the run counter for result.
func (c *SimCollector) RecordRun(result string) {
	if c == nil || c.Runs == nil {
		return
	}
	c.Runs.WithLabelValues(result).Inc()
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *SimCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}
