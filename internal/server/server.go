// Package server exposes a running simulation over the standard gRPC health
// protocol so orchestrators can tell whether a scenario is still ticking.
package server

import (
	"context"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"

	"github.com/signalsfoundry/vessel-radar/core"
	"github.com/signalsfoundry/vessel-radar/internal/logging"
	"github.com/signalsfoundry/vessel-radar/internal/observability"
)

// SimulationService is the health service name that tracks the engine.
// The empty name reports the same status.
const SimulationService = "radar.Simulation"

const requestIDMetadataKey = "x-request-id"

// Engine is the part of core.SimulationEngine the server follows.
type Engine interface {
	Running() bool
	Done() <-chan struct{}
	SubscribeUpdate(fn func(core.Update)) (unsubscribe func())
}

// Server wraps a grpc.Server carrying the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	log    logging.Logger
}

// New builds a server instrumented with OpenTelemetry and, when collector is
// non-nil, Prometheus RPC metrics. Health starts as NOT_SERVING.
func New(log logging.Logger, collector *observability.SimCollector, opts ...grpc.ServerOption) *Server {
	if log == nil {
		log = logging.Noop()
	}
	interceptors := []grpc.UnaryServerInterceptor{RequestIDUnaryServerInterceptor(log)}
	if collector != nil {
		interceptors = append(interceptors, collector.UnaryServerInterceptor())
	}
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}, opts...)

	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
		log:    log,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.SetServing(false)
	return s
}

// Serve accepts connections on lis until Stop or GracefulStop.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info(context.Background(), "starting health gRPC server", logging.String("addr", lis.Addr().String()))
	return s.grpc.Serve(lis)
}

// GracefulStop marks every service NOT_SERVING and drains open RPCs,
// ending active Watch streams.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// Stop closes all connections immediately.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.Stop()
}

// SetServing flips the overall and simulation health status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(SimulationService, status)
}

// Follow mirrors eng's run state into the health status until the current
// run ends or ctx is cancelled. Call it after a successful Start.
func (s *Server) Follow(ctx context.Context, eng Engine) {
	unsubscribe := eng.SubscribeUpdate(func(u core.Update) {
		s.SetServing(!u.Final)
	})
	defer unsubscribe()

	s.SetServing(eng.Running())
	select {
	case <-ctx.Done():
	case <-eng.Done():
	}
	s.SetServing(false)
}

// RequestIDUnaryServerInterceptor attaches a per-request logger annotated
// with the method and, when the caller sent one, its x-request-id.
func RequestIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		reqLog := base.With(logging.String("method", info.FullMethod))
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if incoming := firstHeader(md, requestIDMetadataKey); incoming != "" {
				reqLog = reqLog.With(logging.String("request_id", incoming))
			}
		}
		return handler(logging.ContextWithLogger(ctx, reqLog), req)
	}
}

func firstHeader(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
