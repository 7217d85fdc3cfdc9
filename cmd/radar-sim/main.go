package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/vessel-radar/core"
	"github.com/signalsfoundry/vessel-radar/internal/config"
	"github.com/signalsfoundry/vessel-radar/internal/logging"
	"github.com/signalsfoundry/vessel-radar/internal/observability"
	"github.com/signalsfoundry/vessel-radar/internal/server"
	"github.com/signalsfoundry/vessel-radar/model"
	"github.com/signalsfoundry/vessel-radar/scenario"
	"github.com/signalsfoundry/vessel-radar/timectrl"
)

const shutdownTimeout = 5 * time.Second

var errRunFailed = errors.New("simulation failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "radar-sim: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, runs one scenario to completion (or until ctx is
// cancelled) and prints the final vessel list to out.
func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Backend:    cfg.Log.Backend,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	engine := core.NewSimulationEngine(
		core.WithLogger(log),
		core.WithMetricsRecorder(collector),
		core.WithMode(timectrl.ParseMode(strings.ToLower(cfg.Sim.Mode)), cfg.Sim.Speed),
	)
	defer attachReporters(engine, log)()

	var grpcLis net.Listener
	if cfg.GRPC.Addr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("listen for gRPC on %s: %w", cfg.GRPC.Addr, err)
		}
		defer grpcLis.Close()
	}

	src := scenario.FileSource{Dir: cfg.Scenario.Dir, File: cfg.Scenario.File}
	if err := engine.Start(ctx, src); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	simDone := make(chan struct{})

	g.Go(func() error {
		defer close(simDone)
		select {
		case <-engine.Done():
		case <-gctx.Done():
			engine.Stop()
			<-engine.Done()
		}
		return nil
	})

	if grpcLis != nil {
		health := server.New(log, collector)
		g.Go(func() error {
			health.Follow(gctx, engine)
			return nil
		})
		g.Go(func() error {
			err := health.Serve(grpcLis)
			if err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("gRPC server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			waitEither(gctx, simDone)
			health.GracefulStop()
			return nil
		})
	}

	if cfg.Metrics.Addr != "" {
		metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(collector)}
		g.Go(func() error {
			log.Info(ctx, "serving Prometheus metrics", logging.String("addr", cfg.Metrics.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			waitEither(gctx, simDone)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	printVessels(out, engine)
	if engine.Result() == core.RunFailed {
		return errRunFailed
	}
	return nil
}

// loadConfig layers command-line flags over config.Load. Only flags that
// were set explicitly override the file and environment.
func loadConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("radar-sim", flag.ContinueOnError)
	configDir := fs.String("config-dir", ".", "directory holding radar-sim.{yaml,json,toml}")
	scenarioDir := fs.String("scenario-dir", "", "directory containing the scenario file")
	scenarioFile := fs.String("scenario", "", "scenario file name")
	mode := fs.String("mode", "", "tick mode: realtime or accelerated")
	speed := fs.Float64("speed", 0, "speed factor applied in accelerated mode")
	metricsAddr := fs.String("metrics-addr", "", "HTTP address for Prometheus /metrics (empty disables)")
	grpcAddr := fs.String("grpc-addr", "", "TCP address for the gRPC health server (empty disables)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scenario-dir":
			cfg.Scenario.Dir = *scenarioDir
		case "scenario":
			cfg.Scenario.File = *scenarioFile
		case "mode":
			cfg.Sim.Mode = *mode
		case "speed":
			cfg.Sim.Speed = *speed
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		case "grpc-addr":
			cfg.GRPC.Addr = *grpcAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// attachReporters logs alarms and a per-tick radar sweep summary. The
// returned func detaches both.
func attachReporters(engine *core.SimulationEngine, log logging.Logger) func() {
	ctx := context.Background()
	offAlarms := engine.SubscribeAlarm(func(a model.Alarm) {
		fields := []logging.Field{
			logging.String("kind", a.Kind.String()),
			logging.Int("first", a.First.ID),
			logging.Int("second", a.Second.ID),
			logging.Any("distance", a.Distance),
			logging.Any("sim_time", a.Time),
		}
		if a.Kind == model.AlarmHigh {
			log.Warn(ctx, "proximity alarm", fields...)
			return
		}
		log.Info(ctx, "proximity alarm", fields...)
	})
	offUpdates := engine.SubscribeUpdate(func(u core.Update) {
		radarRange := engine.Range()
		visible := 0
		for _, v := range engine.Vessels() {
			if v.InRange(radarRange) {
				visible++
			}
		}
		log.Debug(ctx, "radar sweep",
			logging.Int("tick", u.Tick),
			logging.Any("sim_time", u.Time),
			logging.Int("live", u.Live),
			logging.Int("pending", u.Pending),
			logging.Int("in_range", visible),
		)
	})
	return func() {
		offAlarms()
		offUpdates()
	}
}

func metricsMux(collector *observability.SimCollector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	return mux
}

func printVessels(out io.Writer, engine *core.SimulationEngine) {
	if out == nil {
		return
	}
	fmt.Fprintf(out, "t=%g range=%d\n", engine.Now(), engine.Range())
	for _, v := range engine.Vessels() {
		fmt.Fprintln(out, v.String())
	}
}

func waitEither(ctx context.Context, done <-chan struct{}) {
	select {
	case <-ctx.Done():
	case <-done:
	}
}
