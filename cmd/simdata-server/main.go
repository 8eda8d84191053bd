package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/simdata/datastore"
	"github.com/signalsfoundry/simdata/internal/config"
	"github.com/signalsfoundry/simdata/internal/control"
	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/internal/observability"
	"github.com/signalsfoundry/simdata/timectrl"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML configuration file")
	grpcAddr := flag.String("grpc-addr", "", "TCP address the control gRPC server listens on (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (overrides config)")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewFromEnv().Error(ctx, "failed to load configuration", logging.Err(err))
		os.Exit(1)
	}
	if *grpcAddr != "" {
		cfg.Server.GRPCAddr = *grpcAddr
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}

	log := logging.New(cfg.Logging())

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(stopCtx, cfg, log, lis); err != nil {
		log.Error(ctx, "simdata server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves the control API on lis until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, log logging.Logger, lis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingConfig(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	rpcMetrics, err := observability.NewRPCCollector(reg)
	if err != nil {
		return err
	}
	storeMetrics, err := observability.NewStoreCollector(reg)
	if err != nil {
		return err
	}

	ds := datastore.New(log, datastore.WithMetricsRecorder(storeMetrics))
	sc, err := loadScenario(ctx, ds, cfg.Scenario, log)
	if err != nil {
		return err
	}
	log.Info(ctx, "scenario loaded",
		logging.Int("satellites", len(sc.satellites)),
		logging.Int("records", sc.records),
	)

	mode := timectrl.RealTime
	if cfg.Scenario.Accelerated {
		mode = timectrl.Accelerated
	}
	clock := timectrl.NewTimeController(cfg.Scenario.Start, cfg.Scenario.Tick.Duration, mode)
	clock.AddListener(func(_ time.Time, seconds float64) {
		ds.Update(seconds)
	})
	clock.SetTime(cfg.Scenario.Start)

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			control.RequestIDUnaryServerInterceptor(log),
			control.TracingUnaryServerInterceptor(),
			rpcMetrics.UnaryServerInterceptor(),
		),
	)
	control.RegisterDataStoreServiceServer(server, control.NewServer(ds, log, control.WithClock(clock)))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(ctx, "starting control gRPC server", logging.String("addr", lis.Addr().String()))
		return server.Serve(lis)
	})

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", rpcMetrics.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info(ctx, "serving Prometheus metrics", logging.String("addr", cfg.Server.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		err := clock.Run(gctx, cfg.Scenario.RunFor.Duration)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err == nil {
			log.Info(ctx, "scenario playback finished", logging.Float64("time", ds.CurrentTime()))
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down simdata server")
		server.GracefulStop()
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}
