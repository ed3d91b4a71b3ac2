package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tejusbharadwaj/weatherwidget/internal/api"
	"github.com/tejusbharadwaj/weatherwidget/internal/config"
	"github.com/tejusbharadwaj/weatherwidget/internal/display"
	server "github.com/tejusbharadwaj/weatherwidget/internal/grpc"
	"github.com/tejusbharadwaj/weatherwidget/internal/httpapi"
	"github.com/tejusbharadwaj/weatherwidget/internal/metrics"
	"github.com/tejusbharadwaj/weatherwidget/internal/parser"
	"github.com/tejusbharadwaj/weatherwidget/internal/scheduler"
)

// Command weatherwidget keeps a set of display targets up to date with the
// temperature and humidity of one remote sensor.
//
// The service:
//   - Fetches the sensor reply on a cron schedule and on POST /refresh
//   - Serves the rendered views at GET /readings/{target}
//   - Reports the sensor through the gRPC health service "weather.Sensor"
//   - Exposes Prometheus metrics at GET /metrics
//
// Usage:
//
//	weatherwidget [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
//	-shutdown-timeout duration
//	      grace period for in-flight requests (default 30s)
func main() {
	flags := parseFlags()

	// Variables from a local .env file feed $VAR expansion and APP_ overrides
	_ = godotenv.Load()

	appConfig, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(appConfig.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := run(appConfig, flags, logger); err != nil {
		logger.Fatalf("Service error: %v", err)
	}
}

type Flags struct {
	ConfigPath      string
	ShutdownTimeout time.Duration
}

func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "Path to the config file")
	flag.DurationVar(&flags.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "Grace period for in-flight requests")

	flag.Parse()

	return flags
}

func run(appConfig *config.Config, flags *Flags, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New()
	if err := appMetrics.Register(registry); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	board, err := display.NewBoard(appConfig.Refresh.BoardSize)
	if err != nil {
		return err
	}

	policy := parser.IgnoreUnknownFields
	if appConfig.Sensor.StrictFields {
		policy = parser.StrictFields
	}

	fetcher := api.NewSensorFetcher(api.FetcherConfig{
		ConnectTimeout: appConfig.Sensor.ConnectTimeout,
		ReadTimeout:    appConfig.Sensor.ReadTimeout,
		MaxBodyBytes:   appConfig.Sensor.MaxBodyBytes,
	}, logger)
	reader := api.NewSensorReader(fetcher, parser.New(policy, logger), appMetrics, logger)

	health := server.NewHealthChecker()
	refresher := scheduler.NewRefresher(
		reader,
		board,
		api.NewInterfaceProbe(),
		appConfig.Sensor.URL,
		logger,
		health.ObserveReading,
	)
	sched := scheduler.NewScheduler(ctx, refresher, appConfig.Refresh.Schedule, appConfig.Refresh.Targets, logger)

	grpcServer, err := server.SetupServer(health, server.ServerConfig{
		RateLimit:      appConfig.Server.RateLimit,
		RateLimitBurst: appConfig.Server.RateLimitBurst,
	}, appMetrics, logger)
	if err != nil {
		return fmt.Errorf("failed to setup server: %w", err)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", appConfig.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	httpServer := &http.Server{
		Addr: appConfig.Server.HTTPAddr,
		Handler: httpapi.NewRouter(
			httpapi.NewHandler(ctx, board, refresher, appConfig.Refresh.Targets, logger),
			registry,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("scheduler error: %w", err)
	}

	// Show something right away instead of waiting for the first tick
	refresher.Trigger(ctx, appConfig.Refresh.Targets)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"port": appConfig.Server.GRPCPort,
		}).Info("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"addr": appConfig.Server.HTTPAddr,
		}).Info("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Println("Gracefully stopping server...")

		<-sched.Stop().Done()
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), flags.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		logger.Println("Server stopped")
		return nil
	})

	return g.Wait()
}
