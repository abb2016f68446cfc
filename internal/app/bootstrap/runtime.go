package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	eventadapter "github.com/bps3275/sinora/internal/adapters/events"
	grpcadapter "github.com/bps3275/sinora/internal/adapters/grpc"
	httpadapter "github.com/bps3275/sinora/internal/adapters/http"
	"github.com/bps3275/sinora/internal/ports"
)

type Runtime struct {
	core       *Core
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	closers    []func() error
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewAPIRuntime wires the HTTP and gRPC servers. Redis is mandatory here.
func NewAPIRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg.ServiceID)
	logger.Info("bootstrapping sinora api", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort, "driver", cfg.DatabaseDriver)

	core, err := OpenCore(ctx, cfg, logger, CoreOptions{RequireRedis: true})
	if err != nil {
		return nil, err
	}

	reg := newRegistry()
	handler := httpadapter.NewHandler(core.Service, core.Ready)
	router := httpadapter.NewRouter(handler, httpadapter.NewMetrics(reg, reg))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcadapter.LoggingInterceptor(logger)))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewHonorInternalServer(core.Service))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	return &Runtime{
		core:       core,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
	}, nil
}

// NewWorkerRuntime wires the outbox relay. It publishes to kafka when brokers
// are configured and to the log otherwise.
func NewWorkerRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg.ServiceID)
	logger.Info("bootstrapping sinora outbox worker", "kafka_brokers", len(cfg.KafkaBrokers))

	core, err := OpenCore(ctx, cfg, logger, CoreOptions{SkipRedis: true})
	if err != nil {
		return nil, err
	}

	rt := &Runtime{core: core, logger: logger}
	var publisher ports.EventPublisher = eventadapter.NewLoggingPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			core.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		publisher = kafkaPublisher
		rt.closers = append(rt.closers, kafkaPublisher.Close)
	}

	reg := newRegistry()
	rt.outbox = eventadapter.NewOutboxWorker(
		logger,
		core.Repos.Outbox,
		publisher,
		eventadapter.NewOutboxMetrics(reg),
		eventadapter.OutboxWorkerConfig{
			Interval:   cfg.OutboxPollInterval,
			BatchSize:  cfg.OutboxBatchSize,
			ClaimTTL:   cfg.OutboxClaimTTL,
			MaxRetries: cfg.OutboxMaxRetries,
		},
	)
	if cfg.WorkerMetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		rt.httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.WorkerMetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return rt, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.close()
	return runErr
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if r.httpServer != nil {
		go func() {
			r.logger.Info("worker metrics server started", "addr", r.httpServer.Addr)
			if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.Error("worker metrics server failed", "error", err)
			}
		}()
	}

	r.logger.Info("outbox worker started")
	err := r.outbox.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if r.httpServer != nil {
		_ = r.httpServer.Shutdown(shutdownCtx)
	}
	r.close()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Runtime) close() {
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil {
			r.logger.Warn("close failed", "error", err)
		}
	}
	r.core.Close()
}
