// Command history-server starts the content history gRPC server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/content-history/internal/authz"
	"github.com/and161185/content-history/internal/cache"
	"github.com/and161185/content-history/internal/config"
	"github.com/and161185/content-history/internal/diag"
	"github.com/and161185/content-history/internal/events"
	"github.com/and161185/content-history/internal/fingerprint"
	"github.com/and161185/content-history/internal/migrate"
	"github.com/and161185/content-history/internal/registry"
	"github.com/and161185/content-history/internal/repository"
	"github.com/and161185/content-history/internal/repository/postgres"
	grpcserver "github.com/and161185/content-history/internal/server/grpc"
	"github.com/and161185/content-history/internal/service"
	"github.com/and161185/content-history/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration and serves until SIGINT/SIGTERM.
func main() {
	cfgPath := flag.String("config", "", "YAML config file (env HISTORY_* overrides)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(s config.LogSettings) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if s.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// openTypes picks the static YAML registry when configured, else the database.
func openTypes(file string, db *postgres.DB) (repository.TypeRepository, error) {
	if file == "" {
		return postgres.NewTypeRepo(db), nil
	}
	static, err := registry.Load(file)
	if err != nil {
		return nil, err
	}
	return static, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.Addr),
	)

	if cfg.Postgres.Migrate {
		if err := migrate.Up(ctx, cfg.Postgres.DSN); err != nil {
			return err
		}
	}

	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("pgxpool.New: %w", err)
	}
	defer db.Close()

	types, err := openTypes(cfg.History.TypesFile, db)
	if err != nil {
		return fmt.Errorf("content types: %w", err)
	}

	// Redis holds the rendered listing cache and edit sessions; without it both stay in process.
	var (
		listings cache.Cache   = cache.Noop{}
		sessions session.Store = session.NewMemory()
	)
	if cfg.Redis.Addr != "" {
		rdb := red.NewClient(&red.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		listings = cache.NewRedis(rdb, cfg.Redis.CachePrefix)
		sessions = session.NewRedis(rdb, cfg.Redis.SessionPrefix, cfg.Redis.SessionTTL)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		k, err := events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer func() { _ = k.Close() }()
		publisher = k
	}

	delegate := authz.NewDelegate(types, authz.NewPG(db.Pool), sessions)
	historySvc := service.NewHistoryService(service.Deps{
		Versions: postgres.NewVersionRepo(db),
		Types:    types,
		Auth:     delegate,
		Hashes:   fingerprint.NewEngine(postgres.NewItemRepo(db)),
		Cache:    listings,
		Events:   publisher,
		Sink:     diag.NewLogger(logger.Named("history")),
		Log:      logger,
	}, cfg.History.MaxBatch)
	tokens := service.NewTokenService([]byte(cfg.Auth.JWTKey), cfg.Auth.AccessTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := grpcserver.NewMetrics(grpcserver.MetricsOptions{Registerer: reg})
	if err != nil {
		return err
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RequestIDUnary(),
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			metrics.Unary(),
		),
	}
	if cfg.Server.TLSCert != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.Server.TLSCert, cfg.Server.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		logger.Warn("serving without TLS")
	}
	s := grpc.NewServer(opts...)

	grpcserver.RegisterHistoryServer(s, grpcserver.New(historySvc, tokens))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(grpcserver.ServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.Server.Reflection {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- s.Serve(lis)
	}()
	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.Server.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		hs.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)

		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			s.Stop()
		}
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}
