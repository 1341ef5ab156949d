package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/caixinha-backend/internal/adapter/grpc"
	"github.com/simaogato/caixinha-backend/internal/adapter/store"
	"github.com/simaogato/caixinha-backend/internal/config"
	"github.com/simaogato/caixinha-backend/internal/events"
	"github.com/simaogato/caixinha-backend/internal/events/kafka"
	"github.com/simaogato/caixinha-backend/internal/logger"
	"github.com/simaogato/caixinha-backend/internal/metrics"
	"github.com/simaogato/caixinha-backend/internal/usecase/dashboard"
	"github.com/simaogato/caixinha-backend/internal/usecase/ledger"
	"github.com/simaogato/caixinha-backend/internal/usecase/seeder"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "server",
		Short:         "Serve the caixinha ledger over gRPC",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			if err := run(cfg, log); err != nil {
				log.Error("server stopped with error", zap.Error(err))
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CAIXINHA_CONFIG"), "path to a YAML config file")

	return root
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 1. Open the key-value store
	kv, closeStore, err := store.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()

	// 2. Open the ledger
	openingBalance, err := cfg.Ledger.OpeningBalance()
	if err != nil {
		return err
	}
	ledgerService, err := ledger.Open(ctx, kv,
		ledger.WithInitialBalance(openingBalance),
		ledger.WithLogger(log.Named("ledger")),
	)
	if err != nil {
		return err
	}
	dashboardService := dashboard.NewDashboardService(ledgerService)

	if cfg.Ledger.SeedDemo {
		seeded, err := seeder.NewDemoSeeder(ledgerService, nil, log.Named("seeder")).Seed(ctx)
		if err != nil {
			return fmt.Errorf("seed demo boxes: %w", err)
		}
		log.Info("demo seed finished", zap.Bool("seeded", seeded))
	}

	// 3. Event publishing and metrics
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("publishing ledger events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	// 4. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.MetricsInterceptor(m),
			grpcadapter.LoggingInterceptor(log.Named("grpc")),
			grpcadapter.AuthInterceptor(cfg.API.Token),
		),
	)

	grpcAdapter := grpcadapter.NewServer(ledgerService, dashboardService, publisher, m, log.Named("grpc"))
	grpcadapter.RegisterLedgerServiceServer(grpcServer, grpcAdapter)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPC.Addr, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPC.Addr))
		serveErr <- grpcServer.Serve(lis)
	}()

	// Graceful shutdown
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpclib.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully", zap.Duration("timeout", cfg.ShutdownTimeout))
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(cfg.ShutdownTimeout):
		log.Warn("graceful stop timed out, forcing")
		grpcServer.Stop()
	}

	log.Info("gRPC server stopped")
	return nil
}
