package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	paymentservice "github.com/jcmexdev/seating-storefront/internal/payment-service/app"
	"github.com/jcmexdev/seating-storefront/internal/pkg/cache"
	"github.com/jcmexdev/seating-storefront/internal/pkg/config"
	"github.com/jcmexdev/seating-storefront/internal/pkg/interceptors"
	paymentrpc "github.com/jcmexdev/seating-storefront/internal/pkg/rpc/payment"
	"github.com/jcmexdev/seating-storefront/internal/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("payment service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadPaymentService()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("initialise tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Port
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.TraceServerInterceptor()),
	)

	redisCache := cache.NewRedisCache(cfg.RedisAddr, "payment")
	paymentSrv := paymentservice.NewServer(redisCache, paymentservice.Options{
		LimitCents:        cfg.LimitCents,
		AllowedCurrencies: cfg.AllowedCurrencies,
		IdempotencyTTL:    cfg.IdempotencyTTL,
	})
	paymentrpc.RegisterPaymentServer(grpcServer, paymentSrv)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down payment service")
		grpcServer.GracefulStop()
	}()

	slog.Info("payment service gRPC running", "addr", addr, "limit_cents", cfg.LimitCents)
	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
