package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jcmexdev/seating-storefront/internal/pkg/auth"
	"github.com/jcmexdev/seating-storefront/internal/pkg/cache"
	"github.com/jcmexdev/seating-storefront/internal/pkg/config"
	"github.com/jcmexdev/seating-storefront/internal/pkg/interceptors"
	paymentrpc "github.com/jcmexdev/seating-storefront/internal/pkg/rpc/payment"
	"github.com/jcmexdev/seating-storefront/internal/pkg/telemetry"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/checkout/checkoutlog/sqlite"
	"github.com/jcmexdev/seating-storefront/internal/storefront/core/ports"
	"github.com/jcmexdev/seating-storefront/internal/storefront/infra/adapters/catalog"
	"github.com/jcmexdev/seating-storefront/internal/storefront/infra/adapters/payment"
	"github.com/jcmexdev/seating-storefront/internal/storefront/infra/httpx"
	"github.com/jcmexdev/seating-storefront/internal/storefront/session"
)

func main() {
	if err := run(); err != nil {
		slog.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

// run owns every resource it opens, so deferred shutdowns always execute.
func run() error {
	cfg, err := config.LoadStorefront()
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

	// Checkout log: append-only SQLite store for checkout transitions.
	if err := os.MkdirAll(filepath.Dir(cfg.CheckoutLogPath), 0o755); err != nil {
		return fmt.Errorf("create checkout log directory: %w", err)
	}
	checkoutLog, err := sqlite.Open(cfg.CheckoutLogPath)
	if err != nil {
		return fmt.Errorf("open checkout log: %w", err)
	}
	defer func() {
		if err := checkoutLog.Close(); err != nil {
			slog.Error("checkout log close error", "error", err)
		}
	}()

	gateway, closeGateway, err := newPaymentGateway(cfg)
	if err != nil {
		return err
	}
	defer closeGateway()

	var catalogCache cache.Cache = cache.NewMemory(cfg.ServiceName)
	if cfg.CacheBackend == "redis" {
		catalogCache = cache.NewRedisCache(cfg.RedisAddr, cfg.ServiceName)
	}
	products := catalog.NewCachedCatalog(
		catalog.NewRESTCatalog(cfg.CatalogBaseURL, cfg.CatalogTimeout),
		catalogCache,
		cfg.CatalogCacheTTL,
	)

	sessions := session.NewStore()
	go sessions.RunExpiry(ctx, cfg.SessionSweep, cfg.SessionIdleTTL)

	handler := httpx.NewHandler(sessions, products, gateway, checkoutLog, checkoutLog, cfg.Currency)
	router := httpx.NewRouter(handler, auth.NewVerifier(cfg.AuthSecret, cfg.AuthIssuer))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}()

	slog.Info("storefront running", "addr", cfg.HTTPAddr, "payment_gateway", cfg.PaymentGateway, "cache", cfg.CacheBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	// In-flight charges finish before the checkout log is closed.
	<-shutdownDone
	return nil
}

// newPaymentGateway dials the payment service, or returns the in-memory
// gateway when PAYMENT_GATEWAY=fake.
func newPaymentGateway(cfg config.Storefront) (ports.PaymentGateway, func(), error) {
	if cfg.PaymentGateway == "fake" {
		slog.Warn("using in-memory payment gateway", "limit_cents", cfg.FakeLimitCents)
		return payment.NewFakeGateway(cfg.FakeLimitCents), func() {}, nil
	}

	conn, err := grpc.NewClient(cfg.PaymentServiceAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithUnaryInterceptor(interceptors.TraceClientInterceptor()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to payment service at %s: %w", cfg.PaymentServiceAddr, err)
	}
	return payment.NewGRPCGateway(paymentrpc.NewPaymentClient(conn)), func() { _ = conn.Close() }, nil
}
