// Package config loads per-binary settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Telemetry is embedded by every binary's config.
type Telemetry struct {
	ServiceName  string  `env:"OTEL_SERVICE_NAME"`
	Environment  string  `env:"OTEL_RESOURCE_ATTRIBUTES_ENV" envDefault:"local"`
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1"`
	LogLevel     string  `env:"LOG_LEVEL" envDefault:"info"`
}

// Storefront configures cmd/storefront.
type Storefront struct {
	Telemetry

	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	PaymentGateway     string        `env:"PAYMENT_GATEWAY" envDefault:"grpc"`
	PaymentServiceAddr string        `env:"PAYMENT_SERVICE_ADDR" envDefault:":9091"`
	FakeLimitCents     int64         `env:"PAYMENT_FAKE_LIMIT_CENTS" envDefault:"50000"`
	CatalogBaseURL     string        `env:"CATALOG_API_URL" envDefault:"http://localhost:3000/api"`
	CatalogTimeout     time.Duration `env:"CATALOG_API_TIMEOUT" envDefault:"10s"`
	CatalogCacheTTL    time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	CacheBackend       string        `env:"CACHE_BACKEND" envDefault:"redis"`
	RedisAddr          string        `env:"REDIS_ADDR" envDefault:"redis-cache:6379"`
	CheckoutLogPath    string        `env:"CHECKOUT_LOG_PATH" envDefault:"./data/checkout.db"`
	SessionIdleTTL     time.Duration `env:"SESSION_IDLE_TTL" envDefault:"24h"`
	SessionSweep       time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`
	Currency           string        `env:"CHECKOUT_CURRENCY" envDefault:"USD"`
	AuthSecret         string        `env:"AUTH_TOKEN_SECRET,required,notEmpty"`
	AuthIssuer         string        `env:"AUTH_TOKEN_ISSUER" envDefault:"seating-storefront"`
}

// PaymentService configures cmd/payment-service.
type PaymentService struct {
	Telemetry

	Port              string        `env:"PORT" envDefault:"9091"`
	RedisAddr         string        `env:"REDIS_ADDR" envDefault:"redis-cache:6379"`
	LimitCents        int64         `env:"PAYMENT_LIMIT_CENTS" envDefault:"50000"`
	IdempotencyTTL    time.Duration `env:"PAYMENT_IDEMPOTENCY_TTL" envDefault:"24h"`
	AllowedCurrencies []string      `env:"PAYMENT_CURRENCIES" envSeparator:"," envDefault:"USD"`
}

// LoadStorefront parses the storefront configuration.
func LoadStorefront() (Storefront, error) {
	var cfg Storefront
	if err := ParseEnv(&cfg); err != nil {
		return Storefront{}, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "storefront"
	}
	switch cfg.PaymentGateway {
	case "grpc", "fake":
	default:
		return Storefront{}, fmt.Errorf("PAYMENT_GATEWAY must be grpc or fake, got %q", cfg.PaymentGateway)
	}
	switch cfg.CacheBackend {
	case "redis", "memory":
	default:
		return Storefront{}, fmt.Errorf("CACHE_BACKEND must be redis or memory, got %q", cfg.CacheBackend)
	}
	return cfg, nil
}

// LoadPaymentService parses the payment service configuration.
func LoadPaymentService() (PaymentService, error) {
	var cfg PaymentService
	if err := ParseEnv(&cfg); err != nil {
		return PaymentService{}, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "payment-service"
	}
	if cfg.LimitCents <= 0 {
		return PaymentService{}, fmt.Errorf("PAYMENT_LIMIT_CENTS must be positive, got %d", cfg.LimitCents)
	}
	return cfg, nil
}
