package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jcmexdev/seating-storefront/internal/payment-service/domain"
	"github.com/jcmexdev/seating-storefront/internal/pkg/cache"
	"github.com/jcmexdev/seating-storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/seating-storefront/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/seating-storefront/internal/pkg/rpc/payment"
)

// Options tune the simulated gateway.
type Options struct {
	LimitCents        int64
	AllowedCurrencies []string
	IdempotencyTTL    time.Duration
}

// Server simulates the payment processor behind the payment.v1.Payment service.
type Server struct {
	mu         sync.Mutex
	payments   map[string]*domain.Payment
	cache      cache.Cache
	limitCents int64
	currencies map[string]struct{}
	ttl        time.Duration
	now        func() time.Time
	newID      func() string
}

var _ payment.PaymentServer = (*Server)(nil)

// NewServer returns the gateway simulator. Charge results are stored in c
// under the caller's idempotency key and replayed on repeats.
func NewServer(c cache.Cache, opts Options) *Server {
	currencies := make(map[string]struct{}, len(opts.AllowedCurrencies))
	for _, cur := range opts.AllowedCurrencies {
		currencies[strings.ToUpper(strings.TrimSpace(cur))] = struct{}{}
	}
	return &Server{
		payments:   make(map[string]*domain.Payment),
		cache:      c,
		limitCents: opts.LimitCents,
		currencies: currencies,
		ttl:        opts.IdempotencyTTL,
		now:        time.Now,
		newID:      func() string { return "pay_" + uuid.NewString() },
	}
}

func (s *Server) Charge(ctx context.Context, req *payment.ChargeRequest) (*payment.ChargeResponse, error) {
	key := req.IdempotencyKey
	if key == "" {
		key = interceptors.GetMetadataValue(ctx, constants.HeaderXIdempotencyKey)
	}
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "idempotency key is required")
	}
	if req.AmountCents <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "amount must be positive, got %d", req.AmountCents)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cacheKey := s.cache.GenerateKey("charge", key)
	if replay, ok := s.replay(ctx, cacheKey); ok {
		slog.InfoContext(ctx, "replaying charge result", "idempotency_key", key, "payment_id", replay.PaymentID)
		return replay, nil
	}

	slog.InfoContext(ctx, "processing charge", "idempotency_key", key, "amount_cents", req.AmountCents, "currency", req.Currency)

	res := s.decide(req)
	if res.Success {
		s.payments[res.PaymentID] = &domain.Payment{
			ID:             res.PaymentID,
			IdempotencyKey: key,
			AmountCents:    req.AmountCents,
			Currency:       strings.ToUpper(req.Currency),
			BuyerEmail:     req.BuyerEmail,
			Status:         domain.StatusSucceeded,
			CreatedAt:      s.now(),
		}
		slog.InfoContext(ctx, "charge successful", "payment_id", res.PaymentID)
	} else {
		slog.WarnContext(ctx, "charge declined", "reason", res.Error)
	}

	s.remember(ctx, cacheKey, res)
	return res, nil
}

func (s *Server) Refund(ctx context.Context, req *payment.RefundRequest) (*payment.RefundResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.payments[req.PaymentID]
	if !exists {
		slog.WarnContext(ctx, "no payment found to refund", "payment_id", req.PaymentID)
		return &payment.RefundResponse{Success: true}, nil
	}
	if p.Status == domain.StatusRefunded {
		return &payment.RefundResponse{Success: true}, nil
	}

	p.Status = domain.StatusRefunded
	p.RefundedAt = s.now()
	slog.InfoContext(ctx, "refunded payment", "payment_id", p.ID, "amount_cents", p.AmountCents)

	return &payment.RefundResponse{Success: true}, nil
}

func (s *Server) decide(req *payment.ChargeRequest) *payment.ChargeResponse {
	if _, ok := s.currencies[strings.ToUpper(req.Currency)]; !ok {
		return &payment.ChargeResponse{Status: payment.StatusDeclined, Error: "unsupported currency " + req.Currency}
	}
	if req.AmountCents > s.limitCents {
		return &payment.ChargeResponse{Status: payment.StatusDeclined, Error: "payment declined: amount exceeds limit"}
	}
	return &payment.ChargeResponse{Success: true, PaymentID: s.newID(), Status: payment.StatusSucceeded}
}

func (s *Server) replay(ctx context.Context, cacheKey string) (*payment.ChargeResponse, bool) {
	raw, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		slog.WarnContext(ctx, "idempotency lookup failed", "key", cacheKey, "error", err)
		return nil, false
	}
	if raw == "" {
		return nil, false
	}
	var res payment.ChargeResponse
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		slog.WarnContext(ctx, "discarding unreadable idempotency record", "key", cacheKey, "error", err)
		return nil, false
	}
	return &res, true
}

func (s *Server) remember(ctx context.Context, cacheKey string, res *payment.ChargeResponse) {
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, b, s.ttl); err != nil {
		slog.WarnContext(ctx, "failed to store idempotency record", "key", cacheKey, "error", err)
	}
}
