package domain

import "time"

type Payment struct {
	ID             string
	IdempotencyKey string
	AmountCents    int64
	Currency       string
	BuyerEmail     string
	Status         PaymentStatus
	CreatedAt      time.Time
	RefundedAt     time.Time
}

type PaymentStatus string

const (
	StatusSucceeded PaymentStatus = "succeeded"
	StatusRefunded  PaymentStatus = "refunded"
)
