// Package checkoutlog is the append-only audit trail of checkout sequences.
//
// Every transition a sequence makes (or refuses to make) is written as one
// row, tagged with the OpenTelemetry trace that produced it, so a support
// engineer can see where a buyer got stuck and jump to the matching trace.
package checkoutlog

import "time"

// Status is the kind of transition recorded.
type Status string

const (
	StatusStarted          Status = "STARTED"
	StatusStepAdvanced     Status = "STEP_ADVANCED"
	StatusStepReversed     Status = "STEP_REVERSED"
	StatusValidationFailed Status = "VALIDATION_FAILED"
	StatusPaymentFailed    Status = "PAYMENT_FAILED"
	StatusCompleted        Status = "COMPLETED"
	StatusAbandoned        Status = "ABANDONED"
)

// Entry is a single row in the checkout_logs table.
type Entry struct {
	// CheckoutID identifies one checkout sequence.
	CheckoutID string

	Status Status

	// Step is the step the sequence is on after the transition.
	Step string

	// Payload is a JSON snapshot relevant to the transition (cart totals on
	// STARTED, the confirmation on COMPLETED). Empty otherwise.
	Payload string

	// ErrorMessage is the validation or gateway message for failed transitions.
	ErrorMessage string

	TraceID string
	SpanID  string

	CreatedAt time.Time
}
