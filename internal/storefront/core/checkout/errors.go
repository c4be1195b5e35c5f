package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPaymentInProgress rejects a transition while a gateway call is pending.
	ErrPaymentInProgress = errors.New("checkout: payment already in progress")
	// ErrCheckoutComplete rejects any transition out of Confirmation.
	ErrCheckoutComplete = errors.New("checkout: already complete")
	// ErrAtFirstStep rejects Back from CartReview.
	ErrAtFirstStep = errors.New("checkout: already at first step")
	// ErrGatewayPanic wraps a panic raised inside the payment gateway.
	ErrGatewayPanic = errors.New("checkout: payment gateway panicked")
)

// ValidationError lists the required fields left blank on a step.
type ValidationError struct {
	Step   Step
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Step, strings.Join(e.Fields, ", "))
}

// PaymentFailedError is a charge the gateway declined. Message is the
// gateway's own text.
type PaymentFailedError struct {
	Status  string
	Message string
}

func (e *PaymentFailedError) Error() string {
	if e.Message == "" {
		return "payment declined"
	}
	return e.Message
}
