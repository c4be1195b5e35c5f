// Package payment is the wire contract of the payment.v1.Payment gRPC
// service. Payloads travel as google.protobuf.Struct so the contract needs
// no generated code.
package payment

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Address is a billing address attached to a charge.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// ChargeRequest asks the gateway to capture AmountCents.
type ChargeRequest struct {
	IdempotencyKey string
	AmountCents    int64
	Currency       string
	BuyerEmail     string
	BillingAddress *Address
}

// ChargeResponse is the gateway's verdict. A decline is Success=false with
// Error set; it is not a transport error.
type ChargeResponse struct {
	Success   bool
	PaymentID string
	Status    string
	Error     string
}

// RefundRequest reverses a previous charge.
type RefundRequest struct {
	PaymentID string
}

type RefundResponse struct {
	Success bool
}

// Payment statuses reported in ChargeResponse.Status.
const (
	StatusSucceeded = "succeeded"
	StatusDeclined  = "declined"
	StatusRefunded  = "refunded"
)

func (r *ChargeRequest) toStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		"idempotency_key": r.IdempotencyKey,
		"amount_cents":    float64(r.AmountCents),
		"currency":        r.Currency,
		"buyer_email":     r.BuyerEmail,
	}
	if a := r.BillingAddress; a != nil {
		fields["billing_address"] = map[string]any{
			"line1":       a.Line1,
			"line2":       a.Line2,
			"city":        a.City,
			"state":       a.State,
			"postal_code": a.PostalCode,
			"country":     a.Country,
		}
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode charge request: %w", err)
	}
	return s, nil
}

func chargeRequestFromStruct(s *structpb.Struct) *ChargeRequest {
	f := s.GetFields()
	req := &ChargeRequest{
		IdempotencyKey: f["idempotency_key"].GetStringValue(),
		AmountCents:    int64(f["amount_cents"].GetNumberValue()),
		Currency:       f["currency"].GetStringValue(),
		BuyerEmail:     f["buyer_email"].GetStringValue(),
	}
	if addr := f["billing_address"].GetStructValue(); addr != nil {
		af := addr.GetFields()
		req.BillingAddress = &Address{
			Line1:      af["line1"].GetStringValue(),
			Line2:      af["line2"].GetStringValue(),
			City:       af["city"].GetStringValue(),
			State:      af["state"].GetStringValue(),
			PostalCode: af["postal_code"].GetStringValue(),
			Country:    af["country"].GetStringValue(),
		}
	}
	return req
}

func (r *ChargeResponse) toStruct() (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"success":    r.Success,
		"payment_id": r.PaymentID,
		"status":     r.Status,
		"error":      r.Error,
	})
	if err != nil {
		return nil, fmt.Errorf("encode charge response: %w", err)
	}
	return s, nil
}

func chargeResponseFromStruct(s *structpb.Struct) *ChargeResponse {
	f := s.GetFields()
	return &ChargeResponse{
		Success:   f["success"].GetBoolValue(),
		PaymentID: f["payment_id"].GetStringValue(),
		Status:    f["status"].GetStringValue(),
		Error:     f["error"].GetStringValue(),
	}
}

func (r *RefundRequest) toStruct() (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{"payment_id": r.PaymentID})
	if err != nil {
		return nil, fmt.Errorf("encode refund request: %w", err)
	}
	return s, nil
}

func refundRequestFromStruct(s *structpb.Struct) *RefundRequest {
	return &RefundRequest{PaymentID: s.GetFields()["payment_id"].GetStringValue()}
}

func (r *RefundResponse) toStruct() (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{"success": r.Success})
	if err != nil {
		return nil, fmt.Errorf("encode refund response: %w", err)
	}
	return s, nil
}

func refundResponseFromStruct(s *structpb.Struct) *RefundResponse {
	return &RefundResponse{Success: s.GetFields()["success"].GetBoolValue()}
}
