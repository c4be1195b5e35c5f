package entity

// Address is a postal address used for shipping and billing.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// PaymentRequest is one charge attempt. IdempotencyKey must be fresh per attempt.
type PaymentRequest struct {
	AmountCents    int64
	Currency       string
	BuyerEmail     string
	BillingAddress *Address
	IdempotencyKey string
}

// PaymentResult is the gateway's answer to a PaymentRequest.
type PaymentResult struct {
	Success   bool
	PaymentID string
	Status    string
	Error     string
}
