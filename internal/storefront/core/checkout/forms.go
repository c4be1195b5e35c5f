package checkout

import (
	"strings"

	"github.com/jcmexdev/seating-storefront/internal/storefront/core/domain/entity"
)

// ShippingForm is collected on the ShippingInfo step.
type ShippingForm struct {
	FullName string
	Email    string
	Phone    string
	Address  entity.Address
}

// Validate reports every required field that is blank.
func (f ShippingForm) Validate() error {
	missing := blank(
		field{"full_name", f.FullName},
		field{"email", f.Email},
		field{"address.line1", f.Address.Line1},
		field{"address.city", f.Address.City},
		field{"address.state", f.Address.State},
		field{"address.postal_code", f.Address.PostalCode},
		field{"address.country", f.Address.Country},
	)
	if len(missing) > 0 {
		return &ValidationError{Step: ShippingInfo, Fields: missing}
	}
	return nil
}

// PaymentForm is collected on the PaymentMethod step. Card data itself never
// reaches this service; the gateway collects it.
type PaymentForm struct {
	Method                string
	CardholderName        string
	BillingSameAsShipping bool
	Billing               entity.Address
}

// Validate reports every required field that is blank. The billing address
// is only required when it differs from the shipping address.
func (f PaymentForm) Validate() error {
	fields := []field{
		{"method", f.Method},
		{"cardholder_name", f.CardholderName},
	}
	if !f.BillingSameAsShipping {
		fields = append(fields,
			field{"billing.line1", f.Billing.Line1},
			field{"billing.city", f.Billing.City},
			field{"billing.postal_code", f.Billing.PostalCode},
			field{"billing.country", f.Billing.Country},
		)
	}
	if missing := blank(fields...); len(missing) > 0 {
		return &ValidationError{Step: PaymentMethod, Fields: missing}
	}
	return nil
}

type field struct {
	name  string
	value string
}

func blank(fields ...field) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
