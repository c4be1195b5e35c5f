package checkout

// Step is a position in the linear checkout flow.
type Step int

const (
	CartReview Step = iota
	ShippingInfo
	PaymentMethod
	Confirmation
)

// Steps lists every step in order.
var Steps = []Step{CartReview, ShippingInfo, PaymentMethod, Confirmation}

func (s Step) String() string {
	switch s {
	case CartReview:
		return "CartReview"
	case ShippingInfo:
		return "ShippingInfo"
	case PaymentMethod:
		return "PaymentMethod"
	case Confirmation:
		return "Confirmation"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s Step) IsTerminal() bool {
	return s == Confirmation
}
