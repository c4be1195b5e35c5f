package entity

// Product is a catalog entry as served by the remote catalog API.
type Product struct {
	ID         string
	Title      string
	PriceCents int64
	Image      string
	Category   string
	Vendor     string
	Colors     []string
}

// ProductFilter narrows a catalog listing. Zero values mean "any".
type ProductFilter struct {
	Category string
	Search   string
	Vendor   string
}
