// Package cart holds the buyer's line items and derives the cart totals.
//
// A Ledger is owned by a single session and is not safe for concurrent use;
// the session layer serialises access.
package cart

// LineItem is one product in the cart.
type LineItem struct {
	ID             string
	UnitPriceCents int64
	Quantity       int

	// Display metadata. Nothing in the ledger depends on it.
	Title    string
	Image    string
	Category string
}

// SubtotalCents is UnitPriceCents × Quantity.
func (i LineItem) SubtotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// Totals are derived from the current line items on every call.
type Totals struct {
	TotalItems      int
	TotalPriceCents int64
}

// Ledger is the ordered collection of line items keyed by product id.
// The zero value is an empty ledger.
type Ledger struct {
	order []string
	items map[string]*LineItem
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{items: make(map[string]*LineItem)}
}

// AddItem increments the quantity of an existing line by one, or inserts
// item with quantity 1. The caller's Quantity is ignored.
func (l *Ledger) AddItem(item LineItem) {
	if l.items == nil {
		l.items = make(map[string]*LineItem)
	}
	if existing, ok := l.items[item.ID]; ok {
		existing.Quantity++
		return
	}
	item.Quantity = 1
	l.items[item.ID] = &item
	l.order = append(l.order, item.ID)
}

// RemoveItem deletes the line for id. Removing an absent id is a no-op.
func (l *Ledger) RemoveItem(id string) {
	if _, ok := l.items[id]; !ok {
		return
	}
	delete(l.items, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero
// or less removes the line. Unknown ids are ignored.
func (l *Ledger) UpdateQuantity(id string, quantity int) {
	item, ok := l.items[id]
	if !ok {
		return
	}
	if quantity <= 0 {
		l.RemoveItem(id)
		return
	}
	item.Quantity = quantity
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.order = nil
	l.items = make(map[string]*LineItem)
}

// Totals recomputes the aggregate item count and price.
func (l *Ledger) Totals() Totals {
	var t Totals
	for _, item := range l.items {
		t.TotalItems += item.Quantity
		t.TotalPriceCents += item.SubtotalCents()
	}
	return t
}

// Items returns a copy of the line items in insertion order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.items[id])
	}
	return out
}

// Item returns the line for id.
func (l *Ledger) Item(id string) (LineItem, bool) {
	item, ok := l.items[id]
	if !ok {
		return LineItem{}, false
	}
	return *item, true
}

// Len is the number of distinct line items.
func (l *Ledger) Len() int {
	return len(l.items)
}
