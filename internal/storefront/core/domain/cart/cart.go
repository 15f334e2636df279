// Package cart holds the buyer-side cart: an ordered list of product
// quantities. Prices never live here; the charge is always recomputed from
// the catalog at checkout time.
package cart

// Entry is one product line in a buyer's cart. Quantity is always >= 1.
type Entry struct {
	ProductID string
	Quantity  int
}

// CheckoutItem is what a cart submits for checkout.
type CheckoutItem struct {
	ProductID string
	Quantity  int
}

// Increment raises the quantity by one. Any upper bound is enforced upstream.
func Increment(e *Entry) {
	e.Quantity++
}

// Decrement lowers the quantity by one, stopping at 1.
func Decrement(e *Entry) {
	if e.Quantity > 1 {
		e.Quantity--
	}
}

type Cart struct {
	entries []*Entry
}

func New() *Cart {
	return &Cart{}
}

// Add puts productID in the cart with quantity 1, or increments it if it is
// already there.
func (c *Cart) Add(productID string) *Entry {
	if e := c.Entry(productID); e != nil {
		Increment(e)
		return e
	}
	e := &Entry{ProductID: productID, Quantity: 1}
	c.entries = append(c.entries, e)
	return e
}

// Entry returns the entry for productID, or nil.
func (c *Cart) Entry(productID string) *Entry {
	for _, e := range c.entries {
		if e.ProductID == productID {
			return e
		}
	}
	return nil
}

func (c *Cart) Len() int {
	return len(c.entries)
}

// ToCheckoutRequest returns the entries in insertion order.
func (c *Cart) ToCheckoutRequest() []CheckoutItem {
	items := make([]CheckoutItem, len(c.entries))
	for i, e := range c.entries {
		items[i] = CheckoutItem{
			ProductID: e.ProductID,
			Quantity:  e.Quantity,
		}
	}
	return items
}
