package pricing

import "fmt"

// InvalidCartError reports a checkout request that cannot be priced at all.
type InvalidCartError struct {
	Reason string
}

func (e *InvalidCartError) Error() string {
	return "invalid cart: " + e.Reason
}

// ProductNotFoundError reports a cart entry whose product the catalog does
// not know. Err carries the catalog's own error.
type ProductNotFoundError struct {
	ProductID string
	Err       error
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %q not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error {
	return e.Err
}
