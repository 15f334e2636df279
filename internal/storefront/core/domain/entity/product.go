package entity

import "github.com/shopspring/decimal"

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ImageRef    string          `json:"image_ref"`
	Description string          `json:"description"`
	Features    []string        `json:"features"`
	Rating      float64         `json:"rating"`
	Category    string          `json:"category"`
}
