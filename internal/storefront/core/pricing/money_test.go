package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"

	"github.com/jcmexdev/storefront/internal/storefront/core/pricing"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		name  string
		price string
		cur   currency.Unit
		want  int64
	}{
		{"half rounds up", "19.995", currency.USD, 2000},
		{"exact cents", "9.99", currency.USD, 999},
		{"below half", "0.004", currency.USD, 0},
		{"zero", "0", currency.USD, 0},
		{"whole dollars", "120", currency.USD, 12000},
		{"zero decimal currency", "1500.5", currency.JPY, 1501},
		{"three decimal currency", "1.2345", currency.MustParseISO("KWD"), 1235},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pricing.MinorUnits(decimal.RequireFromString(tt.price), tt.cur)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinorUnits_Negative(t *testing.T) {
	_, err := pricing.MinorUnits(decimal.RequireFromString("-1.00"), currency.USD)
	assert.Error(t, err)
}

func TestFromMinorUnits(t *testing.T) {
	got := pricing.FromMinorUnits(1998, currency.USD)
	assert.True(t, got.Equal(decimal.RequireFromString("19.98")), got.String())
}
