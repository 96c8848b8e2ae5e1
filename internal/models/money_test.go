package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"5", 500, false},
		{"0.01", 1, false},
		{"1300", 130000, false},
		{"12.345", 0, true},
		{"0", 0, true},
		{"-3.50", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePriceCents(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "12.34", FormatCents(1234))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "13.00", FormatCents(1300))
}

func TestResolvedCartTotal(t *testing.T) {
	cart := &ResolvedCart{
		Items: []ResolvedCartItem{
			{ProductID: "a", Quantity: 2, Product: &Product{ID: "a", PriceCents: 500}},
			{ProductID: "b", Quantity: 1, Product: &Product{ID: "b", PriceCents: 300}},
		},
	}
	assert.Equal(t, int64(1300), cart.TotalCents())
	assert.False(t, cart.HasMissingProducts())

	cart.Items = append(cart.Items, ResolvedCartItem{ProductID: "gone", Quantity: 1})
	assert.True(t, cart.HasMissingProducts())
	assert.Equal(t, int64(1300), cart.TotalCents(), "missing lines contribute nothing")
}
