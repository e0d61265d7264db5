package service

import (
	"testing"

	"github.com/Eursukkul/stay-booking/internal/models"
	"github.com/stretchr/testify/assert"
)

func amount(v int64) *int64 { return &v }

func TestAmountMatches(t *testing.T) {
	booking := &models.Booking{TotalPriceKRW: 150000, TotalPriceUSD: 11000}
	recorded := &models.Payment{AmountKRW: 140000}
	unrecorded := &models.Payment{}

	tests := []struct {
		name     string
		payment  *models.Payment
		actual   *int64
		currency string
		want     bool
	}{
		{"no provider amount", recorded, nil, "KRW", true},
		{"krw against payment row", recorded, amount(140000), "KRW", true},
		{"krw payment row wins over booking total", recorded, amount(150000), "KRW", false},
		{"krw falls back to booking total", unrecorded, amount(150000), "KRW", true},
		{"krw without payment row", nil, amount(150000), "KRW", true},
		{"krw mismatch", unrecorded, amount(100000), "KRW", false},
		{"usd against booking", recorded, amount(11000), "USD", true},
		{"usd mismatch", recorded, amount(10999), "USD", false},
		{"currency is case-insensitive", unrecorded, amount(150000), "krw", true},
		{"unknown currency passes", recorded, amount(1), "JPY", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountMatches(booking, tt.payment, tt.actual, tt.currency))
		})
	}
}

func TestExpectedAmount_UnknownCurrency(t *testing.T) {
	_, ok := ExpectedAmount(&models.Booking{}, nil, "EUR")
	assert.False(t, ok)
}
