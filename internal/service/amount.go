package service

import (
	"strings"

	"github.com/Eursukkul/stay-booking/internal/models"
)

const (
	CurrencyKRW = "KRW"
	CurrencyUSD = "USD"
)

// ExpectedAmount is what the booking should have been charged in currency.
// ok is false for currencies the booking is not priced in.
func ExpectedAmount(b *models.Booking, p *models.Payment, currency string) (amount int64, ok bool) {
	switch strings.ToUpper(currency) {
	case CurrencyKRW:
		if p != nil && p.AmountKRW > 0 {
			return p.AmountKRW, true
		}
		return b.TotalPriceKRW, true
	case CurrencyUSD:
		return b.TotalPriceUSD, true
	default:
		return 0, false
	}
}

// AmountMatches reports whether the provider-reported charge agrees with the
// booking. A missing amount or an unknown currency cannot contradict it.
func AmountMatches(b *models.Booking, p *models.Payment, actual *int64, currency string) bool {
	if actual == nil {
		return true
	}
	expected, ok := ExpectedAmount(b, p, currency)
	if !ok {
		return true
	}
	return expected == *actual
}
