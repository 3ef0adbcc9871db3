package provider

import (
	"context"

	"github.com/amirasaad/fxconvert/pkg/currency"
)

// ConversionResponse is the body of a latest-rates lookup.
type ConversionResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// Rate returns the converted value for code and whether the response carries one.
func (r *ConversionResponse) Rate(code string) (float64, bool) {
	if r == nil {
		return 0, false
	}
	v, ok := r.Rates[code]
	return v, ok
}

// RateClient defines the read operations against an exchange-rate service.
// Implementations perform no validation, retry or caching.
type RateClient interface {
	// ListCurrencies fetches the supported currencies, keyed by code.
	ListCurrencies(ctx context.Context) (currency.Table, error)

	// GetLatestRate converts amount from one currency to another at the
	// latest published rate.
	GetLatestRate(ctx context.Context, amount float64, from, to string) (*ConversionResponse, error)
}
