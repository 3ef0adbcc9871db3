// Package currency provides a currency table fixture in the shape the
// exchange-rate API returns from /currencies.
package currency

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/amirasaad/fxconvert/pkg/currency"
)

//go:embed currencies.json
var currenciesJSON []byte

// RawTable returns the embedded /currencies response body.
func RawTable() []byte {
	return currenciesJSON
}

// LoadTable loads a currency table from a JSON file, or the embedded
// fixture when path is empty.
func LoadTable(path string) (currency.Table, error) {
	raw := currenciesJSON
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		raw = b
	}

	var table currency.Table
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("invalid currency fixture: %w", err)
	}
	for code := range table {
		if !currency.IsValidCode(code) {
			return nil, fmt.Errorf("invalid currency fixture: %w: %q", currency.ErrInvalidCurrencyCode, code)
		}
	}
	return table, nil
}

// MustLoadTable is LoadTable("") that panics on error.
func MustLoadTable() currency.Table {
	table, err := LoadTable("")
	if err != nil {
		panic(err)
	}
	return table
}
