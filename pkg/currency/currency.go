package currency

import (
	"errors"
	"maps"
	"regexp"
	"slices"
	"sort"
)

const (
	// DefaultFrom is the source currency preselected by front ends.
	DefaultFrom = "USD"
	// DefaultTo is the target currency preselected by front ends.
	DefaultTo = "BRL"
	// DefaultDisplayLimit caps how many currencies a picker lists.
	DefaultDisplayLimit = 50
)

// PriorityCodes are listed ahead of every other currency, in this order.
var PriorityCodes = []string{"USD", "BRL", "EUR", "GBP", "JPY", "AUD", "CAD"}

var (
	// ErrInvalidCurrencyCode is returned for codes that are not three uppercase letters.
	ErrInvalidCurrencyCode = errors.New("invalid currency code")

	codePattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Table maps a currency code to its display name.
type Table map[string]string

// Entry is one row of a display list.
type Entry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// IsValidCode reports whether code looks like an ISO 4217 code.
func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Has reports whether the table knows code.
func (t Table) Has(code string) bool {
	_, ok := t[code]
	return ok
}

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	return maps.Clone(t)
}

// DisplayOrder returns the table's codes with PriorityCodes first and the
// rest sorted alphabetically, truncated to limit. A limit <= 0 means no limit.
func (t Table) DisplayOrder(limit int) []string {
	codes := make([]string, 0, len(t))
	for _, code := range PriorityCodes {
		if t.Has(code) {
			codes = append(codes, code)
		}
	}

	rest := make([]string, 0, len(t))
	for code := range t {
		if !slices.Contains(PriorityCodes, code) {
			rest = append(rest, code)
		}
	}
	sort.Strings(rest)
	codes = append(codes, rest...)

	if limit > 0 && len(codes) > limit {
		codes = codes[:limit]
	}
	return codes
}

// Entries is DisplayOrder with names attached.
func (t Table) Entries(limit int) []Entry {
	codes := t.DisplayOrder(limit)
	entries := make([]Entry, 0, len(codes))
	for _, code := range codes {
		entries = append(entries, Entry{Code: code, Name: t[code]})
	}
	return entries
}
