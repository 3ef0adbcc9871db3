package currency

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount is not a finite number greater than zero.
var ErrInvalidAmount = errors.New("amount must be a positive number")

// ValidateAmount checks that amount can be submitted for conversion.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseAmount turns user input into a conversion amount. A comma is accepted
// as the decimal separator.
func ParseAmount(input string) (float64, error) {
	s := strings.TrimSpace(input)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	amount, _ := d.Float64()
	if err := ValidateAmount(amount); err != nil {
		return 0, fmt.Errorf("%w: %q", err, input)
	}
	return amount, nil
}

// FormatAmount renders amount as a decimal string without exponent, suitable
// for query parameters.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).String()
}

// Display renders a converted value the way front ends show it, e.g. "512.34 BRL".
func Display(value float64, code string) string {
	return fmt.Sprintf("%.2f %s", value, code)
}
