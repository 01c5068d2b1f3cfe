// Package fee computes the provider fee charged on a successful withdrawal.
package fee

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/paycms/console/internal/domain"
)

// ratesByService is the fraction of the requested amount charged per
// service code.
var ratesByService = map[domain.ServiceCode]decimal.Decimal{
	domain.ServiceBank: decimal.RequireFromString("0.01"),
	domain.ServiceCard: decimal.RequireFromString("0.01"),
}

// Rate returns the fee rate for a service code.
func Rate(svc domain.ServiceCode) (decimal.Decimal, error) {
	rate, ok := ratesByService[svc]
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported service code: %s", svc)
	}
	return rate, nil
}

// Calculate returns the fee for a requested amount (whole won, as sent on
// the wire) rounded to whole won.
func Calculate(reqAmt string, svc domain.ServiceCode) (string, error) {
	amount, err := ParseAmount(reqAmt)
	if err != nil {
		return "", err
	}
	rate, err := Rate(svc)
	if err != nil {
		return "", err
	}
	return amount.Mul(rate).Round(0).String(), nil
}

// ParseAmount validates a requested amount: a positive whole number.
func ParseAmount(reqAmt string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(reqAmt)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", reqAmt, err)
	}
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("amount %q must be a positive whole number", reqAmt)
	}
	return amount, nil
}
