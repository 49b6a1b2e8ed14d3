package validation

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/templui/stash/internal/model"
)

// MaxAmount caps a single goal target or sacrifice amount.
var MaxAmount = model.Money(100_000_000)

// ValidateAmount checks that d is a strictly positive amount with at most two
// decimal places and converts it to Money.
func ValidateAmount(field string, d decimal.Decimal) (model.Money, error) {
	if !d.IsPositive() {
		return 0, invalid(field, "must be greater than zero")
	}

	m, err := model.MoneyFromDecimal(d)
	if errors.Is(err, model.ErrMoneyPrecision) {
		return 0, invalid(field, "must have at most two decimal places")
	}
	// Covers ErrMoneyRange too.
	if err != nil || m > MaxAmount {
		return 0, invalid(field, "must not exceed "+MaxAmount.String())
	}

	return m, nil
}
