package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents). Stored as an integer to avoid
// float drift in running totals.
type Money int64

const moneyScale = 2

var (
	ErrMoneyPrecision = errors.New("amount has more than two decimal places")
	ErrMoneyRange     = errors.New("amount out of range")
)

// maxCents keeps values exactly representable in JSON numbers (2^53).
var maxCents = decimal.NewFromInt(1 << 53)

// Exponent and magnitude bounds are checked before any rescaling so inputs
// like 1e10000000 are rejected without building huge intermediates.
const (
	maxExponent  = 16
	minExponent  = -20
	maxIntDigits = 16
)

// MoneyFromDecimal converts d to Money. Fractions finer than a cent are rejected
// rather than rounded.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.Exponent() > maxExponent {
		return 0, ErrMoneyRange
	}
	if d.Exponent() < minExponent {
		return 0, ErrMoneyPrecision
	}
	if d.NumDigits()+int(d.Exponent()) > maxIntDigits {
		return 0, ErrMoneyRange
	}

	cents := d.Shift(moneyScale)
	if !cents.IsInteger() {
		return 0, ErrMoneyPrecision
	}
	if cents.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %s", ErrMoneyRange, d.String())
	}
	return Money(cents.IntPart()), nil
}

// MustMoney parses s or panics. Intended for fixtures and seed data.
func MustMoney(s string) Money {
	m, err := MoneyFromDecimal(decimal.RequireFromString(s))
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -moneyScale)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(moneyScale)
}

// MarshalJSON writes a JSON number with exactly two fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	err := d.UnmarshalJSON(b)
	if err != nil {
		return err
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
