package money

import (
	"errors"
	"math"
)

var (
	ErrNegative   = errors.New("money: amount must be non-negative")
	ErrOutOfRange = errors.New("money: result out of range")
)

// Money keeps amounts as integer minor units (two decimal places) to avoid
// floating point issues. A single currency is assumed across the system.
type Money struct {
	Amount int64
}

// FromMinor constructs Money from minor units, rejecting negative amounts.
func FromMinor(amount int64) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegative
	}
	return Money{Amount: amount}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64) Money {
	m, err := FromMinor(amount)
	if err != nil {
		panic(err)
	}
	return m
}

// Add adds two money values.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount}
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) Money {
	return Money{Amount: m.Amount - other.Amount}
}

// Multiply scales a non-negative amount by a non-negative factor and fails
// instead of wrapping past int64.
func (m Money) Multiply(times int64) (Money, error) {
	if m.Amount < 0 || times < 0 {
		return Money{}, ErrOutOfRange
	}
	if times != 0 && m.Amount > math.MaxInt64/times {
		return Money{}, ErrOutOfRange
	}
	return Money{Amount: m.Amount * times}, nil
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// PercentChange returns (m - previous) / previous * 100. ok is false when
// previous is zero and the change is undefined.
func (m Money) PercentChange(previous Money) (change float64, ok bool) {
	if previous.Amount == 0 {
		return 0, false
	}
	return float64(m.Amount-previous.Amount) / float64(previous.Amount) * 100, true
}

// Sum totals the provided values.
func Sum(values ...Money) Money {
	var total Money
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
