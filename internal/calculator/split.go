package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoParticipants = errors.New("must have at least one participant")
	ErrSharesMismatch = errors.New("participant amounts must add up to the total")
)

// SplitEvenly divides total into n shares of whole cents. Remainder cents go
// to the first shares, so 10.00 across 3 is 3.34, 3.33, 3.33.
func SplitEvenly(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, ErrNoParticipants
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("total must be positive, got %s", total)
	}

	cents := ToMinorUnits(total)
	base := cents / int64(n)
	remainder := cents % int64(n)

	if base == 0 {
		return nil, fmt.Errorf("total %s is too small to split %d ways", total, n)
	}

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		share := base
		if int64(i) < remainder {
			share++
		}
		shares[i] = FromMinorUnits(share)
	}

	return shares, nil
}

// ValidateShares checks explicit amounts: each positive and together equal to total.
func ValidateShares(total decimal.Decimal, shares []decimal.Decimal) error {
	if len(shares) == 0 {
		return ErrNoParticipants
	}

	sum := decimal.Zero
	for _, s := range shares {
		if !s.IsPositive() {
			return fmt.Errorf("participant amount must be positive, got %s", s)
		}
		sum = sum.Add(s)
	}

	if !sum.Equal(total) {
		return fmt.Errorf("%w: %s != %s", ErrSharesMismatch, sum.StringFixed(2), total.StringFixed(2))
	}

	return nil
}

func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
