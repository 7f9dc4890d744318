package calculator

import "github.com/shopspring/decimal"

func Funded(balance, target decimal.Decimal) bool {
	return balance.GreaterThanOrEqual(target)
}

// Remaining never goes below zero; pools may be over-funded.
func Remaining(balance, target decimal.Decimal) decimal.Decimal {
	return decimal.Max(target.Sub(balance), decimal.Zero)
}

// CardLimit is the pool balance, capped by the payer's spend cap when one is set.
func CardLimit(balance decimal.Decimal, spendCap decimal.NullDecimal) decimal.Decimal {
	if spendCap.Valid && spendCap.Decimal.LessThan(balance) {
		return spendCap.Decimal
	}
	return balance
}
