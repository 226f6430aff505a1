package model

import "github.com/shopspring/decimal"

// Scales of the numeric columns holding money and quantities
const (
	MoneyScale    int32 = 2
	QuantityScale int32 = 3
)

// Exclusive upper bounds of the numeric columns. A value at or above its
// bound overflows the column.
var (
	MaxUnitPrice  = decimal.New(1, 10) // numeric(12,2)
	MaxQuantity   = decimal.New(1, 9)  // numeric(12,3)
	MaxLineTotal  = decimal.New(1, 12) // numeric(14,2)
	MaxOrderTotal = decimal.New(1, 10) // numeric(12,2)
)

// FitsColumn reports whether d is stored unchanged by a numeric column with
// the given scale and exclusive bound.
func FitsColumn(d decimal.Decimal, scale int32, bound decimal.Decimal) bool {
	return d.Equal(d.Truncate(scale)) && d.Abs().LessThan(bound)
}

// RoundMoney rounds half away from zero to cents
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
