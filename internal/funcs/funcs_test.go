package funcs

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "decimal", in: decimal.RequireFromString("12.5"), want: "12.50"},
		{name: "decimal pointer", in: decimal.New(3, 0).Add(decimal.New(1, -2)), want: "3.01"},
		{name: "nil pointer", in: (*decimal.Decimal)(nil), want: "0.00"},
		{name: "numeric string", in: "7", want: "7.00"},
		{name: "garbage string", in: "n/a", want: "n/a"},
		{name: "float", in: 1.005, want: "1.01"},
		{name: "unknown type", in: 12, want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatMoney(tt.in))
		})
	}
}
