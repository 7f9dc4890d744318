package validator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCheck(t *testing.T) {
	var v Validator
	require.False(t, v.HasErrors())

	v.Check(true, "never added")
	v.Check(false, "Name is required")
	v.Check(false, "Email is required")
	v.Check(false, "Name is required")

	require.True(t, v.HasErrors())
	require.Equal(t, []string{"Name is required", "Email is required"}, v.Errors)
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("ada@example.com"))
	assert.False(t, IsEmail("ada@"))
	assert.False(t, IsEmail("not an email"))
}

func TestPhoneNumberFormat(t *testing.T) {
	assert.True(t, Matches("+14155550123", RgxPhoneNumber))
	assert.False(t, Matches("4155550123", RgxPhoneNumber))
	assert.False(t, Matches("+0123", RgxPhoneNumber))
}

func TestIsCurrency(t *testing.T) {
	assert.True(t, IsCurrency("USD"))
	assert.True(t, IsCurrency("EUR"))
	assert.False(t, IsCurrency("US"))
	assert.False(t, IsCurrency("XYZ"))
}

func TestIsPositiveAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"10", true},
		{"10.25", true},
		{"0", false},
		{"-5", false},
		{"1.005", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPositiveAmount(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestPermittedValue(t *testing.T) {
	assert.True(t, PermittedValue("card", "card", "ach", "apple_pay"))
	assert.False(t, PermittedValue("cash", "card", "ach", "apple_pay"))
}

func TestIsAdult(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsAdult(time.Date(2008, 6, 15, 0, 0, 0, 0, time.UTC), now))
	assert.False(t, IsAdult(time.Date(2008, 6, 16, 0, 0, 0, 0, time.UTC), now))
}
