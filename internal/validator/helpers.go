package validator

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"golang.org/x/text/currency"
)

var (
	RgxEmail       = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")
	RgxPhoneNumber = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	RgxSSN         = regexp.MustCompile(`^\d{9}$`)
	RgxCountryCode = regexp.MustCompile(`^[A-Z]{2}$`)
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MinRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) >= n
}

func MaxRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

func IsEmail(value string) bool {
	if len(value) > 254 {
		return false
	}

	return RgxEmail.MatchString(value)
}

func PermittedValue[T comparable](value T, permittedValues ...T) bool {
	return slices.Contains(permittedValues, value)
}

// IsCurrency reports whether value is an ISO 4217 currency code such as "USD".
func IsCurrency(value string) bool {
	if len(value) != 3 {
		return false
	}

	_, err := currency.ParseISO(value)
	return err == nil
}

// IsPositiveAmount accepts amounts greater than zero with at most two decimal places.
func IsPositiveAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(2))
}

// IsAdult reports whether someone born on dob is at least 18 years old at now.
func IsAdult(dob, now time.Time) bool {
	return !dob.AddDate(18, 0, 0).After(now)
}
