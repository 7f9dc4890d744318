// Template helpers shared by the email templates in assets/emails.
package funcs

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var TemplateFuncs = map[string]any{
	"money":      formatMoney,
	"uppercase":  strings.ToUpper,
	"formatTime": formatTime,
}

func formatMoney(v any) string {
	switch amount := v.(type) {
	case decimal.Decimal:
		return amount.StringFixed(2)
	case *decimal.Decimal:
		if amount == nil {
			return "0.00"
		}
		return amount.StringFixed(2)
	case string:
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return amount
		}
		return d.StringFixed(2)
	case float64:
		return decimal.NewFromFloat(amount).StringFixed(2)
	default:
		return "0.00"
	}
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}
