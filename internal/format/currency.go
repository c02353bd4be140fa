// Package format renders numbers and dates the way the dashboard shows them
// to Brazilian users.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	currencySymbol = "R$"
	zeroCurrency   = currencySymbol + " 0,00"

	// InvalidValue replaces anything Currency cannot render.
	InvalidValue = "Invalid value"
)

// Currency renders v as "R$ 1.234,50".
//
// nil, NaN and nil decimal pointers render as "R$ 0,00". Infinities and
// unsupported types render as InvalidValue.
func Currency(v any) string {
	d, ok := toDecimal(v)
	if !ok {
		return InvalidValue
	}
	return currencySymbol + " " + brazilianFixed(d, 2)
}

// CurrencyDecimal is Currency for callers that already hold a decimal.
func CurrencyDecimal(d decimal.Decimal) string {
	return currencySymbol + " " + brazilianFixed(d, 2)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, true
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero, true
		}
		return *n, true
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return decimal.NewFromUint64(uint64(n)), true
	case uint32:
		return decimal.NewFromUint64(uint64(n)), true
	case uint64:
		return decimal.NewFromUint64(n), true
	default:
		return decimal.Zero, false
	}
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	switch {
	case math.IsNaN(f):
		return decimal.Zero, true
	case math.IsInf(f, 0):
		return decimal.Zero, false
	default:
		return decimal.NewFromFloat(f), true
	}
}

// brazilianFixed formats d with the given decimals, "." grouping thousands
// and "," as decimal separator.
func brazilianFixed(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 1)
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}
