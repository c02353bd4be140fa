package format

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var siPrefixes = []string{"", "k", "M", "G", "T"}

// Compact renders a value with two significant digits and an SI suffix, the
// short form used for labels drawn on top of chart bars: 2500000 -> "2.5M".
func Compact(d decimal.Decimal) string {
	f := d.InexactFloat64()
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	exp := int(math.Floor(math.Log10(f)))
	// two significant digits
	rounded := math.Round(f/math.Pow(10, float64(exp-1))) * math.Pow(10, float64(exp-1))
	if rounded >= math.Pow(10, float64(exp+1)) {
		exp++
	}

	tier := 0
	if exp > 0 {
		tier = exp / 3
	}
	if tier >= len(siPrefixes) {
		tier = len(siPrefixes) - 1
	}

	scaled := rounded / math.Pow(1000, float64(tier))
	decimals := 1 - (exp - tier*3)
	if decimals < 0 {
		decimals = 0
	}

	out := strconv.FormatFloat(scaled, 'f', decimals, 64)
	if strings.Contains(out, ".") {
		out = strings.TrimRight(strings.TrimRight(out, "0"), ".")
	}
	return sign + out + siPrefixes[tier]
}
