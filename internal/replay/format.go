package replay

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Placeholder is printed for missing or NaN values.
const Placeholder = "—"

// FormatNumber renders a KPI value: compact SI notation from one million,
// thousands separators from one thousand, otherwise at most digits
// fraction digits with trailing zeros dropped.
func FormatNumber(v float64, digits int) string {
	if math.IsNaN(v) {
		return Placeholder
	}
	if math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return strings.ReplaceAll(humanize.SIWithDigits(v, 2, ""), " ", "")
	case abs >= 1000:
		return humanize.Comma(int64(math.Round(v)))
	default:
		if digits < 0 {
			digits = 0
		}
		scale := math.Pow(10, float64(digits))
		s := humanize.FtoaWithDigits(math.Round(v*scale)/scale, digits)
		if s == "-0" {
			return "0"
		}
		return s
	}
}

// FormatOptional is FormatNumber for values that may be absent.
func FormatOptional(v *float64, digits int) string {
	if v == nil {
		return Placeholder
	}
	return FormatNumber(*v, digits)
}

// Percent renders a ratio as a percentage with one decimal.
func Percent(v float64) string {
	if math.IsNaN(v) {
		return Placeholder
	}
	return fmt.Sprintf("%.1f%%", v*100)
}
