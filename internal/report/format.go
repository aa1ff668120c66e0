package report

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBR formats v with Brazilian grouping and a comma decimal separator,
// e.g. 1234.5 with two decimals is "1.234,50".
func FormatBR(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return brPrinter.Sprint(number.Decimal(v, number.Scale(decimals)))
}

// FormatCompact abbreviates large values with B, M or K suffixes, e.g.
// 1500000 with one decimal is "1.5M". Smaller values keep their digits.
func FormatCompact(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}

	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return strconv.FormatFloat(v/1e9, 'f', decimals, 64) + "B"
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', decimals, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', decimals, 64) + "K"
	default:
		return strconv.FormatFloat(v, 'f', decimals, 64)
	}
}
