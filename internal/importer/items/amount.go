package items

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// parseNumber reads a number written with either European ("1.234,56") or
// English ("1,234.56") separators. A lone separator followed by exactly three
// digits is a thousands separator when wholeUnits is set, so "1.200" reads as
// 1200 in a currency without minor units.
func parseNumber(s string, wholeUnits bool) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune("₩€$£¥%", r) {
			return -1
		}

		return r
	}, s)

	comma := strings.LastIndex(clean, ",")
	dot := strings.LastIndex(clean, ".")

	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case comma >= 0:
		if strings.Count(clean, ",") == 1 && len(clean)-comma-1 != 3 {
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case dot >= 0:
		if strings.Count(clean, ".") > 1 || (wholeUnits && len(clean)-dot-1 == 3) {
			clean = strings.ReplaceAll(clean, ".", "")
		}
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", s)
	}

	return d, nil
}

// parseAmount converts a price into minor units of a currency with the given
// number of decimals.
func parseAmount(s string, decimals int32) (int64, error) {
	d, err := parseNumber(s, decimals == 0)
	if err != nil {
		return 0, err
	}

	return toInt64(d.Shift(decimals).Round(0), s)
}

func parseQuantity(s string) (int64, error) {
	d, err := parseNumber(s, true)
	if err != nil {
		return 0, err
	}

	if !d.IsInteger() {
		return 0, fmt.Errorf("quantity %q must be a whole number", s)
	}

	return toInt64(d, s)
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func toInt64(d decimal.Decimal, s string) (int64, error) {
	if d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return 0, fmt.Errorf("number %q out of range", s)
	}

	return d.IntPart(), nil
}

func parsePercent(s string) (decimal.Decimal, error) {
	return parseNumber(s, false)
}
