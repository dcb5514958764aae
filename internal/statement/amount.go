package statement

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Locale selects the separator convention used when rendering amounts.
type Locale int

const (
	// LocaleUS renders 1,234.56
	LocaleUS Locale = iota
	// LocaleBR renders 1.234,56
	LocaleBR
)

// currencyMarkers are stripped from amount tokens, longest first.
var currencyMarkers = []string{"US$", "R$", "USD", "BRL", "EUR", "$", "€"}

var plainNumber = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)$`)

func isCurrencyMarker(tok string) bool {
	for _, m := range currencyMarkers {
		if strings.EqualFold(tok, m) {
			return true
		}
	}
	return false
}

// ParseAmount converts a printed numeric token into a float. Both the
// US convention (1,234.56) and the Brazilian convention (1.234,56) are
// accepted, as are currency markers, leading or trailing minus signs and
// parenthesised negatives. It returns false for anything that is not a number.
func ParseAmount(token string) (float64, bool) {
	d, ok := parseDecimal(token)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

func parseDecimal(token string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(token)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "-"))
	}

	// sign and currency marker may appear in either order: "-$2.37", "R$ -2,37"
	for i := 0; i < 3; i++ {
		trimmed := false
		if strings.HasPrefix(s, "-") {
			negative = true
			s = strings.TrimSpace(s[1:])
			trimmed = true
		} else if strings.HasPrefix(s, "+") {
			s = strings.TrimSpace(s[1:])
			trimmed = true
		}
		for _, m := range currencyMarkers {
			if len(s) >= len(m) && strings.EqualFold(s[:len(m)], m) {
				s = strings.TrimSpace(s[len(m):])
				trimmed = true
				break
			}
		}
		if !trimmed {
			break
		}
	}

	s = strings.NewReplacer(" ", "", "\u00a0", "", "'", "").Replace(s)
	if s == "" {
		return decimal.Zero, false
	}

	s = normalizeSeparators(s)
	s = strings.TrimSuffix(s, ".")
	if !plainNumber.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// normalizeSeparators rewrites s so that "." is the only decimal separator
// and no grouping separators remain.
func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		// the rightmost separator is the decimal point
		last := strings.LastIndexAny(s, ",.")
		whole := strings.NewReplacer(",", "", ".", "").Replace(s[:last])
		return whole + "." + s[last+1:]
	case commas == 1:
		return strings.Replace(s, ",", ".", 1)
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// FormatAmount renders v with two decimals and thousands grouping in the
// given locale.
func FormatAmount(v float64, locale Locale) string {
	fixed := decimal.NewFromFloat(v).StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	whole, frac, _ := strings.Cut(fixed, ".")

	group, point := ",", "."
	if locale == LocaleBR {
		group, point = ".", ","
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(group)
		}
		b.WriteRune(r)
	}
	b.WriteString(point)
	b.WriteString(frac)
	return b.String()
}
