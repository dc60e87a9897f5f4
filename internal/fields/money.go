package fields

import (
	"regexp"
	"strconv"
	"strings"
)

// brMoneyRegex accepts digits with optional dot thousands groups and an
// optional decimal comma.
var brMoneyRegex = regexp.MustCompile(`^\d+(\.\d{3})*(,\d+)?$`)

// normalizeMoney strips the currency symbol and surrounding whitespace.
func normalizeMoney(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	return strings.TrimSpace(s)
}

// ParseBRMoney parses a Brazilian-formatted amount ("1.234,56") into a
// float: thousands dots removed, decimal comma turned into a point.
func ParseBRMoney(s string) (float64, bool) {
	s = normalizeMoney(s)
	if !brMoneyRegex.MatchString(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ValidMoney reports whether s is a non-negative Brazilian amount.
func ValidMoney(s string) bool {
	v, ok := ParseBRMoney(s)
	return ok && v >= 0
}

// ParseCents is the transformer's money policy. Source files carry amounts
// with two implied decimals, so removing both separators yields centavos:
// "1.234,56" → 123456. Anything non-numeric or negative yields 0.
func ParseCents(s string) int64 {
	s = normalizeMoney(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// FormatCents renders centavos back in the file format: 123456 → "1.234,56".
func FormatCents(c int64) string {
	neg := c < 0
	if neg {
		c = -c
	}
	whole := strconv.FormatInt(c/100, 10)
	frac := c % 100

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}
