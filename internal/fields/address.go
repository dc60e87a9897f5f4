package fields

import (
	"regexp"
	"strings"
)

var cepRegex = regexp.MustCompile(`^\d{5}-?\d{3}$`)

// ValidCEP accepts 8 digits with an optional hyphen after the fifth.
func ValidCEP(s string) bool {
	return cepRegex.MatchString(strings.TrimSpace(s))
}

// NormalizeCEP returns the digits of a postal code.
func NormalizeCEP(s string) string {
	return OnlyDigits(s)
}

// FormatCEP renders an 8-digit postal code as 00000-000. Other inputs are
// returned unchanged.
func FormatCEP(s string) string {
	d := NormalizeCEP(s)
	if len(d) != 8 {
		return s
	}
	return d[:5] + "-" + d[5:]
}

// brazilianStates holds the 26 states plus the Federal District.
var brazilianStates = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true,
	"DF": true, "ES": true, "GO": true, "MA": true, "MT": true, "MS": true,
	"MG": true, "PA": true, "PB": true, "PR": true, "PE": true, "PI": true,
	"RJ": true, "RN": true, "RS": true, "RO": true, "RR": true, "SC": true,
	"SP": true, "SE": true, "TO": true,
}

// NormalizeUF upper-cases and trims a state abbreviation.
func NormalizeUF(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidUF reports whether s is one of the 27 state abbreviations.
func ValidUF(s string) bool {
	return brazilianStates[NormalizeUF(s)]
}
