package fields

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// BRDateLayout is the only accepted layout for dates in import files.
const BRDateLayout = "02/01/2006"

var brDateRegex = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// isoLayouts are tried in order when a value carries ISO 8601 markers.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ValidBRDate reports whether s has the dd/mm/yyyy shape and names a real
// calendar day. "31/02/2024" has the shape but is rejected.
func ValidBRDate(s string) bool {
	s = strings.TrimSpace(s)
	if !brDateRegex.MatchString(s) {
		return false
	}
	_, err := time.Parse(BRDateLayout, s)
	return err == nil
}

// ParseDate is the transformer's date policy. Values with ISO markers ("T" or
// a trailing "Z") are parsed as ISO 8601, everything else strictly as
// dd/mm/yyyy. Unparsable input yields nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if strings.Contains(s, "T") || strings.HasSuffix(s, "Z") {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		return nil
	}

	if !brDateRegex.MatchString(s) {
		return nil
	}
	t, err := time.Parse(BRDateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// FormatBRDate renders t as dd/mm/yyyy, or "" for nil.
func FormatBRDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(BRDateLayout)
}

// onSightTerms are due-date values meaning "payable on presentation".
var onSightTerms = map[string]bool{
	"a vista":      true,
	"avista":       true,
	"vista":        true,
	"on sight":     true,
	"contra vista": true,
}

// IsOnSightTerm reports whether s is the literal "à vista" due term, ignoring
// case and accents.
func IsOnSightTerm(s string) bool {
	return onSightTerms[strings.ToLower(StripAccents(strings.TrimSpace(s)))]
}

// StripAccents removes combining diacritical marks: "Código" → "Codigo".
func StripAccents(s string) string {
	// transform.Chain keeps internal buffers, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
