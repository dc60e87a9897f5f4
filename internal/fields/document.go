// Package fields provides the stateless field checks and parsers used by the
// import pipeline: Brazilian taxpayer documents (CPF/CNPJ), dates, money,
// postal codes (CEP) and state codes (UF).
//
// Every function here is pure. Validators answer yes/no; parsers apply a
// named fallback policy instead of returning an error, so the transformer can
// stay total.
package fields

import "strings"

// Document kinds.
const (
	CPFLength  = 11
	CNPJLength = 14
)

// DocumentKind classifies a taxpayer document by its digit count.
type DocumentKind int

const (
	DocumentUnknown DocumentKind = iota
	DocumentCPF
	DocumentCNPJ
)

func (k DocumentKind) String() string {
	switch k {
	case DocumentCPF:
		return "CPF"
	case DocumentCNPJ:
		return "CNPJ"
	default:
		return "unknown"
	}
}

var (
	cpfWeights1  = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfWeights2  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// OnlyDigits strips every non-digit rune from s.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ClassifyDocument returns the document kind implied by the digit count of s
// after stripping punctuation.
func ClassifyDocument(s string) DocumentKind {
	switch len(OnlyDigits(s)) {
	case CPFLength:
		return DocumentCPF
	case CNPJLength:
		return DocumentCNPJ
	default:
		return DocumentUnknown
	}
}

// ValidCPF reports whether s (punctuation allowed) is a CPF with correct
// check digits.
func ValidCPF(s string) bool {
	d := OnlyDigits(s)
	if len(d) != CPFLength || allSame(d) {
		return false
	}
	return checkDigit(d[:9], cpfWeights1) == int(d[9]-'0') &&
		checkDigit(d[:10], cpfWeights2) == int(d[10]-'0')
}

// ValidCNPJ reports whether s (punctuation allowed) is a CNPJ with correct
// check digits.
func ValidCNPJ(s string) bool {
	d := OnlyDigits(s)
	if len(d) != CNPJLength || allSame(d) {
		return false
	}
	return checkDigit(d[:12], cnpjWeights1) == int(d[12]-'0') &&
		checkDigit(d[:13], cnpjWeights2) == int(d[13]-'0')
}

// ValidDocument accepts a valid CPF or a valid CNPJ.
func ValidDocument(s string) bool {
	switch ClassifyDocument(s) {
	case DocumentCPF:
		return ValidCPF(s)
	case DocumentCNPJ:
		return ValidCNPJ(s)
	default:
		return false
	}
}

// DocumentProblem explains why s is not a valid document, or returns "" when
// it is valid. Messages are stable; they end up in the audit log.
func DocumentProblem(s string) string {
	d := OnlyDigits(s)
	kind := ClassifyDocument(d)
	switch {
	case kind == DocumentUnknown:
		return "document must have 11 (CPF) or 14 (CNPJ) digits"
	case allSame(d):
		return "invalid " + kind.String() + ": repeated digits"
	case kind == DocumentCPF && !ValidCPF(d):
		return "invalid CPF: check digit mismatch"
	case kind == DocumentCNPJ && !ValidCNPJ(d):
		return "invalid CNPJ: check digit mismatch"
	}
	return ""
}

// checkDigit computes one weighted modulo-11 check digit over digits.
// A remainder below 2 yields 0, otherwise 11 minus the remainder.
func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
