package fields

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// Dates
// ----------------------------------------------------------------------------

func TestValidBRDate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"15/03/2024", true},
		{"29/02/2024", true},
		{"29/02/2023", false},
		{"31/02/2024", false},
		{"31/04/2024", false},
		{"00/01/2024", false},
		{"15/13/2024", false},
		{"2024-03-15", false},
		{"5/3/2024", false},
		{"15/03/24", false},
		{" 15/03/2024 ", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidBRDate(tt.input); got != tt.want {
				t.Errorf("ValidBRDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{
			name:  "brazilian layout",
			input: "15/03/2024",
			want:  ptrTime(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:  "iso with zulu",
			input: "2024-03-15T10:30:00Z",
			want:  ptrTime(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)),
		},
		{
			name:  "iso local time",
			input: "2024-03-15T00:00:00",
			want:  ptrTime(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		},
		{name: "calendar invalid", input: "31/02/2024", want: nil},
		{name: "plain iso date is not accepted", input: "2024-03-15", want: nil},
		{name: "garbage", input: "amanha", want: nil},
		{name: "empty", input: "", want: nil},
		{name: "broken iso", input: "2024-13-45T99:00:00Z", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.input)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("ParseDate(%q) = %v, want nil", tt.input, *got)
			case tt.want != nil && got == nil:
				t.Errorf("ParseDate(%q) = nil, want %v", tt.input, *tt.want)
			case tt.want != nil && !got.Equal(*tt.want):
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, *got, *tt.want)
			}
		})
	}
}

func TestIsOnSightTerm(t *testing.T) {
	for _, s := range []string{"À VISTA", "a vista", "A Vista", " à vista "} {
		if !IsOnSightTerm(s) {
			t.Errorf("IsOnSightTerm(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"15/03/2024", "", "prazo"} {
		if IsOnSightTerm(s) {
			t.Errorf("IsOnSightTerm(%q) = true, want false", s)
		}
	}
}

func TestStripAccents(t *testing.T) {
	tests := map[string]string{
		"Código":         "Codigo",
		"Data Emissão":   "Data Emissao",
		"Praça Protesto": "Praca Protesto",
		"plain":          "plain",
	}
	for in, want := range tests {
		if got := StripAccents(in); got != want {
			t.Errorf("StripAccents(%q) = %q, want %q", in, got, want)
		}
	}
}

// ----------------------------------------------------------------------------
// Money
// ----------------------------------------------------------------------------

func TestParseCents(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1.234,56", 123456},
		{"0,00", 0},
		{"abc", 0},
		{"", 0},
		{"R$ 1.000,00", 100000},
		{"150,75", 15075},
		{"-10,00", 0},
		{"12.345.678,90", 1234567890},
		{"1e3", 0},
		{"Inf", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseCents(tt.input); got != tt.want {
				t.Errorf("ParseCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidMoney(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1.234,56", true},
		{"0,00", true},
		{"100", true},
		{"R$ 99,90", true},
		{"-1,00", false},
		{"abc", false},
		{"", false},
		{"1,2,3", false},
		{"12.345.678,90", true},
		{"Inf", false},
		{"infinity", false},
		{"NaN", false},
		{"1e3", false},
		{"1_000", false},
		{"0x10", false},
		{"1.23,00", false},
		{",50", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidMoney(tt.input); got != tt.want {
				t.Errorf("ValidMoney(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{123456, "1.234,56"},
		{0, "0,00"},
		{5, "0,05"},
		{100000000, "1.000.000,00"},
	}
	for _, tt := range tests {
		if got := FormatCents(tt.input); got != tt.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tt.input, got, tt.want)
		}
		if back := ParseCents(tt.want); back != tt.input {
			t.Errorf("ParseCents(FormatCents(%d)) = %d", tt.input, back)
		}
	}
}

// ----------------------------------------------------------------------------
// Postal code and state
// ----------------------------------------------------------------------------

func TestValidCEP(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"01310-100", true},
		{"01310100", true},
		{"0131-0100", false},
		{"1310100", false},
		{"01310-1000", false},
		{"abcde-fgh", false},
	}
	for _, tt := range tests {
		if got := ValidCEP(tt.input); got != tt.want {
			t.Errorf("ValidCEP(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCEPRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		x := fmt.Sprintf("%08d", r.Intn(100000000))
		n := NormalizeCEP(x)
		if got := NormalizeCEP(FormatCEP(n)); got != n {
			t.Fatalf("NormalizeCEP(FormatCEP(%q)) = %q, want %q", n, got, n)
		}
		if !ValidCEP(FormatCEP(n)) {
			t.Fatalf("FormatCEP(%q) = %q is not a valid CEP", n, FormatCEP(n))
		}
	}
}

func TestValidUF(t *testing.T) {
	if len(brazilianStates) != 27 {
		t.Fatalf("state table has %d entries, want 27", len(brazilianStates))
	}
	for _, uf := range []string{"SP", "rj", " df ", "TO"} {
		if !ValidUF(uf) {
			t.Errorf("ValidUF(%q) = false, want true", uf)
		}
	}
	for _, uf := range []string{"XX", "", "SPP", "BR"} {
		if ValidUF(uf) {
			t.Errorf("ValidUF(%q) = true, want false", uf)
		}
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
