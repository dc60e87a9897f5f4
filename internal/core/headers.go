package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/protesto/internal/fields"
)

var nonWordRun = regexp.MustCompile(`[^a-z0-9]+`)

// headerAliases maps normalized column labels seen in the exports to the
// canonical field keys.
var headerAliases = map[string]string{
	"nome_apresentante":      FieldPresenter,
	"codigo_apresentante":    FieldPresenterCode,
	"cod_apresentante":       FieldPresenterCode,
	"codigo_cartorio":        FieldNotaryOffice,
	"data_do_protesto":       FieldFilingDate,
	"dt_protesto":            FieldFilingDate,
	"numero_protocolo":       FieldProtocol,
	"n_protocolo":            FieldProtocol,
	"data_da_remessa":        FieldRemittanceDate,
	"agencia_cedente":        FieldAssigneeBranchCode,
	"nome_cedente":           FieldAssignee,
	"nome_sacador":           FieldDrawer,
	"cpf_cnpj_sacador":       FieldDrawerDocument,
	"doc_sacador":            FieldDrawerDocument,
	"nome_devedor":           FieldDebtor,
	"cpf_cnpj":               FieldDocument,
	"cpf_cnpj_devedor":       FieldDocument,
	"documento_devedor":      FieldDocument,
	"endereco_devedor":       FieldAddress,
	"logradouro":             FieldAddress,
	"numero_do_titulo":       FieldTitleNumber,
	"n_titulo":               FieldTitleNumber,
	"valor_titulo":           FieldAmount,
	"valor_do_titulo":        FieldAmount,
	"saldo_titulo":           FieldBalance,
	"especie_titulo":         FieldInstrumentType,
	"data_de_emissao":        FieldEmissionDate,
	"data_vencimento":        FieldDueDate,
	"data_de_vencimento":     FieldDueDate,
	"data_da_ocorrencia":     FieldOccurrenceDate,
	"custas_de_desistencia":  FieldWithdrawalCosts,
	"custas_de_cancelamento": FieldCancellationCosts,
	"envio_ao_cartorio":      FieldRegistrySubmission,
	"praca_de_protesto":      FieldProtestVenue,
	"tipo_de_autorizacao":    FieldAuthorizationType,
	"estado":                 FieldState,
	"municipio":              FieldCity,
}

// NormalizeHeader folds a column label: diacritics removed, lowercased,
// every run of non-word characters collapsed to one underscore.
func NormalizeHeader(label string) string {
	s := strings.ToLower(fields.StripAccents(CleanCell(label)))
	s = nonWordRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// FallbackHeader names a column without a usable label. index is 1-based.
func FallbackHeader(index int) string {
	return fmt.Sprintf("coluna_%d", index)
}

// ResolveField maps a header label to a canonical field key. The label is
// first tried verbatim (trimmed), then normalized and looked up in the alias
// table. ok is false for columns outside the fixed field set.
func ResolveField(label string) (string, bool) {
	trimmed := strings.TrimSpace(label)
	if IsKnownField(trimmed) {
		return trimmed, true
	}
	norm := NormalizeHeader(trimmed)
	if IsKnownField(norm) {
		return norm, true
	}
	if f, ok := headerAliases[norm]; ok {
		return f, true
	}
	return norm, false
}

// HeaderIndex maps canonical field keys to column positions (0-based).
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header row. Unknown columns
// are skipped; when two columns resolve to the same field the first wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		field, ok := ResolveField(h)
		if !ok {
			continue
		}
		if _, dup := idx[field]; !dup {
			idx[field] = i
		}
	}
	return idx
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
