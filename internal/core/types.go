// Package core provides the business logic for protest-filing imports.
// This package has no transport or storage dependencies and can be used by
// the HTTP server, the CLI, or tests without modification.
package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field names of a LogicalRecord. The values are the column keys produced by
// the credit-management exports, so they stay in Portuguese.
const (
	FieldPresenter          = "apresentante"
	FieldPresenterCode      = "codigo"
	FieldNotaryOffice       = "cartorio"
	FieldFilingDate         = "data_protesto"
	FieldProtocol           = "protocolo"
	FieldRemittanceDate     = "data_remessa"
	FieldAssigneeBranchCode = "agencia_codigo_cedente"
	FieldAssignee           = "cedente"
	FieldDrawer             = "sacador"
	FieldDrawerDocument     = "documento_sacador"
	FieldDebtor             = "devedor"
	FieldDocument           = "documento"
	FieldAddress            = "endereco"
	FieldPostalCode         = "cep"
	FieldNeighborhood       = "bairro"
	FieldCity               = "cidade"
	FieldState              = "uf"
	FieldInternalReference  = "nosso_numero"
	FieldTitleNumber        = "numero_titulo"
	FieldAmount             = "valor"
	FieldBalance            = "saldo"
	FieldInstrumentType     = "especie"
	FieldProtestVenue       = "praca_protesto"
	FieldAuthorizationType  = "tipo_autorizacao"
	FieldStatus             = "status"
	FieldPrinted            = "impresso"
	FieldEmissionDate       = "data_emissao"
	FieldDueDate            = "vencimento"
	FieldOccurrence         = "ocorrencia"
	FieldOccurrenceDate     = "data_ocorrencia"
	FieldWithdrawalCosts    = "custas_desistencia"
	FieldValidity           = "vigencia"
	FieldCancellationCosts  = "custas_cancelamento"
	FieldRegistrySubmission = "envio_cartorio"
	FieldPostponed          = "postergado"
	FieldStatuteOfLimits    = "prescricao"
)

// FieldType represents the expected data type for a record field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldDueDateOrTerm // date or the on-sight term
	FieldMoney
	FieldDocumentNumber
	FieldPostalCodeValue
	FieldStateCode
)

// FieldSpec defines validation rules for a single record field.
type FieldSpec struct {
	Name     string    // Field key in the LogicalRecord
	Type     FieldType // Expected data type
	Required bool      // Value must be non-empty
}

// FieldSpecs is the fixed, ordered field set every LogicalRecord carries.
var FieldSpecs = []FieldSpec{
	{Name: FieldPresenter, Type: FieldText},
	{Name: FieldPresenterCode, Type: FieldText},
	{Name: FieldNotaryOffice, Type: FieldText},
	{Name: FieldFilingDate, Type: FieldDate, Required: true},
	{Name: FieldProtocol, Type: FieldText, Required: true},
	{Name: FieldRemittanceDate, Type: FieldDate},
	{Name: FieldAssigneeBranchCode, Type: FieldText},
	{Name: FieldAssignee, Type: FieldText},
	{Name: FieldDrawer, Type: FieldText},
	{Name: FieldDrawerDocument, Type: FieldText},
	{Name: FieldDebtor, Type: FieldText, Required: true},
	{Name: FieldDocument, Type: FieldDocumentNumber, Required: true},
	{Name: FieldAddress, Type: FieldText},
	{Name: FieldPostalCode, Type: FieldPostalCodeValue},
	{Name: FieldNeighborhood, Type: FieldText},
	{Name: FieldCity, Type: FieldText},
	{Name: FieldState, Type: FieldStateCode},
	{Name: FieldInternalReference, Type: FieldText},
	{Name: FieldTitleNumber, Type: FieldText},
	{Name: FieldAmount, Type: FieldMoney, Required: true},
	{Name: FieldBalance, Type: FieldMoney},
	{Name: FieldInstrumentType, Type: FieldText},
	{Name: FieldProtestVenue, Type: FieldText},
	{Name: FieldAuthorizationType, Type: FieldText},
	{Name: FieldStatus, Type: FieldText},
	{Name: FieldPrinted, Type: FieldText},
	{Name: FieldEmissionDate, Type: FieldDate},
	{Name: FieldDueDate, Type: FieldDueDateOrTerm},
	{Name: FieldOccurrence, Type: FieldText},
	{Name: FieldOccurrenceDate, Type: FieldDate},
	{Name: FieldWithdrawalCosts, Type: FieldText},
	{Name: FieldValidity, Type: FieldText},
	{Name: FieldCancellationCosts, Type: FieldText},
	{Name: FieldRegistrySubmission, Type: FieldText},
	{Name: FieldPostponed, Type: FieldText},
	{Name: FieldStatuteOfLimits, Type: FieldText},
}

var knownFields = func() map[string]bool {
	m := make(map[string]bool, len(FieldSpecs))
	for _, spec := range FieldSpecs {
		m[spec.Name] = true
	}
	return m
}()

// IsKnownField reports whether name is part of the fixed field set.
func IsKnownField(name string) bool {
	return knownFields[name]
}

// LogicalRecord is one filing-debtor pair as flat strings. Both decoders
// produce it, and every field in FieldSpecs is always present.
type LogicalRecord map[string]string

// NewLogicalRecord returns a record with every field set to "".
func NewLogicalRecord() LogicalRecord {
	r := make(LogicalRecord, len(FieldSpecs))
	for _, spec := range FieldSpecs {
		r[spec.Name] = ""
	}
	return r
}

// Clone returns an independent copy of r.
func (r LogicalRecord) Clone() LogicalRecord {
	c := make(LogicalRecord, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// DebtorType distinguishes individuals (PF) from companies (PJ).
type DebtorType string

const (
	DebtorPerson  DebtorType = "PF"
	DebtorCompany DebtorType = "PJ"
)

// PresenterData identifies who submitted the filing.
type PresenterData struct {
	Name string
	Code string
}

// CreditorData identifies the drawer (sacador) and assignee (cedente).
type CreditorData struct {
	DrawerName   string
	AssigneeName string
	Document     string // digits only, may be empty
}

// FilingData holds the filing-level fields of a canonical record.
type FilingData struct {
	Protocol           string
	FilingDate         *time.Time
	RemittanceDate     *time.Time
	NotaryOffice       string
	TitleNumber        string
	InternalReference  string
	AssigneeBranchCode string
	AmountCents        int64
	BalanceCents       int64
	DueDateOrTerm      string // dd/mm/yyyy or the on-sight term
	InstrumentType     string
	ProtestVenue       string
	AuthorizationType  string
	Status             string
	Printed            bool
	EmissionDate       *time.Time
	Occurrence         string
	OccurrenceDate     *time.Time
	WithdrawalCosts    int64
	CancellationCosts  int64
	Validity           string
	RegistrySubmission string
	Postponed          bool
	StatuteOfLimits    string
}

// DebtorData holds the debtor fields of a canonical record.
type DebtorData struct {
	Name         string
	Document     string // digits only
	Type         DebtorType
	Address      string
	PostalCode   string // digits only
	Neighborhood string
	City         string
	State        string
}

// IsCompany reports whether the debtor is a legal entity.
func (d DebtorData) IsCompany() bool {
	return d.Type == DebtorCompany
}

// CanonicalFilingRecord is the typed, validated projection of a
// LogicalRecord, ready for persistence.
type CanonicalFilingRecord struct {
	Row       int // 1-based position in the decoded sequence
	Presenter PresenterData
	Creditor  CreditorData
	Filing    FilingData
	Debtor    DebtorData
}

// PresenterKey is the find-or-create key of a presenter: its code, or its
// name when the file carries no code.
func PresenterKey(name, code string) string {
	if code = strings.TrimSpace(code); code != "" {
		return code
	}
	return "name:" + strings.ToLower(strings.TrimSpace(name))
}

// CreditorKey is the find-or-create key of a creditor: its document, or the
// drawer and assignee names when the document is empty.
func CreditorKey(c CreditorData) string {
	if c.Document != "" {
		return c.Document
	}
	return "names:" + strings.ToLower(strings.TrimSpace(c.DrawerName)) + "|" +
		strings.ToLower(strings.TrimSpace(c.AssigneeName))
}

// Presenter is the persisted presenter entity. Unique key: Code.
type Presenter struct {
	ID   uuid.UUID
	Name string
	Code string
}

// Creditor is the persisted creditor entity. Unique key: Document.
type Creditor struct {
	ID           uuid.UUID
	DrawerName   string
	AssigneeName string
	Document     string
}

// Filing is the persisted filing row. Never deduplicated.
type Filing struct {
	ID          uuid.UUID
	PresenterID uuid.UUID
	FilingData
}

// Debtor is the persisted debtor entity. Unique key: Document.
type Debtor struct {
	ID       uuid.UUID
	Name     string
	Document string
	Type     DebtorType
	FilingID uuid.UUID // most recently linked filing
}

// NotificationLog tracks the intimation email for one debtor of one filing.
type NotificationLog struct {
	ID        uuid.UUID
	DebtorID  uuid.UUID
	FilingID  uuid.UUID
	EmailSent bool
	SentAt    *time.Time
	ReadAt    *time.Time
}
