package core

import (
	"strings"

	"github.com/JonMunkholm/protesto/internal/fields"
)

// Transformer maps a validated LogicalRecord to its canonical form.
type Transformer interface {
	Transform(row int, rec LogicalRecord) CanonicalFilingRecord
}

// RecordTransformer is the default Transformer. It never fails: amounts
// that do not parse become 0 (fields.ParseCents) and dates that do not
// parse become nil (fields.ParseDate).
type RecordTransformer struct{}

// Transform builds the canonical record for the 1-based row.
func (RecordTransformer) Transform(row int, rec LogicalRecord) CanonicalFilingRecord {
	get := func(key string) string { return strings.TrimSpace(rec[key]) }

	debtorDoc := fields.OnlyDigits(get(FieldDocument))
	debtorType := DebtorPerson
	if fields.ValidCNPJ(debtorDoc) {
		debtorType = DebtorCompany
	}

	return CanonicalFilingRecord{
		Row: row,
		Presenter: PresenterData{
			Name: get(FieldPresenter),
			Code: get(FieldPresenterCode),
		},
		Creditor: CreditorData{
			DrawerName:   get(FieldDrawer),
			AssigneeName: get(FieldAssignee),
			Document:     fields.OnlyDigits(get(FieldDrawerDocument)),
		},
		Filing: FilingData{
			Protocol:           get(FieldProtocol),
			FilingDate:         fields.ParseDate(get(FieldFilingDate)),
			RemittanceDate:     fields.ParseDate(get(FieldRemittanceDate)),
			NotaryOffice:       get(FieldNotaryOffice),
			TitleNumber:        get(FieldTitleNumber),
			InternalReference:  get(FieldInternalReference),
			AssigneeBranchCode: get(FieldAssigneeBranchCode),
			AmountCents:        fields.ParseCents(get(FieldAmount)),
			BalanceCents:       fields.ParseCents(get(FieldBalance)),
			DueDateOrTerm:      get(FieldDueDate),
			InstrumentType:     get(FieldInstrumentType),
			ProtestVenue:       get(FieldProtestVenue),
			AuthorizationType:  get(FieldAuthorizationType),
			Status:             get(FieldStatus),
			Printed:            parseFlag(get(FieldPrinted)),
			EmissionDate:       fields.ParseDate(get(FieldEmissionDate)),
			Occurrence:         get(FieldOccurrence),
			OccurrenceDate:     fields.ParseDate(get(FieldOccurrenceDate)),
			WithdrawalCosts:    fields.ParseCents(get(FieldWithdrawalCosts)),
			CancellationCosts:  fields.ParseCents(get(FieldCancellationCosts)),
			Validity:           get(FieldValidity),
			RegistrySubmission: get(FieldRegistrySubmission),
			Postponed:          parseFlag(get(FieldPostponed)),
			StatuteOfLimits:    get(FieldStatuteOfLimits),
		},
		Debtor: DebtorData{
			Name:         get(FieldDebtor),
			Document:     debtorDoc,
			Type:         debtorType,
			Address:      get(FieldAddress),
			PostalCode:   fields.NormalizeCEP(get(FieldPostalCode)),
			Neighborhood: get(FieldNeighborhood),
			City:         get(FieldCity),
			State:        fields.NormalizeUF(get(FieldState)),
		},
	}
}

// TransformAll transforms records in order, numbering rows from 1.
func TransformAll(t Transformer, records []LogicalRecord) []CanonicalFilingRecord {
	out := make([]CanonicalFilingRecord, len(records))
	for i, rec := range records {
		out[i] = t.Transform(i+1, rec)
	}
	return out
}

// parseFlag reads the yes/no columns of the exports.
func parseFlag(s string) bool {
	switch strings.ToLower(fields.StripAccents(s)) {
	case "s", "sim", "y", "yes", "true", "1", "x":
		return true
	}
	return false
}
