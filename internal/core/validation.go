package core

// validation.go runs the field validators over every decoded record.
//
// Validation never stops at the first problem: every row is checked in file
// order and every violation is collected into a ValidationReport, so the
// audit log can show the full picture of a bad file at once.

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/protesto/internal/fields"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Row     int    `json:"row"`     // 1-based record position
	Field   string `json:"field"`   // Field name
	Value   string `json:"value"`   // The invalid value
	Message string `json:"message"` // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ValidationReport is the aggregated result of validating a record set.
type ValidationReport struct {
	IsValid        bool              `json:"isValid"`
	Errors         []ValidationError `json:"errors"`
	TotalRows      int               `json:"totalRows"`
	RowsWithErrors int               `json:"rowsWithErrors"`
}

// RowHasErrors reports whether the 1-based row produced any error.
func (r ValidationReport) RowHasErrors(row int) bool {
	for _, e := range r.Errors {
		if e.Row == row {
			return true
		}
	}
	return false
}

// errorRows returns the set of rows with at least one error.
func (r ValidationReport) errorRows() map[int]bool {
	rows := make(map[int]bool)
	for _, e := range r.Errors {
		rows[e.Row] = true
	}
	return rows
}

// Validator checks decoded records.
type Validator interface {
	Validate(records []LogicalRecord) ValidationReport
}

// RecordValidator validates LogicalRecords against a field spec table.
type RecordValidator struct {
	specs []FieldSpec
}

// NewRecordValidator creates a validator for the given field specs. A nil
// slice uses FieldSpecs.
func NewRecordValidator(specs []FieldSpec) *RecordValidator {
	if specs == nil {
		specs = FieldSpecs
	}
	return &RecordValidator{specs: specs}
}

// Validate checks every record and returns all violations.
func (v *RecordValidator) Validate(records []LogicalRecord) ValidationReport {
	report := ValidationReport{
		TotalRows: len(records),
		Errors:    []ValidationError{},
	}

	for i, rec := range records {
		report.Errors = append(report.Errors, v.ValidateRecord(i+1, rec)...)
	}

	report.RowsWithErrors = len(report.errorRows())
	report.IsValid = len(report.Errors) == 0
	return report
}

// ValidateRecord returns all errors for one record.
func (v *RecordValidator) ValidateRecord(row int, rec LogicalRecord) []ValidationError {
	var errs []ValidationError

	for _, spec := range v.specs {
		raw := strings.TrimSpace(rec[spec.Name])

		if raw == "" {
			if spec.Required {
				errs = append(errs, ValidationError{
					Row:     row,
					Field:   spec.Name,
					Message: "required field is empty",
				})
			}
			continue
		}

		if msg := ValidateCell(raw, spec); msg != "" {
			errs = append(errs, ValidationError{
				Row:     row,
				Field:   spec.Name,
				Value:   raw,
				Message: msg,
			})
		}
	}

	return errs
}

// ValidateCell checks a non-empty value against its field spec and returns
// a message, or "" when the value is acceptable.
func ValidateCell(value string, spec FieldSpec) string {
	switch spec.Type {
	case FieldDocumentNumber:
		return fields.DocumentProblem(value)
	case FieldDate:
		if !fields.ValidBRDate(value) {
			return "invalid date (use dd/mm/yyyy)"
		}
	case FieldDueDateOrTerm:
		if !fields.ValidBRDate(value) && !fields.IsOnSightTerm(value) {
			return "invalid date (use dd/mm/yyyy or \"à vista\")"
		}
	case FieldMoney:
		if !fields.ValidMoney(value) {
			return "invalid number: must be a non-negative amount like 1.234,56"
		}
	case FieldPostalCodeValue:
		if !fields.ValidCEP(value) {
			return "invalid postal code (use 00000-000)"
		}
	case FieldStateCode:
		if !fields.ValidUF(value) {
			return "invalid state code"
		}
	}
	return ""
}
