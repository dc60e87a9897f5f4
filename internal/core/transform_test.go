package core

import (
	"testing"
	"time"
)

func TestRecordTransformer_Transform(t *testing.T) {
	rec := validRecord()
	rec[FieldPresenter] = "Banco X"
	rec[FieldPresenterCode] = "001"
	rec[FieldDrawer] = "Loja Y"
	rec[FieldAssignee] = "Banco X"
	rec[FieldDrawerDocument] = "11.222.333/0001-81"
	rec[FieldBalance] = "abc"
	rec[FieldDueDate] = "à vista"
	rec[FieldRemittanceDate] = "2024-03-10T00:00:00Z"
	rec[FieldEmissionDate] = "31/02/2024"
	rec[FieldPostalCode] = "01310-100"
	rec[FieldState] = "sp"
	rec[FieldPrinted] = "S"

	got := RecordTransformer{}.Transform(7, rec)

	if got.Row != 7 {
		t.Errorf("Row = %d, want 7", got.Row)
	}
	if got.Presenter.Code != "001" || got.Presenter.Name != "Banco X" {
		t.Errorf("Presenter = %+v", got.Presenter)
	}
	if got.Creditor.Document != "11222333000181" {
		t.Errorf("Creditor.Document = %q, want digits only", got.Creditor.Document)
	}
	if got.Filing.AmountCents != 123456 {
		t.Errorf("AmountCents = %d, want 123456", got.Filing.AmountCents)
	}
	if got.Filing.BalanceCents != 0 {
		t.Errorf("BalanceCents = %d, want 0 for unparsable text", got.Filing.BalanceCents)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if got.Filing.FilingDate == nil || !got.Filing.FilingDate.Equal(want) {
		t.Errorf("FilingDate = %v, want %v", got.Filing.FilingDate, want)
	}
	if got.Filing.RemittanceDate == nil || got.Filing.RemittanceDate.Day() != 10 {
		t.Errorf("RemittanceDate = %v, want ISO-parsed 2024-03-10", got.Filing.RemittanceDate)
	}
	if got.Filing.EmissionDate != nil {
		t.Errorf("EmissionDate = %v, want nil for invalid date", got.Filing.EmissionDate)
	}
	if got.Filing.DueDateOrTerm != "à vista" {
		t.Errorf("DueDateOrTerm = %q", got.Filing.DueDateOrTerm)
	}
	if !got.Filing.Printed || got.Filing.Postponed {
		t.Errorf("Printed/Postponed = %v/%v, want true/false", got.Filing.Printed, got.Filing.Postponed)
	}
	if got.Debtor.Document != "52998224725" || got.Debtor.Type != DebtorPerson {
		t.Errorf("Debtor = %+v, want PF with digits-only document", got.Debtor)
	}
	if got.Debtor.PostalCode != "01310100" || got.Debtor.State != "SP" {
		t.Errorf("Debtor address = %q/%q", got.Debtor.PostalCode, got.Debtor.State)
	}
}

func TestRecordTransformer_DebtorType(t *testing.T) {
	tests := []struct {
		doc  string
		want DebtorType
	}{
		{"11.222.333/0001-81", DebtorCompany},
		{"529.982.247-25", DebtorPerson},
		{"11.222.333/0001-82", DebtorPerson},
	}
	for _, tt := range tests {
		rec := validRecord()
		rec[FieldDocument] = tt.doc
		got := RecordTransformer{}.Transform(1, rec)
		if got.Debtor.Type != tt.want {
			t.Errorf("Transform(documento=%q).Debtor.Type = %q, want %q", tt.doc, got.Debtor.Type, tt.want)
		}
		if got.Debtor.IsCompany() != (tt.want == DebtorCompany) {
			t.Errorf("IsCompany() mismatch for %q", tt.doc)
		}
	}
}

func TestRecordTransformer_XMLEndToEnd(t *testing.T) {
	data := workbookXML(
		headerRow,
		mainRow("P-200", "Ana", "529.982.247-25"),
		continuationRow("Bruno", "111.444.777-35"),
	)
	records, err := XMLSpreadsheetDecoder{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	canonical := TransformAll(RecordTransformer{}, records)
	if len(canonical) != 2 {
		t.Fatalf("got %d canonical records, want 2", len(canonical))
	}

	a, b := canonical[0], canonical[1]
	if a.Debtor.Name == b.Debtor.Name || a.Debtor.Document == b.Debtor.Document {
		t.Errorf("debtors not distinct: %+v / %+v", a.Debtor, b.Debtor)
	}
	if a.Filing.Protocol != b.Filing.Protocol || a.Filing.NotaryOffice != b.Filing.NotaryOffice ||
		a.Filing.AmountCents != b.Filing.AmountCents {
		t.Errorf("filing fields differ: %+v / %+v", a.Filing, b.Filing)
	}
	if a.Filing.AmountCents != 100000 {
		t.Errorf("AmountCents = %d, want 100000", a.Filing.AmountCents)
	}
	if a.Row != 1 || b.Row != 2 {
		t.Errorf("rows = %d,%d, want 1,2", a.Row, b.Row)
	}
}

func TestParseFlag(t *testing.T) {
	for _, s := range []string{"S", "sim", "Sim", "true", "1", "X"} {
		if !parseFlag(s) {
			t.Errorf("parseFlag(%q) = false", s)
		}
	}
	for _, s := range []string{"", "N", "não", "0"} {
		if parseFlag(s) {
			t.Errorf("parseFlag(%q) = true", s)
		}
	}
}
