package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// ============================================================================
// CSV
// ============================================================================

const csvTwoRows = "protocolo,data_protesto,devedor,documento,valor,vencimento\n" +
	"P-1,15/03/2024,Maria Silva,529.982.247-25,\"1.234,56\",à vista\n" +
	"P-2,16/03/2024,João Souza,529.982.247-26,\"100,00\",20/04/2024\n"

func TestCSVDecoder_Decode(t *testing.T) {
	records, err := CSVDecoder{}.Decode([]byte(csvTwoRows))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Decode() returned %d records, want 2", len(records))
	}

	first := records[0]
	if got := first[FieldDebtor]; got != "Maria Silva" {
		t.Errorf("record 1 devedor = %q, want %q", got, "Maria Silva")
	}
	if got := first[FieldAmount]; got != "1.234,56" {
		t.Errorf("record 1 valor = %q, want %q", got, "1.234,56")
	}
	for _, spec := range FieldSpecs {
		if _, ok := first[spec.Name]; !ok {
			t.Errorf("record 1 is missing field %q", spec.Name)
		}
	}
	if got := first[FieldCity]; got != "" {
		t.Errorf("absent column cidade = %q, want empty", got)
	}
}

func TestCSVDecoder_TrimsAndSkipsBlankRows(t *testing.T) {
	data := "\xEF\xBB\xBF protocolo , devedor \n  P-9  ,  Ana  \n,\n\n"
	records, err := CSVDecoder{}.Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Decode() returned %d records, want 1", len(records))
	}
	if records[0][FieldProtocol] != "P-9" || records[0][FieldDebtor] != "Ana" {
		t.Errorf("values not trimmed: %+v", records[0])
	}
}

func TestCSVDecoder_SemicolonDelimiter(t *testing.T) {
	data := "Protocolo;Nome Devedor;CPF/CNPJ;Valor\nP-1;Ana;11.222.333/0001-81;10,00\n"
	records, err := CSVDecoder{}.Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Decode() returned %d records, want 1", len(records))
	}
	if got := records[0][FieldAmount]; got != "10,00" {
		t.Errorf("valor = %q, want %q", got, "10,00")
	}
	if got := records[0][FieldDocument]; got != "11.222.333/0001-81" {
		t.Errorf("documento = %q", got)
	}
}

func TestCSVDecoder_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unbalanced quote", data: "a,b\n\"x,y\n"},
		{name: "bare quote", data: "a,b\nx\"y,z\n"},
		{name: "empty", data: ""},
		{name: "whitespace only", data: " \n\t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CSVDecoder{}.Decode([]byte(tt.data))
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Decode() error = %v, want *DecodeError", err)
			}
			if decodeErr.Format != "csv" {
				t.Errorf("DecodeError.Format = %q, want csv", decodeErr.Format)
			}
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{name: "valid UTF-8 unchanged", input: []byte("Código"), want: []byte("Código")},
		{name: "empty input", input: []byte{}, want: []byte{}},
		{name: "invalid byte replaced", input: []byte{0x80}, want: []byte("\uFFFD")},
		{name: "latin-1 accent", input: []byte("Jo\xe3o"), want: []byte("Jo\uFFFDo")},
		{name: "truncated multibyte", input: []byte{0xc3}, want: []byte("\uFFFD")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeUTF8(tt.input); !bytes.Equal(got, tt.want) {
				t.Errorf("sanitizeUTF8(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// SpreadsheetML
// ============================================================================

func workbookXML(rows ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>
<?mso-application progid="Excel.Sheet"?>
<Workbook xmlns="urn:schemas-microsoft-com:office:spreadsheet"
 xmlns:ss="urn:schemas-microsoft-com:office:spreadsheet">
 <Worksheet ss:Name="Protestos">
  <Table>
`)
	for _, r := range rows {
		b.WriteString("   <Row>")
		b.WriteString(r)
		b.WriteString("</Row>\n")
	}
	b.WriteString("  </Table>\n </Worksheet>\n</Workbook>\n")
	return []byte(b.String())
}

func cell(v string) string {
	return fmt.Sprintf(`<Cell><Data ss:Type="String">%s</Data></Cell>`, v)
}

func cellAt(idx int, v string) string {
	return fmt.Sprintf(`<Cell ss:Index="%d"><Data ss:Type="String">%s</Data></Cell>`, idx, v)
}

var headerRow = cell("Apresentante") + cell("Código") + cell("Cartório") +
	cell("Data Protesto") + cell("Protocolo") + cell("Devedor") +
	cell("Documento") + cell("Valor")

func mainRow(protocol, debtor, doc string) string {
	return cell("Banco X") + cell("001") + cell("1º Ofício") + cell("15/03/2024") +
		cell(protocol) + cell(debtor) + cell(doc) + cell("1.000,00")
}

// continuationRow fills only devedor (column 6) and documento.
func continuationRow(debtor, doc string) string {
	return cellAt(6, debtor) + cell(doc)
}

var debtorFields = map[string]bool{FieldDebtor: true, FieldDocument: true}

func TestXMLDecoder_MainWithContinuations(t *testing.T) {
	data := workbookXML(
		headerRow,
		mainRow("P-100", "Ana", "52998224725"),
		continuationRow("Bruno", "11144477735"),
		continuationRow("Carla", "11222333000181"),
		continuationRow("Davi", "39053344705"),
	)

	records, err := XMLSpreadsheetDecoder{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Decode() returned %d records, want 4", len(records))
	}

	seen := map[string]bool{}
	for i, rec := range records {
		for key, v := range records[0] {
			if debtorFields[key] {
				continue
			}
			if rec[key] != v {
				t.Errorf("record %d field %q = %q, want %q", i+1, key, rec[key], v)
			}
		}
		seen[rec[FieldDebtor]+"|"+rec[FieldDocument]] = true
	}
	if len(seen) != 4 {
		t.Errorf("debtor fields are not distinct across records: %v", seen)
	}
	if got := records[3][FieldProtocol]; got != "P-100" {
		t.Errorf("continuation protocolo = %q, want P-100", got)
	}
}

func TestXMLDecoder_ContinuationWithoutMain(t *testing.T) {
	data := workbookXML(headerRow, continuationRow("Bruno", "11144477735"))

	records, err := XMLSpreadsheetDecoder{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Decode() returned %d records, want 0", len(records))
	}
}

func TestXMLDecoder_DiscardsEmptyRows(t *testing.T) {
	data := workbookXML(
		headerRow,
		cellAt(8, "5,00"),
		mainRow("P-1", "Ana", "52998224725"),
		"",
	)

	records, err := XMLSpreadsheetDecoder{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Decode() returned %d records, want 1", len(records))
	}
}

func TestXMLDecoder_SparseAndRichCells(t *testing.T) {
	data := workbookXML(
		headerRow,
		cellAt(5, "P-7")+`<Cell><Data ss:Type="String"><B>Rita</B> Lima</Data></Cell>`+`<Cell>52998224725</Cell>`,
	)

	records, err := XMLSpreadsheetDecoder{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Decode() returned %d records, want 1", len(records))
	}
	rec := records[0]
	if rec[FieldProtocol] != "P-7" {
		t.Errorf("protocolo = %q, want P-7", rec[FieldProtocol])
	}
	if rec[FieldDebtor] != "Rita Lima" {
		t.Errorf("devedor = %q, want %q", rec[FieldDebtor], "Rita Lima")
	}
	if rec[FieldDocument] != "52998224725" {
		t.Errorf("documento = %q, want bare cell value", rec[FieldDocument])
	}
	if rec[FieldPresenter] != "" {
		t.Errorf("apresentante = %q, want empty for skipped columns", rec[FieldPresenter])
	}
}

func TestXMLDecoder_Malformed(t *testing.T) {
	tests := map[string][]byte{
		"truncated":  []byte(`<Workbook><Worksheet><Table><Row>`),
		"wrong root": []byte(`<html><body/></html>`),
		"not xml":    []byte("protocolo,devedor\n"),
		"empty":      []byte("   "),
		"bad index":  workbookXML(headerRow, `<Cell ss:Index="x"><Data>1</Data></Cell>`),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := XMLSpreadsheetDecoder{}.Decode(data)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Decode() error = %v, want ErrDecode", err)
			}
		})
	}
}

func TestHeaderColumns_Fallback(t *testing.T) {
	row := xmlRow{Cells: []xmlCell{
		{Data: &xmlData{Text: "Protocolo"}},
		{Data: &xmlData{Text: "  "}},
		{Index: 5, Data: &xmlData{Text: "Observação Interna"}},
	}}

	got := headerColumns(row)
	want := map[int]string{1: FieldProtocol, 2: "coluna_2", 5: "observacao_interna"}
	if len(got) != len(want) {
		t.Fatalf("headerColumns() = %v, want %v", got, want)
	}
	for col, name := range want {
		if got[col] != name {
			t.Errorf("headerColumns()[%d] = %q, want %q", col, got[col], name)
		}
	}
}

func TestXMLDecoder_DuplicateHeaderFirstColumnWins(t *testing.T) {
	data := workbookXML(
		cell("Protocolo")+cell("Devedor")+cell("Nome Devedor"),
		cell("P1")+cell("FIRST")+cell("SECOND"),
	)

	for i := 0; i < 50; i++ {
		records, err := XMLSpreadsheetDecoder{}.Decode(data)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Decode() returned %d records, want 1", len(records))
		}
		if got := records[0][FieldDebtor]; got != "FIRST" {
			t.Fatalf("run %d: devedor = %q, want FIRST", i, got)
		}
	}
}

func TestHeaderColumns_Duplicates(t *testing.T) {
	row := xmlRow{Cells: []xmlCell{
		{Data: &xmlData{Text: "Nome Devedor"}},
		{Data: &xmlData{Text: "Devedor"}},
	}}

	got := headerColumns(row)
	if got[1] != FieldDebtor {
		t.Errorf("headerColumns()[1] = %q, want %q", got[1], FieldDebtor)
	}
	if got[2] == FieldDebtor || IsKnownField(got[2]) {
		t.Errorf("headerColumns()[2] = %q, want a non-field label", got[2])
	}
}

func TestMergeRow_AccumulatorIsNotReplaced(t *testing.T) {
	main := NewLogicalRecord()
	main[FieldProtocol] = "P-1"
	main[FieldAmount] = "10,00"
	main[FieldDebtor] = "Ana"

	override := NewLogicalRecord()
	override[FieldDebtor] = "Bruno"
	override[FieldAmount] = "99,00"

	plain := NewLogicalRecord()
	plain[FieldDebtor] = "Carla"

	var (
		state mergeState
		out   []LogicalRecord
	)
	for _, row := range []LogicalRecord{main, override, plain} {
		var (
			rec LogicalRecord
			ok  bool
		)
		state, rec, ok = mergeRow(state, row)
		if ok {
			out = append(out, rec)
		}
	}

	if len(out) != 3 {
		t.Fatalf("fold emitted %d records, want 3", len(out))
	}
	if out[1][FieldAmount] != "99,00" {
		t.Errorf("continuation override valor = %q, want 99,00", out[1][FieldAmount])
	}
	if out[2][FieldAmount] != "10,00" {
		t.Errorf("later continuation valor = %q, want the MAIN value 10,00", out[2][FieldAmount])
	}
	if out[2][FieldProtocol] != "P-1" || out[2][FieldDebtor] != "Carla" {
		t.Errorf("merged record = %+v", out[2])
	}
	if state.last[FieldDebtor] != "Ana" {
		t.Errorf("accumulator debtor = %q, want Ana", state.last[FieldDebtor])
	}
}

func TestClassifyRow(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]string
		want RowKind
	}{
		{name: "protocol makes main", set: map[string]string{FieldProtocol: "1"}, want: RowMain},
		{name: "code makes main", set: map[string]string{FieldPresenterCode: "9", FieldDebtor: "A"}, want: RowMain},
		{name: "document only is continuation", set: map[string]string{FieldDocument: "1"}, want: RowContinuation},
		{name: "amount only is discarded", set: map[string]string{FieldAmount: "1"}, want: RowDiscard},
		{name: "blank is discarded", set: map[string]string{FieldDebtor: "  "}, want: RowDiscard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewLogicalRecord()
			for k, v := range tt.set {
				rec[k] = v
			}
			if got := ClassifyRow(rec); got != tt.want {
				t.Errorf("ClassifyRow() = %v, want %v", got, tt.want)
			}
		})
	}
}
