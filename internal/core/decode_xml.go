package core

// decode_xml.go reads the legacy SpreadsheetML export
// (Workbook/Worksheet/Table/Row/Cell/Data).
//
// The export writes one filing with several debtors as a MAIN row carrying
// the filing columns followed by CONTINUATION rows that only fill the debtor
// columns. Decoding rebuilds one LogicalRecord per debtor by folding the
// rows through mergeRow, which carries the last MAIN record explicitly.

import (
	"bytes"
	"encoding/xml"
	"errors"
	"maps"
	"slices"
	"strings"
)

// mainRowFields mark a row as carrying filing-level data.
var mainRowFields = []string{
	FieldPresenter,
	FieldPresenterCode,
	FieldNotaryOffice,
	FieldFilingDate,
	FieldProtocol,
}

// continuationRowFields mark a row as carrying an extra debtor.
var continuationRowFields = []string{
	FieldDebtor,
	FieldDocument,
}

type xmlWorkbook struct {
	XMLName    xml.Name       `xml:"Workbook"`
	Worksheets []xmlWorksheet `xml:"Worksheet"`
}

type xmlWorksheet struct {
	Name   string     `xml:"Name,attr"`
	Tables []xmlTable `xml:"Table"`
}

type xmlTable struct {
	Rows []xmlRow `xml:"Row"`
}

type xmlRow struct {
	Cells []xmlCell `xml:"Cell"`
}

type xmlCell struct {
	Index int      `xml:"Index,attr"`
	Data  *xmlData `xml:"Data"`
	Text  string   `xml:",chardata"`
}

// value returns the Data payload when present, else the bare cell text.
func (c xmlCell) value() string {
	if c.Data != nil {
		return strings.TrimSpace(c.Data.Text)
	}
	return strings.TrimSpace(c.Text)
}

// xmlData collects all character data under <Data>, including text inside
// rich-text children such as <Font> or <B>.
type xmlData struct {
	Text string
}

func (d *xmlData) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	d.Text = b.String()
	return nil
}

// XMLSpreadsheetDecoder extracts LogicalRecords from SpreadsheetML.
type XMLSpreadsheetDecoder struct{}

// CanHandle reports whether mediaType is application/xml or text/xml.
func (XMLSpreadsheetDecoder) CanHandle(mediaType string) bool {
	switch baseMediaType(mediaType) {
	case "application/xml", "text/xml":
		return true
	}
	return false
}

// Decode parses the first worksheet that has rows and returns one
// LogicalRecord per debtor.
func (XMLSpreadsheetDecoder) Decode(data []byte) ([]LogicalRecord, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &DecodeError{Format: "xml", Err: errors.New("empty file")}
	}

	var wb xmlWorkbook
	if err := xml.Unmarshal(data, &wb); err != nil {
		return nil, &DecodeError{Format: "xml", Err: err}
	}

	rows := firstRows(wb)
	if len(rows) == 0 {
		return []LogicalRecord{}, nil
	}

	header := headerColumns(rows[0])

	var (
		state   mergeState
		records = []LogicalRecord{}
	)
	for _, row := range rows[1:] {
		var (
			rec LogicalRecord
			ok  bool
		)
		state, rec, ok = mergeRow(state, rowRecord(row, header))
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func firstRows(wb xmlWorkbook) []xmlRow {
	for _, ws := range wb.Worksheets {
		for _, t := range ws.Tables {
			if len(t.Rows) > 0 {
				return t.Rows
			}
		}
	}
	return nil
}

// cellColumns places each cell at its 1-based column. An explicit Index
// moves the cursor; otherwise the cursor advances by one.
func cellColumns(row xmlRow) map[int]string {
	cols := make(map[int]string, len(row.Cells))
	cursor := 0
	for _, c := range row.Cells {
		if c.Index > 0 {
			cursor = c.Index
		} else {
			cursor++
		}
		cols[cursor] = c.value()
	}
	return cols
}

// headerColumns resolves the header row into field keys by column. Blank
// labels become coluna_<n>. When two columns resolve to the same field the
// leftmost wins, as in MakeHeaderIndex. Later duplicates are renamed to
// duplicada_<label> so they never map onto a record field.
func headerColumns(row xmlRow) map[int]string {
	cols := cellColumns(row)
	header := make(map[int]string, len(cols))
	claimed := make(map[string]bool, len(cols))
	for _, col := range slices.Sorted(maps.Keys(cols)) {
		label := cols[col]
		name := NormalizeHeader(label)
		if name == "" {
			header[col] = FallbackHeader(col)
			continue
		}
		if field, ok := ResolveField(label); ok {
			if claimed[field] {
				header[col] = "duplicada_" + name
				continue
			}
			claimed[field] = true
			name = field
		}
		header[col] = name
	}
	return header
}

// rowRecord maps one data row onto a complete LogicalRecord.
func rowRecord(row xmlRow, header map[int]string) LogicalRecord {
	rec := NewLogicalRecord()
	for col, v := range cellColumns(row) {
		if field, ok := header[col]; ok && IsKnownField(field) {
			rec[field] = v
		}
	}
	return rec
}

// RowKind classifies a physical spreadsheet row.
type RowKind int

const (
	RowDiscard RowKind = iota
	RowMain
	RowContinuation
)

// ClassifyRow reports whether rec is a MAIN row, a CONTINUATION row, or has
// no usable data.
func ClassifyRow(rec LogicalRecord) RowKind {
	if anyFilled(rec, mainRowFields) {
		return RowMain
	}
	if anyFilled(rec, continuationRowFields) {
		return RowContinuation
	}
	return RowDiscard
}

func anyFilled(rec LogicalRecord, keys []string) bool {
	for _, k := range keys {
		if strings.TrimSpace(rec[k]) != "" {
			return true
		}
	}
	return false
}

// mergeState is the accumulator of the row fold: the last MAIN record seen.
type mergeState struct {
	last LogicalRecord
}

// mergeRow folds one row into the state. A MAIN row replaces the
// accumulator and is emitted as is. A CONTINUATION row is laid over a copy
// of the accumulator and the copy is emitted; the accumulator is unchanged.
// A CONTINUATION row before any MAIN row, and rows without data, emit
// nothing.
func mergeRow(state mergeState, row LogicalRecord) (mergeState, LogicalRecord, bool) {
	switch ClassifyRow(row) {
	case RowMain:
		state.last = row.Clone()
		return state, row, true
	case RowContinuation:
		if state.last == nil {
			return state, nil, false
		}
		merged := state.last.Clone()
		for k, v := range row {
			if strings.TrimSpace(v) != "" {
				merged[k] = v
			}
		}
		return state, merged, true
	}
	return state, nil, false
}
