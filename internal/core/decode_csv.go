package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVDecoder extracts LogicalRecords from delimited text with a header row.
type CSVDecoder struct{}

// CanHandle reports whether mediaType is text/csv.
func (CSVDecoder) CanHandle(mediaType string) bool {
	return baseMediaType(mediaType) == "text/csv"
}

// Decode parses data using the first row as header names. Every following
// non-empty row becomes one LogicalRecord with trimmed values.
func (CSVDecoder) Decode(data []byte) ([]LogicalRecord, error) {
	data = sanitizeUTF8(bytes.TrimPrefix(data, utf8BOM))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &DecodeError{Format: "csv", Err: errors.New("empty file")}
	}

	rows, err := parseCSV(data, sniffDelimiter(data))
	if err != nil {
		return nil, &DecodeError{Format: "csv", Err: err}
	}

	headerIdx := MakeHeaderIndex(rows[0])

	records := make([]LogicalRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		rec := NewLogicalRecord()
		for field, col := range headerIdx {
			if col < len(row) {
				rec[field] = strings.TrimSpace(row[col])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseCSV(data []byte, comma rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// sniffDelimiter picks ';' when the first line holds more semicolons than
// commas. Several exporters write semicolon-separated files under text/csv.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// baseMediaType strips parameters and lowercases a media type.
func baseMediaType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
