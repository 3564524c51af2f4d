package core

// ingest.go turns raw uploaded bytes into header + record form and derives
// the column schema. Persistence of the parsed dataset happens in
// Service.Ingest, which batches rows through the Store.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"
)

// sanitizeUTF8 replaces invalid byte sequences with the Unicode
// replacement character so the CSV reader never sees broken encoding.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

// parseRecords parses delimited text into a header and one Record per
// data row. Cells are whitespace-trimmed and blank lines are skipped.
// Rows shorter than the header simply omit the trailing keys; extra
// cells beyond the header are dropped.
//
// Returns ErrParse for malformed input and ErrEmptyDataset when there is
// no header row at all.
func parseRecords(data []byte) ([]string, []Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	raw, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	// Skip leading blank lines before the header.
	start := 0
	for start < len(raw) && isBlankLine(raw[start]) {
		start++
	}
	if start == len(raw) {
		return nil, nil, ErrEmptyDataset
	}

	header := make([]string, len(raw[start]))
	for i, cell := range raw[start] {
		header[i] = strings.TrimSpace(cell)
	}

	var records []Record
	for _, line := range raw[start+1:] {
		if isBlankLine(line) {
			continue
		}
		rec := make(Record, len(header))
		for i, name := range header {
			if i < len(line) {
				rec[name] = strings.TrimSpace(line[i])
			}
		}
		records = append(records, rec)
	}

	return header, records, nil
}

// isBlankLine reports whether every cell of a raw CSV line is blank.
func isBlankLine(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// inferColumns derives the dataset schema: one Column per header cell,
// typed by running inference over that column's present values.
func inferColumns(header []string, records []Record) []Column {
	cols := make([]Column, len(header))
	for i, name := range header {
		var values []string
		for _, rec := range records {
			if v, ok := rec[name]; ok {
				values = append(values, v)
				if len(values) == InferSampleSize {
					break
				}
			}
		}
		cols[i] = Column{Name: name, Type: InferType(values)}
	}
	return cols
}

// datasetNameFromFile strips a .csv extension (case-insensitive) from an
// uploaded filename to produce the dataset display name.
func datasetNameFromFile(filename string) string {
	if strings.EqualFold(strings.TrimPrefix(filepathExt(filename), "."), "csv") {
		return filename[:len(filename)-4]
	}
	return filename
}

// filepathExt is a minimal extension extractor; path/filepath is avoided
// because uploaded names may carry client-side separators.
func filepathExt(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		switch name[i] {
		case '.':
			return name[i:]
		case '/', '\\':
			return ""
		}
	}
	return ""
}
