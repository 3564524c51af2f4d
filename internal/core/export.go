package core

// export.go renders a stored dataset back to CSV text, the inverse of
// ingestion. Every cell is JSON-quoted, which escapes embedded commas,
// quotes and newlines; a value missing from a row renders as a quoted
// empty string. Re-export is internally self-consistent but not
// guaranteed byte-identical to the originally uploaded file.

import (
	"bytes"
	"encoding/json"
	"strings"
)

// renderCSV serializes rows under the dataset's schema order. The header
// line is the raw column names comma-joined; each data line is the
// JSON-quoted cell values comma-joined. No trailing newline.
func renderCSV(ds *Dataset, rows []*Row) []byte {
	var b bytes.Buffer
	b.WriteString(strings.Join(ds.ColumnNames(), ","))

	for _, row := range rows {
		b.WriteByte('\n')
		for i, col := range ds.Columns {
			if i > 0 {
				b.WriteByte(',')
			}
			b.Write(quoteCell(row.Data[col.Name]))
		}
	}

	return b.Bytes()
}

// quoteCell JSON-encodes a cell value. Marshaling a string cannot fail,
// but fall back to a bare empty string just in case.
func quoteCell(v string) []byte {
	out, err := json.Marshal(v)
	if err != nil {
		return []byte(`""`)
	}
	return out
}
