// Package core provides the business logic for the CSV record manager:
// dataset ingestion, column type inference, row operations, relational
// merge, and CSV export. This package has no HTTP dependencies and talks
// to persistence only through the Store interface.
package core

import (
	"strings"
	"time"
)

// ColumnType is the semantic type inferred for a column. Types are
// advisory: values are stored as strings regardless of inferred type.
type ColumnType string

const (
	TypeNumber  ColumnType = "number"
	TypeBoolean ColumnType = "boolean"
	TypeDate    ColumnType = "date"
	TypeString  ColumnType = "string"
)

// Column describes one column of a dataset schema.
type Column struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Required bool       `json:"required"` // reserved for future validation, always false today
}

// Record is one row's values, keyed by column name.
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsEmpty reports whether the record has no keys or only blank values.
func (r Record) IsEmpty() bool {
	if len(r) == 0 {
		return true
	}
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Dataset is a named collection of rows sharing one column schema.
// The schema is fixed at creation time and never mutated afterwards;
// only RowCount changes as rows are appended or deleted.
type Dataset struct {
	ID        string
	Name      string
	Columns   []Column
	RowCount  int
	CreatedAt time.Time
}

// ColumnNames returns the schema column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Row is one stored record of a dataset. Seq is a per-dataset monotonic
// sequence number assigned by the store at insert time; it is the sole
// ordering key for listing and positional addressing.
type Row struct {
	ID        string
	DatasetID string
	Seq       int64
	Data      Record
	CreatedAt time.Time
}
