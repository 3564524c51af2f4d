package core

import "context"

// Store is the persistence boundary for datasets and rows. Both the
// postgres and in-memory implementations satisfy it.
//
// Lookup methods return (nil, nil) when the entity does not exist; they
// never wrap ErrNotFound themselves. Translating absence into a domain
// error is the Service's job.
type Store interface {
	// CreateDataset persists a new dataset. The caller supplies ID,
	// Name, Columns and CreatedAt; RowCount starts at whatever the
	// struct carries (normally zero, bumped later by BulkInsertRows).
	CreateDataset(ctx context.Context, ds *Dataset) error

	// LatestDataset returns the most recently created dataset, or
	// (nil, nil) when none exist.
	LatestDataset(ctx context.Context) (*Dataset, error)

	// DatasetByName returns the most recently created dataset with the
	// given name, or (nil, nil).
	DatasetByName(ctx context.Context, name string) (*Dataset, error)

	// RecentDatasets returns up to limit datasets ordered newest first.
	RecentDatasets(ctx context.Context, limit int) ([]*Dataset, error)

	// BulkInsertRows appends records to a dataset in the given order,
	// assigning contiguous sequence numbers after the current maximum,
	// and increments the dataset's row count by len(records). The whole
	// batch commits or fails as a unit.
	BulkInsertRows(ctx context.Context, datasetID string, records []Record) error

	// InsertRow appends a single record, assigning the next sequence
	// number, and returns the stored row. Row count is not adjusted;
	// callers pair this with AddRowCount.
	InsertRow(ctx context.Context, datasetID string, rec Record) (*Row, error)

	// ListRows returns all rows of a dataset in sequence order.
	ListRows(ctx context.Context, datasetID string) ([]*Row, error)

	// RowAt returns the row at the given zero-based position in sequence
	// order, or (nil, nil) when the position is out of range.
	RowAt(ctx context.Context, datasetID string, index int) (*Row, error)

	// UpdateRow replaces the data of an existing row.
	UpdateRow(ctx context.Context, rowID string, data Record) error

	// DeleteRow removes a row by ID.
	DeleteRow(ctx context.Context, rowID string) error

	// AddRowCount adjusts a dataset's row count by delta, which may be
	// negative.
	AddRowCount(ctx context.Context, datasetID string, delta int) error
}
