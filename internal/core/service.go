package core

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Service implements the dataset operations on top of a Store. All
// methods operate on the most recently created dataset, matching the
// single-active-table model of the UI.
type Service struct {
	store     Store
	batchSize int
	logger    *slog.Logger
}

// NewService creates a Service. batchSize bounds how many rows go into
// a single bulk insert during ingestion; values below 1 fall back to 500.
func NewService(store Store, batchSize int, logger *slog.Logger) *Service {
	if batchSize < 1 {
		batchSize = 500
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, batchSize: batchSize, logger: logger}
}

// MergeRequest names the operands and parameters of a merge. Empty
// LeftName selects the most recent dataset; empty or unresolvable
// RightName selects the second most recent. How defaults to inner and
// Name to "merge".
type MergeRequest struct {
	LeftName  string
	RightName string
	On        []string
	How       string
	Name      string
}

// Ingest parses uploaded CSV bytes, infers the column schema, and
// persists a new dataset named after the file. Rows are written in
// batches; each batch commits atomically.
func (s *Service) Ingest(ctx context.Context, data []byte, filename string) (*Dataset, error) {
	header, records, err := parseRecords(sanitizeUTF8(data))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	ds := &Dataset{
		ID:        uuid.NewString(),
		Name:      datasetNameFromFile(filename),
		Columns:   inferColumns(header, records),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDataset(ctx, ds); err != nil {
		return nil, err
	}
	if err := s.insertBatched(ctx, ds.ID, records); err != nil {
		return nil, err
	}
	ds.RowCount = len(records)

	s.logger.Info("dataset ingested",
		"dataset_id", ds.ID,
		"name", ds.Name,
		"columns", len(ds.Columns),
		"rows", ds.RowCount,
	)
	return ds, nil
}

// insertBatched writes records through the store in batchSize chunks,
// preserving their order across batches.
func (s *Service) insertBatched(ctx context.Context, datasetID string, records []Record) error {
	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.store.BulkInsertRows(ctx, datasetID, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// Rows returns all rows of the current dataset in insertion order. When
// no dataset exists it returns an empty slice, not an error: an empty
// table is a valid state for the listing endpoint.
func (s *Service) Rows(ctx context.Context) ([]Record, error) {
	ds, err := s.store.LatestDataset(ctx)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return []Record{}, nil
	}

	rows, err := s.store.ListRows(ctx, ds.ID)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.Data
	}
	return out, nil
}

// AppendRow adds a record to the end of the current dataset. If no
// dataset exists yet one named "dataset" is created on the fly, with a
// schema derived from the record's keys, all typed string.
func (s *Service) AppendRow(ctx context.Context, rec Record) (Record, error) {
	if rec.IsEmpty() {
		return nil, ErrEmptyRow
	}

	ds, err := s.store.LatestDataset(ctx)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		ds, err = s.createDefaultDataset(ctx, rec)
		if err != nil {
			return nil, err
		}
	}

	row, err := s.store.InsertRow(ctx, ds.ID, rec.Clone())
	if err != nil {
		return nil, err
	}
	if err := s.store.AddRowCount(ctx, ds.ID, 1); err != nil {
		return nil, err
	}

	s.logger.Info("row appended", "dataset_id", ds.ID, "row_id", row.ID)
	return row.Data, nil
}

// createDefaultDataset makes an ad-hoc dataset for a row appended before
// any upload. Columns come from the record's keys in sorted order so the
// schema is deterministic.
func (s *Service) createDefaultDataset(ctx context.Context, rec Record) (*Dataset, error) {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]Column, len(keys))
	for i, k := range keys {
		cols[i] = Column{Name: k, Type: TypeString}
	}

	ds := &Dataset{
		ID:        uuid.NewString(),
		Name:      "dataset",
		Columns:   cols,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDataset(ctx, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// UpdateRowAt merges partial into the row at the given position. Fields
// present in partial overwrite the stored values; absent fields are
// left untouched. Returns the updated record.
func (s *Service) UpdateRowAt(ctx context.Context, index int, partial Record) (Record, error) {
	row, err := s.rowAt(ctx, index)
	if err != nil {
		return nil, err
	}

	merged := row.Data.Clone()
	for k, v := range partial {
		merged[k] = v
	}
	if err := s.store.UpdateRow(ctx, row.ID, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// DeleteRowAt removes the row at the given position. Subsequent rows
// shift down by one.
func (s *Service) DeleteRowAt(ctx context.Context, index int) error {
	row, err := s.rowAt(ctx, index)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRow(ctx, row.ID); err != nil {
		return err
	}
	if err := s.store.AddRowCount(ctx, row.DatasetID, -1); err != nil {
		return err
	}

	s.logger.Info("row deleted", "dataset_id", row.DatasetID, "row_id", row.ID)
	return nil
}

// rowAt resolves a positional index against the current dataset.
func (s *Service) rowAt(ctx context.Context, index int) (*Row, error) {
	ds, err := s.store.LatestDataset(ctx)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, ErrNotFound
	}

	row, err := s.store.RowAt(ctx, ds.ID, index)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrIndexOutOfRange
	}
	return row, nil
}

// Export serializes the current dataset to CSV text and returns the
// dataset name alongside the bytes. Returns ErrNotFound when nothing
// has been uploaded.
func (s *Service) Export(ctx context.Context) (string, []byte, error) {
	ds, err := s.store.LatestDataset(ctx)
	if err != nil {
		return "", nil, err
	}
	if ds == nil {
		return "", nil, ErrNotFound
	}

	rows, err := s.store.ListRows(ctx, ds.ID)
	if err != nil {
		return "", nil, err
	}
	return ds.Name, renderCSV(ds, rows), nil
}

// Merge joins two stored datasets and persists the result as a new
// dataset, which becomes the current one. The left operand wins on
// overlapping column values.
func (s *Service) Merge(ctx context.Context, req MergeRequest) (*Dataset, error) {
	how := JoinMode(req.How)
	if req.How == "" {
		how = JoinInner
	}
	name := req.Name
	if name == "" {
		name = "merge"
	}

	left, right, err := s.resolveOperands(ctx, req.LeftName, req.RightName)
	if err != nil {
		return nil, err
	}

	leftRows, err := s.store.ListRows(ctx, left.ID)
	if err != nil {
		return nil, err
	}
	rightRows, err := s.store.ListRows(ctx, right.ID)
	if err != nil {
		return nil, err
	}

	result := joinRows(leftRows, rightRows, req.On, how)

	ds := &Dataset{
		ID:        uuid.NewString(),
		Name:      name,
		Columns:   mergedColumns(left, right, result),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDataset(ctx, ds); err != nil {
		return nil, err
	}
	if len(result) > 0 {
		if err := s.insertBatched(ctx, ds.ID, result); err != nil {
			return nil, err
		}
	}
	ds.RowCount = len(result)

	s.logger.Info("datasets merged",
		"left", left.Name,
		"right", right.Name,
		"how", string(how),
		"on", req.On,
		"result_rows", ds.RowCount,
	)
	return ds, nil
}

// resolveOperands picks the two datasets to merge. Named operands are
// looked up directly; an empty or unknown left name means the most
// recent dataset, and an empty or unknown right name means the second
// most recent. The operands must be distinct.
func (s *Service) resolveOperands(ctx context.Context, leftName, rightName string) (*Dataset, *Dataset, error) {
	recent, err := s.store.RecentDatasets(ctx, 2)
	if err != nil {
		return nil, nil, err
	}

	var left *Dataset
	if leftName != "" {
		left, err = s.store.DatasetByName(ctx, leftName)
		if err != nil {
			return nil, nil, err
		}
	}
	if left == nil {
		if len(recent) > 0 {
			left = recent[0]
		}
	}

	var right *Dataset
	if rightName != "" {
		right, err = s.store.DatasetByName(ctx, rightName)
		if err != nil {
			return nil, nil, err
		}
	}
	if right == nil || (left != nil && right.ID == left.ID) {
		for _, ds := range recent {
			if left != nil && ds.ID == left.ID {
				continue
			}
			right = ds
			break
		}
	}

	if left == nil || right == nil || left.ID == right.ID {
		return nil, nil, ErrDatasetsNotFound
	}
	return left, right, nil
}
