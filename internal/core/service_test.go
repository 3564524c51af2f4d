package core_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/csvdeck/csvdeck/internal/core"
	"github.com/csvdeck/csvdeck/internal/store/memory"
)

func newService(t *testing.T) (*core.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return core.NewService(store, 500, nil), store
}

// ----------------------------------------------------------------------------
// Ingest Tests
// ----------------------------------------------------------------------------

func TestService_IngestAndRows(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	csv := "name,age\nalice,30\nbob,25\n"
	ds, err := svc.Ingest(ctx, []byte(csv), "people.csv")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if ds.Name != "people" {
		t.Errorf("Name = %q, want people", ds.Name)
	}
	if ds.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", ds.RowCount)
	}
	if len(ds.Columns) != 2 || ds.Columns[1].Type != core.TypeNumber {
		t.Errorf("Columns = %v", ds.Columns)
	}

	rows, err := svc.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0]["name"] != "alice" || rows[1]["name"] != "bob" {
		t.Errorf("rows out of order: %v", rows)
	}
}

func TestService_IngestEmpty(t *testing.T) {
	svc, _ := newService(t)

	for _, input := range []string{"", "name,age\n"} {
		_, err := svc.Ingest(context.Background(), []byte(input), "x.csv")
		if !errors.Is(err, core.ErrEmptyDataset) {
			t.Errorf("Ingest(%q) error = %v, want ErrEmptyDataset", input, err)
		}
	}
}

func TestService_IngestPreservesOrderAcrossBatches(t *testing.T) {
	store := memory.New()
	svc := core.NewService(store, 2, nil)
	ctx := context.Background()

	var sb strings.Builder
	sb.WriteString("n\n")
	for i := 0; i < 7; i++ {
		sb.WriteString(strconv.Itoa(i))
		sb.WriteByte('\n')
	}

	if _, err := svc.Ingest(ctx, []byte(sb.String()), "seq.csv"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	rows, err := svc.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	for i, rec := range rows {
		if rec["n"] != strconv.Itoa(i) {
			t.Fatalf("rows[%d] = %v, want n=%d", i, rec, i)
		}
	}
}

// ----------------------------------------------------------------------------
// Row Operation Tests
// ----------------------------------------------------------------------------

func TestService_RowsWithoutDataset(t *testing.T) {
	svc, _ := newService(t)

	rows, err := svc.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("Rows() = %v, want empty non-nil slice", rows)
	}
}

func TestService_AppendRow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	mustIngest(t, svc, "name\nalice\n")

	if _, err := svc.AppendRow(ctx, core.Record{"name": "bob"}); err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}

	rows, _ := svc.Rows(ctx)
	if len(rows) != 2 || rows[1]["name"] != "bob" {
		t.Errorf("rows = %v, want bob appended", rows)
	}
}

func TestService_AppendRowCreatesDefaultDataset(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	if _, err := svc.AppendRow(ctx, core.Record{"b": "2", "a": "1"}); err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}

	ds, err := store.LatestDataset(ctx)
	if err != nil || ds == nil {
		t.Fatalf("LatestDataset() = %v, %v", ds, err)
	}
	if ds.Name != "dataset" {
		t.Errorf("Name = %q, want dataset", ds.Name)
	}
	names := ds.ColumnNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("columns = %v, want sorted [a b]", names)
	}
}

func TestService_AppendEmptyRow(t *testing.T) {
	svc, _ := newService(t)

	for _, rec := range []core.Record{{}, {"a": " "}} {
		if _, err := svc.AppendRow(context.Background(), rec); !errors.Is(err, core.ErrEmptyRow) {
			t.Errorf("AppendRow(%v) error = %v, want ErrEmptyRow", rec, err)
		}
	}
}

func TestService_UpdateRowAt(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	mustIngest(t, svc, "name,age\nalice,30\nbob,25\n")

	updated, err := svc.UpdateRowAt(ctx, 1, core.Record{"age": "26"})
	if err != nil {
		t.Fatalf("UpdateRowAt() error = %v", err)
	}
	if updated["age"] != "26" || updated["name"] != "bob" {
		t.Errorf("updated = %v, want partial merge onto bob", updated)
	}

	rows, _ := svc.Rows(ctx)
	if rows[1]["age"] != "26" {
		t.Errorf("rows[1] = %v, want persisted age 26", rows[1])
	}
	if rows[0]["age"] != "30" {
		t.Errorf("rows[0] = %v, should be untouched", rows[0])
	}
}

func TestService_UpdateRowAtErrors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.UpdateRowAt(ctx, 0, core.Record{"a": "1"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("no dataset: error = %v, want ErrNotFound", err)
	}

	mustIngest(t, svc, "name\nalice\n")

	if _, err := svc.UpdateRowAt(ctx, 5, core.Record{"name": "x"}); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Errorf("out of range: error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestService_DeleteRowAt(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	mustIngest(t, svc, "n\na\nb\nc\n")

	if err := svc.DeleteRowAt(ctx, 1); err != nil {
		t.Fatalf("DeleteRowAt() error = %v", err)
	}

	rows, _ := svc.Rows(ctx)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	// Positions re-close over the gap.
	if rows[0]["n"] != "a" || rows[1]["n"] != "c" {
		t.Errorf("rows = %v, want [a c]", rows)
	}

	if err := svc.DeleteRowAt(ctx, 2); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Errorf("stale index: error = %v, want ErrIndexOutOfRange", err)
	}
}

// ----------------------------------------------------------------------------
// Export Tests
// ----------------------------------------------------------------------------

func TestService_Export(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	mustIngest(t, svc, "name,age\nalice,30\n")

	name, data, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if name != "x" {
		t.Errorf("name = %q, want x", name)
	}
	want := "name,age\n\"alice\",\"30\""
	if string(data) != want {
		t.Errorf("data = %q, want %q", data, want)
	}
}

func TestService_ExportWithoutDataset(t *testing.T) {
	svc, _ := newService(t)

	if _, _, err := svc.Export(context.Background()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Export() error = %v, want ErrNotFound", err)
	}
}

// ----------------------------------------------------------------------------
// Merge Tests
// ----------------------------------------------------------------------------

func TestService_Merge(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, []byte("id,name\n1,alice\n2,bob\n"), "people.csv"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Ingest(ctx, []byte("id,score\n1,10\n3,30\n"), "scores.csv"); err != nil {
		t.Fatal(err)
	}

	ds, err := svc.Merge(ctx, core.MergeRequest{
		LeftName:  "people",
		RightName: "scores",
		On:        []string{"id"},
		How:       "outer",
		Name:      "joined",
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if ds.Name != "joined" {
		t.Errorf("Name = %q, want joined", ds.Name)
	}
	if ds.RowCount != 3 {
		t.Errorf("RowCount = %d, want 3", ds.RowCount)
	}

	// The merge result becomes the current dataset.
	rows, err := svc.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[0]["name"] != "alice" || rows[0]["score"] != "10" {
		t.Errorf("rows[0] = %v, want joined alice row", rows[0])
	}
}

func TestService_MergeDefaults(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, []byte("id\n1\n"), "older.csv"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Ingest(ctx, []byte("id\n1\n2\n"), "newer.csv"); err != nil {
		t.Fatal(err)
	}

	// No names, no how, no result name: the two most recent datasets
	// inner-join into a dataset called "merge".
	ds, err := svc.Merge(ctx, core.MergeRequest{On: []string{"id"}})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if ds.Name != "merge" {
		t.Errorf("Name = %q, want merge", ds.Name)
	}
	if ds.RowCount != 1 {
		t.Errorf("RowCount = %d, want 1 (inner join on id)", ds.RowCount)
	}
}

func TestService_MergeMissingOperand(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	mustIngest(t, svc, "id\n1\n")

	_, err := svc.Merge(ctx, core.MergeRequest{On: []string{"id"}})
	if !errors.Is(err, core.ErrDatasetsNotFound) {
		t.Errorf("Merge() error = %v, want ErrDatasetsNotFound", err)
	}
}

func mustIngest(t *testing.T, svc *core.Service, csv string) {
	t.Helper()
	if _, err := svc.Ingest(context.Background(), []byte(csv), "x.csv"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
}
