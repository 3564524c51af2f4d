// Package memory provides an in-memory Store implementation. It backs
// the test suite and local development without a database; data does
// not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/csvdeck/csvdeck/internal/auth"
	"github.com/csvdeck/csvdeck/internal/core"
)

// Store keeps datasets, rows and users in maps under one mutex. Returned
// datasets and records are copies, so callers cannot mutate stored state.
type Store struct {
	mu        sync.Mutex
	datasets  map[string]*core.Dataset
	created   map[string]int64 // dataset ID -> insertion order
	nextOrder int64
	rows      map[string][]*core.Row // dataset ID -> rows in seq order
	rowIndex  map[string]string      // row ID -> dataset ID
	nextSeq   map[string]int64
	users     map[string]*auth.User // keyed by email
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		datasets: make(map[string]*core.Dataset),
		created:  make(map[string]int64),
		rows:     make(map[string][]*core.Row),
		rowIndex: make(map[string]string),
		nextSeq:  make(map[string]int64),
		users:    make(map[string]*auth.User),
	}
}

func (s *Store) CreateDataset(_ context.Context, ds *core.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *ds
	cp.Columns = append([]core.Column(nil), ds.Columns...)
	s.datasets[ds.ID] = &cp
	s.created[ds.ID] = s.nextOrder
	s.nextOrder++
	return nil
}

func (s *Store) LatestDataset(_ context.Context) (*core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.sortedDatasets()
	if len(recent) == 0 {
		return nil, nil
	}
	return copyDataset(recent[0]), nil
}

func (s *Store) DatasetByName(_ context.Context, name string) (*core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ds := range s.sortedDatasets() {
		if ds.Name == name {
			return copyDataset(ds), nil
		}
	}
	return nil, nil
}

func (s *Store) RecentDatasets(_ context.Context, limit int) ([]*core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.sortedDatasets()
	if limit < len(recent) {
		recent = recent[:limit]
	}
	out := make([]*core.Dataset, len(recent))
	for i, ds := range recent {
		out[i] = copyDataset(ds)
	}
	return out, nil
}

// sortedDatasets returns datasets newest first. Creation timestamps can
// collide within a test run, so ties break on insertion order.
func (s *Store) sortedDatasets() []*core.Dataset {
	out := make([]*core.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.created[out[i].ID] > s.created[out[j].ID]
	})
	return out
}

func (s *Store) BulkInsertRows(_ context.Context, datasetID string, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, ok := s.datasets[datasetID]
	if !ok {
		return nil
	}
	for _, rec := range records {
		s.appendRowLocked(datasetID, rec)
	}
	ds.RowCount += len(records)
	return nil
}

func (s *Store) InsertRow(_ context.Context, datasetID string, rec core.Record) (*core.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.appendRowLocked(datasetID, rec)
	cp := *row
	cp.Data = row.Data.Clone()
	return &cp, nil
}

func (s *Store) appendRowLocked(datasetID string, rec core.Record) *core.Row {
	seq := s.nextSeq[datasetID]
	s.nextSeq[datasetID] = seq + 1

	row := &core.Row{
		ID:        uuid.NewString(),
		DatasetID: datasetID,
		Seq:       seq,
		Data:      rec.Clone(),
		CreatedAt: time.Now().UTC(),
	}
	s.rows[datasetID] = append(s.rows[datasetID], row)
	s.rowIndex[row.ID] = datasetID
	return row
}

func (s *Store) ListRows(_ context.Context, datasetID string) ([]*core.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.rows[datasetID]
	out := make([]*core.Row, len(stored))
	for i, row := range stored {
		cp := *row
		cp.Data = row.Data.Clone()
		out[i] = &cp
	}
	return out, nil
}

func (s *Store) RowAt(_ context.Context, datasetID string, index int) (*core.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.rows[datasetID]
	if index < 0 || index >= len(stored) {
		return nil, nil
	}
	cp := *stored[index]
	cp.Data = stored[index].Data.Clone()
	return &cp, nil
}

func (s *Store) UpdateRow(_ context.Context, rowID string, data core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	datasetID, ok := s.rowIndex[rowID]
	if !ok {
		return nil
	}
	for _, row := range s.rows[datasetID] {
		if row.ID == rowID {
			row.Data = data.Clone()
			return nil
		}
	}
	return nil
}

func (s *Store) DeleteRow(_ context.Context, rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	datasetID, ok := s.rowIndex[rowID]
	if !ok {
		return nil
	}
	stored := s.rows[datasetID]
	for i, row := range stored {
		if row.ID == rowID {
			s.rows[datasetID] = append(stored[:i], stored[i+1:]...)
			delete(s.rowIndex, rowID)
			return nil
		}
	}
	return nil
}

func (s *Store) AddRowCount(_ context.Context, datasetID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ds, ok := s.datasets[datasetID]; ok {
		ds.RowCount += delta
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func copyDataset(ds *core.Dataset) *core.Dataset {
	cp := *ds
	cp.Columns = append([]core.Column(nil), ds.Columns...)
	return &cp
}
