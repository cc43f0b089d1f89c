package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/cutm/results/core/result"
)

type recordRepository struct {
	db *recordTable
}

var _ result.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *DB) result.Repository {
	return &recordRepository{db: db.record}
}

func (repo *recordRepository) UpsertRecord(_ context.Context, rec result.Record) (result.Record, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec = rec.Clone()
	if idx, ok := repo.db.index[rec.Roll]; ok {
		orig := repo.db.rows[idx]
		rec.ID = orig.ID
		rec.CreatedAt = orig.CreatedAt
		repo.db.rows[idx] = &rec
		return rec.Clone(), false, nil
	}

	rec.ID = uuid.New().String()
	repo.db.index[rec.Roll] = len(repo.db.rows)
	repo.db.rows = append(repo.db.rows, &rec)
	return rec.Clone(), true, nil
}

func (repo *recordRepository) GetRecord(_ context.Context, roll string) (result.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if idx, ok := repo.db.index[roll]; ok {
		return repo.db.rows[idx].Clone(), nil
	}
	return result.Record{}, result.ErrNotFound
}

func (repo *recordRepository) QueryAllRecords(_ context.Context) ([]result.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]result.Record, 0, len(repo.db.rows))
	for _, rec := range repo.db.rows {
		recs = append(recs, rec.Clone())
	}
	return recs, nil
}

func (repo *recordRepository) DeleteAllRecords(_ context.Context) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	count := len(repo.db.rows)
	repo.db.rows = nil
	repo.db.index = make(map[string]int)
	return count, nil
}
