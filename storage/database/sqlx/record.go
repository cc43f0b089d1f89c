package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/cutm/results/core/result"
)

type (
	recordRow struct {
		ID         string      `db:"id"`
		Roll       string      `db:"roll"`
		Name       string      `db:"name"`
		Branch     string      `db:"branch"`
		Section    string      `db:"section"`
		Year       string      `db:"year"`
		Percentage float64     `db:"percentage"`
		Grade      string      `db:"grade"`
		UpdatedBy  null.String `db:"updated_by"`
		CreatedAt  time.Time   `db:"created_at"`
		UpdatedAt  time.Time   `db:"updated_at"`
	}

	subjectRow struct {
		RecordID string `db:"record_id"`
		Ordinal  int    `db:"ordinal"`
		Name     string `db:"name"`
		Obtained int    `db:"obtained"`
		Total    int    `db:"total"`
	}

	upserted struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		Inserted  bool      `db:"inserted"`
	}
)

const (
	recordColumns = `id, roll, name, branch, section, year, percentage, grade, updated_by, created_at, updated_at`

	upsertRecordQuery = `
INSERT INTO student_record (` + recordColumns + `)
VALUES (:id, :roll, :name, :branch, :section, :year, :percentage, :grade, :updated_by, :created_at, :updated_at)
ON CONFLICT (roll) DO UPDATE SET
    name = EXCLUDED.name,
    branch = EXCLUDED.branch,
    section = EXCLUDED.section,
    year = EXCLUDED.year,
    percentage = EXCLUDED.percentage,
    grade = EXCLUDED.grade,
    updated_by = EXCLUDED.updated_by,
    updated_at = EXCLUDED.updated_at
RETURNING id, created_at, (xmax = 0) AS inserted`

	insertSubjectQuery = `
INSERT INTO subject_score (record_id, ordinal, name, obtained, total)
VALUES ($1, $2, $3, $4, $5)`
)

type recordRepository struct {
	db *sqlx.DB
}

var _ result.Repository = (*recordRepository)(nil) // interface compliance check

func NewRecordRepository(db *sqlx.DB) result.Repository {
	return &recordRepository{db: db}
}

func toRow(rec result.Record) recordRow {
	return recordRow{
		ID:         rec.ID,
		Roll:       rec.Roll,
		Name:       rec.Name,
		Branch:     rec.Branch,
		Section:    rec.Section,
		Year:       rec.Year,
		Percentage: rec.Percentage,
		Grade:      string(rec.Grade),
		UpdatedBy:  null.NewString(rec.UpdatedBy, rec.UpdatedBy != ""),
		CreatedAt:  rec.CreatedAt.UTC(),
		UpdatedAt:  rec.UpdatedAt.UTC(),
	}
}

func fromRow(row recordRow, subjects []subjectRow) result.Record {
	rec := result.Record{
		ID:         row.ID,
		Roll:       row.Roll,
		Name:       row.Name,
		Branch:     row.Branch,
		Section:    row.Section,
		Year:       row.Year,
		Subjects:   make([]result.SubjectScore, 0, len(subjects)),
		Percentage: row.Percentage,
		Grade:      result.Grade(row.Grade),
		UpdatedBy:  row.UpdatedBy.String,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
	for _, sub := range subjects {
		rec.Subjects = append(rec.Subjects, result.SubjectScore{Name: sub.Name, Obtained: sub.Obtained, Total: sub.Total})
	}
	return rec
}

func (repo *recordRepository) UpsertRecord(ctx context.Context, rec result.Record) (_ result.Record, _ bool, err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return result.Record{}, false, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := toRow(rec)
	row.ID = uuid.New().String() // only used when inserting

	stmt, err := tx.PrepareNamedContext(ctx, upsertRecordQuery)
	if err != nil {
		return result.Record{}, false, errors.Wrap(err, "preparing upsert")
	}
	defer func() { _ = stmt.Close() }()

	var ret upserted
	if err = stmt.QueryRowxContext(ctx, row).StructScan(&ret); err != nil {
		return result.Record{}, false, errors.Wrap(err, "upserting record")
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM subject_score WHERE record_id = $1`, ret.ID); err != nil {
		return result.Record{}, false, errors.Wrap(err, "deleting subjects")
	}
	for i, sub := range rec.Subjects {
		if _, err = tx.ExecContext(ctx, insertSubjectQuery, ret.ID, i, sub.Name, sub.Obtained, sub.Total); err != nil {
			return result.Record{}, false, errors.Wrapf(err, "inserting subject %d", i)
		}
	}
	if err = tx.Commit(); err != nil {
		return result.Record{}, false, errors.Wrap(err, "committing upsert")
	}

	rec = rec.Clone()
	rec.ID = ret.ID
	rec.CreatedAt = ret.CreatedAt.UTC()
	return rec, ret.Inserted, nil
}

func (repo *recordRepository) GetRecord(ctx context.Context, roll string) (result.Record, error) {
	var row recordRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+recordColumns+` FROM student_record WHERE roll = $1`, roll)
	if err != nil {
		if err == sql.ErrNoRows {
			return result.Record{}, result.ErrNotFound
		}
		return result.Record{}, errors.Wrap(err, "selecting record")
	}

	var subjects []subjectRow
	err = repo.db.SelectContext(ctx, &subjects,
		`SELECT record_id, ordinal, name, obtained, total FROM subject_score WHERE record_id = $1 ORDER BY ordinal`, row.ID)
	if err != nil {
		return result.Record{}, errors.Wrap(err, "selecting subjects")
	}
	return fromRow(row, subjects), nil
}

func (repo *recordRepository) QueryAllRecords(ctx context.Context) ([]result.Record, error) {
	var rows []recordRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+recordColumns+` FROM student_record ORDER BY position`); err != nil {
		return nil, errors.Wrap(err, "selecting records")
	}

	var subjects []subjectRow
	err := repo.db.SelectContext(ctx, &subjects, `
SELECT s.record_id, s.ordinal, s.name, s.obtained, s.total
FROM subject_score s
JOIN student_record r ON r.id = s.record_id
ORDER BY r.position, s.ordinal`)
	if err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	byRecord := make(map[string][]subjectRow, len(rows))
	for _, sub := range subjects {
		byRecord[sub.RecordID] = append(byRecord[sub.RecordID], sub)
	}

	recs := make([]result.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, fromRow(row, byRecord[row.ID]))
	}
	return recs, nil
}

func (repo *recordRepository) DeleteAllRecords(ctx context.Context) (int, error) {
	// subjects go with their record (ON DELETE CASCADE)
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student_record`)
	if err != nil {
		return 0, errors.Wrap(err, "deleting records")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted records")
	}
	return int(n), nil
}
