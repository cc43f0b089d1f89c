package inmemdb

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cutm/results/core/result"
)

func setup(t *testing.T) result.Repository {
	db, err := Open()
	require.NoError(t, err)
	return NewRecordRepository(db)
}

func newRecord(roll, name string, subjects ...result.SubjectScore) result.Record {
	now := time.Now().UTC()
	return result.Record{
		Roll:      roll,
		Name:      name,
		Branch:    "CSE",
		Section:   "A",
		Year:      "2",
		Subjects:  subjects,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func rolls(recs []result.Record) []string {
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Roll)
	}
	return out
}

func Test_recordRepository_UpsertRecord(t *testing.T) {
	ctx := context.Background()
	repo := setup(t)

	r1, created, err := repo.UpsertRecord(ctx, newRecord("R1", "Asha"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, r1.ID)

	_, created, err = repo.UpsertRecord(ctx, newRecord("R2", "Bikash"))
	require.NoError(t, err)
	assert.True(t, created)
	_, _, err = repo.UpsertRecord(ctx, newRecord("R3", "Chitra"))
	require.NoError(t, err)

	// replace the first record: position, ID and CreatedAt are kept
	repl := newRecord("R1", "Asha Das", result.SubjectScore{Name: "Maths", Obtained: 40, Total: 50})
	repl.CreatedAt = repl.CreatedAt.Add(time.Hour)
	got, created, err := repo.UpsertRecord(ctx, repl)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, r1.ID, got.ID)
	assert.Equal(t, r1.CreatedAt, got.CreatedAt)
	assert.Equal(t, "Asha Das", got.Name)

	all, err := repo.QueryAllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2", "R3"}, rolls(all))
	assert.Equal(t, "Asha Das", all[0].Name)
	assert.Equal(t, []result.SubjectScore{{Name: "Maths", Obtained: 40, Total: 50}}, all[0].Subjects)
	assert.Equal(t, "Bikash", all[1].Name)
}

func Test_recordRepository_isolation(t *testing.T) {
	ctx := context.Background()
	repo := setup(t)

	rec := newRecord("R1", "Asha", result.SubjectScore{Name: "Maths", Obtained: 40, Total: 50})
	stored, _, err := repo.UpsertRecord(ctx, rec)
	require.NoError(t, err)

	// mutating the caller's copies must not leak into the store
	rec.Subjects[0].Obtained = 0
	stored.Subjects[0].Obtained = 1

	got, err := repo.GetRecord(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, 40, got.Subjects[0].Obtained)

	all, err := repo.QueryAllRecords(ctx)
	require.NoError(t, err)
	all[0].Subjects[0].Obtained = 2

	got, err = repo.GetRecord(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, 40, got.Subjects[0].Obtained)
}

func Test_recordRepository_GetRecord(t *testing.T) {
	ctx := context.Background()
	repo := setup(t)

	_, err := repo.GetRecord(ctx, "R1")
	assert.Equal(t, result.ErrNotFound, err)

	_, _, err = repo.UpsertRecord(ctx, newRecord("R1", "Asha"))
	require.NoError(t, err)

	got, err := repo.GetRecord(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)

	_, err = repo.GetRecord(ctx, "r1")
	assert.Equal(t, result.ErrNotFound, err, "rolls are matched exactly")
}

func Test_recordRepository_DeleteAllRecords(t *testing.T) {
	ctx := context.Background()
	repo := setup(t)

	count, err := repo.DeleteAllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for i := 1; i <= 3; i++ {
		_, _, err = repo.UpsertRecord(ctx, newRecord(fmt.Sprintf("R%d", i), "Student"))
		require.NoError(t, err)
	}
	count, err = repo.DeleteAllRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	all, err := repo.QueryAllRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = repo.GetRecord(ctx, "R2")
	assert.Equal(t, result.ErrNotFound, err)

	// the index is rebuilt from scratch
	_, created, err := repo.UpsertRecord(ctx, newRecord("R2", "Student"))
	require.NoError(t, err)
	assert.True(t, created)
}

func Test_recordRepository_concurrentUpserts(t *testing.T) {
	ctx := context.Background()
	repo := setup(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _ = repo.UpsertRecord(ctx, newRecord(fmt.Sprintf("R%d", i%10), "Student"))
		}(i)
	}
	wg.Wait()

	all, err := repo.QueryAllRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)
}
