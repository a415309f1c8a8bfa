package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

func TestUploadRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("insert then get round-trips every field", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewUploadRepository(db)

		in := model.Upload{
			ID:           testutil.MakeID(),
			Filename:     "portfolio.xlsx",
			SizeBytes:    2048,
			HoldingCount: 7,
			SkippedRows:  1,
			CreatedAt:    base,
			Payload:      []byte("sealed"),
		}
		require.NoError(t, repo.Insert(ctx, in))

		got, err := repo.Get(ctx, in.ID)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})

	t.Run("get unknown id is not found", func(t *testing.T) {
		repo := repository.NewUploadRepository(testutil.SetupTestDB(t))

		_, err := repo.Get(ctx, testutil.MakeID())
		assert.ErrorIs(t, err, apperrors.ErrUploadNotFound)
	})

	t.Run("list is newest first without payloads", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewUploadRepository(db)

		older := testutil.NewUpload().WithCreatedAt(base).Build(t, db)
		newer := testutil.NewUpload().WithCreatedAt(base.Add(time.Hour)).Build(t, db)

		list, err := repo.List(ctx, model.UploadFilters{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, older.ID, list[1].ID)
		assert.Nil(t, list[0].Payload)
	})

	t.Run("list on empty table is an empty slice", func(t *testing.T) {
		repo := repository.NewUploadRepository(testutil.SetupTestDB(t))

		list, err := repo.List(ctx, model.UploadFilters{})
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("list applies since, sort direction and limit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewUploadRepository(db)

		testutil.NewUpload().WithCreatedAt(base).Build(t, db)
		second := testutil.NewUpload().WithCreatedAt(base.Add(time.Hour)).Build(t, db)
		third := testutil.NewUpload().WithCreatedAt(base.Add(2 * time.Hour)).Build(t, db)

		since := base.Add(30 * time.Minute)
		list, err := repo.List(ctx, model.UploadFilters{Since: &since, SortDir: "asc"})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, third.ID, list[1].ID)

		list, err = repo.List(ctx, model.UploadFilters{Limit: 1})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, third.ID, list[0].ID)
	})

	t.Run("delete older than removes only expired rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewUploadRepository(db)

		testutil.NewUpload().WithCreatedAt(base).Build(t, db)
		testutil.NewUpload().WithCreatedAt(base.Add(500 * time.Millisecond)).Build(t, db)
		kept := testutil.NewUpload().WithCreatedAt(base.Add(2 * time.Hour)).Build(t, db)

		n, err := repo.DeleteOlderThan(ctx, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		assert.Equal(t, 1, testutil.CountRows(t, db, "upload"))

		_, err = repo.Get(ctx, kept.ID)
		assert.NoError(t, err)
	})
}
