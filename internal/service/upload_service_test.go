package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
)

// TestUploadService_Accept tests the Accept method.
//
// WHY: an upload is the only way holdings enter the system. A bad file must
// be rejected without touching the loaded portfolio; a good one must replace
// it and be archived.
func TestUploadService_Accept(t *testing.T) {
	ctx := context.Background()

	t.Run("loads holdings and archives the file", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		sess := testutil.NewTestSession(t, testutil.NewMockQuoteFetcher())
		svc := testutil.NewTestUploadService(t, db, sess)
		data := testutil.BuildWorkbook(t, testutil.SampleSheet())

		// Execute
		res, err := svc.Accept(ctx, "portfolio.xlsx", data)

		// Assert
		require.NoError(t, err)
		assert.Len(t, res.Holdings, 7)
		assert.Empty(t, res.Skipped)
		assert.NotEmpty(t, res.UploadID)
		assert.InDelta(t, 74500.0, res.Holdings[0].Investment, 1e-9)

		assert.Len(t, sess.Snapshot().Holdings, 7)
		assert.Equal(t, 1, testutil.CountRows(t, db, "upload"))

		var payload []byte
		require.NoError(t, db.QueryRow("SELECT payload FROM upload WHERE id = ?", res.UploadID).Scan(&payload))
		assert.NotEqual(t, data, payload)
	})

	t.Run("reports skipped rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestUploadService(t, db, testutil.NewTestSession(t, testutil.NewMockQuoteFetcher()))
		rows := append(testutil.SampleSheet(), []any{4.0, "Broken Co", 0.0, 10.0})

		res, err := svc.Accept(ctx, "portfolio.xlsx", testutil.BuildWorkbook(t, rows))

		require.NoError(t, err)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, "Broken Co", res.Skipped[0].Name)
	})

	t.Run("rejects unsupported file types", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestUploadService(t, db, testutil.NewTestSession(t, testutil.NewMockQuoteFetcher()))

		_, err := svc.Accept(ctx, "portfolio.csv", []byte("a,b,c"))

		assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)
		assert.Zero(t, testutil.CountRows(t, db, "upload"))
	})

	t.Run("rejects files over the size limit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestUploadService(t, db, testutil.NewTestSession(t, testutil.NewMockQuoteFetcher()))

		_, err := svc.Accept(ctx, "portfolio.xlsx", make([]byte, 2<<20))

		assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
		assert.True(t, apperrors.IsInputError(err))
	})

	t.Run("no valid holdings leaves the session untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		sess := testutil.NewTestSession(t, testutil.NewMockQuoteFetcher())
		svc := testutil.NewTestUploadService(t, db, sess)
		_, err := svc.Accept(ctx, "first.xlsx", testutil.BuildWorkbook(t, testutil.SampleSheet()))
		require.NoError(t, err)

		_, err = svc.Accept(ctx, "second.xlsx", testutil.BuildWorkbook(t, [][]any{{nil, "Tech Sector"}, {nil, "Total"}}))

		assert.ErrorIs(t, err, apperrors.ErrNoValidHoldings)
		assert.Len(t, sess.Snapshot().Holdings, 7)
		assert.Equal(t, 1, testutil.CountRows(t, db, "upload"))
	})
}

// TestUploadService_Restore tests the Restore method.
//
// WHY: restoring must yield the very holdings of the original upload, and an
// archive that cannot be decrypted must never load garbage.
func TestUploadService_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("reloads an archived upload", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		sess := testutil.NewTestSession(t, testutil.NewMockQuoteFetcher())
		svc := testutil.NewTestUploadService(t, db, sess)
		accepted, err := svc.Accept(ctx, "portfolio.xlsx", testutil.BuildWorkbook(t, testutil.SampleSheet()))
		require.NoError(t, err)
		sess.Replace(nil)

		restored, err := svc.Restore(ctx, accepted.UploadID)

		require.NoError(t, err)
		assert.Equal(t, accepted.Holdings, restored.Holdings)
		assert.Len(t, sess.Snapshot().Holdings, 7)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		svc := testutil.NewTestUploadService(t, testutil.SetupTestDB(t), testutil.NewTestSession(t, testutil.NewMockQuoteFetcher()))

		_, err := svc.Restore(ctx, testutil.MakeID())
		assert.ErrorIs(t, err, apperrors.ErrUploadNotFound)
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		svc := testutil.NewTestUploadService(t, testutil.SetupTestDB(t), testutil.NewTestSession(t, testutil.NewMockQuoteFetcher()))

		_, err := svc.Restore(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, apperrors.ErrInvalidUUID)
	})

	t.Run("payload sealed with another key fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		sess := testutil.NewTestSession(t, testutil.NewMockQuoteFetcher())
		other, err := service.NewUploadService(repository.NewUploadRepository(db), sess, service.UploadOptions{}, zerolog.Nop())
		require.NoError(t, err)
		accepted, err := other.Accept(ctx, "portfolio.xlsx", testutil.BuildWorkbook(t, testutil.SampleSheet()))
		require.NoError(t, err)

		svc := testutil.NewTestUploadService(t, db, sess)
		_, err = svc.Restore(ctx, accepted.UploadID)

		assert.ErrorIs(t, err, apperrors.ErrFailedToDecryptUpload)
	})
}

func TestUploadService_ListAndPurge(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestUploadService(t, db, testutil.NewTestSession(t, testutil.NewMockQuoteFetcher()))

	testutil.NewUpload().WithCreatedAt(time.Now().Add(-48 * time.Hour)).Build(t, db)
	fresh := testutil.NewUpload().Build(t, db)

	list, err := svc.List(ctx, model.UploadFilters{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = svc.List(ctx, model.UploadFilters{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fresh.ID, list[0].ID)
}

func TestNewUploadService_InvalidKey(t *testing.T) {
	_, err := service.NewUploadService(nil, nil, service.UploadOptions{EncryptionKey: "short"}, zerolog.Nop())
	assert.Error(t, err)
}
