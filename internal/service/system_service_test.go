package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/testutil"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/version"
)

func TestSystemService(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		svc := testutil.NewTestSystemService(t, testutil.SetupTestDB(t))
		assert.NoError(t, svc.CheckHealth())
	})

	t.Run("closed database is unhealthy", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSystemService(t, db)
		db.Close()

		assert.Error(t, svc.CheckHealth())
	})

	t.Run("version reports app and schema", func(t *testing.T) {
		svc := testutil.NewTestSystemService(t, testutil.SetupTestDB(t))

		info, err := svc.CheckVersion()
		require.NoError(t, err)
		assert.Equal(t, version.Version, info.AppVersion)
		assert.Equal(t, "1", info.DbVersion)
		assert.True(t, info.Features["upload_archive"])
	})
}
