package database_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/database"
)

func TestOpenAndMigrate(t *testing.T) {
	t.Run("creates the directory and applies migrations", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "tracker.db")

		db, err := database.Open(path)
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, database.Migrate(db, zerolog.Nop()))
		require.NoError(t, database.HealthCheck(db))

		version, err := database.SchemaVersion(db)
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM upload").Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("migrating twice is a no-op", func(t *testing.T) {
		db, err := database.Open(filepath.Join(t.TempDir(), "tracker.db"))
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, database.Migrate(db, zerolog.Nop()))
		require.NoError(t, database.Migrate(db, zerolog.Nop()))
	})
}
