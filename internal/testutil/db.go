// Package testutil provides SQLite-backed stores for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/fitsocial/internal/model"
	"github.com/d60-Lab/fitsocial/internal/repository"
	"github.com/d60-Lab/fitsocial/pkg/database"
	"github.com/d60-Lab/fitsocial/pkg/logger"
)

// NewDB opens a migrated SQLite database in a temp dir. A single connection
// serialises access, so code inside a transaction must only use the tx handle.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	logger.Set(zaptest.NewLogger(t))

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_foreign_keys=off"
	db, err := database.Open(sqlite.Open(dsn), 200*time.Millisecond)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	return db
}

// NewStore returns a Store over NewDB.
func NewStore(t testing.TB) *repository.Store {
	t.Helper()
	return repository.NewStore(NewDB(t))
}

// SeedUsers inserts users with the given ids; usernames mirror the ids.
func SeedUsers(t testing.TB, db *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, db.Create(&model.User{ID: id, Username: id, DisplayName: id}).Error)
	}
}
