package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/sqlcache"
)

func TestOpenRejectsUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, AutoMigrate(db))
	require.True(t, db.Migrator().HasTable("cache_entries"))
	require.True(t, db.Migrator().HasIndex(&sqlcache.Entry{}, "ExpiresAt"))
}

func TestAutoMigrateRequiresHandle(t *testing.T) {
	require.Error(t, AutoMigrate(nil))
}
