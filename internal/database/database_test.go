package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OCAP2/bouncemarker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSqliteDB_InMemoryIsPrivate(t *testing.T) {
	a, err := GetSqliteDB("")
	require.NoError(t, err)
	b, err := GetSqliteDB("")
	require.NoError(t, err)

	require.NoError(t, Migrate(a))
	require.NoError(t, a.Create(&model.Run{Name: "only in a"}).Error)

	assert.True(t, a.Migrator().HasTable(&model.Run{}))
	assert.False(t, b.Migrator().HasTable(&model.Run{}))
}

func TestMigrate_CreatesTables(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Create(&model.Run{Name: "dumped"}).Error)

	path := filepath.Join(t.TempDir(), "trace.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// a second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	disk, err := GetSqliteDB(path)
	require.NoError(t, err)
	var runs []model.Run
	require.NoError(t, disk.Find(&runs).Error)
	require.Len(t, runs, 1)
	assert.Equal(t, "dumped", runs[0].Name)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	db, err := GetSqliteDB("")
	require.NoError(t, err)
	assert.Error(t, DumpMemoryDBToDisk(db, ""))
}
