package storage_test

import (
	"testing"

	"github.com/OCAP2/bouncemarker/internal/config"
	"github.com/OCAP2/bouncemarker/internal/storage"
	"github.com/OCAP2/bouncemarker/internal/storage/gormstore"
	"github.com/OCAP2/bouncemarker/internal/storage/influx"
	"github.com/OCAP2/bouncemarker/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend  = (*memory.Backend)(nil)
	_ storage.Exporter = (*memory.Backend)(nil)
	_ storage.Backend  = (*gormstore.Backend)(nil)
	_ storage.Backend  = (*influx.Backend)(nil)
)

func TestNewBackend_Memory(t *testing.T) {
	for _, typ := range []string{"memory", ""} {
		b, err := storage.NewBackend(config.StorageConfig{Type: typ})
		require.NoError(t, err)
		assert.IsType(t, &memory.Backend{}, b)
	}
}

func TestNewBackend_SQLite(t *testing.T) {
	b, err := storage.NewBackend(config.StorageConfig{Type: "sqlite"})
	require.NoError(t, err)
	require.IsType(t, &gormstore.Backend{}, b)
	require.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestNewBackend_Influx(t *testing.T) {
	b, err := storage.NewBackend(config.StorageConfig{Type: "influx"})
	require.NoError(t, err)
	assert.IsType(t, &influx.Backend{}, b)
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "mongo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}
