// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store_test

import (
	"context"
	"testing"

	"github.com/sigil-dev/sketch/internal/store"
	_ "github.com/sigil-dev/sketch/internal/store/sqlite" // register sqlite backend
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentStore_SQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := &store.StorageConfig{
		Backend: "sqlite",
	}

	ds, err := store.NewDocumentStore(cfg, dir)
	require.NoError(t, err)
	assert.NotNil(t, ds)
	require.NoError(t, ds.Close())
}

func TestNewDocumentStore_DefaultsToSQLite(t *testing.T) {
	ds, err := store.NewDocumentStore(&store.StorageConfig{}, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })

	doc := store.NewDocument("default", []byte(`{}`))
	require.NoError(t, ds.Create(context.Background(), doc))
}

func TestNewDocumentStore_Memory(t *testing.T) {
	ds, err := store.NewDocumentStore(&store.StorageConfig{Backend: "memory"}, "")
	require.NoError(t, err)
	_, ok := ds.(*store.MemoryStore)
	assert.True(t, ok)
}

func TestNewDocumentStore_UnknownBackend(t *testing.T) {
	cfg := &store.StorageConfig{
		Backend: "unknown",
	}

	_, err := store.NewDocumentStore(cfg, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
	assert.True(t, sketcherr.HasCode(err, sketcherr.CodeStoreBackendUnsupported))
}

func TestRegisterBackend_Custom(t *testing.T) {
	var gotPath string
	store.RegisterBackend("test-custom", func(dataPath string) (store.DocumentStore, error) {
		gotPath = dataPath
		return store.NewMemoryStore(), nil
	})

	ds, err := store.NewDocumentStore(&store.StorageConfig{Backend: "test-custom"}, "/some/path")
	require.NoError(t, err)
	assert.NotNil(t, ds)
	assert.Equal(t, "/some/path", gotPath)
	assert.Contains(t, store.Backends(), "test-custom")
}

func TestBackends_IncludesBuiltins(t *testing.T) {
	backends := store.Backends()
	assert.Contains(t, backends, "memory")
	assert.Contains(t, backends, "sqlite")
}
