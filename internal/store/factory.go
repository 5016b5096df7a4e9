// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"slices"
	"sync"

	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// DocumentStoreFactory creates a document store rooted at dataPath.
type DocumentStoreFactory func(dataPath string) (DocumentStore, error)

var (
	documentFactories = map[string]DocumentStoreFactory{}
	factoriesMu       sync.RWMutex
)

func init() {
	RegisterBackend("memory", func(string) (DocumentStore, error) {
		return NewMemoryStore(), nil
	})
}

// RegisterBackend registers the factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, factory DocumentStoreFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	documentFactories[name] = factory
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(documentFactories))
	for name := range documentFactories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg *StorageConfig) string {
	if cfg == nil || cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// NewDocumentStore creates the document store for the configured backend.
// The dataPath directory is used to derive database file paths.
func NewDocumentStore(cfg *StorageConfig, dataPath string) (DocumentStore, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := documentFactories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, sketcherr.Errorf(sketcherr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}

	ds, err := factory(dataPath)
	if err != nil {
		return nil, sketcherr.Wrap(err, sketcherr.CodeStoreDatabaseFailure, "creating document store",
			sketcherr.FieldBackend(backend))
	}
	return ds, nil
}
