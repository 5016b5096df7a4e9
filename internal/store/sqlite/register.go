// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sigil-dev/sketch/internal/store"
)

// DocumentsFile is the database file created under the data directory.
const DocumentsFile = "documents.db"

func init() {
	store.RegisterBackend("sqlite", newDocumentStore)
}

func newDocumentStore(dataPath string) (store.DocumentStore, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dataPath, err)
	}

	ds, err := NewDocumentStore(filepath.Join(dataPath, DocumentsFile))
	if err != nil {
		return nil, fmt.Errorf("creating document store: %w", err)
	}
	return ds, nil
}
