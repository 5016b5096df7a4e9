// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"errors"

	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// Sentinel errors for store operations.
// Backends wrap these with a coded error so both errors.Is() and
// sketcherr classification work.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a document with the same ID already exists.
	ErrConflict = errors.New("conflict")
)

// NotFound returns the coded not-found error for a document id.
func NotFound(id string) error {
	return sketcherr.Wrap(ErrNotFound, sketcherr.CodeStoreDocumentNotFound,
		"document "+id+" not found", sketcherr.FieldDocumentID(id))
}

// Conflict returns the coded conflict error for a document id.
func Conflict(id string) error {
	return sketcherr.Wrap(ErrConflict, sketcherr.CodeStoreDocumentConflict,
		"document "+id+" already exists", sketcherr.FieldDocumentID(id))
}
