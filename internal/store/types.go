// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"time"

	"github.com/google/uuid"
)

// Document is a stored sketch. Data holds the encoded sketch document
// (JSON) and is opaque to the store.
type Document struct {
	ID        string
	Name      string
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDocument returns a document with a fresh identifier and timestamps.
func NewDocument(name string, data []byte) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:        uuid.NewString(),
		Name:      name,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ListOpts provides pagination parameters for list operations.
type ListOpts struct {
	Limit  int
	Offset int
}

// DefaultListLimit applies when ListOpts.Limit is not positive.
const DefaultListLimit = 100
