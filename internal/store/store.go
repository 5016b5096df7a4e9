// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package store persists sketch documents behind a backend-neutral interface.
package store

import "context"

// DocumentStore manages serialised sketch documents.
type DocumentStore interface {
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	Update(ctx context.Context, doc *Document) error
	List(ctx context.Context, opts ListOpts) ([]*Document, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
