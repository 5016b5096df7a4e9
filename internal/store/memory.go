// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// Compile-time interface check.
var _ DocumentStore = (*MemoryStore)(nil)

// MemoryStore is a process-local DocumentStore. Documents are copied on
// the way in and out so callers never share buffers with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

func (m *MemoryStore) Create(_ context.Context, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[doc.ID]; exists {
		return Conflict(doc.ID)
	}
	m.docs[doc.ID] = cloneDocument(doc)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, NotFound(id)
	}
	return cloneDocument(doc), nil
}

func (m *MemoryStore) Update(_ context.Context, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.docs[doc.ID]
	if !ok {
		return NotFound(doc.ID)
	}
	updated := cloneDocument(doc)
	updated.CreatedAt = existing.CreatedAt
	if updated.UpdatedAt.IsZero() {
		updated.UpdatedAt = time.Now().UTC()
	}
	m.docs[doc.ID] = updated
	return nil
}

// List returns documents newest first.
func (m *MemoryStore) List(_ context.Context, opts ListOpts) ([]*Document, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	m.mu.RLock()
	all := make([]*Document, 0, len(m.docs))
	for _, doc := range m.docs {
		all = append(all, cloneDocument(doc))
	}
	m.mu.RUnlock()

	slices.SortFunc(all, func(a, b *Document) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if opts.Offset >= len(all) {
		return nil, nil
	}
	all = all[opts.Offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return NotFound(id)
	}
	delete(m.docs, id)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func cloneDocument(doc *Document) *Document {
	c := *doc
	c.Data = slices.Clone(doc.Data)
	return &c
}
