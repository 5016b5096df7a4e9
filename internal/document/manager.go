// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package document manages the lifecycle of open sketches: loading and saving
// them through a store, serialising access with one lock per document, and
// driving the solver tick by tick while solving is enabled.
package document

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sigil-dev/sketch/internal/sketch"
	"github.com/sigil-dev/sketch/internal/store"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
	"github.com/sigil-dev/sketch/pkg/health"
)

// Config holds the solver settings applied to every opened document.
type Config struct {
	StepSize       float64 // Used when the stored document carries none.
	Seed           uint64
	TickIterations int // Steps per Tick while solving; 0 means 1.
}

// Info describes a document without exposing its sketch.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Open      bool      `json:"open"`
	Solving   bool      `json:"solving"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TickResult reports the state of a document after a tick.
type TickResult struct {
	Steps   int     `json:"steps"`
	Error   float64 `json:"error"`
	Solving bool    `json:"solving"`
}

// openDoc is a cached document. mu guards every field below it.
type openDoc struct {
	id      string
	solving atomic.Bool // read without mu so status checks never wait on a solve
	closed  atomic.Bool // set once the document is evicted; holders must reopen

	mu        sync.Mutex
	name      string
	sketch    *sketch.Sketch
	createdAt time.Time
	updatedAt time.Time
}

func (d *openDoc) info() Info {
	return Info{
		ID:        d.id,
		Name:      d.name,
		Open:      true,
		Solving:   d.solving.Load(),
		CreatedAt: d.createdAt,
		UpdatedAt: d.updatedAt,
	}
}

// Manager loads, caches and persists documents.
type Manager struct {
	store store.DocumentStore
	cfg   Config
	docs  map[string]*openDoc
	mu    sync.RWMutex
}

// NewManager creates a Manager persisting through ds.
func NewManager(ds store.DocumentStore, cfg Config) *Manager {
	if cfg.TickIterations <= 0 {
		cfg.TickIterations = 1
	}
	return &Manager{
		store: ds,
		cfg:   cfg,
		docs:  make(map[string]*openDoc),
	}
}

func (m *Manager) sketchOptions() []sketch.Option {
	opts := []sketch.Option{sketch.WithLogger(slog.Default())}
	if m.cfg.StepSize > 0 {
		opts = append(opts, sketch.WithStepSize(m.cfg.StepSize))
	}
	if m.cfg.Seed != 0 {
		opts = append(opts, sketch.WithSeed(m.cfg.Seed))
	}
	return opts
}

// Create persists a new empty document and opens it.
func (m *Manager) Create(ctx context.Context, name string) (Info, error) {
	return m.Import(ctx, name, sketch.New(m.sketchOptions()...))
}

// Import persists s as a new document and opens it. The manager takes
// ownership of s.
func (m *Manager) Import(ctx context.Context, name string, s *sketch.Sketch) (Info, error) {
	data, err := sketch.Encode(s, sketch.FormatJSON)
	if err != nil {
		return Info{}, err
	}

	rec := store.NewDocument(name, data)
	if err := m.store.Create(ctx, rec); err != nil {
		return Info{}, sketcherr.With(err, sketcherr.FieldDocumentID(rec.ID))
	}

	d := &openDoc{
		id:        rec.ID,
		name:      rec.Name,
		sketch:    s,
		createdAt: rec.CreatedAt,
		updatedAt: rec.UpdatedAt,
	}

	m.mu.Lock()
	m.docs[rec.ID] = d
	m.mu.Unlock()

	slog.Info("document created", "document_id", rec.ID, "name", name)
	return d.info(), nil
}

// Open loads the document into memory, or returns the cached one.
func (m *Manager) Open(ctx context.Context, id string) (Info, error) {
	d, err := m.acquire(ctx, id)
	if err != nil {
		return Info{}, err
	}
	defer d.mu.Unlock()
	return d.info(), nil
}

// open returns the cached document or loads it. The store is read without
// holding m.mu; when two loads race, the first one cached wins.
func (m *Manager) open(ctx context.Context, id string) (*openDoc, error) {
	m.mu.RLock()
	d, ok := m.docs[id]
	m.mu.RUnlock()
	if ok {
		return d, nil
	}

	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s, err := sketch.Decode(rec.Data, sketch.FormatJSON, m.sketchOptions()...)
	if err != nil {
		return nil, sketcherr.With(err, sketcherr.FieldDocumentID(id))
	}

	loaded := &openDoc{
		id:        rec.ID,
		name:      rec.Name,
		sketch:    s,
		createdAt: rec.CreatedAt,
		updatedAt: rec.UpdatedAt,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[id]; ok {
		return d, nil
	}
	m.docs[id] = loaded

	slog.Debug("document opened", "document_id", id, "entities", s.EntityCount())
	return loaded, nil
}

// acquire opens the document and locks it. A document that was closed or
// deleted while the caller waited for its lock is dropped and loaded again,
// so the caller never works on an evicted sketch.
func (m *Manager) acquire(ctx context.Context, id string) (*openDoc, error) {
	for {
		d, err := m.open(ctx, id)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		if !d.closed.Load() {
			return d, nil
		}
		d.mu.Unlock()
		m.forget(d)
	}
}

// forget removes d from the cache unless another load has replaced it.
func (m *Manager) forget(d *openDoc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[d.id] == d {
		delete(m.docs, d.id)
	}
}

// lockCached locks an already open document.
func (m *Manager) lockCached(id string) (*openDoc, error) {
	m.mu.RLock()
	d, ok := m.docs[id]
	m.mu.RUnlock()
	if ok {
		d.mu.Lock()
		if !d.closed.Load() {
			return d, nil
		}
		d.mu.Unlock()
	}
	return nil, sketcherr.New(sketcherr.CodeDocumentNotFound, "document "+id+" is not open",
		sketcherr.FieldDocumentID(id))
}

// Save writes the open document back to the store.
func (m *Manager) Save(ctx context.Context, id string) error {
	d, err := m.lockCached(id)
	if err != nil {
		return err
	}
	defer d.mu.Unlock()
	return m.save(ctx, d)
}

// save persists d. Caller holds d.mu.
func (m *Manager) save(ctx context.Context, d *openDoc) error {
	data, err := sketch.Encode(d.sketch, sketch.FormatJSON)
	if err != nil {
		return sketcherr.With(err, sketcherr.FieldDocumentID(d.id))
	}

	rec := &store.Document{
		ID:        d.id,
		Name:      d.name,
		Data:      data,
		CreatedAt: d.createdAt,
		UpdatedAt: time.Now().UTC(),
	}
	if err := m.store.Update(ctx, rec); err != nil {
		return err
	}
	d.updatedAt = rec.UpdatedAt
	return nil
}

// Close saves the document and evicts it from memory. The document is
// marked closed before its lock is released, so a caller already waiting on
// it reloads the saved copy.
func (m *Manager) Close(ctx context.Context, id string) error {
	d, err := m.lockCached(id)
	if err != nil {
		return err
	}

	err = m.save(ctx, d)
	if err == nil {
		d.closed.Store(true)
	}
	d.mu.Unlock()
	if err != nil {
		return err
	}
	m.forget(d)

	slog.Debug("document closed", "document_id", id)
	return nil
}

// Delete removes the document from memory and from the store. A document
// that is currently solving cannot be deleted.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.RLock()
	d, ok := m.docs[id]
	m.mu.RUnlock()
	if ok && d.solving.Load() {
		return sketcherr.New(sketcherr.CodeDocumentConflict, "document "+id+" is solving",
			sketcherr.FieldDocumentID(id))
	}

	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}

	// Drop whatever is cached now, including a copy loaded while the store
	// delete was in flight.
	m.mu.Lock()
	if cur, ok := m.docs[id]; ok {
		cur.closed.Store(true)
		delete(m.docs, id)
	}
	m.mu.Unlock()

	slog.Info("document deleted", "document_id", id)
	return nil
}

// With runs fn with exclusive access to the document's sketch, opening the
// document first if needed. Changes are kept in memory until Save or Close.
func (m *Manager) With(ctx context.Context, id string, fn func(*sketch.Sketch) error) error {
	d, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer d.mu.Unlock()
	return fn(d.sketch)
}

// SetSolving enables or disables relaxation on Tick.
func (m *Manager) SetSolving(ctx context.Context, id string, solving bool) (Info, error) {
	d, err := m.acquire(ctx, id)
	if err != nil {
		return Info{}, err
	}
	defer d.mu.Unlock()
	d.solving.Store(solving)
	return d.info(), nil
}

// Tick runs the configured number of relaxation steps when solving is
// enabled and reports the resulting total error.
func (m *Manager) Tick(ctx context.Context, id string) (TickResult, error) {
	d, err := m.acquire(ctx, id)
	if err != nil {
		return TickResult{}, err
	}
	defer d.mu.Unlock()

	res := TickResult{Solving: d.solving.Load()}
	if res.Solving {
		for range m.cfg.TickIterations {
			if err := d.sketch.Step(); err != nil {
				return res, sketcherr.With(err, sketcherr.FieldDocumentID(id))
			}
			res.Steps++
		}
	}
	res.Error = d.sketch.Error()
	return res, nil
}

// Solve runs the solver to completion while holding the document lock.
func (m *Manager) Solve(ctx context.Context, id string, opts sketch.SolveOptions) (sketch.SolveResult, error) {
	d, err := m.acquire(ctx, id)
	if err != nil {
		return sketch.SolveResult{}, err
	}
	defer d.mu.Unlock()

	res, err := d.sketch.Solve(ctx, opts)
	if err != nil {
		return res, sketcherr.With(err, sketcherr.FieldDocumentID(id))
	}
	slog.Debug("document solved", "document_id", id, "iterations", res.Iterations, "error", res.Error)
	return res, nil
}

// List returns stored documents, marking those currently open.
func (m *Manager) List(ctx context.Context, opts store.ListOpts) ([]Info, error) {
	recs, err := m.store.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(recs))
	for _, rec := range recs {
		info := Info{
			ID:        rec.ID,
			Name:      rec.Name,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		}
		m.mu.RLock()
		d, ok := m.docs[rec.ID]
		m.mu.RUnlock()
		if ok {
			d.mu.Lock()
			info = d.info()
			d.mu.Unlock()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// CloseAll saves and evicts every open document. Documents that fail to
// save are evicted too.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.RLock()
	docs := make([]*openDoc, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, d)
	}
	m.mu.RUnlock()

	var errs []error
	for _, d := range docs {
		d.mu.Lock()
		if !d.closed.Load() {
			if err := m.save(ctx, d); err != nil {
				errs = append(errs, err)
			}
			d.closed.Store(true)
		}
		d.mu.Unlock()
		m.forget(d)
	}

	if len(errs) > 0 {
		return sketcherr.Errorf(sketcherr.CodeStoreDatabaseFailure, "closing documents: %w", sketcherr.Join(errs...))
	}
	return nil
}

// Health reports how many documents are open and how many are solving. It
// does not wait for documents that are busy.
func (m *Manager) Health() health.Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hm := health.Metrics{OpenDocuments: len(m.docs)}
	for _, d := range m.docs {
		if d.solving.Load() {
			hm.SolvingDocuments++
		}
	}
	return hm
}
