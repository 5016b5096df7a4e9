// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch

import (
	"iter"

	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// Registry is a dense, id-indexed store. The id of a value is its slot index,
// so ids grow monotonically from 0. Removal leaves a tombstone; a removed id is
// never handed out again.
type Registry[ID ~int64, T any] struct {
	slots []slot[T]
	live  int
}

type slot[T any] struct {
	value T
	ok    bool
}

// NewRegistry returns an empty registry.
func NewRegistry[ID ~int64, T any]() *Registry[ID, T] {
	return &Registry[ID, T]{}
}

// Insert stores v under the next unused id.
func (r *Registry[ID, T]) Insert(v T) ID {
	id := ID(len(r.slots))
	r.slots = append(r.slots, slot[T]{value: v, ok: true})
	r.live++
	return id
}

// Get returns the value stored under id.
func (r *Registry[ID, T]) Get(id ID) (T, error) {
	if !r.Contains(id) {
		var zero T
		return zero, sketcherr.New(sketcherr.CodeSketchEntityNotFound, "no entry with this id",
			sketcherr.FieldEntityID(int64(id)))
	}
	return r.slots[id].value, nil
}

// MustGet is Get for ids the caller obtained from this registry. It panics
// with the coded not-found error otherwise.
func (r *Registry[ID, T]) MustGet(id ID) T {
	v, err := r.Get(id)
	if err != nil {
		panic(err)
	}
	return v
}

// GetTwo returns the values under two distinct ids. Equal ids are rejected
// because callers write both values back independently.
func (r *Registry[ID, T]) GetTwo(id1, id2 ID) (T, T, error) {
	var zero T
	if id1 == id2 {
		return zero, zero, sketcherr.New(sketcherr.CodeSketchConstraintAliasInvalid,
			"both ids name the same entry", sketcherr.FieldEntityID(int64(id1)))
	}
	a, err := r.Get(id1)
	if err != nil {
		return zero, zero, err
	}
	b, err := r.Get(id2)
	if err != nil {
		return zero, zero, err
	}
	return a, b, nil
}

// Set overwrites the value under an existing id.
func (r *Registry[ID, T]) Set(id ID, v T) error {
	if !r.Contains(id) {
		return sketcherr.New(sketcherr.CodeSketchEntityNotFound, "no entry with this id",
			sketcherr.FieldEntityID(int64(id)))
	}
	r.slots[id].value = v
	return nil
}

// Remove tombstones id. It reports whether an entry was removed.
func (r *Registry[ID, T]) Remove(id ID) bool {
	if !r.Contains(id) {
		return false
	}
	var zero T
	r.slots[id] = slot[T]{value: zero}
	r.live--
	return true
}

// Contains reports whether id names a live entry.
func (r *Registry[ID, T]) Contains(id ID) bool {
	return id >= 0 && int64(id) < int64(len(r.slots)) && r.slots[id].ok
}

// Len is the number of live entries.
func (r *Registry[ID, T]) Len() int { return r.live }

// NextID is the id the next Insert will return.
func (r *Registry[ID, T]) NextID() ID { return ID(len(r.slots)) }

// All yields live entries in id order.
func (r *Registry[ID, T]) All() iter.Seq2[ID, T] {
	return func(yield func(ID, T) bool) {
		for i, s := range r.slots {
			if !s.ok {
				continue
			}
			if !yield(ID(i), s.value) {
				return
			}
		}
	}
}

// place stores v under a specific id, padding with tombstones. It is used when
// restoring a decoded document and fails if id is already live.
func (r *Registry[ID, T]) place(id ID, v T) error {
	if id < 0 {
		return sketcherr.Errorf(sketcherr.CodeSketchCodecInvalidFormat, "negative id %d", int64(id))
	}
	if r.Contains(id) {
		return sketcherr.Errorf(sketcherr.CodeSketchCodecInvalidFormat, "duplicate id %d", int64(id))
	}
	for ID(len(r.slots)) <= id {
		r.slots = append(r.slots, slot[T]{})
	}
	r.slots[id] = slot[T]{value: v, ok: true}
	r.live++
	return nil
}

// reserve advances the id counter so the next Insert returns at least next.
func (r *Registry[ID, T]) reserve(next ID) {
	for ID(len(r.slots)) < next {
		r.slots = append(r.slots, slot[T]{})
	}
}
