// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"github.com/google/uuid"

	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// Validate checks that the Document has all required fields set correctly.
func (d Document) Validate() error {
	if d.ID == "" {
		return sketcherr.New(sketcherr.CodeStoreDocumentInvalid, "document: ID is required")
	}
	if _, err := uuid.Parse(d.ID); err != nil {
		return sketcherr.Errorf(sketcherr.CodeStoreDocumentInvalid, "document: ID %q is not a UUID", d.ID)
	}
	if d.Name == "" {
		return sketcherr.New(sketcherr.CodeStoreDocumentInvalid, "document: Name is required",
			sketcherr.FieldDocumentID(d.ID))
	}
	if len(d.Data) == 0 {
		return sketcherr.New(sketcherr.CodeStoreDocumentInvalid, "document: Data is required",
			sketcherr.FieldDocumentID(d.ID))
	}
	if d.CreatedAt.IsZero() {
		return sketcherr.New(sketcherr.CodeStoreDocumentInvalid, "document: CreatedAt is required",
			sketcherr.FieldDocumentID(d.ID))
	}
	return nil
}

// Validate rejects negative pagination values.
func (o ListOpts) Validate() error {
	if o.Limit < 0 {
		return sketcherr.Errorf(sketcherr.CodeStoreDocumentInvalid, "list: negative limit %d", o.Limit)
	}
	if o.Offset < 0 {
		return sketcherr.Errorf(sketcherr.CodeStoreDocumentInvalid, "list: negative offset %d", o.Offset)
	}
	return nil
}
