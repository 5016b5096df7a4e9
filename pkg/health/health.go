// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package health

// Metrics is a point-in-time snapshot of the documents held in memory, safe
// to serialize to JSON.
type Metrics struct {
	OpenDocuments    int `json:"open_documents"`
	SolvingDocuments int `json:"solving_documents"`
}
