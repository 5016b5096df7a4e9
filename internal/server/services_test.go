// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/sketch/internal/document"
	"github.com/sigil-dev/sketch/internal/server"
	"github.com/sigil-dev/sketch/internal/store"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

func TestNewServices(t *testing.T) {
	m := document.NewManager(store.NewMemoryStore(), document.Config{})
	svc, err := server.NewServices(m)
	require.NoError(t, err)
	assert.Same(t, m, svc.Documents())
}

func TestNewServices_NilDocuments(t *testing.T) {
	_, err := server.NewServices(nil)
	require.Error(t, err)
	assert.True(t, sketcherr.HasCode(err, sketcherr.CodeServerConfigInvalid))
	assert.Contains(t, err.Error(), "document service is required")
}
