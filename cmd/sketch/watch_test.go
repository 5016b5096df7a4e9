// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigil-dev/sketch/internal/sketch"
)

func newTestWatchModel(t *testing.T, opts watchOptions) (watchModel, string) {
	t.Helper()
	path := writeTemp(t, "pair.json", horizontalPair)
	s, err := sketch.Decode([]byte(horizontalPair), sketch.FormatJSON)
	require.NoError(t, err)
	return newWatchModel(s, path, opts), path
}

func TestWatchModel_Initial(t *testing.T) {
	m, _ := newTestWatchModel(t, watchOptions{Tolerance: 1e-6})
	assert.True(t, m.solving)
	assert.InDelta(t, 1, m.err, 1e-12)
	assert.InDelta(t, 1, m.initialErr, 1e-12)
	assert.Equal(t, 1, m.violated)
	assert.Equal(t, 20000, m.opts.MaxIterations)
	assert.Equal(t, 1, m.opts.StepsPerFrame)
	assert.InDelta(t, 0, m.percent(), 1e-12)
}

func TestWatchModel_FrameAdvances(t *testing.T) {
	m, _ := newTestWatchModel(t, watchOptions{Tolerance: 1e-6, StepsPerFrame: 10})

	next, cmd := m.Update(frameMsg{gen: 0})
	got := next.(watchModel)
	assert.Equal(t, 10, got.iterations)
	assert.Less(t, got.err, 1.0)
	assert.Greater(t, got.percent(), 0.0)
	assert.NotNil(t, cmd, "next frame is scheduled")
}

func TestWatchModel_StaleFrameIgnored(t *testing.T) {
	m, _ := newTestWatchModel(t, watchOptions{Tolerance: 1e-6})
	m.gen = 3

	next, cmd := m.Update(frameMsg{gen: 2})
	assert.Equal(t, 0, next.(watchModel).iterations)
	assert.Nil(t, cmd)
}

func TestWatchModel_PauseAndResume(t *testing.T) {
	m, _ := newTestWatchModel(t, watchOptions{Tolerance: 1e-6})

	paused, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	pm := paused.(watchModel)
	assert.False(t, pm.solving)
	assert.Nil(t, cmd)
	assert.Contains(t, pm.View(), "Paused")

	next, _ := pm.Update(frameMsg{gen: pm.gen})
	assert.Equal(t, 0, next.(watchModel).iterations, "paused model does not step")

	resumed, cmd := pm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	rm := resumed.(watchModel)
	assert.True(t, rm.solving)
	assert.Equal(t, pm.gen+1, rm.gen)
	assert.NotNil(t, cmd)
}

func TestWatchModel_RunsToConvergence(t *testing.T) {
	m, _ := newTestWatchModel(t, watchOptions{Tolerance: 1e-6, StepsPerFrame: 100})

	var model tea.Model = m
	for range 200 {
		wm := model.(watchModel)
		if !wm.solving {
			break
		}
		model, _ = wm.Update(frameMsg{gen: wm.gen})
	}

	final := model.(watchModel)
	assert.True(t, final.converged())
	assert.False(t, final.solving)
	assert.Equal(t, 0, final.violated)
	assert.InDelta(t, 1, final.percent(), 1e-12)
	assert.Contains(t, final.View(), "Converged")
}

func TestWatchModel_IterationLimit(t *testing.T) {
	m, _ := newTestWatchModel(t, watchOptions{MaxIterations: 5, Tolerance: 0, StepsPerFrame: 3})

	next, _ := m.Update(frameMsg{gen: 0})
	next, cmd := next.(watchModel).Update(frameMsg{gen: 0})
	got := next.(watchModel)
	assert.Equal(t, 5, got.iterations)
	assert.False(t, got.solving)
	assert.Nil(t, cmd)
	assert.Contains(t, got.View(), "Iteration limit reached")
}

func TestWatchModel_Save(t *testing.T) {
	m, path := newTestWatchModel(t, watchOptions{Tolerance: 1e-6, StepsPerFrame: 50})
	next, _ := m.Update(frameMsg{gen: 0})

	saved, _ := next.(watchModel).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	sm := saved.(watchModel)
	assert.Equal(t, "saved "+path, sm.status)
	assert.Contains(t, sm.View(), "saved")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s, err := sketch.Decode(data, sketch.FormatJSON)
	require.NoError(t, err)
	assert.Less(t, s.Error(), 1.0)
}

func TestWatchModel_SaveFailure(t *testing.T) {
	m, _ := newTestWatchModel(t, watchOptions{})
	m.path = filepath.Join(t.TempDir(), "missing", "dir", "pair.json")

	saved, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	assert.Contains(t, saved.(watchModel).status, "save failed")
}

func TestWatchModel_Quit(t *testing.T) {
	m, _ := newTestWatchModel(t, watchOptions{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
