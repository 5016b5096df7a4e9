// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestRenderCommand_DefaultOutputPath(t *testing.T) {
	isolate(t)
	in := writeTemp(t, "pair.json", horizontalPair)

	stdout, _, err := run(t, "render", in, "--width", "120", "--height", "90")
	require.NoError(t, err)

	want := filepath.Join(filepath.Dir(in), "pair.png")
	assert.Contains(t, stdout, "wrote "+want)
	assert.Equal(t, image.Rect(0, 0, 120, 90), decodePNG(t, want).Bounds())
}

func TestRenderCommand_SolveFirst(t *testing.T) {
	isolate(t)
	in := writeTemp(t, "pair.json", horizontalPair)
	out := filepath.Join(t.TempDir(), "preview.png")

	_, stderr, err := run(t, "render", in, "-o", out, "--solve", "--tolerance", "1e-6")
	require.NoError(t, err)
	assert.Contains(t, stderr, "relaxed for")
	assert.Equal(t, image.Rect(0, 0, 800, 600), decodePNG(t, out).Bounds())
}

func TestRenderCommand_MissingFile(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "render", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
