// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

func TestRootCommand_Help(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"solve", "check", "serve", "watch", "doc", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sketch dev")
}

func TestInitViper_BootstrapsDefaultConfig(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "version")
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, ".config", "sketch", "sketch.yaml"))
}

func TestInitViper_ExplicitConfig(t *testing.T) {
	isolate(t)
	cfgPath := writeTemp(t, "custom.yaml", "solver:\n  max_iterations: 42\n")

	_, _, err := run(t, "--config", cfgPath, "version")
	require.NoError(t, err)
	assert.Equal(t, 42, viper.GetInt("solver.max_iterations"))
}

func TestInitViper_MissingExplicitConfig(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "--config", "/nonexistent/sketch.yaml", "version")
	require.Error(t, err)
	assert.True(t, sketcherr.HasCode(err, sketcherr.CodeConfigLoadReadFailure))
}

func TestInitViper_DataDirFlag(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	_, _, err := run(t, "--data-dir", dir, "version")
	require.NoError(t, err)
	assert.Equal(t, dir, viper.GetString("storage.data_dir"))
}

func TestInitViper_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("SKETCH_SOLVER_TOLERANCE", "0.5")
	_, _, err := run(t, "version")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, viper.GetFloat64("solver.tolerance"), 1e-12)
}
