// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// horizontalPair is two points one unit apart vertically, tied by a
// Horizontal constraint, so its initial error is 1.
const horizontalPair = `{
  "entities": [
    {"id": 0, "type": "point", "pos": {"x": 0, "y": 0}},
    {"id": 1, "type": "point", "pos": {"x": 1, "y": 1}}
  ],
  "constraints": [{"e1": 0, "e2": 1, "type": "horizontal"}],
  "step_size": 0.01,
  "next_entity_id": 2
}
`

// isolate gives each CLI test a fresh global viper and a throwaway home so
// config discovery and bootstrap never touch the real one.
func isolate(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
}

// writeTemp writes content to name inside a fresh temp dir.
func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
