/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/docbridge/internal/bridge"
	"github.com/fulmenhq/docbridge/pkg/exitcode"
)

// chdir changes into dir for the duration of the test, mirroring
// testing.T.Chdir which is unavailable before Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}

// execute runs an isolated command tree and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	registerSubcommands(root)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docbridge ")
}

func TestInitWritesStarterConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote .docbridge/bridge.yaml")

	_, statErr := os.Stat(filepath.Join(dir, ".docbridge", "bridge.yaml"))
	require.NoError(t, statErr)

	// A second init refuses to clobber without --force.
	_, err = execute(t, "init")
	require.Error(t, err)
	_, err = execute(t, "init", "--force")
	require.NoError(t, err)
}

func TestDiagnoseJSONEnvelopeWithDefaultRegistry(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := execute(t, "diagnose", "--json")
	require.Error(t, err, "default registry targets do not exist yet")
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)

	var rep bridge.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "diagnose", rep.Command)
	assert.Equal(t, "error", rep.Status)
	assert.False(t, rep.ConfigExists)
	require.NotEmpty(t, rep.Sections)
	for _, sec := range rep.Sections {
		assert.Equal(t, bridge.StatusMissingFile, sec.Status)
	}
}

func TestListExitsNonZeroOnMissingFiles(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := execute(t, "list", "--json")
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitcode.FileSystemError, exitErr.code)

	var rep bridge.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "error", rep.Status)
	assert.True(t, rep.HasErrors(), "error envelope must carry its issues")
}

func TestListAfterRepairRoundTrip(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	// Seed default-registry targets without markers.
	for _, rel := range []string{"docs/adr/index.md", "docs/architecture/overview.md", "docs/rfc/index.md"} {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("# Handwritten\n"), 0o644))
	}

	out, err := execute(t, "repair", "--json")
	require.NoError(t, err)
	var rep bridge.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	for _, sec := range rep.Sections {
		assert.Equal(t, "inserted", sec.Action, sec.Name)
	}
	assert.NotEmpty(t, rep.Backup)

	out, err = execute(t, "list", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	for _, sec := range rep.Sections {
		assert.Equal(t, bridge.StatusMatch, sec.Status, sec.Name)
	}
}

func TestInvalidConfigMapsToConfigExit(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".docbridge"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docbridge", "bridge.yaml"), []byte("version: 9\n"), 0o644))

	out, err := execute(t, "diagnose", "--json")
	require.Error(t, err)
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.code)

	var rep bridge.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, bridge.CodeInvalidConfig, rep.Issues[0].Code)
}

func TestDiffRequiresSectionFlag(t *testing.T) {
	_, err := execute(t, "diff")
	require.Error(t, err)
}
