/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package adapters

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/docbridge/internal/bridge"
	"github.com/fulmenhq/docbridge/pkg/config"
)

func mkdocsSection() config.SectionConfig {
	return config.SectionConfig{
		Name:    "nav",
		Mode:    config.ModeExternal,
		Target:  "mkdocs.yml",
		Adapter: "mkdocs_nav",
		Options: config.AdapterOptions{Title: "Architecture", Doc: "architecture/overview.md"},
	}
}

func writeMkdocs(t *testing.T, root, content string) string {
	t.Helper()
	path := filepath.Join(root, "mkdocs.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadNav(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	return doc
}

func TestMkDocsNavDiff(t *testing.T) {
	adapter := &MkDocsNav{}
	sec := mkdocsSection()

	t.Run("missing file", func(t *testing.T) {
		res, err := adapter.Diff(t.TempDir(), sec, "")
		require.NoError(t, err)
		assert.Equal(t, bridge.StatusMissingFile, res.Status)
	})

	t.Run("entry present and pointing right", func(t *testing.T) {
		root := t.TempDir()
		writeMkdocs(t, root, "site_name: Demo\nnav:\n  - Home: index.md\n  - Architecture: architecture/overview.md\n")
		res, err := adapter.Diff(root, sec, "")
		require.NoError(t, err)
		assert.Equal(t, bridge.StatusMatch, res.Status)
	})

	t.Run("entry absent", func(t *testing.T) {
		root := t.TempDir()
		writeMkdocs(t, root, "site_name: Demo\nnav:\n  - Home: index.md\n")
		res, err := adapter.Diff(root, sec, "")
		require.NoError(t, err)
		assert.Equal(t, bridge.StatusDrift, res.Status)
	})

	t.Run("entry retargeted", func(t *testing.T) {
		root := t.TempDir()
		writeMkdocs(t, root, "nav:\n  - Architecture: old/path.md\n")
		res, err := adapter.Diff(root, sec, "")
		require.NoError(t, err)
		assert.Equal(t, bridge.StatusDrift, res.Status)
	})
}

func TestMkDocsNavApplyIsIdempotent(t *testing.T) {
	adapter := &MkDocsNav{}
	sec := mkdocsSection()
	root := t.TempDir()
	path := writeMkdocs(t, root, "site_name: Demo\nnav:\n  - Home: index.md\n")

	res, err := adapter.Apply(root, sec, "")
	require.NoError(t, err)
	assert.Equal(t, "updated", res.Action)

	doc := loadNav(t, path)
	nav := doc["nav"].([]interface{})
	require.Len(t, nav, 2)

	// Second apply changes nothing.
	res, err = adapter.Apply(root, sec, "")
	require.NoError(t, err)
	assert.Equal(t, "noop", res.Action)
	nav = loadNav(t, path)["nav"].([]interface{})
	assert.Len(t, nav, 2)
}

func TestMkDocsNavApplyUpdatesRetargetedEntryInPlace(t *testing.T) {
	adapter := &MkDocsNav{}
	sec := mkdocsSection()
	root := t.TempDir()
	path := writeMkdocs(t, root, "nav:\n  - Architecture: old/path.md\n  - Home: index.md\n")

	_, err := adapter.Apply(root, sec, "")
	require.NoError(t, err)

	nav := loadNav(t, path)["nav"].([]interface{})
	require.Len(t, nav, 2)
	first := nav[0].(map[string]interface{})
	assert.Equal(t, "architecture/overview.md", first["Architecture"])
}

func TestMkDocsNavInsertAfter(t *testing.T) {
	adapter := &MkDocsNav{}
	sec := mkdocsSection()
	sec.Options.InsertAfter = "Home"
	root := t.TempDir()
	path := writeMkdocs(t, root, "nav:\n  - Home: index.md\n  - Guides: guides.md\n")

	_, err := adapter.Apply(root, sec, "")
	require.NoError(t, err)

	nav := loadNav(t, path)["nav"].([]interface{})
	require.Len(t, nav, 3)
	second := nav[1].(map[string]interface{})
	_, ok := second["Architecture"]
	assert.True(t, ok, "new entry should land right after Home")
}

func TestMkDocsNavApplyMissingFile(t *testing.T) {
	adapter := &MkDocsNav{}
	res, err := adapter.Apply(t.TempDir(), mkdocsSection(), "")
	require.Error(t, err)
	assert.Equal(t, bridge.StatusMissingFile, res.Status)
}

func TestMkDocsNavBudget(t *testing.T) {
	adapter := &MkDocsNav{}
	sec := mkdocsSection()
	sec.MaxBytes = 8
	root := t.TempDir()
	writeMkdocs(t, root, "nav:\n  - Home: index.md\n")

	_, err := adapter.Apply(root, sec, "")
	require.Error(t, err)
	var budget *bridge.SizeBudgetError
	assert.True(t, errors.As(err, &budget))
}
