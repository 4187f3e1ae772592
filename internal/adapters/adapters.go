/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package adapters implements mode:external integrations. Adapters are pure
// local transforms sharing the managed-section diff/repair vocabulary; any
// network delivery (e.g. the Confluence REST call) is the caller's job.
package adapters

import (
	"os"
	"path/filepath"

	"github.com/fulmenhq/docbridge/internal/bridge"
)

// Registry returns all built-in adapters keyed by config adapter name.
func Registry() map[string]bridge.ExternalAdapter {
	return map[string]bridge.ExternalAdapter{
		"mkdocs_nav":         &MkDocsNav{},
		"docusaurus_sidebar": &DocusaurusSidebar{},
		"confluence_page":    &ConfluencePage{},
	}
}

func targetPath(projectRoot, target string) string {
	return filepath.Join(projectRoot, filepath.FromSlash(target))
}

func readTarget(projectRoot, target string) ([]byte, bool, error) {
	data, err := os.ReadFile(targetPath(projectRoot, target)) // #nosec G304 -- target comes from validated config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func checkBudget(size, limit int) error {
	if limit > 0 && size > limit {
		return &bridge.SizeBudgetError{Limit: limit, Size: size}
	}
	return nil
}
