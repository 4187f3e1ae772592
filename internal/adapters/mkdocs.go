/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package adapters

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/docbridge/internal/bridge"
	"github.com/fulmenhq/docbridge/pkg/config"
	"github.com/fulmenhq/docbridge/pkg/safeio"
)

// MkDocsNav keeps a nav entry present in an MkDocs configuration. The merge
// is idempotent and keyed by entry title: re-running never duplicates, and a
// retargeted doc path updates the existing entry in place.
type MkDocsNav struct{}

// Name implements bridge.ExternalAdapter.
func (a *MkDocsNav) Name() string { return "mkdocs_nav" }

func (a *MkDocsNav) entry(sec config.SectionConfig) (title, doc string) {
	title = sec.Options.Title
	if title == "" {
		title = "Architecture"
	}
	doc = sec.Options.Doc
	if doc == "" {
		doc = "architecture/overview.md"
	}
	return title, doc
}

// Diff implements bridge.ExternalAdapter.
func (a *MkDocsNav) Diff(projectRoot string, sec config.SectionConfig, _ string) (bridge.AdapterResult, error) {
	result := bridge.AdapterResult{Path: sec.Target}
	data, exists, err := readTarget(projectRoot, sec.Target)
	if err != nil {
		return result, err
	}
	if !exists {
		result.Status = bridge.StatusMissingFile
		return result, nil
	}
	doc, err := decodeNav(data)
	if err != nil {
		return result, err
	}
	title, docPath := a.entry(sec)
	if current, ok := findNavEntry(doc, title); ok && current == docPath {
		result.Status = bridge.StatusMatch
	} else {
		result.Status = bridge.StatusDrift
	}
	return result, nil
}

// Apply implements bridge.ExternalAdapter.
func (a *MkDocsNav) Apply(projectRoot string, sec config.SectionConfig, _ string) (bridge.AdapterResult, error) {
	result := bridge.AdapterResult{Path: sec.Target}
	data, exists, err := readTarget(projectRoot, sec.Target)
	if err != nil {
		return result, err
	}
	if !exists {
		result.Status = bridge.StatusMissingFile
		return result, fmt.Errorf("mkdocs configuration %s not found", sec.Target)
	}
	doc, err := decodeNav(data)
	if err != nil {
		return result, err
	}
	title, docPath := a.entry(sec)
	changed := mergeNavEntry(doc, title, docPath, sec.Options.InsertAfter)
	if !changed {
		result.Status = bridge.StatusMatch
		result.Action = "noop"
		return result, nil
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return result, err
	}
	if err := checkBudget(len(out), sec.MaxBytes); err != nil {
		return result, err
	}
	if err := safeio.WriteFileAtomic(targetPath(projectRoot, sec.Target), out); err != nil {
		return result, err
	}
	result.Status = bridge.StatusMatch
	result.Action = "updated"
	return result, nil
}

func decodeNav(data []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mkdocs configuration is not valid YAML: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

// findNavEntry returns the doc path registered under title, if any.
func findNavEntry(doc map[string]interface{}, title string) (string, bool) {
	nav, _ := doc["nav"].([]interface{})
	for _, item := range nav {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if v, ok := m[title]; ok {
			s, _ := v.(string)
			return s, true
		}
	}
	return "", false
}

// mergeNavEntry ensures nav contains title->docPath, inserting after the
// insertAfter entry (or appending) when absent. Reports whether doc changed.
func mergeNavEntry(doc map[string]interface{}, title, docPath, insertAfter string) bool {
	nav, _ := doc["nav"].([]interface{})
	for _, item := range nav {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if v, ok := m[title]; ok {
			if s, _ := v.(string); s == docPath {
				return false
			}
			m[title] = docPath
			return true
		}
	}
	entry := map[string]interface{}{title: docPath}
	idx := len(nav)
	if insertAfter != "" {
		for i, item := range nav {
			if s, ok := item.(string); ok && s == insertAfter {
				idx = i + 1
				break
			}
			if m, ok := item.(map[string]interface{}); ok {
				if _, ok := m[insertAfter]; ok {
					idx = i + 1
					break
				}
			}
		}
	}
	merged := make([]interface{}, 0, len(nav)+1)
	merged = append(merged, nav[:idx]...)
	merged = append(merged, entry)
	merged = append(merged, nav[idx:]...)
	doc["nav"] = merged
	return true
}
