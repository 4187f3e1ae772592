/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/fulmenhq/docbridge/internal/bridge"
	"github.com/fulmenhq/docbridge/pkg/config"
	"github.com/fulmenhq/docbridge/pkg/safeio"
)

// DocusaurusSidebar keeps a doc entry present inside a category of a
// Docusaurus sidebar JSON file. Idempotent: the entry is matched by doc id
// within its category, never appended twice.
type DocusaurusSidebar struct{}

// Name implements bridge.ExternalAdapter.
func (a *DocusaurusSidebar) Name() string { return "docusaurus_sidebar" }

func (a *DocusaurusSidebar) keys(sec config.SectionConfig) (sidebar, category, docID string) {
	sidebar = sec.Options.Sidebar
	if sidebar == "" {
		sidebar = "docs"
	}
	category = sec.Options.Category
	if category == "" {
		category = "Architecture"
	}
	docID = sec.Options.DocID
	if docID == "" {
		docID = "architecture-overview"
	}
	return sidebar, category, docID
}

// Diff implements bridge.ExternalAdapter.
func (a *DocusaurusSidebar) Diff(projectRoot string, sec config.SectionConfig, _ string) (bridge.AdapterResult, error) {
	result := bridge.AdapterResult{Path: sec.Target}
	data, exists, err := readTarget(projectRoot, sec.Target)
	if err != nil {
		return result, err
	}
	if !exists {
		result.Status = bridge.StatusMissingFile
		return result, nil
	}
	doc, err := decodeSidebar(data)
	if err != nil {
		return result, err
	}
	sidebar, category, docID := a.keys(sec)
	if sidebarContains(doc, sidebar, category, docID) {
		result.Status = bridge.StatusMatch
	} else {
		result.Status = bridge.StatusDrift
	}
	return result, nil
}

// Apply implements bridge.ExternalAdapter.
func (a *DocusaurusSidebar) Apply(projectRoot string, sec config.SectionConfig, _ string) (bridge.AdapterResult, error) {
	result := bridge.AdapterResult{Path: sec.Target}
	data, exists, err := readTarget(projectRoot, sec.Target)
	if err != nil {
		return result, err
	}
	if !exists {
		result.Status = bridge.StatusMissingFile
		return result, fmt.Errorf("docusaurus sidebar %s not found", sec.Target)
	}
	doc, err := decodeSidebar(data)
	if err != nil {
		return result, err
	}
	sidebar, category, docID := a.keys(sec)
	if !mergeSidebarEntry(doc, sidebar, category, docID) {
		result.Status = bridge.StatusMatch
		result.Action = "noop"
		return result, nil
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return result, err
	}
	out = append(out, '\n')
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

func decodeSidebar(data []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("sidebar is not valid JSON: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

func docEntry(docID string) map[string]interface{} {
	return map[string]interface{}{"type": "doc", "id": docID}
}

func findCategory(entries []interface{}, label string) map[string]interface{} {
	for _, item := range entries {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if m["type"] == "category" && m["label"] == label {
			return m
		}
	}
	return nil
}

func sidebarContains(doc map[string]interface{}, sidebar, category, docID string) bool {
	entries, _ := doc[sidebar].([]interface{})
	cat := findCategory(entries, category)
	if cat == nil {
		return false
	}
	items, _ := cat["items"].([]interface{})
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			if m["type"] == "doc" && m["id"] == docID {
				return true
			}
		}
	}
	return false
}

// mergeSidebarEntry ensures the category holds the doc entry, creating the
// category if needed. Reports whether doc changed.
func mergeSidebarEntry(doc map[string]interface{}, sidebar, category, docID string) bool {
	if sidebarContains(doc, sidebar, category, docID) {
		return false
	}
	entries, _ := doc[sidebar].([]interface{})
	cat := findCategory(entries, category)
	if cat == nil {
		cat = map[string]interface{}{
			"type":  "category",
			"label": category,
			"items": []interface{}{},
		}
		entries = append(entries, cat)
	}
	items, _ := cat["items"].([]interface{})
	cat["items"] = append(items, docEntry(docID))
	doc[sidebar] = entries
	return true
}
