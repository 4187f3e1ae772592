/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package render produces the desired content for managed sections. Content
// comes from Handlebars templates fed by the project architecture manifest,
// unless a section has an adopted baseline, which always wins.
package render

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aymerick/raymond"
	"gopkg.in/yaml.v3"
)

// ManifestRelative locates the architecture manifest under the project root.
const ManifestRelative = "architecture/manifest.yaml"

// RecordEntry describes one ADR or RFC row in the manifest.
type RecordEntry struct {
	ID     string `yaml:"id" json:"id"`
	Title  string `yaml:"title" json:"title"`
	Status string `yaml:"status" json:"status"`
	Date   string `yaml:"date,omitempty" json:"date,omitempty"`
}

// SystemEntry describes one system row in the manifest.
type SystemEntry struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Owner       string `yaml:"owner,omitempty" json:"owner,omitempty"`
}

// Manifest is the source of truth the templates render from.
type Manifest struct {
	Program struct {
		Name        string `yaml:"name" json:"name"`
		Description string `yaml:"description,omitempty" json:"description,omitempty"`
		Version     string `yaml:"version,omitempty" json:"version,omitempty"`
	} `yaml:"program" json:"program"`
	Systems []SystemEntry `yaml:"systems,omitempty" json:"systems,omitempty"`
	ADRs    []RecordEntry `yaml:"adrs,omitempty" json:"adrs,omitempty"`
	RFCs    []RecordEntry `yaml:"rfcs,omitempty" json:"rfcs,omitempty"`
}

const overviewTemplate = `# {{program.name}}

{{#if program.description}}{{program.description}}

{{/if}}## Systems
{{#each systems}}
- **{{name}}**{{#if description}}: {{description}}{{/if}}{{#if owner}} (owner: {{owner}}){{/if}}
{{else}}
_No systems registered._
{{/each}}`

const adrIndexTemplate = `## Architecture Decision Records
{{#each adrs}}
- {{id}} {{title}} [{{status}}]{{#if date}} ({{date}}){{/if}}
{{else}}
_No decisions recorded._
{{/each}}`

const rfcIndexTemplate = `## Requests for Comments
{{#each rfcs}}
- {{id}} {{title}} [{{status}}]{{#if date}} ({{date}}){{/if}}
{{else}}
_No RFCs recorded._
{{/each}}`

const fallbackTemplate = `## {{section}}

_Managed by docbridge. Define content for this section in {{manifest}}._`

// ManifestProvider renders sections from templates over the architecture
// manifest. Implements bridge.ContentProvider and bridge.Adopter.
type ManifestProvider struct {
	projectRoot string
	manifest    *Manifest
	adopted     *AdoptedStore
	templates   map[string]*raymond.Template
}

// NewManifestProvider loads the manifest and the adopted baselines. A missing
// manifest is not an error: templates render their empty-state text so a
// fresh project still gets deterministic content.
func NewManifestProvider(projectRoot string) (*ManifestProvider, error) {
	manifest, err := loadManifest(filepath.Join(projectRoot, filepath.FromSlash(ManifestRelative)))
	if err != nil {
		return nil, err
	}
	adopted, err := LoadAdopted(projectRoot)
	if err != nil {
		return nil, err
	}
	templates := map[string]*raymond.Template{}
	for name, src := range map[string]string{
		"architecture_overview": overviewTemplate,
		"adr_index":             adrIndexTemplate,
		"rfc_index":             rfcIndexTemplate,
		"_fallback":             fallbackTemplate,
	} {
		tpl, err := raymond.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		templates[name] = tpl
	}
	return &ManifestProvider{
		projectRoot: projectRoot,
		manifest:    manifest,
		adopted:     adopted,
		templates:   templates,
	}, nil
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path derives from the project root
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{}, nil
		}
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("architecture manifest is not valid YAML: %w", err)
	}
	sortRecords(m.ADRs)
	sortRecords(m.RFCs)
	return &m, nil
}

func sortRecords(records []RecordEntry) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

// templateContext flattens the manifest into maps: template paths resolve
// map keys directly, keeping the templates decoupled from Go field names.
func (m *Manifest) templateContext() map[string]interface{} {
	records := func(entries []RecordEntry) []map[string]interface{} {
		out := make([]map[string]interface{}, 0, len(entries))
		for _, r := range entries {
			out = append(out, map[string]interface{}{
				"id":     r.ID,
				"title":  r.Title,
				"status": r.Status,
				"date":   r.Date,
			})
		}
		return out
	}
	systems := make([]map[string]interface{}, 0, len(m.Systems))
	for _, s := range m.Systems {
		systems = append(systems, map[string]interface{}{
			"name":        s.Name,
			"description": s.Description,
			"owner":       s.Owner,
		})
	}
	return map[string]interface{}{
		"program": map[string]interface{}{
			"name":        m.Program.Name,
			"description": m.Program.Description,
			"version":     m.Program.Version,
		},
		"systems": systems,
		"adrs":    records(m.ADRs),
		"rfcs":    records(m.RFCs),
	}
}

// Render implements bridge.ContentProvider. Output is normalized: no leading
// or trailing newlines, so hashes are stable across template tweaks that only
// shift whitespace at the edges.
func (p *ManifestProvider) Render(section string) (string, string, error) {
	if entry, ok := p.adopted.Entry(section); ok {
		return entry.Content, entry.Hash, nil
	}
	tpl, ok := p.templates[section]
	ctx := p.manifest.templateContext()
	if !ok {
		tpl = p.templates["_fallback"]
		ctx = map[string]interface{}{
			"section":  section,
			"manifest": ManifestRelative,
		}
	}
	out, err := tpl.Exec(ctx)
	if err != nil {
		return "", "", fmt.Errorf("rendering section %s: %w", section, err)
	}
	content := normalize(out)
	return content, hashContent(content), nil
}

// Adopt implements bridge.Adopter.
func (p *ManifestProvider) Adopt(section, content, hash string) error {
	return p.adopted.Put(section, content, hash)
}

func normalize(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
