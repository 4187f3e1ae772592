/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/fulmenhq/docbridge/internal/bridge"
	"github.com/fulmenhq/docbridge/pkg/config"
	"github.com/fulmenhq/docbridge/pkg/safeio"
)

// ConfluencePage materializes a Confluence storage-format payload on disk.
// It never talks to a Confluence instance: the payload file is the contract,
// and delivery belongs to whatever CI step consumes it.
type ConfluencePage struct{}

// Name implements bridge.ExternalAdapter.
func (a *ConfluencePage) Name() string { return "confluence_page" }

type confluenceBody struct {
	Storage struct {
		Value          string `json:"value"`
		Representation string `json:"representation"`
	} `json:"storage"`
}

type confluencePayload struct {
	Space      string         `json:"space"`
	AncestorID string         `json:"ancestor_id,omitempty"`
	Slug       string         `json:"slug,omitempty"`
	Title      string         `json:"title"`
	Version    string         `json:"version"`
	Body       confluenceBody `json:"body"`
}

func (a *ConfluencePage) options(sec config.SectionConfig) (space, title string) {
	space = sec.Options.Space
	if space == "" {
		space = "DOCS"
	}
	title = sec.Options.Title
	if title == "" {
		title = "Architecture Overview"
	}
	return space, title
}

func (a *ConfluencePage) build(sec config.SectionConfig, content string) confluencePayload {
	space, title := a.options(sec)
	sum := sha256.Sum256([]byte(content))
	payload := confluencePayload{
		Space:      space,
		AncestorID: sec.Options.AncestorID,
		Slug:       sec.Options.Slug,
		Title:      title,
		Version:    hex.EncodeToString(sum[:]),
	}
	payload.Body.Storage.Value = markdownToStorage(content)
	payload.Body.Storage.Representation = "storage"
	return payload
}

// Diff implements bridge.ExternalAdapter. A missing payload file is drift,
// not an error: the payload is generated output, so repair can always
// recreate it.
func (a *ConfluencePage) Diff(projectRoot string, sec config.SectionConfig, content string) (bridge.AdapterResult, error) {
	result := bridge.AdapterResult{Path: sec.Target}
	desired := a.build(sec, content)
	data, exists, err := readTarget(projectRoot, sec.Target)
	if err != nil {
		return result, err
	}
	if !exists {
		result.Status = bridge.StatusDrift
		return result, nil
	}
	var current confluencePayload
	if err := json.Unmarshal(data, &current); err != nil {
		result.Status = bridge.StatusDrift
		return result, nil
	}
	if current.Title == desired.Title && current.Version == desired.Version &&
		current.Body.Storage.Value == desired.Body.Storage.Value {
		result.Status = bridge.StatusMatch
	} else {
		result.Status = bridge.StatusDrift
	}
	return result, nil
}

// Apply implements bridge.ExternalAdapter.
func (a *ConfluencePage) Apply(projectRoot string, sec config.SectionConfig, content string) (bridge.AdapterResult, error) {
	result := bridge.AdapterResult{Path: sec.Target}
	payload := a.build(sec, content)
	if err := checkBudget(len(payload.Body.Storage.Value), sec.MaxBytes); err != nil {
		return result, err
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return result, err
	}
	out = append(out, '\n')
	if err := safeio.WriteFileAtomic(targetPath(projectRoot, sec.Target), out); err != nil {
		return result, err
	}
	result.Status = bridge.StatusMatch
	result.Action = "generated"
	return result, nil
}

// markdownToStorage converts a markdown fragment into Confluence storage
// XHTML. Headings, fenced code blocks, bullet items, and paragraphs cover the
// generated docs; anything fancier passes through as paragraph text.
func markdownToStorage(content string) string {
	doc := etree.NewDocument()
	root := doc.CreateElement("root")

	lines := strings.Split(content, "\n")
	var para []string
	var list *etree.Element
	flushPara := func() {
		if len(para) == 0 {
			return
		}
		root.CreateElement("p").SetText(strings.Join(para, " "))
		para = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushPara()
			list = nil
		case strings.HasPrefix(trimmed, "```"):
			flushPara()
			list = nil
			var code []string
			for i++; i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```"); i++ {
				code = append(code, lines[i])
			}
			macro := root.CreateElement("ac:structured-macro")
			macro.CreateAttr("ac:name", "code")
			macro.CreateElement("ac:plain-text-body").SetText(strings.Join(code, "\n"))
		case strings.HasPrefix(trimmed, "#"):
			flushPara()
			list = nil
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' && level < 6 {
				level++
			}
			text := strings.TrimSpace(trimmed[level:])
			root.CreateElement(fmt.Sprintf("h%d", level)).SetText(text)
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flushPara()
			if list == nil {
				list = root.CreateElement("ul")
			}
			list.CreateElement("li").SetText(strings.TrimSpace(trimmed[2:]))
		default:
			list = nil
			para = append(para, trimmed)
		}
	}
	flushPara()

	var sb strings.Builder
	for _, child := range root.ChildElements() {
		fragment := etree.NewDocument()
		fragment.SetRoot(child.Copy())
		s, err := fragment.WriteToString()
		if err != nil {
			continue
		}
		sb.WriteString(s)
	}
	return sb.String()
}
