/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Formatter renders bridge reports for terminals and automation.
type Formatter struct {
	color bool
}

// NewFormatter creates a report formatter.
func NewFormatter(color bool) *Formatter {
	return &Formatter{color: color}
}

// FormatJSON renders the structured envelope. It never emits unstructured
// errors: every failure path already lives in the issues array.
func (f *Formatter) FormatJSON(r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func (f *Formatter) paint(code, s string) string {
	if !f.color {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func (f *Formatter) paintStatus(s string) string {
	switch s {
	case "ok", string(StatusMatch):
		return f.paint("32", s) // green
	case "warning", string(StatusDrift), string(StatusMissingMarker):
		return f.paint("33", s) // yellow
	default:
		return f.paint("31", s) // red
	}
}

// FormatPretty renders a human-readable summary: one aligned row per section,
// then issues with their remediations.
func (f *Formatter) FormatPretty(r *Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s | status: %s | sections: %d\n",
		f.paint("1", "docbridge"), r.Command, f.paintStatus(r.Status), len(r.Sections))
	if r.Backup != "" {
		fmt.Fprintf(&sb, "backup: %s\n", r.Backup)
	}

	if len(r.Sections) > 0 {
		sb.WriteString("\n")
		headers := []string{"SECTION", "STATUS", "TARGET", "ACTION"}
		rows := make([][]string, 0, len(r.Sections))
		for _, sec := range r.Sections {
			rows = append(rows, []string{sec.Name, string(sec.Status), sec.Target, sec.Action})
		}
		widths := columnWidths(headers, rows)
		sb.WriteString(renderRow(headers, widths, nil))
		for _, row := range rows {
			colored := f.paintStatus(row[1])
			sb.WriteString(renderRow(row, widths, map[int]string{1: colored}))
		}
	}

	for _, sec := range r.Sections {
		if sec.Diff != "" {
			fmt.Fprintf(&sb, "\n%s\n%s", f.paint("1", "--- diff: "+sec.Name), sec.Diff)
		}
	}

	if len(r.Issues) > 0 {
		sb.WriteString("\n")
		for _, iss := range r.Issues {
			mark := f.paint("31", "✗")
			if iss.Severity == SeverityWarning {
				mark = f.paint("33", "!")
			}
			fmt.Fprintf(&sb, "%s [%s] %s", mark, iss.Code, iss.Message)
			if iss.Path != "" {
				fmt.Fprintf(&sb, " (%s)", iss.Path)
			}
			sb.WriteString("\n")
			if iss.Remediation != "" {
				fmt.Fprintf(&sb, "  remediation: %s\n", iss.Remediation)
			}
		}
	}

	return sb.String()
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// renderRow pads cells to column widths; overrides substitutes a colored
// cell while padding is computed from the plain text.
func renderRow(cells []string, widths []int, overrides map[int]string) string {
	var sb strings.Builder
	for i, cell := range cells {
		pad := strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell))
		text := cell
		if overrides != nil {
			if colored, ok := overrides[i]; ok {
				text = colored
			}
		}
		sb.WriteString(text)
		sb.WriteString(pad)
		if i < len(cells)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}
