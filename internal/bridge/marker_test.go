/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package bridge

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestScanRegion(t *testing.T) {
	marker := "docbridge-adr-index"
	start := StartMarker(marker)
	end := EndMarker(marker)

	tests := []struct {
		name      string
		lines     []string
		wantFound bool
		status    SectionStatus
		inner     string
	}{
		{
			name:      "well formed region",
			lines:     []string{"# ADRs", "", start, "- ADR-001", "- ADR-002", end, ""},
			wantFound: true,
			inner:     "- ADR-001\n- ADR-002",
		},
		{
			name:      "empty region",
			lines:     []string{start, end},
			wantFound: true,
			inner:     "",
		},
		{
			name:      "indented markers still match",
			lines:     []string{"  " + start, "body", "\t" + end},
			wantFound: true,
			inner:     "body",
		},
		{
			// The scan is a literal line match and deliberately does not
			// interpret Markdown, so fenced code blocks do not hide markers.
			name:      "markers inside a code fence still match",
			lines:     []string{"```", start, "inside fence", end, "```"},
			wantFound: true,
			inner:     "inside fence",
		},
		{
			name:   "no markers",
			lines:  []string{"# ADRs", "prose"},
			status: StatusMissingMarker,
		},
		{
			name:   "start without end",
			lines:  []string{start, "body"},
			status: StatusCorrupted,
		},
		{
			name:   "end without start",
			lines:  []string{"body", end},
			status: StatusCorrupted,
		},
		{
			name:   "duplicate pair",
			lines:  []string{start, "a", end, start, "b", end},
			status: StatusDuplicateMarker,
		},
		{
			name:   "end before start",
			lines:  []string{end, "body", start},
			status: StatusCorrupted,
		},
		{
			name:   "unbalanced wins over duplicate",
			lines:  []string{start, start, "a", end},
			status: StatusCorrupted,
		},
		{
			name:   "two starts and no end",
			lines:  []string{start, "a", start, "b"},
			status: StatusCorrupted,
		},
		{
			name:   "different marker token is invisible",
			lines:  []string{StartMarker("docbridge-other"), "x", EndMarker("docbridge-other")},
			status: StatusMissingMarker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan := scanRegion(tt.lines, marker)
			assert.Equal(t, tt.wantFound, scan.found)
			if tt.wantFound {
				assert.Equal(t, tt.inner, scan.inner)
			} else {
				assert.Equal(t, tt.status, scan.status)
			}
		})
	}
}

func TestScanRegionLineIndexes(t *testing.T) {
	marker := "docbridge-x"
	lines := []string{"intro", StartMarker(marker), "one", "two", EndMarker(marker), "outro"}
	scan := scanRegion(lines, marker)
	assert.True(t, scan.found)
	assert.Equal(t, 1, scan.startLine)
	assert.Equal(t, 4, scan.endLine)
}

func TestRenderRegion(t *testing.T) {
	got := renderRegion("docbridge-x", "\nline one\nline two\n\n")
	want := []string{
		StartMarker("docbridge-x"),
		"line one",
		"line two",
		EndMarker("docbridge-x"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("renderRegion mismatch (-want +got):\n%s", diff)
	}

	empty := renderRegion("docbridge-x", "")
	assert.Equal(t, []string{StartMarker("docbridge-x"), EndMarker("docbridge-x")}, empty)
}

func TestSplitJoinLines(t *testing.T) {
	tests := []struct {
		content string
		lines   []string
	}{
		{"", nil},
		{"a\n", []string{"a"}},
		{"a\nb\n", []string{"a", "b"}},
		{"a\nb", []string{"a", "b"}},
		{"a\n\nb\n", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		got := splitLines(tt.content)
		if diff := cmp.Diff(tt.lines, got); diff != "" {
			t.Errorf("splitLines(%q) mismatch (-want +got):\n%s", tt.content, diff)
		}
	}

	// joinLines always terminates with exactly one newline.
	assert.Equal(t, "a\nb\n", joinLines([]string{"a", "b"}))
	assert.Equal(t, "", joinLines(nil))
}
