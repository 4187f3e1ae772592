/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package bridge

import (
	"fmt"
	"strings"
)

// A managed region is delimited by a start and end marker, each on its own
// line. Detection is a literal line scan: marker-like lines inside fenced
// code blocks are matched deliberately, preserving the bridge's established
// surface contract. Markdown semantics are never interpreted.
const (
	startMarkerTemplate = "<!-- docbridge:start:%s -->"
	endMarkerTemplate   = "<!-- docbridge:end:%s -->"
)

// StartMarker returns the start marker line for a marker token.
func StartMarker(marker string) string {
	return fmt.Sprintf(startMarkerTemplate, marker)
}

// EndMarker returns the end marker line for a marker token.
func EndMarker(marker string) string {
	return fmt.Sprintf(endMarkerTemplate, marker)
}

// regionScan is the outcome of locating a marker pair in a file.
type regionScan struct {
	found     bool
	status    SectionStatus // set when not found: missing_marker, duplicate_marker, corrupted
	startLine int           // index of the start marker line
	endLine   int           // index of the end marker line
	inner     string        // content between markers, markers excluded
}

// scanRegion locates the managed region for marker within lines.
// Classification follows a strict order: no markers at all is
// missing_marker; unbalanced start/end counts are corrupted; a same-role
// marker seen more than once is duplicate_marker.
func scanRegion(lines []string, marker string) regionScan {
	start := StartMarker(marker)
	end := EndMarker(marker)

	var startCount, endCount int
	startIdx, endIdx := -1, -1
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case start:
			startCount++
			if startIdx == -1 {
				startIdx = i
			}
		case end:
			endCount++
			if endIdx == -1 {
				endIdx = i
			}
		}
	}

	switch {
	case startCount == 0 && endCount == 0:
		return regionScan{status: StatusMissingMarker}
	case startCount != endCount:
		return regionScan{status: StatusCorrupted}
	case startCount > 1:
		return regionScan{status: StatusDuplicateMarker}
	case endIdx < startIdx:
		return regionScan{status: StatusCorrupted}
	}

	return regionScan{
		found:     true,
		startLine: startIdx,
		endLine:   endIdx,
		inner:     strings.Join(lines[startIdx+1:endIdx], "\n"),
	}
}

// renderRegion produces the full marker-delimited block for content.
func renderRegion(marker, content string) []string {
	block := []string{StartMarker(marker)}
	normalized := strings.Trim(content, "\n")
	if normalized != "" {
		block = append(block, strings.Split(normalized, "\n")...)
	}
	return append(block, EndMarker(marker))
}

// splitLines breaks file content into lines, dropping the empty element a
// trailing newline produces. joinLines is its inverse; written files always
// end in exactly one newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
