/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package bridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/docbridge/pkg/config"
)

// ErrAnchorNotFound signals that an anchor policy could not locate its
// reference point. The orchestrator surfaces it as DOC_BRIDGE_ANCHOR_NOT_FOUND;
// there is no silent fallback.
var ErrAnchorNotFound = errors.New("anchor not found")

// resolveInsertIndex computes the line index at which a new managed region is
// inserted. The resolver performs no mutation: the same lines and anchor
// always yield the same index.
func resolveInsertIndex(lines []string, anchor config.Anchor) (int, error) {
	switch anchor.Kind {
	case config.AnchorAfterHeading:
		for i, line := range lines {
			if strings.TrimSpace(line) != anchor.Value {
				continue
			}
			pos := i + 1
			// Skip one blank line so the region does not visually merge
			// with the heading.
			if pos < len(lines) && strings.TrimSpace(lines[pos]) == "" {
				pos++
			}
			return pos, nil
		}
		return 0, fmt.Errorf("heading %q: %w", anchor.Value, ErrAnchorNotFound)

	case config.AnchorBeforeMarker:
		want := StartMarker(anchor.Value)
		for i, line := range lines {
			if strings.TrimSpace(line) == want {
				return i, nil
			}
		}
		return 0, fmt.Errorf("marker %q: %w", anchor.Value, ErrAnchorNotFound)

	default: // append at end of file
		return len(lines), nil
	}
}

// insertRegion splices region into lines at pos. Appends to a non-empty file
// are preceded by exactly one blank line unless the file already ends blank.
func insertRegion(lines []string, pos int, region []string, kind config.AnchorKind) []string {
	if kind == config.AnchorAppendEnd && len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
		region = append([]string{""}, region...)
	}
	out := make([]string, 0, len(lines)+len(region))
	out = append(out, lines[:pos]...)
	out = append(out, region...)
	out = append(out, lines[pos:]...)
	return out
}
