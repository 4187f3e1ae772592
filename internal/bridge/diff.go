/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package bridge

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Classification is the diff engine's verdict for one managed section:
// the observed region plus the ordered status contract of the bridge.
type Classification struct {
	Status      SectionStatus
	Scan        regionScan
	Lines       []string
	FileExists  bool
	ActualHash  string
	DesiredHash string
}

// normalizeSpan makes span comparison trailing-newline-insensitive.
func normalizeSpan(s string) string {
	return strings.Trim(s, "\n")
}

// hashSpan hashes a normalized span; used for drift detection and the
// conflict recheck before a repair overwrites a region.
func hashSpan(s string) string {
	sum := sha256.Sum256([]byte(normalizeSpan(s)))
	return hex.EncodeToString(sum[:])
}

// classify applies the ordered status contract (first match wins):
// missing_file, missing_marker, corrupted/duplicate_marker, match, drift.
// Callers can assert exactly one status for any fixture.
func classify(content string, fileExists bool, marker, desired string) Classification {
	c := Classification{
		FileExists:  fileExists,
		DesiredHash: hashSpan(desired),
	}
	if !fileExists {
		c.Status = StatusMissingFile
		return c
	}
	c.Lines = splitLines(content)
	c.Scan = scanRegion(c.Lines, marker)
	if !c.Scan.found {
		c.Status = c.Scan.status
		return c
	}
	c.ActualHash = hashSpan(c.Scan.inner)
	if normalizeSpan(c.Scan.inner) == normalizeSpan(desired) {
		c.Status = StatusMatch
	} else {
		c.Status = StatusDrift
	}
	return c
}

// renderUnifiedDiff renders a drifted span as a unified diff, on-disk
// content first.
func renderUnifiedDiff(actual, desired, path string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(normalizeSpan(actual) + "\n"),
		B:        difflib.SplitLines(normalizeSpan(desired) + "\n"),
		FromFile: path + " (on disk)",
		ToFile:   path + " (desired)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
