/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package bridge

import (
	"time"

	"github.com/fulmenhq/docbridge/internal/gitctx"
)

// SectionStatus classifies the runtime-observed state of a section inside
// its target file. It is a derived view, recomputed on every invocation and
// never persisted.
type SectionStatus string

const (
	StatusMatch           SectionStatus = "match"
	StatusDrift           SectionStatus = "drift"
	StatusMissingFile     SectionStatus = "missing_file"
	StatusMissingMarker   SectionStatus = "missing_marker"
	StatusDuplicateMarker SectionStatus = "duplicate_marker"
	StatusCorrupted       SectionStatus = "corrupted"
)

// IssueSeverity represents the severity level of a bridge issue
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
	SeverityInfo    IssueSeverity = "info"
)

// Machine-readable error codes. Per-section errors are isolated; only
// configuration errors abort a run before any file is touched.
const (
	CodeInvalidConfig      = "DOC_BRIDGE_INVALID_CONFIG"
	CodeMissingFile        = "DOC_BRIDGE_MISSING_FILE"
	CodeMissingMarker      = "DOC_BRIDGE_MISSING_MARKER"
	CodeDuplicateMarker    = "DOC_BRIDGE_DUPLICATE_MARKER"
	CodeCorruptedMarkers   = "DOC_BRIDGE_CORRUPTED_MARKERS"
	CodeAnchorNotFound     = "DOC_BRIDGE_ANCHOR_NOT_FOUND"
	CodeConflict           = "DOC_BRIDGE_CONFLICT"
	CodeSizeBudgetExceeded = "DOC_BRIDGE_SIZE_BUDGET_EXCEEDED"
	CodeRootMissing        = "DOC_BRIDGE_ROOT_MISSING"
	CodeStatusFailure      = "DOC_BRIDGE_STATUS_FAILURE"
)

var remediations = map[string]string{
	CodeInvalidConfig:      "Update .docbridge/bridge.yaml to match the bridge schema and section invariants.",
	CodeMissingFile:        "Create or restore the referenced documentation file before running repair.",
	CodeMissingMarker:      "Run `docbridge repair --section <name>` to insert the managed region.",
	CodeDuplicateMarker:    "Manually remove the duplicate marker pair from the target file, keeping exactly one.",
	CodeCorruptedMarkers:   "Manually restore a balanced start/end marker pair in the target file, then rerun diagnose.",
	CodeAnchorNotFound:     "Add the anchor heading/marker to the target file or change the section's anchor policy.",
	CodeConflict:           "Rerun diagnose to pick up the external edit, then repair against the fresh state.",
	CodeSizeBudgetExceeded: "Raise max_bytes for the section or reduce the generated content.",
	CodeRootMissing:        "Create the documentation root or adjust 'root' in .docbridge/bridge.yaml.",
	CodeStatusFailure:      "Retry `docbridge diagnose --json` and inspect the logs.",
}

// RemediationFor returns default remediation text for an error code.
func RemediationFor(code string) string {
	return remediations[code]
}

// Issue is a single actionable finding. Every failure path is captured as an
// Issue with a code so automation can branch without parsing prose.
type Issue struct {
	Code        string        `json:"code"`
	Path        string        `json:"path,omitempty"`
	Section     string        `json:"section,omitempty"`
	Message     string        `json:"message"`
	Severity    IssueSeverity `json:"severity"`
	Remediation string        `json:"remediation,omitempty"`
}

// SectionReport is the per-section outcome of one verb.
type SectionReport struct {
	Name        string        `json:"name"`
	Status      SectionStatus `json:"status"`
	Target      string        `json:"target"`
	Mode        string        `json:"mode"`
	Marker      string        `json:"marker,omitempty"`
	Action      string        `json:"action,omitempty"`
	ActualHash  string        `json:"actual_hash,omitempty"`
	DesiredHash string        `json:"desired_hash,omitempty"`
	Diff        string        `json:"diff,omitempty"`
}

// Capabilities advertises what this build of the bridge can do.
type Capabilities struct {
	ManagedRegions   bool `json:"managed_regions"`
	AtomicWrites     bool `json:"atomic_writes"`
	AnchorInsertion  bool `json:"anchor_insertion"`
	ExternalAdapters bool `json:"external_adapters"`
	SchemaValidation bool `json:"schema_validation"`
}

// Report is the aggregate outcome of one verb over the section registry.
type Report struct {
	Status       string          `json:"status"` // ok | warning | error
	Command      string          `json:"command"`
	GeneratedAt  time.Time       `json:"generated_at"`
	ConfigPath   string          `json:"config_path"`
	ConfigExists bool            `json:"config_exists"`
	SchemaID     string          `json:"schema_id,omitempty"`
	Git          *gitctx.Context `json:"git,omitempty"`
	Capabilities *Capabilities   `json:"capabilities,omitempty"`
	Backup       string          `json:"backup,omitempty"`
	Sections     []SectionReport `json:"sections"`
	Issues       []Issue         `json:"issues"`
}

// HasErrors reports whether any section ended in an error state. Drift is
// expected before a repair and never fails a run by itself.
func (r *Report) HasErrors() bool {
	for _, iss := range r.Issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// deriveStatus rolls per-section outcomes into the envelope status.
func (r *Report) deriveStatus() {
	status := "ok"
	for _, iss := range r.Issues {
		switch iss.Severity {
		case SeverityError:
			r.Status = "error"
			return
		case SeverityWarning:
			status = "warning"
		}
	}
	for _, sec := range r.Sections {
		switch sec.Status {
		case StatusDrift, StatusMissingMarker:
			status = "warning"
		case StatusMissingFile, StatusDuplicateMarker, StatusCorrupted:
			r.Status = "error"
			return
		}
	}
	r.Status = status
}

// statusIssue builds the canonical Issue for a non-match section status, or
// nil when the status carries no issue (match, drift).
func statusIssue(name, target string, status SectionStatus) *Issue {
	switch status {
	case StatusMissingFile:
		return &Issue{
			Code:        CodeMissingFile,
			Path:        target,
			Section:     name,
			Message:     "target file does not exist",
			Severity:    SeverityError,
			Remediation: RemediationFor(CodeMissingFile),
		}
	case StatusMissingMarker:
		return &Issue{
			Code:        CodeMissingMarker,
			Path:        target,
			Section:     name,
			Message:     "managed markers not found in target file",
			Severity:    SeverityWarning,
			Remediation: RemediationFor(CodeMissingMarker),
		}
	case StatusDuplicateMarker:
		return &Issue{
			Code:        CodeDuplicateMarker,
			Path:        target,
			Section:     name,
			Message:     "marker pair appears more than once in target file",
			Severity:    SeverityError,
			Remediation: RemediationFor(CodeDuplicateMarker),
		}
	case StatusCorrupted:
		return &Issue{
			Code:        CodeCorruptedMarkers,
			Path:        target,
			Section:     name,
			Message:     "start/end marker counts are unbalanced",
			Severity:    SeverityError,
			Remediation: RemediationFor(CodeCorruptedMarkers),
		}
	}
	return nil
}
