/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package bridge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fulmenhq/docbridge/internal/gitctx"
	"github.com/fulmenhq/docbridge/pkg/backup"
	"github.com/fulmenhq/docbridge/pkg/config"
	"github.com/fulmenhq/docbridge/pkg/logger"
	"github.com/fulmenhq/docbridge/pkg/safeio"
)

// ContentProvider supplies the desired generated payload for a section. The
// engine treats content as opaque; it never interprets its structure.
type ContentProvider interface {
	Render(section string) (content string, hash string, err error)
}

// Adopter is implemented by providers that can reverse the direction of
// truth: the current on-disk span becomes the new desired baseline.
type Adopter interface {
	Adopt(section, content, hash string) error
}

// AdapterResult is the uniform outcome vocabulary external adapters share
// with managed sections.
type AdapterResult struct {
	Status SectionStatus
	Action string
	Path   string
}

// ExternalAdapter transforms desired content into a target-specific artifact
// for mode:external sections. Adapters are pure local transforms; they never
// perform network I/O.
type ExternalAdapter interface {
	Name() string
	Diff(projectRoot string, sec config.SectionConfig, desired string) (AdapterResult, error)
	Apply(projectRoot string, sec config.SectionConfig, desired string) (AdapterResult, error)
}

// SizeBudgetError reports an adapter artifact exceeding its configured ceiling.
type SizeBudgetError struct {
	Limit int
	Size  int
}

func (e *SizeBudgetError) Error() string {
	return fmt.Sprintf("artifact size %d exceeds budget %d", e.Size, e.Limit)
}

// Engine composes the marker model, anchor resolver, diff engine, atomic
// writer, and adapters into the bridge verbs. One engine serves one
// invocation; nothing is cached across runs.
type Engine struct {
	projectRoot string
	cfg         *config.BridgeConfig
	provider    ContentProvider
	adapters    map[string]ExternalAdapter
	store       *backup.Store
	git         *gitctx.Context
	now         func() time.Time
	writeFile   func(path string, data []byte) error
}

// Option customizes an Engine.
type Option func(*Engine)

// WithAdapters registers external adapters by name.
func WithAdapters(m map[string]ExternalAdapter) Option {
	return func(e *Engine) { e.adapters = m }
}

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithWriteFile overrides the atomic write primitive. Tests use this to
// inject faults between backup creation and rename.
func WithWriteFile(fn func(path string, data []byte) error) Option {
	return func(e *Engine) { e.writeFile = fn }
}

// StateDir is the only persistent storage the bridge owns.
func StateDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".docbridge", "state")
}

// HistoryRoot holds backup snapshots keyed by timestamp.
func HistoryRoot(projectRoot string) string {
	return filepath.Join(StateDir(projectRoot), "history")
}

// New builds an engine for one invocation over a validated registry.
func New(projectRoot string, cfg *config.BridgeConfig, provider ContentProvider, opts ...Option) *Engine {
	e := &Engine{
		projectRoot: projectRoot,
		cfg:         cfg,
		provider:    provider,
		store:       backup.NewStore(HistoryRoot(projectRoot)),
		git:         gitctx.Collect(projectRoot),
		now:         time.Now,
		writeFile:   safeio.WriteFileAtomic,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store exposes the backup store (for prune and history listing).
func (e *Engine) Store() *backup.Store { return e.store }

func (e *Engine) newReport(command string) *Report {
	return &Report{
		Status:       "ok",
		Command:      command,
		GeneratedAt:  e.now().UTC(),
		ConfigPath:   e.cfg.Path,
		ConfigExists: e.cfg.Exists,
		SchemaID:     config.SchemaID,
		Git:          e.git,
		Sections:     []SectionReport{},
		Issues:       []Issue{},
	}
}

// selectSections resolves name filters (exact names or doublestar globs)
// against the registry, preserving registry order.
func (e *Engine) selectSections(filter []string) ([]config.SectionConfig, error) {
	if len(filter) == 0 {
		return e.cfg.Sections, nil
	}
	matched := make(map[string]bool)
	for _, pattern := range filter {
		found := false
		for _, sec := range e.cfg.Sections {
			ok, err := doublestar.Match(pattern, sec.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid section pattern %q: %w", pattern, err)
			}
			if ok || sec.Name == pattern {
				matched[sec.Name] = true
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown section %q", pattern)
		}
	}
	var out []config.SectionConfig
	for _, sec := range e.cfg.Sections {
		if matched[sec.Name] {
			out = append(out, sec)
		}
	}
	return out, nil
}

func readFile(path string) (content string, exists bool, err error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path derived from validated section config
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (e *Engine) relPath(target string) string {
	rel, err := filepath.Rel(e.projectRoot, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

// observation bundles everything one section classification produced.
type observation struct {
	class   Classification
	desired string
	target  string
	raw     string
}

func (e *Engine) observe(sec config.SectionConfig) (observation, *Issue) {
	desired, _, err := e.provider.Render(sec.Name)
	if err != nil {
		return observation{}, &Issue{
			Code:        CodeStatusFailure,
			Section:     sec.Name,
			Message:     fmt.Sprintf("rendering desired content failed: %v", err),
			Severity:    SeverityError,
			Remediation: RemediationFor(CodeStatusFailure),
		}
	}
	target := e.cfg.TargetPath(e.projectRoot, sec)
	raw, exists, err := readFile(target)
	if err != nil {
		return observation{}, &Issue{
			Code:        CodeStatusFailure,
			Path:        e.relPath(target),
			Section:     sec.Name,
			Message:     fmt.Sprintf("reading target failed: %v", err),
			Severity:    SeverityError,
			Remediation: RemediationFor(CodeStatusFailure),
		}
	}
	return observation{
		class:   classify(raw, exists, sec.Marker, desired),
		desired: desired,
		target:  target,
		raw:     raw,
	}, nil
}

func (e *Engine) sectionReport(sec config.SectionConfig, obs observation) SectionReport {
	return SectionReport{
		Name:        sec.Name,
		Status:      obs.class.Status,
		Target:      e.relPath(obs.target),
		Mode:        string(sec.Mode),
		Marker:      sec.Marker,
		ActualHash:  obs.class.ActualHash,
		DesiredHash: obs.class.DesiredHash,
	}
}

// Diagnose classifies every selected section without mutating anything.
func (e *Engine) Diagnose(filter []string) (*Report, error) {
	rep := e.newReport("diagnose")
	rep.Capabilities = &Capabilities{
		ManagedRegions:   true,
		AtomicWrites:     true,
		AnchorInsertion:  true,
		ExternalAdapters: len(e.adapters) > 0,
		SchemaValidation: true,
	}
	sections, err := e.selectSections(filter)
	if err != nil {
		return nil, err
	}
	root := e.cfg.AbsoluteRoot(e.projectRoot)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		rep.Issues = append(rep.Issues, Issue{
			Code:        CodeRootMissing,
			Path:        e.relPath(root),
			Message:     "documentation root does not exist",
			Severity:    SeverityWarning,
			Remediation: RemediationFor(CodeRootMissing),
		})
	}
	for _, sec := range sections {
		e.inspectSection(rep, sec)
	}
	rep.deriveStatus()
	return rep, nil
}

// List reports each section's classification. Error-state sections carry the
// same issue entries diagnose would emit, so the exit contract holds here too.
func (e *Engine) List(filter []string) (*Report, error) {
	rep := e.newReport("list")
	sections, err := e.selectSections(filter)
	if err != nil {
		return nil, err
	}
	for _, sec := range sections {
		e.inspectSection(rep, sec)
	}
	rep.deriveStatus()
	return rep, nil
}

func (e *Engine) inspectSection(rep *Report, sec config.SectionConfig) {
	if sec.Mode == config.ModeExternal {
		e.inspectExternal(rep, sec)
		return
	}
	obs, issue := e.observe(sec)
	if issue != nil {
		rep.Issues = append(rep.Issues, *issue)
		return
	}
	rep.Sections = append(rep.Sections, e.sectionReport(sec, obs))
	if iss := statusIssue(sec.Name, e.relPath(obs.target), obs.class.Status); iss != nil {
		rep.Issues = append(rep.Issues, *iss)
	}
}

func (e *Engine) inspectExternal(rep *Report, sec config.SectionConfig) {
	adapter, issue := e.adapterFor(sec)
	if issue != nil {
		rep.Issues = append(rep.Issues, *issue)
		return
	}
	desired, _, err := e.provider.Render(sec.Name)
	if err != nil {
		rep.Issues = append(rep.Issues, Issue{
			Code:     CodeStatusFailure,
			Section:  sec.Name,
			Message:  fmt.Sprintf("rendering desired content failed: %v", err),
			Severity: SeverityError,
		})
		return
	}
	result, err := adapter.Diff(e.projectRoot, sec, desired)
	if err != nil {
		rep.Issues = append(rep.Issues, e.adapterIssue(sec, result.Path, err))
		return
	}
	rep.Sections = append(rep.Sections, SectionReport{
		Name:   sec.Name,
		Status: result.Status,
		Target: sec.Target,
		Mode:   string(sec.Mode),
	})
	if iss := statusIssue(sec.Name, sec.Target, result.Status); iss != nil {
		rep.Issues = append(rep.Issues, *iss)
	}
}

func (e *Engine) adapterFor(sec config.SectionConfig) (ExternalAdapter, *Issue) {
	adapter, ok := e.adapters[sec.Adapter]
	if !ok {
		return nil, &Issue{
			Code:        CodeInvalidConfig,
			Section:     sec.Name,
			Message:     fmt.Sprintf("unsupported external adapter %q", sec.Adapter),
			Severity:    SeverityError,
			Remediation: RemediationFor(CodeInvalidConfig),
		}
	}
	return adapter, nil
}

func (e *Engine) adapterIssue(sec config.SectionConfig, path string, err error) Issue {
	var budget *SizeBudgetError
	if errors.As(err, &budget) {
		return Issue{
			Code:        CodeSizeBudgetExceeded,
			Path:        path,
			Section:     sec.Name,
			Message:     err.Error(),
			Severity:    SeverityError,
			Remediation: RemediationFor(CodeSizeBudgetExceeded),
		}
	}
	return Issue{
		Code:        CodeStatusFailure,
		Path:        path,
		Section:     sec.Name,
		Message:     fmt.Sprintf("adapter %s failed: %v", sec.Adapter, err),
		Severity:    SeverityError,
		Remediation: RemediationFor(CodeStatusFailure),
	}
}

// Diff classifies a single section and renders a textual diff for drift.
func (e *Engine) Diff(section string) (*Report, error) {
	rep := e.newReport("diff")
	sections, err := e.selectSections([]string{section})
	if err != nil {
		return nil, err
	}
	for _, sec := range sections {
		if sec.Mode == config.ModeExternal {
			e.inspectExternal(rep, sec)
			continue
		}
		obs, issue := e.observe(sec)
		if issue != nil {
			rep.Issues = append(rep.Issues, *issue)
			continue
		}
		sr := e.sectionReport(sec, obs)
		if obs.class.Status == StatusDrift {
			sr.Diff = renderUnifiedDiff(obs.class.Scan.inner, obs.desired, sr.Target)
		}
		rep.Sections = append(rep.Sections, sr)
		if iss := statusIssue(sec.Name, sr.Target, obs.class.Status); iss != nil {
			rep.Issues = append(rep.Issues, *iss)
		}
	}
	rep.deriveStatus()
	return rep, nil
}

// Repair brings drifted or marker-less sections back to the desired content.
// Error states (missing_file, duplicate_marker, corrupted) are refused with a
// remediation-carrying issue; repair never guesses the structure of a broken
// file. baseline, when non-nil, maps section names to the content hash
// observed at diagnose time: a mismatch aborts with DOC_BRIDGE_CONFLICT.
func (e *Engine) Repair(filter []string, baseline map[string]string) (*Report, error) {
	return e.reconcile("repair", filter, baseline)
}

// Sync is diff-then-repair: sections in drift or missing_marker are repaired,
// everything else is reported as-is.
func (e *Engine) Sync(filter []string) (*Report, error) {
	return e.reconcile("sync", filter, nil)
}

func (e *Engine) reconcile(command string, filter []string, baseline map[string]string) (*Report, error) {
	rep := e.newReport(command)
	sections, err := e.selectSections(filter)
	if err != nil {
		return nil, err
	}
	snap := e.store.Begin(backup.NewTimestamp(e.now()), command, e.gitSHA())
	for _, sec := range sections {
		if sec.Mode == config.ModeExternal {
			e.repairExternal(rep, snap, sec)
			continue
		}
		e.repairManaged(rep, snap, sec, baseline)
	}
	if !snap.Empty() {
		rep.Backup = snap.Timestamp()
	}
	rep.deriveStatus()
	return rep, nil
}

func (e *Engine) gitSHA() string {
	if e.git == nil {
		return ""
	}
	return e.git.SHA
}

func (e *Engine) repairManaged(rep *Report, snap *backup.Snapshot, sec config.SectionConfig, baseline map[string]string) {
	obs, issue := e.observe(sec)
	if issue != nil {
		rep.Issues = append(rep.Issues, *issue)
		return
	}
	sr := e.sectionReport(sec, obs)

	switch obs.class.Status {
	case StatusMatch:
		sr.Action = "noop"

	case StatusMissingFile, StatusDuplicateMarker, StatusCorrupted:
		iss := statusIssue(sec.Name, sr.Target, obs.class.Status)
		iss.Severity = SeverityError
		rep.Issues = append(rep.Issues, *iss)
		sr.Action = "skipped"

	case StatusMissingMarker:
		pos, err := resolveInsertIndex(obs.class.Lines, sec.Anchor)
		if err != nil {
			rep.Issues = append(rep.Issues, Issue{
				Code:        CodeAnchorNotFound,
				Path:        sr.Target,
				Section:     sec.Name,
				Message:     err.Error(),
				Severity:    SeverityError,
				Remediation: RemediationFor(CodeAnchorNotFound),
			})
			sr.Action = "skipped"
			break
		}
		lines := insertRegion(obs.class.Lines, pos, renderRegion(sec.Marker, obs.desired), sec.Anchor.Kind)
		if iss := e.mutate(snap, sec, obs, joinLines(lines)); iss != nil {
			rep.Issues = append(rep.Issues, *iss)
			sr.Action = "skipped"
		} else {
			sr.Action = "inserted"
		}

	case StatusDrift:
		if baseline != nil {
			if want, ok := baseline[sec.Name]; ok && want != obs.class.ActualHash {
				rep.Issues = append(rep.Issues, e.conflictIssue(sec, sr.Target))
				sr.Action = "skipped"
				break
			}
		}
		lines := replaceRegion(obs.class.Lines, obs.class.Scan, renderRegion(sec.Marker, obs.desired))
		if iss := e.mutate(snap, sec, obs, joinLines(lines)); iss != nil {
			rep.Issues = append(rep.Issues, *iss)
			sr.Action = "skipped"
		} else {
			sr.Action = "updated"
		}
	}
	rep.Sections = append(rep.Sections, sr)
}

func (e *Engine) conflictIssue(sec config.SectionConfig, target string) Issue {
	return Issue{
		Code:        CodeConflict,
		Path:        target,
		Section:     sec.Name,
		Message:     "on-disk content changed since diagnosis; refusing to overwrite",
		Severity:    SeverityError,
		Remediation: RemediationFor(CodeConflict),
	}
}

// replaceRegion swaps the matched span (markers included) for region.
func replaceRegion(lines []string, scan regionScan, region []string) []string {
	out := make([]string, 0, len(lines)-(scan.endLine-scan.startLine+1)+len(region))
	out = append(out, lines[:scan.startLine]...)
	out = append(out, region...)
	out = append(out, lines[scan.endLine+1:]...)
	return out
}

// mutate performs the crash-safe write protocol for one section: re-validate
// the target against the observed state, persist a backup snapshot, then
// atomically replace the file. On any failure before the rename the target
// is byte-identical to its pre-operation state.
func (e *Engine) mutate(snap *backup.Snapshot, sec config.SectionConfig, obs observation, newContent string) *Issue {
	current, exists, err := readFile(obs.target)
	if err != nil {
		return &Issue{
			Code:     CodeStatusFailure,
			Path:     e.relPath(obs.target),
			Section:  sec.Name,
			Message:  fmt.Sprintf("re-reading target failed: %v", err),
			Severity: SeverityError,
		}
	}
	if exists != obs.class.FileExists || current != obs.raw {
		iss := e.conflictIssue(sec, e.relPath(obs.target))
		return &iss
	}
	if exists {
		if err := snap.Capture(sec.Name, e.relPath(obs.target), []byte(current), hashSpan(current)); err != nil {
			return &Issue{
				Code:     CodeStatusFailure,
				Path:     e.relPath(obs.target),
				Section:  sec.Name,
				Message:  fmt.Sprintf("backup failed, refusing to write: %v", err),
				Severity: SeverityError,
			}
		}
	}
	if err := e.writeFile(obs.target, []byte(newContent)); err != nil {
		return &Issue{
			Code:     CodeStatusFailure,
			Path:     e.relPath(obs.target),
			Section:  sec.Name,
			Message:  fmt.Sprintf("atomic write failed: %v", err),
			Severity: SeverityError,
		}
	}
	logger.Debug("managed region written", logger.String("section", sec.Name), logger.String("path", e.relPath(obs.target)))
	return nil
}

func (e *Engine) repairExternal(rep *Report, snap *backup.Snapshot, sec config.SectionConfig) {
	adapter, issue := e.adapterFor(sec)
	if issue != nil {
		rep.Issues = append(rep.Issues, *issue)
		return
	}
	desired, _, err := e.provider.Render(sec.Name)
	if err != nil {
		rep.Issues = append(rep.Issues, Issue{
			Code:     CodeStatusFailure,
			Section:  sec.Name,
			Message:  fmt.Sprintf("rendering desired content failed: %v", err),
			Severity: SeverityError,
		})
		return
	}
	result, err := adapter.Diff(e.projectRoot, sec, desired)
	if err != nil {
		rep.Issues = append(rep.Issues, e.adapterIssue(sec, result.Path, err))
		return
	}
	sr := SectionReport{
		Name:   sec.Name,
		Status: result.Status,
		Target: sec.Target,
		Mode:   string(sec.Mode),
	}
	switch result.Status {
	case StatusMatch:
		sr.Action = "noop"
	case StatusMissingFile:
		iss := statusIssue(sec.Name, sec.Target, result.Status)
		rep.Issues = append(rep.Issues, *iss)
		sr.Action = "skipped"
	default:
		target := filepath.Join(e.projectRoot, filepath.FromSlash(sec.Target))
		if current, exists, err := readFile(target); err == nil && exists {
			if err := snap.Capture(sec.Name, e.relPath(target), []byte(current), hashSpan(current)); err != nil {
				rep.Issues = append(rep.Issues, e.adapterIssue(sec, sec.Target, err))
				sr.Action = "skipped"
				break
			}
		}
		applied, err := adapter.Apply(e.projectRoot, sec, desired)
		if err != nil {
			rep.Issues = append(rep.Issues, e.adapterIssue(sec, applied.Path, err))
			sr.Action = "skipped"
			break
		}
		sr.Action = applied.Action
	}
	rep.Sections = append(rep.Sections, sr)
}

// Adopt captures the current on-disk span as the new desired baseline. It is
// valid only from match or drift; error states must be repaired or resolved
// manually first.
func (e *Engine) Adopt(section string) (*Report, error) {
	rep := e.newReport("adopt")
	sections, err := e.selectSections([]string{section})
	if err != nil {
		return nil, err
	}
	adopter, ok := e.provider.(Adopter)
	if !ok {
		return nil, errors.New("content provider does not support adoption")
	}
	for _, sec := range sections {
		if sec.Mode == config.ModeExternal {
			rep.Issues = append(rep.Issues, Issue{
				Code:     CodeStatusFailure,
				Section:  sec.Name,
				Message:  "adopt is not supported for external sections",
				Severity: SeverityError,
			})
			continue
		}
		obs, issue := e.observe(sec)
		if issue != nil {
			rep.Issues = append(rep.Issues, *issue)
			continue
		}
		sr := e.sectionReport(sec, obs)
		switch obs.class.Status {
		case StatusMatch, StatusDrift:
			content := normalizeSpan(obs.class.Scan.inner)
			hash := hashSpan(content)
			if err := adopter.Adopt(sec.Name, content, hash); err != nil {
				rep.Issues = append(rep.Issues, Issue{
					Code:     CodeStatusFailure,
					Section:  sec.Name,
					Message:  fmt.Sprintf("persisting adopted baseline failed: %v", err),
					Severity: SeverityError,
				})
				sr.Action = "skipped"
				break
			}
			sr.Action = "adopted"
			sr.Status = StatusMatch
			sr.DesiredHash = hash
			logger.Info("baseline adopted", logger.String("section", sec.Name))
		default:
			iss := statusIssue(sec.Name, sr.Target, obs.class.Status)
			iss.Severity = SeverityError
			iss.Message = "adopt requires an intact managed region: " + iss.Message
			rep.Issues = append(rep.Issues, *iss)
			sr.Action = "skipped"
		}
		rep.Sections = append(rep.Sections, sr)
	}
	rep.deriveStatus()
	return rep, nil
}

// Rollback restores a section's target file from a backup snapshot. Rollback
// is itself a mutation: the current state is snapshotted first, so a rollback
// can be rolled back.
func (e *Engine) Rollback(section, timestamp string) (*Report, error) {
	rep := e.newReport("rollback")
	manifest, err := e.store.Lookup(timestamp)
	if err != nil {
		return nil, err
	}
	var entry *backup.Entry
	for i := range manifest.Entries {
		if manifest.Entries[i].Section == section {
			entry = &manifest.Entries[i]
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("snapshot %s has no entry for section %q", timestamp, section)
	}
	prior, err := e.store.Content(timestamp, entry.Path)
	if err != nil {
		return nil, err
	}

	target := filepath.Join(e.projectRoot, filepath.FromSlash(entry.Path))
	current, exists, err := readFile(target)
	if err != nil {
		return nil, err
	}
	snap := e.store.Begin(backup.NewTimestamp(e.now()), "rollback", e.gitSHA())
	if exists {
		if err := snap.Capture(section, entry.Path, []byte(current), hashSpan(current)); err != nil {
			return nil, fmt.Errorf("backup of pre-rollback state failed: %w", err)
		}
	}
	if err := e.writeFile(target, prior); err != nil {
		return nil, fmt.Errorf("restoring %s failed: %w", entry.Path, err)
	}
	if !snap.Empty() {
		rep.Backup = snap.Timestamp()
	}
	rep.Sections = append(rep.Sections, SectionReport{
		Name:   section,
		Target: entry.Path,
		Action: "restored",
	})
	logger.Info("section restored from snapshot",
		logger.String("section", section), logger.String("timestamp", timestamp))
	rep.deriveStatus()
	return rep, nil
}
