// Package backup maintains timestamped, restorable snapshots of files the
// bridge is about to mutate. Snapshots live under the state directory as
// <timestamp>/manifest.json plus <timestamp>/files/<relpath> whole-file
// copies, and outlive a single invocation until pruned.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fulmenhq/docbridge/pkg/safeio"
)

// TimestampLayout is the on-disk snapshot key format (UTC).
const TimestampLayout = "20060102T150405.000000000Z"

// Entry records one captured file within a snapshot.
type Entry struct {
	Section string `json:"section"`
	Path    string `json:"path"` // project-relative, forward slashes
	SHA256  string `json:"sha256"`
}

// Manifest describes a snapshot: which sections were backed up and why.
type Manifest struct {
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command"`
	GitSHA    string  `json:"git_sha,omitempty"`
	Entries   []Entry `json:"entries"`
}

// Store manages snapshots under a single history root.
type Store struct {
	root string
}

// NewStore returns a store rooted at historyRoot. The directory is created
// lazily on first capture.
func NewStore(historyRoot string) *Store {
	return &Store{root: historyRoot}
}

// Root returns the history root directory.
func (s *Store) Root() string { return s.root }

// NewTimestamp formats t as a snapshot key.
func NewTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Snapshot accumulates captured files for one timestamp. Every Capture
// persists both the file copy and the updated manifest before returning, so
// the snapshot is durable before any destructive write happens.
type Snapshot struct {
	store    *Store
	manifest Manifest
}

// Begin opens a snapshot for the given timestamp.
func (s *Store) Begin(timestamp, command, gitSHA string) *Snapshot {
	return &Snapshot{
		store: s,
		manifest: Manifest{
			Timestamp: timestamp,
			Command:   command,
			GitSHA:    gitSHA,
		},
	}
}

// Capture copies content (the pre-mutation state of relPath) into the
// snapshot and flushes the manifest.
func (sn *Snapshot) Capture(section, relPath string, content []byte, sha256Hex string) error {
	rel := filepath.ToSlash(relPath)
	dest := filepath.Join(sn.store.root, sn.manifest.Timestamp, "files", filepath.FromSlash(rel))
	if err := safeio.WriteFileAtomic(dest, content); err != nil {
		return fmt.Errorf("backup capture %s: %w", rel, err)
	}
	sn.manifest.Entries = append(sn.manifest.Entries, Entry{
		Section: section,
		Path:    rel,
		SHA256:  sha256Hex,
	})
	return sn.flush()
}

// Empty reports whether the snapshot captured anything.
func (sn *Snapshot) Empty() bool { return len(sn.manifest.Entries) == 0 }

// Timestamp returns the snapshot key.
func (sn *Snapshot) Timestamp() string { return sn.manifest.Timestamp }

func (sn *Snapshot) flush() error {
	data, err := json.MarshalIndent(sn.manifest, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(sn.store.root, sn.manifest.Timestamp, "manifest.json")
	return safeio.WriteFileAtomic(path, append(data, '\n'))
}

// Lookup loads the manifest for a snapshot timestamp.
func (s *Store) Lookup(timestamp string) (*Manifest, error) {
	path := filepath.Join(s.root, timestamp, "manifest.json")
	data, err := os.ReadFile(path) // #nosec G304 -- path is store-relative
	if err != nil {
		return nil, fmt.Errorf("snapshot %s not found under %s: %w", timestamp, s.root, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("snapshot %s manifest is unreadable: %w", timestamp, err)
	}
	return &m, nil
}

// Content returns the captured bytes for relPath in a snapshot.
func (s *Store) Content(timestamp, relPath string) ([]byte, error) {
	base := filepath.Join(s.root, timestamp, "files")
	return safeio.ReadFileContained(base, filepath.Join(base, filepath.FromSlash(relPath)))
}

// List returns all snapshot manifests, oldest first.
func (s *Store) List() ([]Manifest, error) {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(s.root), "*/manifest.json")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	manifests := make([]Manifest, 0, len(matches))
	for _, m := range matches {
		ts := strings.SplitN(filepath.ToSlash(m), "/", 2)[0]
		manifest, err := s.Lookup(ts)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, *manifest)
	}
	return manifests, nil
}

// Prune removes all but the newest keep snapshots and returns the removed
// timestamps. keep < 1 is rejected: pruning never empties the store.
func (s *Store) Prune(keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("prune keep must be >= 1, got %d", keep)
	}
	manifests, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(manifests) <= keep {
		return nil, nil
	}
	var removed []string
	for _, m := range manifests[:len(manifests)-keep] {
		if err := os.RemoveAll(filepath.Join(s.root, m.Timestamp)); err != nil {
			return removed, err
		}
		removed = append(removed, m.Timestamp)
	}
	return removed, nil
}
