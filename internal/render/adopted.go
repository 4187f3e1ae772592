/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fulmenhq/docbridge/pkg/safeio"
)

const adoptedRelative = ".docbridge/state/adopted.json"

// AdoptedEntry is one frozen baseline: the exact span text the project chose
// to keep, overriding whatever the templates would render.
type AdoptedEntry struct {
	Content   string `json:"content"`
	Hash      string `json:"hash"`
	AdoptedAt string `json:"adopted_at"`
}

type adoptedFile struct {
	Version  int                     `json:"version"`
	Sections map[string]AdoptedEntry `json:"sections"`
}

// AdoptedStore persists adopted baselines under the bridge state directory.
type AdoptedStore struct {
	path string
	data adoptedFile
	now  func() time.Time
}

// LoadAdopted reads the adopted baselines, tolerating absence.
func LoadAdopted(projectRoot string) (*AdoptedStore, error) {
	store := &AdoptedStore{
		path: filepath.Join(projectRoot, filepath.FromSlash(adoptedRelative)),
		data: adoptedFile{Version: 1, Sections: map[string]AdoptedEntry{}},
		now:  time.Now,
	}
	raw, err := os.ReadFile(store.path) // #nosec G304 -- path derives from the project root
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &store.data); err != nil {
		return nil, fmt.Errorf("adopted baselines file is corrupt: %w", err)
	}
	if store.data.Sections == nil {
		store.data.Sections = map[string]AdoptedEntry{}
	}
	return store, nil
}

// Entry returns the baseline for a section, if one was adopted.
func (s *AdoptedStore) Entry(section string) (AdoptedEntry, bool) {
	entry, ok := s.data.Sections[section]
	return entry, ok
}

// Put records a baseline and flushes the file atomically.
func (s *AdoptedStore) Put(section, content, hash string) error {
	s.data.Sections[section] = AdoptedEntry{
		Content:   content,
		Hash:      hash,
		AdoptedAt: s.now().UTC().Format(time.RFC3339),
	}
	return s.save()
}

// Forget drops a baseline so the section renders from templates again.
func (s *AdoptedStore) Forget(section string) error {
	if _, ok := s.data.Sections[section]; !ok {
		return nil
	}
	delete(s.data.Sections, section)
	return s.save()
}

func (s *AdoptedStore) save() error {
	out, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return safeio.WriteFileAtomic(s.path, append(out, '\n'))
}
