package file

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/keshon/bvc-subtree/internal/config"
	"github.com/keshon/bvc-subtree/internal/util"
)

func (fc *FileContext) indexPath() string {
	return filepath.Join(fc.RepoRoot, config.IndexFile)
}

// SaveIndex replaces the staged tree with entries.
func (fc *FileContext) SaveIndex(entries []Entry) error {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	if err := util.WriteJSON(fc.FS, fc.indexPath(), sorted); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// UpdateIndex overlays updated entries onto the staged tree and drops removed paths.
func (fc *FileContext) UpdateIndex(updated []Entry, removed []string) error {
	existing, err := fc.LoadIndex()
	if err != nil {
		return err
	}

	entryMap := make(map[string]Entry, len(existing)+len(updated))
	for _, e := range existing {
		entryMap[e.Path] = e
	}
	for _, e := range updated {
		entryMap[e.Path] = e
	}
	for _, p := range removed {
		delete(entryMap, p)
	}

	merged := make([]Entry, 0, len(entryMap))
	for _, k := range util.SortedKeys(entryMap) {
		merged = append(merged, entryMap[k])
	}
	return fc.SaveIndex(merged)
}

// ClearIndex removes the staging index.
func (fc *FileContext) ClearIndex() error {
	if !fc.FS.Exists(fc.indexPath()) {
		return nil
	}
	return fc.FS.Remove(fc.indexPath())
}

// LoadIndex loads the staged tree. A missing index is an empty tree.
func (fc *FileContext) LoadIndex() ([]Entry, error) {
	data, err := fc.FS.ReadFile(fc.indexPath())
	if err != nil {
		if fc.FS.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal index: %w", err)
	}
	return entries, nil
}
