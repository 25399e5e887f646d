// Package refdata looks up static per-vehicle performance limits, one JSON
// file per vehicle slug. The files are read-only and absence of a vehicle is
// an expected outcome, not an error.
package refdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Entry is an opaque mapping of named performance limits for one vehicle.
type Entry map[string]any

// Registry resolves vehicles against a directory of reference files. Lookups
// re-read from disk on every call; the call rate is per interaction, not per
// frame, so there is nothing worth caching.
type Registry struct {
	basePath string
}

func NewRegistry(basePath string) *Registry {
	return &Registry{basePath: basePath}
}

// FindForVehicle returns the reference entry for a vehicle name, or ok=false
// when no file exists for its slug.
func (r *Registry) FindForVehicle(name string) (Entry, bool, error) {
	if name == "" {
		return nil, false, nil
	}

	path := filepath.Join(r.basePath, Slug(name)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read reference file: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return entry, true, nil
}

// Slug normalizes a vehicle name to its file name form: lowercased, with
// spaces replaced by underscores.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
