// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snapshot persists the artefacts of a run: the deadline snapshot
// (deadlines.json), the change record (changes.json), and the rendered
// report (deadlines.md).
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deadline-tracker/pkg/types"
)

// Default artefact file names.
const (
	DefaultSnapshotFile = "deadlines.json"
	DefaultChangesFile  = "changes.json"
	DefaultReportFile   = "deadlines.md"
)

// Paths resolves the artefact locations from the output configuration.
type Paths struct {
	Snapshot string
	Changes  string
	Report   string
}

// PathsFor applies defaults to cfg and joins each file name with cfg.Dir.
func PathsFor(cfg types.OutputConfig) Paths {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	pick := func(name, def string) string {
		if name == "" {
			name = def
		}
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(dir, name)
	}
	return Paths{
		Snapshot: pick(cfg.SnapshotFile, DefaultSnapshotFile),
		Changes:  pick(cfg.ChangesFile, DefaultChangesFile),
		Report:   pick(cfg.ReportFile, DefaultReportFile),
	}
}

// Load reads a snapshot. A missing file is an empty snapshot, not an error.
func Load(path string) ([]types.Deadline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []types.Deadline{}, nil
		}
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []types.Deadline{}, nil
	}

	var records []types.Deadline
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	if records == nil {
		records = []types.Deadline{}
	}
	return records, nil
}

// Save writes records as an indented JSON array.
func Save(path string, records []types.Deadline) error {
	if records == nil {
		records = []types.Deadline{}
	}
	data, err := marshalJSON(records)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return writeAtomic(path, data)
}

// LoadChanges reads a change record. A missing file yields nil.
func LoadChanges(path string) (*types.ChangeSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading changes %s: %w", path, err)
	}
	cs := types.NewChangeSet()
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parsing changes %s: %w", path, err)
	}
	return &cs, nil
}

// SaveChanges writes the change record as an indented JSON object.
func SaveChanges(path string, cs types.ChangeSet) error {
	data, err := marshalJSON(normalize(cs))
	if err != nil {
		return fmt.Errorf("marshaling changes: %w", err)
	}
	return writeAtomic(path, data)
}

// ClearChanges removes the change record so it cannot be mistaken for the
// outcome of a later run. A missing file is not an error.
func ClearChanges(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing changes %s: %w", path, err)
	}
	return nil
}

// MarshalChangesYAML renders a change set as YAML for terminal output.
func MarshalChangesYAML(cs types.ChangeSet) ([]byte, error) {
	data, err := yaml.Marshal(normalize(cs))
	if err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	return data, nil
}

// MarshalChangesJSON renders a change set as indented JSON.
func MarshalChangesJSON(cs types.ChangeSet) ([]byte, error) {
	return marshalJSON(normalize(cs))
}

// WriteReport writes the rendered Markdown report, replacing any previous one.
func WriteReport(path, markdown string) error {
	return writeAtomic(path, []byte(markdown))
}

func normalize(cs types.ChangeSet) types.ChangeSet {
	if cs.Added == nil {
		cs.Added = []types.Deadline{}
	}
	if cs.Removed == nil {
		cs.Removed = []types.Deadline{}
	}
	if cs.Modified == nil {
		cs.Modified = []types.Deadline{}
	}
	return cs
}

// marshalJSON indents with two spaces and leaves non-ASCII text and HTML
// characters unescaped.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
