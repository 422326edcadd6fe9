// Package quarantine loads the denylist of requirement blocks known to be
// permanently unprocessable. The set is a read-only snapshot for the whole
// run: the mapper consults it before every fetch and never mutates it.
package quarantine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgw-tools/coursemapper/internal/types"
)

// Set is the quarantined block keys, with the recorded reason for each.
type Set struct {
	entries map[types.BlockKey]string
}

// Empty returns a set with no entries.
func Empty() *Set {
	return &Set{entries: map[types.BlockKey]string{}}
}

// Load reads a quarantine CSV: institution, requirement_id, and an
// optional explanation column. A header row is detected and skipped. A
// missing file is not an error; it yields an empty set.
func Load(path string) (*Set, error) {
	if path == "" {
		return Empty(), nil
	}
	f, err := os.Open(path) // #nosec G304 - path comes from config
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("open quarantine file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read parses quarantine CSV content.
func Read(r io.Reader) (*Set, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // the explanation column is optional
	set := Empty()
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse quarantine csv: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		institution := strings.TrimSpace(row[0])
		requirementID := strings.TrimSpace(row[1])
		if first {
			first = false
			if strings.EqualFold(institution, "institution") {
				continue
			}
		}
		if institution == "" || requirementID == "" {
			continue
		}
		reason := ""
		if len(row) > 2 {
			reason = strings.TrimSpace(row[2])
		}
		set.entries[types.BlockKey{Institution: institution, RequirementID: requirementID}] = reason
	}
	return set, nil
}

// Contains reports whether the block is quarantined.
func (s *Set) Contains(key types.BlockKey) bool {
	if s == nil {
		return false
	}
	_, ok := s.entries[key]
	return ok
}

// Reason returns the recorded explanation for a quarantined block.
func (s *Set) Reason(key types.BlockKey) string {
	if s == nil {
		return ""
	}
	return s.entries[key]
}

// Len returns the number of quarantined blocks.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}
