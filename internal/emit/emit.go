// Package emit writes the three output tables: programs, requirements, and
// course mappings. Column order is part of the contract with downstream
// consumers; rows are flushed as they are written so that partial output
// survives an aborted run.
package emit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dgw-tools/coursemapper/internal/types"
)

// Output file names within the reports directory.
const (
	ProgramsFile     = "programs.csv"
	RequirementsFile = "requirements.csv"
	MappingsFile     = "course_mappings.csv"
)

// Header rows, in contract order.
var (
	ProgramsHeader = []string{"Institution", "Requirement ID", "Type", "Code",
		"Title", "Total Credits", "Max Transfer", "Min Residency", "Min Grade",
		"Min GPA", "Other", "Generate Date"}
	RequirementsHeader = []string{"Institution", "Plan Name", "Plan Type",
		"Subplan Name", "Requirement IDs", "Conditions", "Requirement Key",
		"Program Name", "Context", "Generate Date"}
	MappingsHeader = []string{"Requirement Key", "Course ID", "Career",
		"Course", "With", "Generate Date"}
)

// Sink receives output rows. Tables writes CSV files; Recorder collects
// rows for tests.
type Sink interface {
	Program(rec *types.ProgramRecord) error
	Requirement(rec *types.RequirementRecord) error
	Mapping(rec *types.MappingRecord) error
}

// Tables is the file-backed Sink.
type Tables struct {
	programs     *csv.Writer
	requirements *csv.Writer
	mappings     *csv.Writer
	files        []*os.File
}

var _ Sink = (*Tables)(nil)

// Open creates the three CSV files under dir and writes their header rows.
func Open(dir string) (*Tables, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	t := &Tables{}
	open := func(name string, header []string) (*csv.Writer, error) {
		f, err := os.Create(filepath.Join(dir, name)) // #nosec G304 - dir comes from config
		if err != nil {
			return nil, err
		}
		t.files = append(t.files, f)
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		return w, w.Error()
	}
	var err error
	if t.programs, err = open(ProgramsFile, ProgramsHeader); err != nil {
		t.Close()
		return nil, fmt.Errorf("open programs table: %w", err)
	}
	if t.requirements, err = open(RequirementsFile, RequirementsHeader); err != nil {
		t.Close()
		return nil, fmt.Errorf("open requirements table: %w", err)
	}
	if t.mappings, err = open(MappingsFile, MappingsHeader); err != nil {
		t.Close()
		return nil, fmt.Errorf("open mappings table: %w", err)
	}
	return t, nil
}

// Close flushes and closes the three files.
func (t *Tables) Close() {
	for _, w := range []*csv.Writer{t.programs, t.requirements, t.mappings} {
		if w != nil {
			w.Flush()
		}
	}
	for _, f := range t.files {
		_ = f.Close()
	}
	t.files = nil
}

func writeRow(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Program writes one programs row.
func (t *Tables) Program(rec *types.ProgramRecord) error {
	return writeRow(t.programs, []string{
		rec.Institution, rec.RequirementID, rec.BlockType, rec.BlockValue,
		rec.Title, rec.TotalCredits, rec.MaxTransfer, rec.MinResidency,
		rec.MinGrade, rec.MinGPA, rec.Other, rec.GeneratedDate,
	})
}

// Requirement writes one requirements row.
func (t *Tables) Requirement(rec *types.RequirementRecord) error {
	return writeRow(t.requirements, []string{
		rec.Institution, rec.PlanName, rec.PlanType, rec.SubplanName,
		rec.RequirementIDs, rec.Conditions, strconv.Itoa(rec.RequirementKey),
		rec.ProgramName, rec.Context, rec.GeneratedDate,
	})
}

// Mapping writes one course-mappings row.
func (t *Tables) Mapping(rec *types.MappingRecord) error {
	return writeRow(t.mappings, []string{
		strconv.Itoa(rec.RequirementKey), rec.CourseID, rec.Career,
		rec.Course, rec.WithClause, rec.GeneratedDate,
	})
}

// Recorder is an in-memory Sink for tests.
type Recorder struct {
	Programs     []*types.ProgramRecord
	Requirements []*types.RequirementRecord
	Mappings     []*types.MappingRecord
}

var _ Sink = (*Recorder)(nil)

// Program implements Sink.
func (r *Recorder) Program(rec *types.ProgramRecord) error {
	r.Programs = append(r.Programs, rec)
	return nil
}

// Requirement implements Sink.
func (r *Recorder) Requirement(rec *types.RequirementRecord) error {
	r.Requirements = append(r.Requirements, rec)
	return nil
}

// Mapping implements Sink.
func (r *Recorder) Mapping(rec *types.MappingRecord) error {
	r.Mappings = append(r.Mappings, rec)
	return nil
}
