// Package report owns the named report channels the mapper writes to.
// Skip and failure events are recorded here for later audit instead of
// being raised as errors; only structural errors abort a run.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Channel names. Each becomes one text file in the reports directory.
const (
	ChannelLog        = "log"        // rules handled successfully; bigger is better
	ChannelFail       = "fail"       // blocks or references that failed
	ChannelTodo       = "todo"       // recognized but not yet implemented; smaller is better
	ChannelAnomalies  = "anomalies"  // things that look wrong but are handled anyway
	ChannelBlocks     = "blocks"     // every block processed, top-level or nested
	ChannelSubplans   = "subplans"   // subplan reference accounting
	ChannelNoCourses  = "no_courses" // requirements whose course list resolved to nothing
	ChannelLabels     = "labels"     // every requirement label encountered
	ChannelConditions = "conditions" // normalized conditional expressions
	ChannelDebug      = "debug"      // development chatter
)

var allChannels = []string{
	ChannelLog, ChannelFail, ChannelTodo, ChannelAnomalies, ChannelBlocks,
	ChannelSubplans, ChannelNoCourses, ChannelLabels, ChannelConditions,
	ChannelDebug,
}

// Reporter fans messages out to per-channel writers. A nil Reporter is
// valid and discards everything, so tests can pass one only when they care.
type Reporter struct {
	writers map[string]io.Writer
	closers []io.Closer
}

// Open creates one file per channel under dir, stamping each with the run
// id and start time.
func Open(dir, runID string) (*Reporter, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	r := &Reporter{writers: make(map[string]io.Writer, len(allChannels))}
	started := time.Now().Format(time.RFC3339)
	for _, name := range allChannels {
		path := filepath.Join(dir, name+".txt")
		f, err := os.Create(path) // #nosec G304 - path is derived from the configured reports dir
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		fmt.Fprintf(f, "# run %s started %s\n", runID, started)
		r.writers[name] = f
		r.closers = append(r.closers, f)
	}
	return r, nil
}

// NewBuffer returns a Reporter backed by in-memory buffers, plus an
// accessor for a channel's contents. Used by tests.
func NewBuffer() (*Reporter, func(channel string) string) {
	r := &Reporter{writers: make(map[string]io.Writer, len(allChannels))}
	bufs := make(map[string]*bytes.Buffer, len(allChannels))
	for _, name := range allChannels {
		buf := &bytes.Buffer{}
		bufs[name] = buf
		r.writers[name] = buf
	}
	return r, func(channel string) string {
		if buf, ok := bufs[channel]; ok {
			return buf.String()
		}
		return ""
	}
}

// Close closes every channel file.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	for _, c := range r.closers {
		_ = c.Close()
	}
	r.closers = nil
}

func (r *Reporter) printf(channel, institution, requirementID, format string, args ...any) {
	if r == nil {
		return
	}
	w, ok := r.writers[channel]
	if !ok {
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", institution, requirementID, fmt.Sprintf(format, args...))
}

// Log records a rule handled successfully.
func (r *Reporter) Log(institution, requirementID, format string, args ...any) {
	r.printf(ChannelLog, institution, requirementID, format, args...)
}

// Fail records a block or reference that could not be processed.
func (r *Reporter) Fail(institution, requirementID, format string, args ...any) {
	r.printf(ChannelFail, institution, requirementID, format, args...)
}

// Todo records a recognized-but-unimplemented construct.
func (r *Reporter) Todo(institution, requirementID, format string, args ...any) {
	r.printf(ChannelTodo, institution, requirementID, format, args...)
}

// Anomaly records something that looks wrong but is handled anyway.
func (r *Reporter) Anomaly(institution, requirementID, format string, args ...any) {
	r.printf(ChannelAnomalies, institution, requirementID, format, args...)
}

// Block records a processed block as top-level or nested.
func (r *Reporter) Block(institution, requirementID, format string, args ...any) {
	r.printf(ChannelBlocks, institution, requirementID, format, args...)
}

// Subplan records subplan reference accounting.
func (r *Reporter) Subplan(institution, requirementID, format string, args ...any) {
	r.printf(ChannelSubplans, institution, requirementID, format, args...)
}

// NoCourses records a requirement whose normalized course list came back
// empty.
func (r *Reporter) NoCourses(institution, requirementID string) {
	r.printf(ChannelNoCourses, institution, requirementID, "")
}

// Label records a requirement label.
func (r *Reporter) Label(institution, requirementID, label string) {
	r.printf(ChannelLabels, institution, requirementID, "%s", label)
}

// Condition records a normalized conditional expression.
func (r *Reporter) Condition(institution, requirementID, expr string) {
	r.printf(ChannelConditions, institution, requirementID, "%s", expr)
}

// Debug records development chatter.
func (r *Reporter) Debug(institution, requirementID, format string, args ...any) {
	r.printf(ChannelDebug, institution, requirementID, format, args...)
}

// Channels returns the channel names in stable order, for doc and test use.
func Channels() []string {
	out := append([]string(nil), allChannels...)
	sort.Strings(out)
	return out
}
