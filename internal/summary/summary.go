// Package summary implements the run's single-writer NDJSON log (C6,
// §4.6, §5): one JSON object per completed task, appended under a
// discipline that guarantees every line on disk is either complete or
// absent, even across a forced kill of the runner.
package summary

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// ResultKind is the closed set of terminal task outcomes (§6). It is a
// strict superset of the checker's own maf.Kind: SyntaxError and
// SystemError never originate in the checker, and Timeout/SolverError
// are runner-level verdicts the checker never produces at all.
type ResultKind string

const (
	Valid           ResultKind = "Valid"
	NoSolution      ResultKind = "NoSolution"
	Infeasible      ResultKind = "Infeasible"
	InvalidInstance ResultKind = "InvalidInstance"
	SyntaxError     ResultKind = "SyntaxError"
	SystemError     ResultKind = "SystemError"
	SolverError     ResultKind = "SolverError"
	Timeout         ResultKind = "Timeout"
)

// Profile carries the getrusage-derived telemetry fields (§4.5 step 4,
// §6).
type Profile struct {
	WallSeconds   float64 `json:"s_wtime"`
	UserSeconds   float64 `json:"s_utime"`
	SystemSeconds float64 `json:"s_stime"`
	MaxRSSBytes   int64   `json:"s_maxrss"`
	MinFlt        int64   `json:"s_minflt"`
	MaxFlt        int64   `json:"s_maxflt"`
	NVCSw         int64   `json:"s_nvcsw"`
	NIVCSw        int64   `json:"s_nivcsw"`
}

// Record is one line of summary.json (§6). Extra carries any
// solver-emitted #s KEY VALUE pairs; keys starting with "s_" never reach
// it, because the parser rejects a solution that uses one.
type Record struct {
	Name       string          `json:"s_name"`
	Instance   string          `json:"s_instance"`
	StrideHash *string         `json:"s_stride_hash"`
	Solution   string          `json:"s_solution"`
	Result     ResultKind      `json:"s_result"`
	Score      *int            `json:"s_score,omitempty"`
	Profile
	Extra map[string]json.RawMessage `json:"-"`
}

// MarshalJSON flattens Extra's keys alongside Record's own fields, the
// way the runner must merge solver-emitted #s metadata into the record
// (§6).
func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	base, err := json.Marshal(alias(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Writer is the single-writer handle for summary.json (§4.6, §5): every
// call to Append fully serialises, writes and flushes one line before
// returning, so concurrent workers never interleave partial lines.
type Writer struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
}

// Open creates (or appends to, for an interrupted-and-resumed run)
// summary.json at path.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "summary: open %q", path)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// Append writes one record as a single JSON line, flushing before
// returning so the line is durable from the caller's perspective even
// if the process is killed immediately after (§4.6, §8 "Writer
// atomicity").
func (w *Writer) Append(r Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "summary: marshal record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(b); err != nil {
		return errors.Wrap(err, "summary: write record")
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return errors.Wrap(err, "summary: write record")
	}
	if err := w.w.Flush(); err != nil {
		return errors.Wrap(err, "summary: flush")
	}
	return w.f.Sync()
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.f.Close()
}

// stringPtr is a small helper for the nullable s_stride_hash field.
func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NewRecord builds a Record from the pieces known at publish time
// (§4.5 step 6). extras is solver-emitted #s metadata; it holds no
// s_-prefixed keys, since the parser rejects those (§4.2).
func NewRecord(name, instance, strideHash, solution string, result ResultKind, score *int, prof Profile, extras map[string]json.RawMessage) Record {
	return Record{
		Name:       name,
		Instance:   instance,
		StrideHash: stringPtr(strideHash),
		Solution:   solution,
		Result:     result,
		Score:      score,
		Profile:    prof,
		Extra:      extras,
	}
}
