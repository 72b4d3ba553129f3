package summary

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// RunDir manages one run's directory tree (§6 "Run directory layout"):
// stride-logs/run_<DATE>_<TIME>/{messages.log, summary.json, tasks/,
// <ResultKind>/, ...}, plus the stride-logs/latest symlink.
type RunDir struct {
	Root string // .../stride-logs/run_<DATE>_<TIME>
}

// NewRunDir creates a fresh run directory under logRoot, named from
// stamp (caller-supplied so tests and resumed runs stay deterministic;
// production callers pass the current time formatted as
// "20060102_150405"), and repoints stride-logs/latest at it.
func NewRunDir(logRoot, stamp string) (*RunDir, error) {
	root := filepath.Join(logRoot, "run_"+stamp)
	if err := os.MkdirAll(filepath.Join(root, "tasks"), 0o755); err != nil {
		return nil, errors.Wrapf(err, "run directory %q", root)
	}
	if err := relinkLatest(logRoot, root); err != nil {
		return nil, err
	}
	return &RunDir{Root: root}, nil
}

func relinkLatest(logRoot, root string) error {
	link := filepath.Join(logRoot, "latest")
	tmp := link + ".new"
	_ = os.Remove(tmp)
	rel, err := filepath.Rel(logRoot, root)
	if err != nil {
		rel = root
	}
	if err := os.Symlink(rel, tmp); err != nil {
		return errors.Wrapf(err, "symlink %q", tmp)
	}
	if err := os.Rename(tmp, link); err != nil {
		return errors.Wrapf(err, "rename %q to %q", tmp, link)
	}
	return nil
}

// TaskDir returns (creating if necessary) the per-task staging
// directory under tasks/, named so two workers never collide (§5
// "directory names include the instance path hash").
func (r *RunDir) TaskDir(taskHash string) (string, error) {
	dir := filepath.Join(r.Root, "tasks", taskHash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "task directory %q", dir)
	}
	return dir, nil
}

// Publish moves a finished task's directory from tasks/ into its
// outcome subdirectory (§4.5 step 6, §5 "moved ... before the
// corresponding record is flushed"). Call this before Writer.Append so
// an observer never sees a record without its directory.
func (r *RunDir) Publish(taskDir string, result ResultKind) (string, error) {
	outcomeDir := filepath.Join(r.Root, string(result))
	if err := os.MkdirAll(outcomeDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "outcome directory %q", outcomeDir)
	}
	dst := filepath.Join(outcomeDir, filepath.Base(taskDir))
	if err := os.Rename(taskDir, dst); err != nil {
		return "", errors.Wrapf(err, "publish %q", taskDir)
	}
	return dst, nil
}

// SummaryPath is where Writer.Append's records accumulate.
func (r *RunDir) SummaryPath() string {
	return filepath.Join(r.Root, "summary.json")
}

// MessagesLogPath is the executor's text log (§7): runner-infrastructure
// warnings and agreement-violation witnesses. Errors raised before the
// run directory exists (instance resolution, setup) are not written here.
func (r *RunDir) MessagesLogPath() string {
	return filepath.Join(r.Root, "messages.log")
}

// Remove deletes a Valid task's directory once its record is durably
// written, unless keepLogs is set (§4.5 step 6).
func Remove(dir string, keepLogs bool) error {
	if keepLogs {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("summary: remove %q: %w", dir, err)
	}
	return nil
}
