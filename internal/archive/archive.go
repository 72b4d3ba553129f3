// Package archive implements the server-client boundary (§4.7): three
// idempotent, best-effort operations keyed on an instance's idigest.
// Network or storage failures here are logged and never change a task's
// outcome; Offline (§4.5) swaps the whole client for a NullClient rather
// than threading a flag through every call site.
package archive

import log "github.com/sirupsen/logrus"

// ErrorKind is the fixed subset of checker/runner outcomes that get
// reported to the central repository (§4.7): Timeout, SolverError, or
// Infeasible. It deliberately excludes Valid (reported via
// UploadSolution) and NoSolution/InvalidInstance (not reportable
// failures of the solver under test).
type ErrorKind string

const (
	Timeout     ErrorKind = "Timeout"
	SolverError ErrorKind = "SolverError"
	Infeasible  ErrorKind = "Infeasible"
)

// Client is the C7 boundary. Implementations must never block a task on
// network I/O for longer than is unavoidable, and must never return an
// error that changes a task's recorded outcome; callers log failures and
// move on.
type Client interface {
	// FetchBestKnown returns the best score recorded for idigest, and
	// whether one was found at all.
	FetchBestKnown(idigest string) (score int, found bool, err error)

	// UploadSolution publishes a Valid result's canonical text and score.
	UploadSolution(idigest, canonicalText string, score int) error

	// ReportError records a reproducible failure kind for idigest.
	ReportError(idigest string, kind ErrorKind) error

	// Close flushes any pending background work. Best-effort: it does
	// not guarantee delivery, only that it has tried.
	Close()
}

// logFailure is the uniform "best-effort, never fatal" handling §4.7
// requires of every C7 call site.
func logFailure(op, idigest string, err error) {
	if err == nil {
		return
	}
	log.WithFields(log.Fields{
		"op":      op,
		"idigest": idigest,
		"cause":   err.Error(),
	}).Warning("archive: operation failed, continuing without it")
}
