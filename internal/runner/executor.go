// Package runner implements the task executor (C5, §4.5, §5): a fixed
// pool of workers pulling instances off a shared queue, each running
// one solver invocation to completion under soft/hard deadlines, then
// publishing the result through C6 and, best-effort, C7.
package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/manpen/stride/internal/archive"
	"github.com/manpen/stride/internal/config"
	"github.com/manpen/stride/internal/summary"
)

// Executor runs a batch of instances to completion (§4.5).
type Executor struct {
	cfg        *config.C
	rundir     *summary.RunDir
	writer     *summary.Writer
	archive    archive.Client
	solverPath string
	solverArgs []string

	msgLog     *log.Logger
	msgLogFile *os.File
}

// New constructs an Executor. solverArgs are the arguments forwarded to
// every solver invocation, verbatim, after the argument terminator
// (§4.5 step 2). messages.log is opened once here and shared by every
// worker goroutine, a logrus text-formatter sink for runner-
// infrastructure records (§3, §7) distinct from the per-task summary.
func New(cfg *config.C, rundir *summary.RunDir, writer *summary.Writer, ac archive.Client, solverPath string, solverArgs []string) *Executor {
	e := &Executor{
		cfg:        cfg,
		rundir:     rundir,
		writer:     writer,
		archive:    ac,
		solverPath: solverPath,
		solverArgs: solverArgs,
		msgLog:     log.New(),
	}
	e.msgLog.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	f, err := os.OpenFile(rundir.MessagesLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		// Fall back to the process-wide logger's output; a missing
		// messages.log must never stop the run.
		log.WithFields(log.Fields{"cause": err.Error()}).Warning("runner: could not open messages.log, runner-infrastructure records will go to stderr")
		e.msgLog.SetOutput(os.Stderr)
		return e
	}
	e.msgLogFile = f
	e.msgLog.SetOutput(f)
	return e
}

// Run dispatches one task per instance path across cfg.Parallelism
// workers (§4.5, §5). It installs its own SIGINT/SIGTERM handling: a
// signal stops further dispatch and lets in-flight tasks run to their
// own deadline (§5 "Cancellation"). Run returns a non-nil error only
// for a runner-infrastructure failure (§7); per-task outcomes are
// always recorded, never returned as an error here.
func (e *Executor) Run(ctx context.Context, instances []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := make(chan string)
	go func() {
		defer close(queue)
		for _, p := range instances {
			select {
			case queue <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	workers := e.cfg.Parallelism
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case p, ok := <-queue:
					if !ok {
						return nil
					}
					if err := e.runAndPublish(p); err != nil {
						return err
					}
				case <-gctx.Done():
					return nil
				}
			}
		})
	}
	return g.Wait()
}

// runAndPublish runs one task and publishes its outcome (§4.5 step 6,
// §5 "Ordering guarantees": the directory move happens before the
// summary record is flushed).
func (e *Executor) runAndPublish(instancePath string) error {
	record, taskDir, err := e.runOne(instancePath)
	if err != nil {
		return err
	}

	dst, err := e.rundir.Publish(taskDir, record.Result)
	if err != nil {
		return err
	}

	if err := e.writer.Append(record); err != nil {
		return err
	}

	e.reportToArchive(record)

	if record.Result == summary.Valid {
		if err := summary.Remove(dst, e.cfg.KeepLogs); err != nil {
			e.msgLog.WithFields(log.Fields{"dir": dst, "cause": err.Error()}).Warning("runner: could not remove published task directory")
		}
	}
	return nil
}

// reportToArchive forwards the outcome to C7 (§4.7), best-effort: any
// failure is already swallowed inside the archive.Client implementation.
func (e *Executor) reportToArchive(r summary.Record) {
	if r.StrideHash == nil {
		return
	}
	idigest := *r.StrideHash
	switch r.Result {
	case summary.Valid:
		_ = e.archive.UploadSolution(idigest, r.Solution, *r.Score)
	case summary.Timeout:
		_ = e.archive.ReportError(idigest, archive.Timeout)
	case summary.SolverError:
		_ = e.archive.ReportError(idigest, archive.SolverError)
	case summary.Infeasible:
		_ = e.archive.ReportError(idigest, archive.Infeasible)
	}
}

// FetchBestKnown exposes the archive lookup to callers that want to
// report the best-known score before dispatching (e.g. a progress
// display), without requiring them to depend on internal/archive
// directly.
func (e *Executor) FetchBestKnown(idigest string) (int, bool) {
	score, found, err := e.archive.FetchBestKnown(idigest)
	if err != nil {
		return 0, false
	}
	return score, found
}

// Close releases the archive client's background resources and the
// messages.log file handle.
func (e *Executor) Close() {
	e.archive.Close()
	if e.msgLogFile != nil {
		_ = e.msgLogFile.Close()
	}
}
