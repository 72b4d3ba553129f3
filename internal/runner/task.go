package runner

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/manpen/stride/internal/maf"
	"github.com/manpen/stride/internal/pace"
	"github.com/manpen/stride/internal/summary"
)

// taskHash names a task's directory uniquely and deterministically from
// its instance path, so two workers never target the same directory
// (§5 "Shared resources").
func taskHash(instancePath string) string {
	sum := sha256.Sum256([]byte(instancePath))
	return hex.EncodeToString(sum[:])[:16]
}

// runOne executes the full per-task lifecycle (§4.5) for a single
// instance path and returns the record to publish. Task-level failures
// never surface as the returned error — those are represented as a
// Record with the corresponding ResultKind (§7 "Per-task verdicts:
// recovered locally"). A non-nil error means the task directory itself
// could not be created, a runner-infrastructure failure (§7).
func (e *Executor) runOne(instancePath string) (summary.Record, string, error) {
	name := taskHash(instancePath)
	taskDir, err := e.rundir.TaskDir(name)
	if err != nil {
		return summary.Record{}, "", err
	}

	raw, err := os.ReadFile(instancePath)
	if err != nil {
		return e.invalidInstanceRecord(name, instancePath, "", fmt.Sprintf("reading instance: %v", err)), taskDir, nil
	}

	inst, err := pace.ParseInstance(strings.NewReader(string(raw)), pace.Options{})
	if err != nil {
		return e.invalidInstanceRecord(name, instancePath, "", err.Error()), taskDir, nil
	}
	if err := maf.ValidateInstance(inst); err != nil {
		return e.invalidInstanceRecord(name, instancePath, inst.IDigest, err.Error()), taskDir, nil
	}

	env := e.childEnv(instancePath)
	stdoutPath := taskDir + "/stdout"
	stderrPath := taskDir + "/stderr"

	child, err := spawn(e.solverPath, e.solverArgs, instancePath, env, stdoutPath, stderrPath)
	if err != nil {
		return e.systemErrorRecord(name, instancePath, inst.IDigest, err.Error()), taskDir, nil
	}

	soft := time.Duration(e.cfg.TimeoutSeconds) * time.Second
	hard := soft + time.Duration(e.cfg.GraceSeconds)*time.Second
	timedOut, wall, waitErr := child.waitWithDeadlines(soft, hard)
	prof := rusageOf(child.cmd.ProcessState)
	prof2 := summary.Profile{
		WallSeconds:   wall.Seconds(),
		UserSeconds:   prof.UserSeconds,
		SystemSeconds: prof.SystemSeconds,
		MaxRSSBytes:   prof.MaxRSSBytes,
		MinFlt:        prof.MinFlt,
		MaxFlt:        prof.MaxFlt,
		NVCSw:         prof.NVCSw,
		NIVCSw:        prof.NIVCSw,
	}

	if timedOut {
		r := summary.NewRecord(name, instancePath, inst.IDigest, "", summary.Timeout, nil, prof2, nil)
		return r, taskDir, nil
	}

	if waitErr != nil {
		r := summary.NewRecord(name, instancePath, inst.IDigest, "", summary.SolverError, nil, prof2, nil)
		return r, taskDir, nil
	}

	stdoutBytes, err := os.ReadFile(stdoutPath)
	if err != nil {
		r := summary.NewRecord(name, instancePath, inst.IDigest, "", summary.SystemError, nil, prof2, nil)
		return r, taskDir, nil
	}

	sol, err := pace.ParseSolution(strings.NewReader(string(stdoutBytes)), pace.Options{})
	if err != nil {
		r := summary.NewRecord(name, instancePath, inst.IDigest, string(stdoutBytes), summary.SyntaxError, nil, prof2, nil)
		return r, taskDir, nil
	}

	verdict := maf.Check(inst, sol)
	extras := filterExtras(sol.Headers)

	switch verdict.Kind {
	case maf.Valid:
		score := verdict.Score
		r := summary.NewRecord(name, instancePath, inst.IDigest, verdict.CanonicalText, summary.Valid, &score, prof2, extras)
		return r, taskDir, nil
	case maf.NoSolution:
		r := summary.NewRecord(name, instancePath, inst.IDigest, "", summary.NoSolution, nil, prof2, extras)
		return r, taskDir, nil
	case maf.Infeasible:
		if av, ok := verdict.Reason.(*maf.AgreementViolation); ok {
			e.msgLog.Infof("task %s (%s): %v\n%s", name, instancePath, av, av.Witness)
		}
		r := summary.NewRecord(name, instancePath, inst.IDigest, "", summary.Infeasible, nil, prof2, extras)
		return r, taskDir, nil
	default:
		r := summary.NewRecord(name, instancePath, inst.IDigest, "", summary.InvalidInstance, nil, prof2, extras)
		return r, taskDir, nil
	}
}

func (e *Executor) invalidInstanceRecord(name, instancePath, idigest, reason string) summary.Record {
	extras := map[string]json.RawMessage{"reason": json.RawMessage(strconv.Quote(reason))}
	return summary.NewRecord(name, instancePath, idigest, "", summary.InvalidInstance, nil, summary.Profile{}, extras)
}

func (e *Executor) systemErrorRecord(name, instancePath, idigest, reason string) summary.Record {
	extras := map[string]json.RawMessage{"reason": json.RawMessage(strconv.Quote(reason))}
	return summary.NewRecord(name, instancePath, idigest, "", summary.SystemError, nil, summary.Profile{}, extras)
}

// childEnv builds the solver's environment (§4.5 step 2, §6 "Injected
// environment"), suppressible via -no-inject-env.
func (e *Executor) childEnv(instancePath string) []string {
	env := os.Environ()
	if e.cfg.NoInjectEnv {
		return env
	}
	return append(env,
		"STRIDE_INSTANCE_PATH="+instancePath,
		"STRIDE_TIMEOUT="+strconv.Itoa(e.cfg.TimeoutSeconds),
		"STRIDE_GRACE="+strconv.Itoa(e.cfg.GraceSeconds),
	)
}

// filterExtras surfaces the solver's #s KEY VALUE metadata for merging
// into the record (§6). pace.ParseSolution already rejects any s_-
// prefixed key outright (§4.2), so nothing reaches here to drop.
func filterExtras(headers map[string]json.RawMessage) map[string]json.RawMessage {
	if len(headers) == 0 {
		return nil
	}
	return headers
}
