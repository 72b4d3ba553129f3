package runner

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// rusage is the subset of getrusage telemetry §4.5 step 4 and §6 require.
// Fields arrive from the platform in native units (kilobytes for
// MaxRSSBytes on Linux, bytes on Darwin); rusageOf normalises to bytes
// via maxRSSBytes.
type rusage struct {
	UserSeconds   float64
	SystemSeconds float64
	MaxRSSBytes   int64
	MinFlt        int64
	MaxFlt        int64
	NVCSw         int64
	NIVCSw        int64
}

// childProcess wraps an os/exec.Cmd configured as its own process-group
// leader, so a timeout can signal every descendant the solver spawns,
// not just the solver itself (§4.5, §9 "Solver supervision").
type childProcess struct {
	cmd       *exec.Cmd
	startedAt time.Time
	waitErr   chan error
}

// spawn starts the solver with the instance piped on stdin and stdout,
// stderr redirected to files in taskDir (§4.5 step 2).
func spawn(solverPath string, extraArgs []string, instancePath string, env []string, stdoutPath, stderrPath string) (*childProcess, error) {
	cmd := exec.Command(solverPath, extraArgs...)
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	in, err := os.Open(instancePath)
	if err != nil {
		return nil, fmt.Errorf("runner: open instance %q: %w", instancePath, err)
	}
	cmd.Stdin = in

	outFile, err := os.Create(stdoutPath)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("runner: create %q: %w", stdoutPath, err)
	}
	cmd.Stdout = outFile

	errFile, err := os.Create(stderrPath)
	if err != nil {
		in.Close()
		outFile.Close()
		return nil, fmt.Errorf("runner: create %q: %w", stderrPath, err)
	}
	cmd.Stderr = errFile

	if err := cmd.Start(); err != nil {
		in.Close()
		outFile.Close()
		errFile.Close()
		return nil, fmt.Errorf("runner: exec %q: %w", solverPath, err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		in.Close()
		outFile.Close()
		errFile.Close()
	}()

	return &childProcess{cmd: cmd, startedAt: time.Now(), waitErr: waitErr}, nil
}

// signalGroup sends sig to the child's process group (§4.5 step 3, §6
// "Signalling", §9 "process-group signalling").
func (c *childProcess) signalGroup(sig syscall.Signal) {
	pgid := c.cmd.Process.Pid
	_ = syscall.Kill(-pgid, sig)
}

// waitWithDeadlines blocks until the process exits or is killed at the
// hard deadline, whichever comes first (§4.5 step 3). It returns
// whether the task timed out, the wall-clock duration, and the
// underlying Wait error (nil on a clean zero exit).
func (c *childProcess) waitWithDeadlines(soft, hard time.Duration) (timedOut bool, wall time.Duration, err error) {
	softTimer := time.NewTimer(soft)
	defer softTimer.Stop()

	select {
	case err = <-c.waitErr:
		return false, time.Since(c.startedAt), err
	case <-softTimer.C:
	}

	c.signalGroup(syscall.SIGTERM)

	hardTimer := time.NewTimer(hard - soft)
	defer hardTimer.Stop()

	select {
	case err = <-c.waitErr:
		return false, time.Since(c.startedAt), err
	case <-hardTimer.C:
	}

	c.signalGroup(syscall.SIGKILL)
	<-c.waitErr // the goroutine always sends, even after a kill
	return true, time.Since(c.startedAt), fmt.Errorf("runner: killed at hard deadline")
}

// rusageOf extracts the getrusage telemetry §4.5 step 4 names, from the
// ProcessState populated by cmd.Wait. Returns the zero value if the
// platform doesn't expose syscall.Rusage (never the case on the POSIX
// platforms this package targets).
func rusageOf(state *os.ProcessState) rusage {
	var r rusage
	if state == nil {
		return r
	}
	ru, ok := state.SysUsage().(*syscall.Rusage)
	if !ok || ru == nil {
		return r
	}
	r.UserSeconds = timevalSeconds(ru.Utime)
	r.SystemSeconds = timevalSeconds(ru.Stime)
	r.MaxRSSBytes = maxRSSBytes(ru.Maxrss)
	r.MinFlt = int64(ru.Minflt)
	r.MaxFlt = int64(ru.Majflt)
	r.NVCSw = int64(ru.Nvcsw)
	r.NIVCSw = int64(ru.Nivcsw)
	return r
}
