package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/gops/agent"
	log "github.com/sirupsen/logrus"

	"github.com/manpen/stride/internal/archive"
	"github.com/manpen/stride/internal/config"
	"github.com/manpen/stride/internal/resolve"
	"github.com/manpen/stride/internal/runner"
	"github.com/manpen/stride/internal/summary"
)

var runContext struct {
	solverPath     string
	parallelism    int
	timeoutSeconds int
	graceSeconds   int
	noInjectEnv    bool
	keepLogs       bool
	offline        bool
	gops           bool
}

// runMain implements "stride run": resolve the instance set (C4), spawn
// the executor (C5), and report the aggregate exit code (SUPPLEMENTAL
// FEATURES item 4).
func runMain(args []string) int {
	fs := newFlagSet("run")
	fs.StringVar(&runContext.solverPath, "solver", "", "`path` to the solver executable")
	fs.IntVar(&runContext.parallelism, "parallel", 0, "worker `count`, 0 means the configured value (runtime.NumCPU() if unset)")
	fs.IntVar(&runContext.timeoutSeconds, "timeout", 0, "soft deadline in `seconds`, 0 means the configured default")
	fs.IntVar(&runContext.graceSeconds, "grace", 0, "hard-deadline grace in `seconds`, 0 means the configured default")
	fs.BoolVar(&runContext.noInjectEnv, "no-inject-env", false, "do not inject STRIDE_INSTANCE_PATH/STRIDE_TIMEOUT/STRIDE_GRACE into the solver's environment")
	fs.BoolVar(&runContext.keepLogs, "keep-logs", false, "keep Valid task directories instead of removing them after the record is written")
	fs.BoolVar(&runContext.offline, "offline", false, "disable the archive server client (C7) entirely")
	fs.BoolVar(&runContext.gops, "gops", false, "start a github.com/google/gops/agent diagnostics listener")

	// Everything after "--" is forwarded verbatim to the solver
	// (the argument terminator, §4.5 step 2); everything before it is
	// the instance-set arguments handed to the resolver.
	instanceArgs, solverArgs := splitOnTerminator(args)
	_ = fs.Parse(instanceArgs)

	configureLogging()

	if runContext.gops {
		// Do NOT turn on agent.ShutdownCleanup: our own signal handling
		// drains in-flight tasks before exiting, and ShutdownCleanup's
		// os.Exit would cut that short.
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Warningf("could not start gops agent: %v", err)
		}
	}

	cfg, err := config.Load(globalContext.base)
	if err != nil {
		log.Errorf("could not load config from %q: %v", globalContext.base, err)
		return 1
	}
	applyRunFlags(cfg)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "run: at least one instance path or list file required")
		return 2
	}
	if runContext.solverPath == "" {
		fmt.Fprintln(os.Stderr, "run: -solver is required")
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.Errorf("could not determine working directory: %v", err)
		return 1
	}
	instances, err := resolve.Resolve(cwd, fs.Args())
	if err != nil {
		log.Errorf("could not resolve instance set: %v", err)
		return 1
	}
	if len(instances) == 0 {
		fmt.Fprintln(os.Stderr, "run: instance set resolved to zero paths")
		return 2
	}

	stamp := time.Now().Format("20060102_150405")
	rundir, err := summary.NewRunDir(cfg.LogRootPath(), stamp)
	if err != nil {
		log.Errorf("could not create run directory: %v", err)
		return 1
	}
	writer, err := summary.Open(rundir.SummaryPath())
	if err != nil {
		log.Errorf("could not open summary writer: %v", err)
		return 1
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Warningf("could not close summary writer: %v", err)
		}
	}()

	ac, err := archive.New(cfg)
	if err != nil {
		log.Errorf("could not initialize archive client: %v", err)
		return 1
	}

	exec := runner.New(cfg, rundir, writer, ac, runContext.solverPath, solverArgs)
	defer exec.Close()

	if err := exec.Run(context.Background(), instances); err != nil {
		log.Errorf("runner infrastructure failure: %v", err)
		return 1
	}
	return 0
}

func applyRunFlags(cfg *config.C) {
	if runContext.parallelism > 0 {
		cfg.Parallelism = runContext.parallelism
	}
	if runContext.timeoutSeconds > 0 {
		cfg.TimeoutSeconds = runContext.timeoutSeconds
	}
	if runContext.graceSeconds > 0 {
		cfg.GraceSeconds = runContext.graceSeconds
	}
	if runContext.noInjectEnv {
		cfg.NoInjectEnv = true
	}
	if runContext.keepLogs {
		cfg.KeepLogs = true
	}
	if runContext.offline {
		cfg.Offline = true
		cfg.Archive = "null"
	}
}

// splitOnTerminator splits args on the first bare "--", the argument
// terminator (§4.5 step 2): everything before it is parsed as flags and
// instance-set positional arguments, everything after it is forwarded to
// the solver untouched.
func splitOnTerminator(args []string) (before, after []string) {
	for i, a := range args {
		if a == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}
