// Command stride drives the three subsystems described by the runner
// spec: stride run dispatches solver processes over a resolved instance
// set (C4+C5+C6+C7), stride check runs the MAF checker standalone
// against a single instance/solution pair (C2+C3), and stride resolve
// exposes C4's instance-set expansion for scripting.
//
// Flag-set-per-subcommand dispatch, global -base/-verbosity flags and
// exitUsage follow cmd/muscle/muscle.go.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/manpen/stride/internal/config"
	"github.com/manpen/stride/internal/runnerlog"
)

var globalContext struct {
	base    string
	logLevel string
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&globalContext.base, "base", config.DefaultBaseDirectoryPath, "`directory` for configuration, logs and the archive cache")
	var levels []string
	for _, l := range log.AllLevels {
		levels = append(levels, l.String())
	}
	fs.StringVar(&globalContext.logLevel, "verbosity", "warning", "sets the log `level`, among "+strings.Join(levels, ", "))
	return fs
}

func exitUsage(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	_, _ = fmt.Fprintf(os.Stderr, `Usage: %s COMMAND [ARGS]

Commands:

	init: initializes configuration given the base directory
	run: resolve an instance set and dispatch solver runs over it
	check: run the MAF checker standalone against one instance and one solution
	resolve: print the resolved, deduplicated instance list for a set of paths

Run '%s COMMAND -h' for a command's own flags.
`, os.Args[0], os.Args[0])
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		exitUsage("command name required")
	}

	var exitCode int
	switch cmd := os.Args[1]; cmd {
	case "init":
		fs := newFlagSet("init")
		_ = fs.Parse(os.Args[2:])
		if err := config.Initialize(globalContext.base); err != nil {
			log.Fatalf("could not initialize config in %q: %v", globalContext.base, err)
		}
		return
	case "run":
		exitCode = runMain(os.Args[2:])
	case "check":
		exitCode = checkMain(os.Args[2:])
	case "resolve":
		exitCode = resolveMain(os.Args[2:])
	default:
		exitUsage(fmt.Sprintf("%q: command not recognized", cmd))
	}
	os.Exit(exitCode)
}

func configureLogging() {
	if err := runnerlog.Configure(globalContext.logLevel); err != nil {
		log.Fatalf("could not parse log level %q: %v", globalContext.logLevel, err)
	}
}
