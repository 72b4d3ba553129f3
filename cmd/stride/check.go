package main

import (
	"fmt"
	"os"

	"github.com/manpen/stride/internal/maf"
	"github.com/manpen/stride/internal/pace"
)

var checkContext struct {
	instancePath string
	solutionPath string
	paranoid     bool
}

// checkMain implements "stride check": run the MAF checker standalone
// against one instance and one solution file, printing the verdict to
// stdout (SUPPLEMENTAL FEATURES item 2: paranoid mode is only reachable
// from here, never from stride run).
func checkMain(args []string) int {
	fs := newFlagSet("check")
	fs.StringVar(&checkContext.instancePath, "instance", "", "`path` to the PACE26 instance file")
	fs.StringVar(&checkContext.solutionPath, "solution", "", "`path` to the candidate solution file, defaults to stdin")
	fs.BoolVar(&checkContext.paranoid, "paranoid", false, "reject trailing whitespace, mixed indentation, duplicate blank lines and non-UTF-8 bytes")
	_ = fs.Parse(args)

	configureLogging()

	if checkContext.instancePath == "" {
		fmt.Fprintln(os.Stderr, "check: -instance is required")
		return 2
	}

	opts := pace.Options{Paranoid: checkContext.paranoid}

	instFile, err := os.Open(checkContext.instancePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "check: %v\n", err)
		return 1
	}
	defer instFile.Close()
	inst, err := pace.ParseInstance(instFile, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "SyntaxError: %v\n", err)
		return 1
	}
	if err := maf.ValidateInstance(inst); err != nil {
		fmt.Fprintf(os.Stderr, "InvalidInstance: %v\n", err)
		return 1
	}

	solReader := os.Stdin
	if checkContext.solutionPath != "" {
		f, err := os.Open(checkContext.solutionPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "check: %v\n", err)
			return 1
		}
		defer f.Close()
		solReader = f
	}
	sol, err := pace.ParseSolution(solReader, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "SyntaxError: %v\n", err)
		return 1
	}

	verdict := maf.Check(inst, sol)
	fmt.Println(verdict.Kind.String())
	switch verdict.Kind {
	case maf.Valid:
		fmt.Printf("score %d\n", verdict.Score)
		fmt.Print(verdict.CanonicalText)
		return 0
	case maf.NoSolution:
		return 0
	default:
		if verdict.Reason != nil {
			fmt.Fprintln(os.Stderr, verdict.Reason.Error())
			if av, ok := verdict.Reason.(*maf.AgreementViolation); ok && av.Witness != "" {
				fmt.Fprintln(os.Stderr, av.Witness)
			}
		}
		return 1
	}
}
