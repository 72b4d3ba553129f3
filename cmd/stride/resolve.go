package main

import (
	"fmt"
	"os"

	"github.com/manpen/stride/internal/resolve"
)

// resolveMain implements "stride resolve" (SUPPLEMENTAL FEATURES item 5):
// expose C4 standalone, printing the resolved, deduplicated instance
// list one path per line.
func resolveMain(args []string) int {
	fs := newFlagSet("resolve")
	_ = fs.Parse(args)

	configureLogging()

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "resolve: at least one instance path or list file required")
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
		return 1
	}
	paths, err := resolve.Resolve(cwd, fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
		return 1
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return 0
}
