// Package resolve expands the instance arguments given on the command
// line into the ordered, deduplicated set of instance paths a run
// actually operates over (§4.4). An argument is either a direct path, a
// glob, or a path to a '.lst' list file; list files may recursively
// include further list files, with relative paths always resolved
// against the directory containing the list that names them.
package resolve

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// CycleError names a list file that transitively includes itself (§4.4).
// Chain holds the inclusion path from the outermost argument down to the
// list that closes the cycle, each entry a canonicalised absolute path.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle in list file inclusion: %s", strings.Join(e.Chain, " -> "))
}

// Resolve expands args (in the order given) into canonicalised absolute
// instance paths, deduplicated while preserving first-occurrence order
// (§4.4). args are resolved relative to cwd; cwd is typically the
// process's working directory, passed explicitly so the resolver stays
// pure and testable.
func Resolve(cwd string, args []string) ([]string, error) {
	r := &resolver{
		seen:    make(map[string]bool),
		visited: make(map[string]bool),
	}
	for _, a := range args {
		if err := r.expand(cwd, a, nil); err != nil {
			return nil, err
		}
	}
	return r.out, nil
}

type resolver struct {
	out     []string
	seen    map[string]bool // instance paths already emitted
	visited map[string]bool // list files already expanded in this run; cycles are detected via the chain
}

// expand resolves a single argument, relative to dir, appending any
// instance paths it denotes to r.out. chain records the list-inclusion
// stack for cycle reporting.
func (r *resolver) expand(dir, arg string, chain []string) error {
	if strings.HasSuffix(arg, ".lst") {
		return r.expandList(dir, arg, chain)
	}
	if containsGlobMeta(arg) {
		return r.expandGlob(dir, arg)
	}
	return r.expandDirect(dir, arg)
}

func (r *resolver) expandDirect(dir, arg string) error {
	path := absolutize(dir, arg)
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "instance path %q", arg)
	}
	r.emit(path)
	return nil
}

func (r *resolver) expandGlob(dir, pattern string) error {
	path := absolutize(dir, pattern)
	matches, err := filepath.Glob(path)
	if err != nil {
		return errors.Wrapf(err, "glob %q", pattern)
	}
	for _, m := range matches {
		r.emit(m)
	}
	return nil
}

func (r *resolver) expandList(dir, arg string, chain []string) error {
	path := absolutize(dir, arg)
	canon, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "list file %q", arg)
	}
	canon = filepath.Clean(canon)

	for _, c := range chain {
		if c == canon {
			return &CycleError{Chain: append(append([]string(nil), chain...), canon)}
		}
	}
	if r.visited[canon] {
		// Already fully processed earlier in this run via a different
		// argument; including it again would just repeat its contents,
		// which dedup handles, but re-walking risks a false cycle if it
		// is reachable from itself through a sibling path. Safe to skip.
		return nil
	}

	f, err := os.Open(canon)
	if err != nil {
		return errors.Wrapf(err, "list file %q", arg)
	}
	defer f.Close()

	r.visited[canon] = true
	childChain := append(append([]string(nil), chain...), canon)
	listDir := filepath.Dir(canon)

	s := bufio.NewScanner(f)
	lineNum := 0
	for s.Scan() {
		lineNum++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := r.expand(listDir, line, childChain); err != nil {
			return errors.Wrapf(err, "%s:%d", canon, lineNum)
		}
	}
	if err := s.Err(); err != nil {
		return errors.Wrapf(err, "reading list file %q", arg)
	}
	return nil
}

func (r *resolver) emit(path string) {
	canon, err := filepath.Abs(path)
	if err != nil {
		canon = path
	}
	canon = filepath.Clean(canon)
	if r.seen[canon] {
		return
	}
	r.seen[canon] = true
	r.out = append(r.out, canon)
}

func absolutize(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func containsGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
