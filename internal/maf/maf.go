// Package maf implements the Maximum-Agreement Forest feasibility
// checker (§4.3): it decides whether a candidate forest is a bona-fide
// agreement forest of an instance's trees, and produces the canonical
// serialisation of valid solutions.
package maf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/manpen/stride/internal/forest"
	"github.com/manpen/stride/internal/pace"
)

// Kind is the closed tagged variant of checker verdicts (§4.3, §9
// "Polymorphism: result kinds form a closed tagged variant, not a class
// hierarchy"). It intentionally has no zero-value overlap with
// "Infeasible" so the §9 open question (NoSolution vs Infeasible
// semantics) cannot be reintroduced by a careless boolean flip: NoSolution
// and Infeasible are distinct constants, not derived from a single
// "feasible" bool.
type Kind int

const (
	Valid Kind = iota
	NoSolution
	Infeasible
	InvalidInstance
)

func (k Kind) String() string {
	switch k {
	case Valid:
		return "Valid"
	case NoSolution:
		return "NoSolution"
	case Infeasible:
		return "Infeasible"
	case InvalidInstance:
		return "InvalidInstance"
	default:
		return "Unknown"
	}
}

// LeafPartitionMismatch reports how the candidate forest's leaf multiset
// fails to equal [1..L] exactly (§4.3 point 1).
type LeafPartitionMismatch struct {
	Missing    []int
	Extra      []int
	Duplicates []int
}

func (e *LeafPartitionMismatch) Error() string {
	return fmt.Sprintf("leaf partition mismatch: missing=%v extra=%v duplicates=%v", e.Missing, e.Extra, e.Duplicates)
}

// MalformedComponent reports a component failing §4.3 point 2.
type MalformedComponent struct {
	Index  int
	Reason string
}

func (e *MalformedComponent) Error() string {
	return fmt.Sprintf("component %d malformed: %s", e.Index, e.Reason)
}

// AgreementViolation reports the first tree/component pair whose
// restriction disagrees with the candidate component (§4.3 point 3), or
// whose spanning subtree shares a node with a later component's in that
// tree.
type AgreementViolation struct {
	TreeIndex      int
	ComponentIndex int
	Witness        string // unified diff of the two canonical forms
}

func (e *AgreementViolation) Error() string {
	return fmt.Sprintf("agreement violation: tree=%d component=%d", e.TreeIndex, e.ComponentIndex)
}

// Result is the outcome of Check.
type Result struct {
	Kind          Kind
	Score         int    // meaningful only when Kind == Valid
	CanonicalText string // meaningful only when Kind == Valid
	Reason        error  // non-nil when Kind is Infeasible or InvalidInstance
}

// ValidateInstance checks the §3 invariants an instance itself must
// satisfy: at least two trees, every tree well-formed, and every tree
// sharing the identical taxon set [1..NumTaxa].
func ValidateInstance(inst *pace.Instance) error {
	if len(inst.Trees) < 2 {
		return fmt.Errorf("instance has fewer than two trees")
	}
	full := make([]int, inst.NumTaxa)
	for i := range full {
		full[i] = i + 1
	}
	for i, tr := range inst.Trees {
		if err := tr.WellFormed(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
		leaves := tr.Leaves()
		if !intSliceEqual(leaves, full) {
			return fmt.Errorf("tree %d does not cover the taxon set [1..%d] exactly", i, inst.NumTaxa)
		}
	}
	return nil
}

// Check decides feasibility of sol against inst (§4.3) and, on Valid,
// computes the canonical solution text (§4.3, last paragraph).
func Check(inst *pace.Instance, sol *pace.Solution) Result {
	if err := ValidateInstance(inst); err != nil {
		return Result{Kind: InvalidInstance, Reason: err}
	}

	m := len(sol.Components)
	if m == 0 {
		return Result{Kind: NoSolution}
	}

	if r, bad := checkWellFormedness(sol.Components); bad {
		return r
	}

	if r, bad := checkLeafPartition(inst.NumTaxa, sol.Components); bad {
		return r
	}

	if r, bad := checkAgreement(inst.Trees, sol.Components); bad {
		return r
	}

	return Result{
		Kind:          Valid,
		Score:         m,
		CanonicalText: CanonicalText(sol.Components),
	}
}

func checkWellFormedness(components []*forest.Tree) (Result, bool) {
	for i, c := range components {
		if err := c.WellFormed(); err != nil {
			return Result{Kind: Infeasible, Reason: &MalformedComponent{Index: i, Reason: err.Error()}}, true
		}
		seen := make(map[int]bool)
		for _, l := range c.Leaves() {
			if seen[l] {
				return Result{Kind: Infeasible, Reason: &MalformedComponent{Index: i, Reason: fmt.Sprintf("duplicate leaf %d within component", l)}}, true
			}
			seen[l] = true
		}
	}
	return Result{}, false
}

func checkLeafPartition(numTaxa int, components []*forest.Tree) (Result, bool) {
	counts := make(map[int]int)
	for _, c := range components {
		for _, l := range c.Leaves() {
			counts[l]++
		}
	}
	var missing, extra, duplicates []int
	for l := 1; l <= numTaxa; l++ {
		if counts[l] == 0 {
			missing = append(missing, l)
		} else if counts[l] > 1 {
			duplicates = append(duplicates, l)
		}
	}
	for l, n := range counts {
		if n > 0 && (l < 1 || l > numTaxa) {
			extra = append(extra, l)
		}
	}
	sort.Ints(extra)
	if len(missing) > 0 || len(extra) > 0 || len(duplicates) > 0 {
		return Result{Kind: Infeasible, Reason: &LeafPartitionMismatch{Missing: missing, Extra: extra, Duplicates: duplicates}}, true
	}
	return Result{}, false
}

func checkAgreement(trees []*forest.Tree, components []*forest.Tree) (Result, bool) {
	leafSets := make([]map[int]bool, len(components))
	for j, comp := range components {
		s := make(map[int]bool)
		for _, l := range comp.Leaves() {
			s[l] = true
		}
		leafSets[j] = s
	}

	for j, comp := range components {
		if len(comp.Leaves()) < 2 {
			// A singleton component trivially agrees with every
			// restriction to a single leaf: restrict() of any tree to one
			// leaf is that same one-node tree.
			continue
		}
		for i, tr := range trees {
			restricted := forest.Restrict(tr, leafSets[j])
			if !forest.Equal(restricted, comp) {
				return Result{Kind: Infeasible, Reason: &AgreementViolation{
					TreeIndex:      i,
					ComponentIndex: j,
					Witness:        witnessDiff(restricted, comp),
				}}, true
			}
		}
	}

	// Restriction equality is vacuous for 2-leaf components (there is
	// only one topology on two leaves), so it cannot by itself reject a
	// solution whose components overlap within a tree. An agreement
	// forest additionally requires that, in every input tree, the
	// spanning subtrees of distinct components never share a node (§4.3
	// "Algorithmic notes").
	for i, tr := range trees {
		owner := make(map[int]int)
		for j, comp := range components {
			if len(comp.Leaves()) < 2 {
				continue
			}
			for node := range forest.SpanningNodes(tr, leafSets[j]) {
				if k, claimed := owner[node]; claimed {
					return Result{Kind: Infeasible, Reason: &AgreementViolation{
						TreeIndex:      i,
						ComponentIndex: k,
						Witness:        witnessDiff(components[k], comp),
					}}, true
				}
				owner[node] = j
			}
		}
	}

	return Result{}, false
}

// CanonicalText renders the canonical solution text (§4.3): components
// listed in ascending order of their minimum leaf label, each rendered
// via canonical_form, one per line.
func CanonicalText(components []*forest.Tree) string {
	sorted := append([]*forest.Tree(nil), components...)
	sort.Slice(sorted, func(a, b int) bool {
		return minLeaf(sorted[a]) < minLeaf(sorted[b])
	})
	lines := make([]string, len(sorted))
	for i, c := range sorted {
		lines[i] = c.CanonicalForm()
	}
	return strings.Join(lines, "\n")
}

func minLeaf(t *forest.Tree) int {
	leaves := t.Leaves()
	if len(leaves) == 0 {
		return 0
	}
	return leaves[0]
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
