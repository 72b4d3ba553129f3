// Package forest implements the arena-indexed rooted-tree model shared by
// the parser, the MAF checker, and the canonical-form renderer (§3, §4.1,
// §9 of the design). A Tree owns its node storage; nodes refer to each
// other by integer index into the arena, never by pointer, so Restrict
// can hand back a filtered copy cheaply and without aliasing the input.
package forest

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Node is one arena slot. Index 0 is never used (so the zero value of an
// index means "absent"); real nodes start at index 1.
type Node struct {
	Parent   int   // 0 for the root
	Children []int // ordered left-to-right, per the input file
	Leaf     int   // positive leaf label, or 0 for an inner node
}

// IsLeaf reports whether n is a leaf node.
func (n Node) IsLeaf() bool { return n.Leaf != 0 }

// Tree is a rooted tree over a dense arena of Node values, as described
// in §3 and §9. Trees are immutable once built: every transformation
// (Restrict) returns a new Tree rather than mutating the receiver.
type Tree struct {
	Nodes []Node // Nodes[0] is an unused sentinel; real indices are 1..len(Nodes)-1
	Root  int
}

// NumNodes returns the number of real (non-sentinel) nodes in t.
func (t *Tree) NumNodes() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	return len(t.Nodes) - 1
}

// node returns the node at index i (i must be in [1, NumNodes()]).
func (t *Tree) node(i int) *Node {
	return &t.Nodes[i]
}

// WellFormed checks the §3 invariant that every inner node has at least
// two children, and that the arena is internally consistent (no dangling
// parent/child references, exactly one root with Parent == 0).
func (t *Tree) WellFormed() error {
	n := t.NumNodes()
	if n == 0 {
		return errors.New("forest: empty tree")
	}
	if t.Root < 1 || t.Root > n {
		return errors.Errorf("forest: root index %d out of range [1,%d]", t.Root, n)
	}
	if t.node(t.Root).Parent != 0 {
		return errors.New("forest: root has a non-zero parent")
	}
	seen := make([]bool, n+1)
	var walk func(i int) error
	walk = func(i int) error {
		if i < 1 || i > n {
			return errors.Errorf("forest: child index %d out of range [1,%d]", i, n)
		}
		if seen[i] {
			return errors.Errorf("forest: node %d reachable via more than one path (cycle or shared child)", i)
		}
		seen[i] = true
		node := t.node(i)
		if node.IsLeaf() {
			if len(node.Children) != 0 {
				return errors.Errorf("forest: leaf node %d has children", i)
			}
			return nil
		}
		if len(node.Children) < 2 {
			return errors.Errorf("forest: inner node %d has fewer than 2 children", i)
		}
		for _, c := range node.Children {
			if c < 1 || c > n || t.node(c).Parent != i {
				return errors.Errorf("forest: node %d child %d has inconsistent parent pointer", i, c)
			}
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(t.Root); err != nil {
		return err
	}
	for i := 1; i <= n; i++ {
		if !seen[i] {
			return errors.Errorf("forest: node %d is not reachable from the root", i)
		}
	}
	return nil
}

// Leaves returns the sorted set of leaf labels appearing in t.
func (t *Tree) Leaves() []int {
	var out []int
	for i := 1; i <= t.NumNodes(); i++ {
		if n := t.node(i); n.IsLeaf() {
			out = append(out, n.Leaf)
		}
	}
	sort.Ints(out)
	return out
}

// minLeaf returns the minimum leaf label in the subtree rooted at i. It
// is used by CanonicalForm for child ordering.
func (t *Tree) minLeaf(i int) int {
	n := t.node(i)
	if n.IsLeaf() {
		return n.Leaf
	}
	m := -1
	for _, c := range n.Children {
		cm := t.minLeaf(c)
		if m == -1 || cm < m {
			m = cm
		}
	}
	return m
}

// String renders t via CanonicalForm, for debugging (grounded on the
// teacher's tree/diagnostics.go debug-rendering convention).
func (t *Tree) String() string {
	return t.CanonicalForm()
}

// CanonicalForm renders t deterministically: children of each inner node
// are emitted in ascending order of the minimum leaf label in their
// subtree, leaves are emitted as their integer label (§4.1).
func (t *Tree) CanonicalForm() string {
	if t.NumNodes() == 0 {
		return ""
	}
	var render func(i int) string
	render = func(i int) string {
		n := t.node(i)
		if n.IsLeaf() {
			return fmt.Sprintf("%d", n.Leaf)
		}
		children := append([]int(nil), n.Children...)
		sort.Slice(children, func(a, b int) bool {
			return t.minLeaf(children[a]) < t.minLeaf(children[b])
		})
		parts := make([]string, len(children))
		for idx, c := range children {
			parts[idx] = render(c)
		}
		s := "("
		for idx, p := range parts {
			if idx > 0 {
				s += ","
			}
			s += p
		}
		return s + ")"
	}
	return render(t.Root)
}

// hash combines, for each node, a value derived from the sorted multiset
// of its children's hashes (leaves hash by label); see §4.3 "Algorithmic
// notes". Two trees over the same leaf set are equal iff their root
// hashes agree, which Equal uses as a fast pre-check before falling back
// to a canonical-form string comparison (the two must always agree; the
// string comparison is the source of truth and guards against hash
// collisions).
func (t *Tree) hash(i int) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	n := t.node(i)
	mix := func(h uint64, b byte) uint64 {
		h ^= uint64(b)
		h *= prime
		return h
	}
	mixInt := func(h uint64, v int) uint64 {
		for shift := 0; shift < 64; shift += 8 {
			h = mix(h, byte(v>>shift))
		}
		return h
	}
	if n.IsLeaf() {
		h := uint64(offset)
		h = mix(h, 'L')
		h = mixInt(h, n.Leaf)
		return h
	}
	childHashes := make([]uint64, len(n.Children))
	for idx, c := range n.Children {
		childHashes[idx] = t.hash(c)
	}
	sort.Slice(childHashes, func(a, b int) bool { return childHashes[a] < childHashes[b] })
	h := uint64(offset)
	h = mix(h, 'N')
	for _, ch := range childHashes {
		for shift := 0; shift < 64; shift += 8 {
			h = mix(h, byte(ch>>shift))
		}
	}
	return h
}

// Equal reports whether a and b are the same tree up to canonical form
// (§4.3): same leaf set, same shape once children are reordered by
// minimum leaf label.
func Equal(a, b *Tree) bool {
	if a.NumNodes() == 0 || b.NumNodes() == 0 {
		return a.NumNodes() == b.NumNodes()
	}
	al, bl := a.Leaves(), b.Leaves()
	if len(al) != len(bl) {
		return false
	}
	for i := range al {
		if al[i] != bl[i] {
			return false
		}
	}
	if a.hash(a.Root) != b.hash(b.Root) {
		return false
	}
	return a.CanonicalForm() == b.CanonicalForm()
}

// Restrict returns the tree obtained by keeping only the leaves in S,
// then suppressing (contracting) any inner node that now has exactly one
// surviving child, and discarding any subtree rooted at a now-leafless
// inner node (§4.1). It never mutates t. The result has either 0, 1, or
// 2+ leaves; callers that need "well-formed forest component" (≥2
// leaves) should check NumNodes()/Leaves() accordingly.
//
// Implemented as a single post-order pass that carries, at each node,
// the subset of target leaves present below it, contracting single-child
// inner nodes and dropping leafless ones as part of the same walk (§4.3
// "Algorithmic notes"), so the cost is linear in the size of t.
func Restrict(t *Tree, s map[int]bool) *Tree {
	type built struct {
		idx     int // index into the new arena, or 0 if this subtree vanished
		isLeaf  bool
		leaf    int
		kept    []int // children kept by the recursive calls, for inner nodes
		present bool
	}
	var nodes []Node
	nodes = append(nodes, Node{}) // sentinel
	var walk func(i int) built
	walk = func(i int) built {
		n := t.node(i)
		if n.IsLeaf() {
			if !s[n.Leaf] {
				return built{}
			}
			nodes = append(nodes, Node{Leaf: n.Leaf})
			return built{idx: len(nodes) - 1, isLeaf: true, leaf: n.Leaf, present: true}
		}
		var survivors []built
		for _, c := range n.Children {
			b := walk(c)
			if b.present {
				survivors = append(survivors, b)
			}
		}
		switch len(survivors) {
		case 0:
			return built{}
		case 1:
			// Contract: an inner node with exactly one surviving child is
			// elided, its single child takes its place.
			return survivors[0]
		default:
			children := make([]int, len(survivors))
			for idx, sv := range survivors {
				children[idx] = sv.idx
			}
			nodes = append(nodes, Node{Children: children})
			newIdx := len(nodes) - 1
			for _, c := range children {
				nodes[c].Parent = newIdx
			}
			return built{idx: newIdx, present: true}
		}
	}
	root := walk(t.Root)
	if !root.present {
		return &Tree{}
	}
	return &Tree{Nodes: nodes, Root: root.idx}
}

// SpanningNodes returns the set of t's own node indices that lie on the
// minimal subtree connecting the leaves in s: exactly the nodes Restrict
// would carry into its output arena, but reported against t's original
// indices instead of being renumbered into a new one. An inner node with
// only one surviving child is contracted away (as in Restrict) and so is
// absent from the result.
//
// This is what the maf package's agreement check uses to verify that two
// components' induced subtrees never overlap within an input tree: a
// node shared by two components' spanning sets means the components are
// not vertex-disjoint in that tree, so restriction equality alone cannot
// catch it (§4.3 "Algorithmic notes").
func SpanningNodes(t *Tree, s map[int]bool) map[int]bool {
	nodes := make(map[int]bool)
	var walk func(i int) bool
	walk = func(i int) bool {
		n := t.node(i)
		if n.IsLeaf() {
			if !s[n.Leaf] {
				return false
			}
			nodes[i] = true
			return true
		}
		survivors := 0
		for _, c := range n.Children {
			if walk(c) {
				survivors++
			}
		}
		switch survivors {
		case 0:
			return false
		case 1:
			return true
		default:
			nodes[i] = true
			return true
		}
	}
	walk(t.Root)
	return nodes
}

// Builder assembles a Tree node-by-node, mirroring how internal/pace
// constructs a Tree while scanning a bracketed line left to right.
type Builder struct {
	nodes []Node
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{nodes: []Node{{}}} // index 0 sentinel
}

// AddLeaf appends a leaf node and returns its index.
func (b *Builder) AddLeaf(label int) int {
	b.nodes = append(b.nodes, Node{Leaf: label})
	return len(b.nodes) - 1
}

// AddInner appends an inner node with the given children (already-built
// indices) and returns its index, fixing up the children's Parent links.
func (b *Builder) AddInner(children []int) int {
	b.nodes = append(b.nodes, Node{Children: children})
	idx := len(b.nodes) - 1
	for _, c := range children {
		b.nodes[c].Parent = idx
	}
	return idx
}

// Build finalizes the tree with the given root index.
func (b *Builder) Build(root int) *Tree {
	return &Tree{Nodes: b.nodes, Root: root}
}
