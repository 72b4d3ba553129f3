package forest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTwoTwo builds ((1,2),(3,4)).
func buildTwoTwo(t *testing.T) *Tree {
	t.Helper()
	b := NewBuilder()
	l1 := b.AddLeaf(1)
	l2 := b.AddLeaf(2)
	l3 := b.AddLeaf(3)
	l4 := b.AddLeaf(4)
	left := b.AddInner([]int{l1, l2})
	right := b.AddInner([]int{l3, l4})
	root := b.AddInner([]int{left, right})
	return b.Build(root)
}

// buildCaterpillar builds (((1,2),3),4).
func buildCaterpillar(t *testing.T) *Tree {
	t.Helper()
	b := NewBuilder()
	l1 := b.AddLeaf(1)
	l2 := b.AddLeaf(2)
	l3 := b.AddLeaf(3)
	l4 := b.AddLeaf(4)
	inner1 := b.AddInner([]int{l1, l2})
	inner2 := b.AddInner([]int{inner1, l3})
	root := b.AddInner([]int{inner2, l4})
	return b.Build(root)
}

func TestWellFormed(t *testing.T) {
	tr := buildTwoTwo(t)
	require.NoError(t, tr.WellFormed())
}

func TestWellFormedRejectsSingleChildInner(t *testing.T) {
	b := NewBuilder()
	l1 := b.AddLeaf(1)
	root := b.AddInner([]int{l1})
	tr := b.Build(root)
	require.Error(t, tr.WellFormed())
}

func TestLeaves(t *testing.T) {
	tr := buildTwoTwo(t)
	assert.Equal(t, []int{1, 2, 3, 4}, tr.Leaves())
}

func TestCanonicalFormOrdersByMinLeaf(t *testing.T) {
	tr := buildTwoTwo(t)
	assert.Equal(t, "((1,2),(3,4))", tr.CanonicalForm())
}

func TestCanonicalFormStableUnderFullRestriction(t *testing.T) {
	for _, tr := range []*Tree{buildTwoTwo(t), buildCaterpillar(t)} {
		first := tr.CanonicalForm()
		// Re-parenthesizing the same set of leaves via Restrict to the
		// full leaf set must reproduce byte-for-byte the same text.
		full := make(map[int]bool)
		for _, l := range tr.Leaves() {
			full[l] = true
		}
		second := Restrict(tr, full).CanonicalForm()
		assert.Equal(t, first, second)
	}
}

func TestRestrictRoundTrip(t *testing.T) {
	tr := buildCaterpillar(t)
	s := map[int]bool{1: true, 2: true, 3: true}
	r := Restrict(tr, s)
	require.NoError(t, r.WellFormed())
	assert.Equal(t, []int{1, 2, 3}, r.Leaves())
	// Restricting twice to the same set is a fixed point.
	r2 := Restrict(r, s)
	assert.Equal(t, r.CanonicalForm(), r2.CanonicalForm())
}

func TestRestrictContractsSingleChildChains(t *testing.T) {
	tr := buildCaterpillar(t)
	r := Restrict(tr, map[int]bool{1: true, 4: true})
	assert.Equal(t, []int{1, 4}, r.Leaves())
	assert.Equal(t, "(1,4)", r.CanonicalForm())
}

func TestRestrictEmptySet(t *testing.T) {
	tr := buildTwoTwo(t)
	r := Restrict(tr, map[int]bool{})
	assert.Equal(t, 0, r.NumNodes())
}

func TestRestrictSingleLeaf(t *testing.T) {
	tr := buildTwoTwo(t)
	r := Restrict(tr, map[int]bool{1: true})
	assert.Equal(t, []int{1}, r.Leaves())
	assert.Equal(t, "1", r.CanonicalForm())
}

func TestEqualUpToReordering(t *testing.T) {
	a := buildTwoTwo(t)
	// Build the same tree with children swapped at every level.
	b := NewBuilder()
	l4 := b.AddLeaf(4)
	l3 := b.AddLeaf(3)
	l2 := b.AddLeaf(2)
	l1 := b.AddLeaf(1)
	right := b.AddInner([]int{l4, l3})
	left := b.AddInner([]int{l2, l1})
	root := b.AddInner([]int{right, left})
	bt := b.Build(root)
	assert.True(t, Equal(a, bt))
}

func TestEqualDetectsDifference(t *testing.T) {
	a := buildTwoTwo(t)
	c := buildCaterpillar(t)
	assert.False(t, Equal(a, c))
}

func TestRestrictLeavesStructuralDiff(t *testing.T) {
	tr := buildCaterpillar(t)
	r := Restrict(tr, map[int]bool{1: true, 2: true, 4: true})
	if diff := cmp.Diff([]int{1, 2, 4}, r.Leaves()); diff != "" {
		t.Errorf("unexpected leaves difference: %s", diff)
	}
}
