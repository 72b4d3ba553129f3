package maf

import (
	"strings"
	"testing"

	"github.com/manpen/stride/internal/pace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInstance(t *testing.T, text string) *pace.Instance {
	t.Helper()
	inst, err := pace.ParseInstance(strings.NewReader(text), pace.Options{})
	require.NoError(t, err)
	return inst
}

func mustSolution(t *testing.T, text string) *pace.Solution {
	t.Helper()
	sol, err := pace.ParseSolution(strings.NewReader(text), pace.Options{})
	require.NoError(t, err)
	return sol
}

const twoTreeInstance = "p 4 2\n((1,2),(3,4))\n((1,3),(2,4))\n"

// Scenario 1 (§8): identity forest, duplicates in the leaf partition.
func TestIdentityForestInfeasible(t *testing.T) {
	inst := mustInstance(t, twoTreeInstance)
	sol := mustSolution(t, "((1,2),(3,4))\n((1,3),(2,4))\n")
	r := Check(inst, sol)
	require.Equal(t, Infeasible, r.Kind)
	_, ok := r.Reason.(*LeafPartitionMismatch)
	assert.True(t, ok)
}

// Scenario 2 (§8): trivial MAF, every leaf its own component.
func TestTrivialMAFValid(t *testing.T) {
	inst := mustInstance(t, twoTreeInstance)
	sol := mustSolution(t, "1\n2\n3\n4\n")
	r := Check(inst, sol)
	require.Equal(t, Valid, r.Kind)
	assert.Equal(t, 4, r.Score)
}

// Scenario 3 (§8): two-component MAF over differently-shaped trees.
func TestTwoComponentMAFValid(t *testing.T) {
	inst := mustInstance(t, "p 4 2\n((1,2),(3,4))\n(((1,2),3),4)\n")
	sol := mustSolution(t, "(1,2)\n(3,4)\n")
	r := Check(inst, sol)
	require.Equal(t, Valid, r.Kind)
	assert.Equal(t, 2, r.Score)
}

// Scenario 4 (§8): agreement violation with a named witness.
func TestAgreementViolation(t *testing.T) {
	inst := mustInstance(t, "p 4 2\n((1,2),(3,4))\n(((1,2),3),4)\n")
	sol := mustSolution(t, "(1,3)\n(2,4)\n")
	r := Check(inst, sol)
	require.Equal(t, Infeasible, r.Kind)
	av, ok := r.Reason.(*AgreementViolation)
	require.True(t, ok)
	assert.Equal(t, 0, av.TreeIndex)
	assert.Equal(t, 0, av.ComponentIndex)
}

// Scenario 5 (§8): empty forest.
func TestEmptyForestNoSolution(t *testing.T) {
	inst := mustInstance(t, twoTreeInstance)
	sol := mustSolution(t, "c nothing\n")
	r := Check(inst, sol)
	assert.Equal(t, NoSolution, r.Kind)
}

// §8 "Agreement self-check": taking an instance's own tree whole as the
// sole component is Valid with score 1, provided every tree in the
// instance shares that topology (restriction to the full leaf set is the
// identity, so each tree must already equal the candidate component).
func TestAgreementSelfCheck(t *testing.T) {
	inst := mustInstance(t, "p 4 2\n((1,2),(3,4))\n((1,2),(3,4))\n")
	sol := mustSolution(t, "((1,2),(3,4))\n")
	r := Check(inst, sol)
	require.Equal(t, Valid, r.Kind)
	assert.Equal(t, 1, r.Score)
}

func TestCanonicalTextOrdering(t *testing.T) {
	inst := mustInstance(t, "p 4 2\n((1,2),(3,4))\n(((1,2),3),4)\n")
	sol := mustSolution(t, "(3,4)\n(1,2)\n")
	r := Check(inst, sol)
	require.Equal(t, Valid, r.Kind)
	assert.Equal(t, "(1,2)\n(3,4)", r.CanonicalText)
}

func TestInvalidInstanceMismatchedLeafSets(t *testing.T) {
	inst := mustInstance(t, "p 4 2\n((1,2),(3,4))\n((1,2),(3,4))\n")
	// Corrupt the taxon count after parsing to simulate an instance
	// whose declared L doesn't match what the trees actually cover.
	inst.NumTaxa = 5
	sol := mustSolution(t, "1\n2\n3\n4\n5\n")
	r := Check(inst, sol)
	assert.Equal(t, InvalidInstance, r.Kind)
}
