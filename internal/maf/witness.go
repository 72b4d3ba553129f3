package maf

import (
	"strings"

	"github.com/andreyvit/diff"
	"github.com/manpen/stride/internal/forest"
)

// witnessDiff renders a short unified-style diff between the expected
// restriction and the offending component's canonical form, for
// inclusion as the AgreementViolation witness (§4.3) in messages.log.
// Grounded on diff/unified.go's use of andreyvit/diff.LineDiffAsLines;
// unlike the teacher's UnifiedTo, there's no multi-line hunk/context
// windowing to do here since both sides are always a single canonical
// form line, so the raw diff lines are returned as-is.
func witnessDiff(expected, got *forest.Tree) string {
	a := expected.CanonicalForm()
	b := got.CanonicalForm()
	lines := diff.LineDiffAsLines(a, b)
	return strings.Join(lines, "\n")
}
