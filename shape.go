package paradigma

import (
	"fmt"

	"github.com/cours-de-latin/paradigma/fst"
)

// ShapeExpr is an affixation shape or stem expression: either a
// literal string or an already-built transducer. It is coerced to a
// machine once, at the algebra boundary.
type ShapeExpr struct {
	text string
	f    *fst.FST
}

// Literal wraps a literal string.
func Literal(s string) ShapeExpr { return ShapeExpr{text: s} }

// Transducer wraps an already-built machine.
func Transducer(f *fst.FST) ShapeExpr { return ShapeExpr{f: f} }

func (e ShapeExpr) compile() *fst.FST {
	if e.f != nil {
		return e.f
	}
	return fst.FromString(e.text)
}

// String renders the expression for diagnostics.
func (e ShapeExpr) String() string {
	if e.f != nil {
		return fmt.Sprintf("<transducer %d states>", e.f.NumStates())
	}
	return fmt.Sprintf("%q", e.text)
}

// ByteStarExceptBoundary accepts any byte string avoiding the bytes of
// the boundary marker: the usual unconstrained stem shape.
func ByteStarExceptBoundary(boundary string) *fst.FST {
	exclude := make([]fst.Label, 0, len(boundary))
	for i := 0; i < len(boundary); i++ {
		exclude = append(exclude, fst.Label(boundary[i]))
	}
	return fst.ByteStarExcept(exclude...)
}

// Prefix concatenates the insertion of affix before the stem form:
// the shape of a prefixing slot. The affix typically ends with the
// boundary marker.
func Prefix(affix, stemForm ShapeExpr) *fst.FST {
	return fst.Concat(fst.Insert(affix.compile()), stemForm.compile())
}

// Suffix concatenates the stem form with the insertion of affix: the
// shape of a suffixing slot. The affix typically begins with the
// boundary marker.
func Suffix(affix, stemForm ShapeExpr) *fst.FST {
	return fst.Concat(stemForm.compile(), fst.Insert(affix.compile()))
}

// StemIDs accepts the stem identifiers __n__ for n in [min, max):
// appended to homographic stems, they keep analyses apart through the
// derived views and are deleted afterwards with a rewrite.
func StemIDs(min, max int) *fst.FST {
	ids := make([]*fst.FST, 0, max-min)
	for n := min; n < max; n++ {
		ids = append(ids, fst.FromString(fmt.Sprintf("__%d__", n)))
	}
	return fst.Union(ids...).Optimize()
}
