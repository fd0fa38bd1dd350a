package printer

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"

	"github.com/awesome-interesting-projects/kiss/internal/object"
)

func TestPrintAtoms(t *testing.T) {
	tests := []struct {
		name     string
		obj      object.Object
		expected string
	}{
		{"nil", object.Nil, "nil"},
		{"t", object.T, "t"},
		{"fixnum", object.NewFixnum(42), "42"},
		{"negative fixnum", object.NewFixnum(-7), "-7"},
		{"float with fraction", object.NewFloat(1.5), "1.5"},
		{"float without fraction gets .0 suffix", object.NewFloat(2), "2.0"},
		{"newline character", object.NewCharacter('\n'), `#\newline`},
		{"space character", object.NewCharacter(' '), `#\space`},
		{"plain character", object.NewCharacter('a'), `#\a`},
		{"symbol", &object.Symbol{Name: "foo"}, "foo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Print(tt.obj))
		})
	}
}

func TestPrintStringEscapesQuotesAndBackslashes(t *testing.T) {
	assert.Equal(t, `"hi"`, Print(object.NewString("hi")))
	assert.Equal(t, `"a\"b\\c"`, Print(object.NewString(`a"b\c`)))
}

func TestPrincDoesNotQuoteOrEscape(t *testing.T) {
	assert.Equal(t, "hi", Princ(object.NewString("hi")))
	assert.Equal(t, "a", Princ(object.NewCharacter('a')))
}

func TestPrintProperList(t *testing.T) {
	l := object.List(object.NewFixnum(1), object.NewFixnum(2), object.NewFixnum(3))
	assert.Equal(t, "(1 2 3)", Print(l))
}

func TestPrintEmptyList(t *testing.T) {
	assert.Equal(t, "nil", Print(object.Nil))
}

func TestPrintDottedPair(t *testing.T) {
	dotted := object.NewCons(object.NewFixnum(1), object.NewFixnum(2))
	assert.Equal(t, "(1 . 2)", Print(dotted))
}

func TestPrintNestedList(t *testing.T) {
	inner := object.List(object.NewFixnum(2), object.NewFixnum(3))
	outer := object.List(object.NewFixnum(1), inner)
	assert.Equal(t, "(1 (2 3))", Print(outer))
}

func TestPrintVector(t *testing.T) {
	v := object.NewVector([]object.Object{object.NewFixnum(1), object.NewFixnum(2)})
	assert.Equal(t, "#(1 2)", Print(v))
}

func TestPrintTwoDimensionalArray(t *testing.T) {
	backing := object.NewVector([]object.Object{
		object.NewFixnum(1), object.NewFixnum(2),
		object.NewFixnum(3), object.NewFixnum(4),
	})
	arr := &object.Array{Dimensions: []int{2, 2}, Backing: backing}
	assert.Equal(t, "#2a((1 2) (3 4))", Print(arr))
}

func TestPrintCallableFlavors(t *testing.T) {
	assert.Equal(t, "#<subr car>", Print(&object.CFunction{Name: "car"}))
	assert.Equal(t, "#<special if>", Print(&object.CSpecial{Name: "if"}))
	assert.Equal(t, "#<function anonymous>", Print(&object.Closure{}))
	assert.Equal(t, "#<function my-fn>", Print(&object.Closure{Name: "my-fn"}))
	assert.Equal(t, "#<macro my-macro>", Print(&object.Macro{Name: "my-macro"}))
	assert.Equal(t, "#<point>", Print(&object.ILOSObject{ClassName: "point"}))
}

func TestPrintRoundTripsRegularList(t *testing.T) {
	l := object.List(object.NewString("a"), &object.Symbol{Name: "b"}, object.NewFixnum(3))
	assert.Equal(t, `("a" b 3)`, Print(l))
}

func TestPrintSnapshotOfMixedStructure(t *testing.T) {
	inner := object.List(&object.Symbol{Name: "quote"}, &object.Symbol{Name: "x"})
	backing := object.NewVector([]object.Object{object.NewFixnum(1), object.NewFixnum(2)})
	arr := &object.Array{Dimensions: []int{2}, Backing: backing}
	l := object.List(inner, object.NewString("hi"), object.NewCharacter('a'), arr)

	snaps.MatchSnapshot(t, Print(l))
}
