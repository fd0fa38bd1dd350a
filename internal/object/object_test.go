package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEq(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Object
		expected bool
	}{
		{"same fixnum value", NewFixnum(3), NewFixnum(3), true},
		{"different fixnum value", NewFixnum(3), NewFixnum(4), false},
		{"same character value", NewCharacter('a'), NewCharacter('a'), true},
		{"different character value", NewCharacter('a'), NewCharacter('b'), false},
		{"same float value", NewFloat(1.5), NewFloat(1.5), true},
		{"different allocations of equal strings are not eq", NewString("abc"), NewString("abc"), false},
		{"nil is eq to itself", Nil, Nil, true},
		{"t is eq to itself", T, T, true},
		{"nil is not eq to t", Nil, T, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Eq(tt.a, tt.b))
		})
	}

	t.Run("distinct cons allocations are not eq", func(t *testing.T) {
		a := NewCons(T, Nil)
		b := NewCons(T, Nil)
		assert.False(t, Eq(a, b))
		assert.True(t, Eq(a, a))
	})

	t.Run("distinct symbols with the same name are only eq if the same allocation", func(t *testing.T) {
		a := &Symbol{Name: "x"}
		b := &Symbol{Name: "x"}
		assert.False(t, Eq(a, b))
		assert.True(t, Eq(a, a))
	})
}

func TestIsNilAndBool(t *testing.T) {
	assert.True(t, IsNil(Nil))
	assert.True(t, IsNil(nil))
	assert.False(t, IsNil(T))
	assert.False(t, IsNil(NewFixnum(0)))

	assert.Equal(t, T, Bool(true))
	assert.Equal(t, Nil, Bool(false))

	assert.True(t, IsTruthy(T))
	assert.True(t, IsTruthy(NewFixnum(0)))
	assert.False(t, IsTruthy(Nil))
}

func TestListConstructionAndInspection(t *testing.T) {
	l := List(NewFixnum(1), NewFixnum(2), NewFixnum(3))
	assert.True(t, IsProperList(l))
	assert.Equal(t, 3, Length(l))

	slice, ok := ListToSlice(l)
	assert.True(t, ok)
	assert.Len(t, slice, 3)
	assert.Equal(t, int64(1), slice[0].(*Fixnum).Value)
	assert.Equal(t, int64(2), slice[1].(*Fixnum).Value)
	assert.Equal(t, int64(3), slice[2].(*Fixnum).Value)

	assert.True(t, IsProperList(Nil))
	assert.Equal(t, 0, Length(Nil))

	empty, ok := ListToSlice(Nil)
	assert.True(t, ok)
	assert.Empty(t, empty)
}

func TestImproperList(t *testing.T) {
	dotted := NewCons(NewFixnum(1), NewFixnum(2))
	assert.False(t, IsProperList(dotted))
	_, ok := ListToSlice(dotted)
	assert.False(t, ok)
}

func TestIsCons(t *testing.T) {
	assert.True(t, IsCons(NewCons(Nil, Nil)))
	assert.False(t, IsCons(Nil))
	assert.False(t, IsCons(NewFixnum(1)))
}

func TestStringEq(t *testing.T) {
	assert.True(t, StringEq(NewString("hello"), NewString("hello")))
	assert.False(t, StringEq(NewString("hello"), NewString("world")))
	assert.False(t, StringEq(NewString("hi"), NewString("hello")))
}

func TestArrayIndex(t *testing.T) {
	backing := NewVector(make([]Object, 12))
	arr := &Array{Dimensions: []int{3, 4}, Backing: backing}

	idx, ok := arr.Index([]int{0, 0})
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = arr.Index([]int{1, 2})
	assert.True(t, ok)
	assert.Equal(t, 6, idx)

	_, ok = arr.Index([]int{3, 0})
	assert.False(t, ok, "row index out of bounds")

	_, ok = arr.Index([]int{0})
	assert.False(t, ok, "wrong subscript count")
}

func TestHashTableEqlSemantics(t *testing.T) {
	h := NewHashTable(func(a, b Object) bool { return Eq(a, b) })
	key := NewFixnum(42)
	h.Put(key, NewString("answer"))

	v, ok := h.Get(NewFixnum(42))
	assert.True(t, ok)
	assert.Equal(t, "answer", v.(*String).String())

	_, ok = h.Get(NewFixnum(43))
	assert.False(t, ok)

	assert.True(t, h.Remove(NewFixnum(42)))
	_, ok = h.Get(NewFixnum(42))
	assert.False(t, ok)
	assert.False(t, h.Remove(NewFixnum(42)))
}

func TestHashTableRange(t *testing.T) {
	h := NewHashTable(func(a, b Object) bool { return Eq(a, b) })
	h.Put(NewFixnum(1), NewString("one"))
	h.Put(NewFixnum(2), NewString("two"))

	seen := map[int64]string{}
	h.Range(func(k, v Object) bool {
		seen[k.(*Fixnum).Value] = v.(*String).String()
		return true
	})
	assert.Equal(t, map[int64]string{1: "one", 2: "two"}, seen)
}

func TestSelfEvaluating(t *testing.T) {
	assert.True(t, Nil.SelfEvaluating())
	assert.True(t, T.SelfEvaluating())
	assert.True(t, NewFixnum(1).SelfEvaluating())
	assert.True(t, NewFloat(1.0).SelfEvaluating())
	assert.True(t, NewCharacter('a').SelfEvaluating())
	assert.True(t, NewString("s").SelfEvaluating())
	assert.False(t, NewCons(Nil, Nil).SelfEvaluating())

	plain := &Symbol{Name: "x"}
	assert.False(t, plain.SelfEvaluating())

	kw := &Symbol{Name: ":foo", Keyword: true}
	assert.True(t, kw.SelfEvaluating())
}
