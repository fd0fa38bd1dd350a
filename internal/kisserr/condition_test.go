package kisserr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/awesome-interesting-projects/kiss/internal/object"
)

func TestConditionErrorSubstitutesIrritantsPositionally(t *testing.T) {
	c := New(DomainError, "expected ~S, got ~S", &object.Symbol{Name: "integer"}, object.NewFixnum(3))
	assert.Equal(t, "domain-error: expected integer, got 3", c.Error())
}

func TestConditionErrorWithNoIrritants(t *testing.T) {
	c := New(ControlError, "no enclosing catch")
	assert.Equal(t, "control-error: no enclosing catch", c.Error())
}

func TestConditionErrorIncludesPositionWhenSet(t *testing.T) {
	c := New(ParseError, "unexpected eof").At(Position{File: "x.lisp", Line: 3, Column: 5})
	assert.Equal(t, "parse-error: unexpected eof (at x.lisp:3:5)", c.Error())
}

func TestNewArityErrorArityPhrasing(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		expected string
	}{
		{"exact arity", 2, 2, "foo expects exactly 2 argument(s), got 1"},
		{"range arity", 1, 3, "foo expects between 1 and 3 argument(s), got 1"},
		{"unbounded arity", 1, -1, "foo expects at least 1 argument(s), got 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewArityError("foo", tt.min, tt.max, 1)
			assert.Equal(t, "arity-error: "+tt.expected, c.Error())
		})
	}
}

func TestNewUnboundVariableIncludesSymbolName(t *testing.T) {
	c := NewUnboundVariable(&object.Symbol{Name: "x"})
	assert.Equal(t, "unbound-variable: unbound variable x", c.Error())
}

func TestNewDivisionByZero(t *testing.T) {
	c := NewDivisionByZero("quotient")
	assert.Equal(t, "division-by-zero: division by zero in quotient", c.Error())
}

func TestNewIndexOutOfRange(t *testing.T) {
	v := object.NewVector([]object.Object{object.NewFixnum(1)})
	c := NewIndexOutOfRange(5, v)
	assert.Equal(t, "index-out-of-range: index 5 out of range for #(1)", c.Error())
}

func TestConditionImplementsError(t *testing.T) {
	var err error = NewStorageExhausted()
	assert.EqualError(t, err, "storage-exhausted: storage exhausted")
}
