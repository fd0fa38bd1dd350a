package kisserr

import (
	"fmt"
	"strings"

	"github.com/awesome-interesting-projects/kiss/internal/object"
	"github.com/awesome-interesting-projects/kiss/internal/printer"
)

// Class names a condition's taxonomy tag. These are string tags
// rather than a Go type per class: the condition/error class hierarchy
// is treated as an external collaborator whose internals are out of
// scope here, so Condition models only the signalling contract (a
// class name, a message, and irritants), not a full ILOS class
// lattice.
type Class string

const (
	DomainError        Class = "domain-error"
	ArityError         Class = "arity-error"
	UnboundVariable    Class = "unbound-variable"
	UnboundFunction    Class = "unbound-function"
	ImproperList       Class = "improper-list"
	IndexOutOfRange    Class = "index-out-of-range"
	DivisionByZero     Class = "division-by-zero"
	ParseError         Class = "parse-error"
	EndOfStream        Class = "end-of-stream"
	ControlError       Class = "control-error"
	UnboundClass       Class = "unbound-class"
	UndefinedMethod    Class = "undefined-method"
	StorageExhausted   Class = "storage-exhausted"
	InvalidCompoundErr Class = "invalid-compound-form"
)

// Condition is the error type every signalled condition is represented
// as. It implements Go's error interface, and the evaluator passes it
// up as an ordinary `error` return through every frame (see
// internal/evaluator's doc comment); unwind-protect cleanups run on
// that path as on every other exit path.
type Condition struct {
	Class     Class
	Message   string
	Irritants []object.Object
	Pos       Position // zero value if the evaluator (not the reader) raised this
}

// New creates a Condition. The message may contain "~S" placeholders,
// replaced positionally by the printed form of each irritant — this
// mirrors the original KISS implementation's Kiss_Err(fmt, ...)
// convention (see original_source/read.c's Kiss_Err(L"...~S...", x)
// call sites) without requiring bit-exact message text.
func New(class Class, message string, irritants ...object.Object) *Condition {
	return &Condition{Class: class, Message: message, Irritants: irritants}
}

// At attaches a source position, returning the same Condition for
// chaining: kisserr.New(...).At(pos).
func (c *Condition) At(pos Position) *Condition {
	c.Pos = pos
	return c
}

// renderMessage substitutes each "~S" placeholder, in order, with the
// printed form of the corresponding irritant.
func (c *Condition) renderMessage() string {
	msg := c.Message
	for _, irritant := range c.Irritants {
		msg = strings.Replace(msg, "~S", printer.Print(irritant), 1)
	}
	return msg
}

func (c *Condition) Error() string {
	msg := c.renderMessage()
	if !c.Pos.Zero() {
		return fmt.Sprintf("%s: %s (at %s)", c.Class, msg, c.Pos)
	}
	return fmt.Sprintf("%s: %s", c.Class, msg)
}

// --- typed constructors, one per condition class --------------------------
// One constructor per error shape, rather than a single generic
// constructor taking a raw class string everywhere.

func NewDomainError(expectedClass string, got object.Object) *Condition {
	return New(DomainError, fmt.Sprintf("expected an object of class %s, got ~S", expectedClass), got)
}

func NewArityError(callableName string, min, max, got int) *Condition {
	var arity string
	switch {
	case max < 0:
		arity = fmt.Sprintf("at least %d", min)
	case min == max:
		arity = fmt.Sprintf("exactly %d", min)
	default:
		arity = fmt.Sprintf("between %d and %d", min, max)
	}
	return New(ArityError, fmt.Sprintf("%s expects %s argument(s), got %d", callableName, arity, got))
}

func NewUnboundVariable(sym *object.Symbol) *Condition {
	return New(UnboundVariable, "unbound variable ~S", sym)
}

func NewUnboundFunction(sym *object.Symbol) *Condition {
	return New(UnboundFunction, "unbound function ~S", sym)
}

func NewImproperList(o object.Object) *Condition {
	return New(ImproperList, "expected a proper list, got ~S", o)
}

func NewIndexOutOfRange(index int, o object.Object) *Condition {
	return New(IndexOutOfRange, fmt.Sprintf("index %d out of range for ~S", index), o)
}

func NewDivisionByZero(op string) *Condition {
	return New(DivisionByZero, fmt.Sprintf("division by zero in %s", op))
}

func NewParseError(message string, irritants ...object.Object) *Condition {
	return New(ParseError, message, irritants...)
}

func NewEndOfStream(streamName string) *Condition {
	return New(EndOfStream, fmt.Sprintf("end of stream on %s", streamName))
}

func NewControlError(message string) *Condition {
	return New(ControlError, message)
}

func NewUnboundClass(name string) *Condition {
	return New(UnboundClass, fmt.Sprintf("unbound class %s", name))
}

func NewUndefinedMethod(name string) *Condition {
	return New(UndefinedMethod, fmt.Sprintf("undefined method %s", name))
}

func NewStorageExhausted() *Condition {
	return New(StorageExhausted, "storage exhausted")
}

func NewInvalidCompoundForm(o object.Object) *Condition {
	return New(InvalidCompoundErr, "invalid compound form ~S", o)
}
