package environment

import "github.com/awesome-interesting-projects/kiss/internal/object"

// unwind is the panic payload used to transfer control to a specific
// catch/block/tagbody frame. The evaluator's special-form handlers for
// catch, block and tagbody each install a deferred recover that only
// catches an *unwind addressed to their own frame ID, letting every
// other panic (including another unwind headed further out, or a
// *kisserr.Condition) continue propagating untouched.
type unwind struct {
	frameID uint64
	kind    FrameKind

	// Catch/return-from payload.
	value object.Object

	// Tagbody/go payload: the index within the owning tagbody's form
	// list to resume execution from. The tagbody handler cannot simply
	// let recover() resume mid-function (Go offers no such thing), so
	// it re-enters its own stepping loop from this index instead.
	gotoIndex int
}

// Throw panics with a payload addressed to the nearest enclosing catch
// frame tagged tag. It is the evaluator's responsibility to call
// FindCatch first and signal control-error itself when no frame
// matches, since only the evaluator has the condition-signalling
// machinery available at that point.
func Throw(f *ExitFrame, value object.Object) {
	panic(&unwind{frameID: f.ID, kind: FrameCatch, value: value})
}

// ReturnFrom panics with a payload addressed to the named block frame.
func ReturnFrom(f *ExitFrame, value object.Object) {
	panic(&unwind{frameID: f.ID, kind: FrameBlock, value: value})
}

// Goto panics with a payload addressed to the owning tagbody frame,
// naming the form index to resume at.
func Goto(f *ExitFrame, gotoIndex int) {
	panic(&unwind{frameID: f.ID, kind: FrameTagbody, gotoIndex: gotoIndex})
}

// Recover inspects a value recovered from panic(). If it is an
// *unwind addressed to f, it returns (value, gotoIndex, true); any
// other recovered value (including an *unwind for a different frame)
// is returned in ok=false form so the caller can re-panic it
// unchanged.
func Recover(f *ExitFrame, recovered any) (value object.Object, gotoIndex int, ok bool) {
	u, isUnwind := recovered.(*unwind)
	if !isUnwind || u.frameID != f.ID {
		return nil, 0, false
	}
	return u.value, u.gotoIndex, true
}
