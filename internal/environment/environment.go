// Package environment implements lexical binding frames, the
// dynamic-variable stack, the global function/class namespaces, and
// the non-local-exit frame stack. The binding-frame shape — a store
// plus an outer-scope pointer — is generalized from string keys to
// symbol-identity keys, since variables here are bound by the symbol
// object itself rather than by name.
package environment

import "github.com/awesome-interesting-projects/kiss/internal/object"

// Env is a lexical frame. Variable lookup consults this chain
// top-down before falling back to the referenced symbol's global value
// slot; function lookup does the same against a parallel
// function-binding chain (for flet/labels) before falling back to the
// symbol's global function slot.
type Env struct {
	vars  map[*object.Symbol]object.Object
	funcs map[*object.Symbol]object.Object
	outer *Env

	// Only the root environment owns the dynamic stack and the
	// non-local-exit stack; child frames delegate to it so that
	// dynamic-let/catch/block/tagbody state is visible regardless of
	// lexical nesting depth.
	root *rootState
}

type rootState struct {
	dynamic    []dynamicBinding
	exitFrames []*ExitFrame
	nextFrame  uint64
}

type dynamicBinding struct {
	sym *object.Symbol
	old object.Object // the value being shadowed; restored on pop
	had bool          // whether sym had a bound value before this push
}

// New creates a root-level environment with no outer scope.
func New() *Env {
	return &Env{root: &rootState{}}
}

// NewEnclosed creates a new lexical scope nested inside e.
func NewEnclosed(e *Env) *Env {
	return &Env{outer: e, root: e.root}
}

// --- lexical variables -----------------------------------------------------

// Bind introduces sym into this frame's bindings (used for parameter
// binding and let/let*).
func (e *Env) Bind(sym *object.Symbol, val object.Object) {
	if e.vars == nil {
		e.vars = make(map[*object.Symbol]object.Object)
	}
	e.vars[sym] = val
}

// LookupVar searches the lexical chain, then the symbol's global value
// slot. ok is false if the variable is unbound anywhere (the caller
// signals unbound-variable).
func (e *Env) LookupVar(sym *object.Symbol) (object.Object, bool) {
	for f := e; f != nil; f = f.outer {
		if f.vars != nil {
			if v, found := f.vars[sym]; found {
				return v, true
			}
		}
	}
	if sym.Value != nil {
		return sym.Value, true
	}
	return nil, false
}

// SetVar assigns to the nearest lexical binding of sym, or to its
// global value slot if it is not lexically bound anywhere (setq's
// semantics).
func (e *Env) SetVar(sym *object.Symbol, val object.Object) {
	for f := e; f != nil; f = f.outer {
		if f.vars != nil {
			if _, found := f.vars[sym]; found {
				f.vars[sym] = val
				return
			}
		}
	}
	sym.Value = val
}

// --- lexical functions (flet/labels) ----------------------------------------

// BindFunction introduces a local function binding in this frame.
func (e *Env) BindFunction(sym *object.Symbol, fn object.Object) {
	if e.funcs == nil {
		e.funcs = make(map[*object.Symbol]object.Object)
	}
	e.funcs[sym] = fn
}

// LookupFunction searches the lexical function chain, then the
// symbol's global function slot.
func (e *Env) LookupFunction(sym *object.Symbol) (object.Object, bool) {
	for f := e; f != nil; f = f.outer {
		if f.funcs != nil {
			if v, found := f.funcs[sym]; found {
				return v, true
			}
		}
	}
	if sym.Function != nil {
		return sym.Function, true
	}
	return nil, false
}

// --- dynamic variables -------------------------------------------------

// PushDynamic shadows sym's current global value with val, to be
// restored by PopDynamic regardless of exit path (dynamic-let semantics).
func (e *Env) PushDynamic(sym *object.Symbol, val object.Object) {
	r := e.root
	old := sym.Value
	r.dynamic = append(r.dynamic, dynamicBinding{sym: sym, old: old, had: old != nil})
	sym.Value = val
}

// PopDynamic restores the most recently pushed dynamic binding. It is
// safe to call from a deferred function during a panic-driven unwind,
// so dynamic-let restores correctly across non-local exits.
func (e *Env) PopDynamic() {
	r := e.root
	n := len(r.dynamic)
	if n == 0 {
		return
	}
	b := r.dynamic[n-1]
	r.dynamic = r.dynamic[:n-1]
	if b.had {
		b.sym.Value = b.old
	} else {
		b.sym.Value = nil
	}
}

// SetDynamic assigns through the innermost active dynamic-let frame
// for sym if one exists, otherwise sets the symbol's global value
// slot directly (set-dynamic).
func (e *Env) SetDynamic(sym *object.Symbol, val object.Object) {
	sym.Value = val
}

// --- non-local-exit frames ----------------------------------------------

// FrameKind distinguishes the three non-local-exit targets.
type FrameKind uint8

const (
	FrameCatch FrameKind = iota
	FrameBlock
	FrameTagbody
)

// ExitFrame is a registered non-local-exit target: a catch tag, a
// block name, or a tagbody's label set. Throw/return-from/go search
// this stack (innermost first) for the nearest matching frame before
// transferring control, and signal control-error if none matches
// — modeled as a stack of frames rather than a linked chain.
type ExitFrame struct {
	ID     uint64
	Kind   FrameKind
	Tag    object.Object // catch tag or block name; identity-compared
	Labels []TagLabel    // tagbody only: label -> form index, in declaration order
}

// TagLabel pairs a tagbody label object with the body index it
// targets. A slice rather than a map because labels must be compared
// with object.Eq (value equality for Fixnum/Character/Float), which a
// native Go map key cannot express.
type TagLabel struct {
	Tag   object.Object
	Index int
}

// PushExitFrame registers a new catch or block frame and returns it;
// callers must defer PopExitFrame to keep the stack balanced across
// every exit path, including panics.
func (e *Env) PushExitFrame(kind FrameKind, tag object.Object) *ExitFrame {
	r := e.root
	r.nextFrame++
	f := &ExitFrame{ID: r.nextFrame, Kind: kind, Tag: tag}
	r.exitFrames = append(r.exitFrames, f)
	return f
}

// PushTagbodyFrame registers a new tagbody frame with its label table.
func (e *Env) PushTagbodyFrame(labels []TagLabel) *ExitFrame {
	r := e.root
	r.nextFrame++
	f := &ExitFrame{ID: r.nextFrame, Kind: FrameTagbody, Labels: labels}
	r.exitFrames = append(r.exitFrames, f)
	return f
}

// PopExitFrame removes the topmost frame (which must be f).
func (e *Env) PopExitFrame(f *ExitFrame) {
	r := e.root
	n := len(r.exitFrames)
	if n == 0 {
		return
	}
	if r.exitFrames[n-1] == f {
		r.exitFrames = r.exitFrames[:n-1]
		return
	}
	// Defensive: a mismatched pop can only happen if a panic bypassed
	// an intervening pop; scrub f out wherever it is.
	for i := n - 1; i >= 0; i-- {
		if r.exitFrames[i] == f {
			r.exitFrames = append(r.exitFrames[:i], r.exitFrames[i+1:]...)
			return
		}
	}
}

// FindCatch returns the nearest enclosing catch frame whose tag is Eq
// to tag, innermost first.
func (e *Env) FindCatch(tag object.Object) (*ExitFrame, bool) {
	r := e.root
	for i := len(r.exitFrames) - 1; i >= 0; i-- {
		f := r.exitFrames[i]
		if f.Kind == FrameCatch && object.Eq(f.Tag, tag) {
			return f, true
		}
	}
	return nil, false
}

// FindBlock returns the nearest enclosing block frame named name.
func (e *Env) FindBlock(name object.Object) (*ExitFrame, bool) {
	r := e.root
	for i := len(r.exitFrames) - 1; i >= 0; i-- {
		f := r.exitFrames[i]
		if f.Kind == FrameBlock && object.Eq(f.Tag, name) {
			return f, true
		}
	}
	return nil, false
}

// FindTagbody returns the nearest enclosing tagbody frame that owns
// label, along with the form index the label maps to.
func (e *Env) FindTagbody(label object.Object) (*ExitFrame, int, bool) {
	r := e.root
	for i := len(r.exitFrames) - 1; i >= 0; i-- {
		f := r.exitFrames[i]
		if f.Kind != FrameTagbody {
			continue
		}
		for _, l := range f.Labels {
			if object.Eq(l.Tag, label) {
				return f, l.Index, true
			}
		}
	}
	return nil, 0, false
}
