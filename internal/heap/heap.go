// Package heap implements the append-only arena and watermark protocol
// that forms the evaluator's contract with the garbage collector. The
// collector's own mark-and-sweep algorithm is out of scope — an
// external collaborator; this package models only the
// allocation/registration, watermark snapshot/restore, and soft-limit
// signalling the evaluator depends on.
package heap

import "github.com/awesome-interesting-projects/kiss/internal/object"

// Heap is the evaluator's view of the object arena: a stack of every
// heap-allocated object in allocation order, with a current index (the
// "top" of the stack).
type Heap struct {
	stack      []object.Object
	softLimit  int
	overLimit  bool
}

// Option configures a Heap at construction time.
type Option func(*Heap)

// WithSoftLimit sets the object count above which the collector would
// be free to run. This package does not itself run a
// collector; it only tracks whether the limit has been crossed so a
// host can act on it (e.g. logging, or triggering its own GC pass).
func WithSoftLimit(n int) Option {
	return func(h *Heap) { h.softLimit = n }
}

// New creates an empty heap with the given initial capacity hint.
func New(initialCapacity int, opts ...Option) *Heap {
	h := &Heap{stack: make([]object.Object, 0, initialCapacity), softLimit: 1_000_000}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register records obj as newly allocated: every constructor
// registers its result with the heap before returning, appending the
// new object to the heap stack at the current index and incrementing
// the index. Callers are expected to call Register immediately after
// allocating any
// heap-owned object (Cons, Vector, Array, String, HashTable, Stream,
// Closure, Macro, ILOSObject — anything past the Symbol variant in
// the object universe's ownership table).
func (h *Heap) Register(obj object.Object) object.Object {
	h.stack = append(h.stack, obj)
	if len(h.stack) > h.softLimit {
		h.overLimit = true
	}
	return obj
}

// Watermark returns the current index, to be snapshotted before
// invoking a callable.
func (h *Heap) Watermark() int { return len(h.stack) }

// Compact runs the post-call compaction step: after a callable
// returns, if the heap grew past the snapshot, the result (if
// heap-allocated) is moved into the watermark slot and the index is
// rewound to watermark+1 —
// not simply rewound to the watermark. This exact off-by-one is
// carried over from original_source/eval.c's kiss_invoke.
func (h *Heap) Compact(watermark int, result object.Object) {
	if watermark >= len(h.stack) {
		return
	}
	if isHeapOwned(result) {
		h.stack[watermark] = result
		h.stack = h.stack[:watermark+1]
	} else {
		h.stack = h.stack[:watermark]
	}
}

// Rewind discards every object registered since watermark without
// preserving a result. Non-local exits (catch/throw, block/return-from,
// tagbody/go) rewind the watermark to the catching frame's snapshot
// since their unwound intermediates are not the call's eventual
// result.
func (h *Heap) Rewind(watermark int) {
	if watermark < len(h.stack) {
		h.stack = h.stack[:watermark]
	}
}

// OverSoftLimit reports whether the heap has ever exceeded its
// configured soft limit; a host embedding may poll this to decide when
// to run its own collection pass (the collector itself is not
// implemented here — it is free to run once this is true).
func (h *Heap) OverSoftLimit() bool { return h.overLimit }

// Len reports the number of live (registered, not yet rewound) objects.
func (h *Heap) Len() int { return len(h.stack) }

// Roots returns the heap stack up to the current index, which the
// collector must treat as roots alongside the symbol table and the
// lexical/dynamic frames.
func (h *Heap) Roots() []object.Object { return h.stack }

// isHeapOwned reports whether obj is one of the variants the object
// universe's ownership table places on the heap (Cons onward) rather than a
// process-lifetime singleton or interned symbol.
func isHeapOwned(obj object.Object) bool {
	if obj == nil {
		return false
	}
	switch obj.(type) {
	case *object.Symbol:
		return false
	default:
		return true
	}
}
