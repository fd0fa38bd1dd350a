// Package evaluator implements the recursive tree-walking evaluator:
// form dispatch, the five callable-flavor invocation protocol, the
// required special operators, and non-local exits. The overall shape —
// a central Eval entry point that switches on node kind and recurses —
// carries over from a typed-AST dispatch loop generalized to a
// dispatch over the dynamically-typed object universe, and the
// invoke/heap-watermark contract is grounded on original_source/eval.c.
//
// Signalled conditions travel as ordinary *kisserr.Condition error
// returns, checked and passed up by every frame; Eval additionally
// recovers a *kisserr.Condition panic and returns it as an error.
// Non-local exits (catch/throw, block/return-from, tagbody/go) instead
// panic with the unexported unwind type from internal/environment and
// are recovered only by the frame they are addressed to, so frames in
// between need no code to pass them along. unwind-protect runs its
// cleanup forms from a deferred function, so they run on every exit
// path: a normal return, an error return, or a non-local exit passing
// through.
package evaluator

import (
	"github.com/awesome-interesting-projects/kiss/internal/environment"
	"github.com/awesome-interesting-projects/kiss/internal/heap"
	"github.com/awesome-interesting-projects/kiss/internal/kisserr"
	"github.com/awesome-interesting-projects/kiss/internal/object"
	"github.com/awesome-interesting-projects/kiss/internal/symtab"
)

// Evaluator holds the process-wide collaborators the evaluator needs
// to allocate objects and intern symbols while walking a form.
type Evaluator struct {
	Syms *symtab.Table
	Heap *heap.Heap

	specials     map[string]specialHandler
	maxCallDepth int
	callDepth    int
}

type specialHandler func(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error)

const defaultMaxCallDepth = 10_000

// New creates an Evaluator and registers the required special operators.
func New(syms *symtab.Table, h *heap.Heap) *Evaluator {
	e := &Evaluator{Syms: syms, Heap: h, maxCallDepth: defaultMaxCallDepth}
	e.specials = builtinSpecials()
	return e
}

// WithMaxCallDepth overrides the nested-invoke depth above which invoke
// signals storage-exhausted rather than growing the Go call stack
// without bound. It mirrors the call-stack depth limit a host runtime
// enforces to turn unbounded recursion into a catchable condition
// instead of a process-ending stack overflow.
func (e *Evaluator) WithMaxCallDepth(n int) *Evaluator {
	e.maxCallDepth = n
	return e
}

// Eval evaluates form in env.
func (e *Evaluator) Eval(form object.Object, env *environment.Env) (result object.Object, err error) {
	defer func() {
		if r := recover(); r != nil {
			if cond, ok := r.(*kisserr.Condition); ok {
				err = cond
				return
			}
			panic(r)
		}
	}()
	return e.eval(form, env)
}

func (e *Evaluator) eval(form object.Object, env *environment.Env) (object.Object, error) {
	switch f := form.(type) {
	case *object.Symbol:
		if f.SelfEvaluating() {
			return f, nil
		}
		v, ok := env.LookupVar(f)
		if !ok {
			return nil, kisserr.NewUnboundVariable(f)
		}
		return v, nil
	case *object.Cons:
		return e.evalCompoundForm(f, env)
	default:
		// numbers, characters, strings, vectors, arrays, hash tables,
		// streams, ILOS objects, nil/t already handled via Symbol case.
		return form, nil
	}
}

func (e *Evaluator) evalCompoundForm(p *object.Cons, env *environment.Env) (object.Object, error) {
	op := p.Car
	switch head := op.(type) {
	case *object.Symbol:
		if sp, ok := e.specials[head.Name]; ok {
			return sp(e, p.Cdr, env)
		}
		fn, ok := env.LookupFunction(head)
		if !ok {
			return nil, kisserr.NewUnboundFunction(head)
		}
		return e.invoke(fn, p.Cdr, env)
	case *object.Cons:
		if sym, ok := head.Car.(*object.Symbol); ok && sym.Name == "lambda" {
			closure, err := e.makeLambda(head.Cdr, env)
			if err != nil {
				return nil, err
			}
			return e.invoke(closure, p.Cdr, env)
		}
		return nil, kisserr.NewInvalidCompoundForm(p)
	default:
		return nil, kisserr.NewInvalidCompoundForm(p)
	}
}

// invoke implements the callable-flavor dispatch table, wrapped in
// the heap watermark/compaction contract: the heap
// index is snapshotted before the call and, if the call grew the
// heap, the result is compacted back down into the snapshot slot.
func (e *Evaluator) invoke(callable object.Object, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	if e.callDepth >= e.maxCallDepth {
		return nil, kisserr.NewStorageExhausted()
	}
	e.callDepth++
	defer func() { e.callDepth-- }()

	watermark := e.Heap.Watermark()
	result, err := e.invokeRaw(callable, rawArgs, env)
	if err != nil {
		e.Heap.Rewind(watermark)
		return nil, err
	}
	e.Heap.Compact(watermark, result)
	return result, nil
}

func (e *Evaluator) invokeRaw(callable object.Object, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	switch f := callable.(type) {
	case *object.CFunction:
		args, err := e.evalArgs(rawArgs, env)
		if err != nil {
			return nil, err
		}
		if err := checkArity(f.Name, f.MinArity, f.MaxArity, len(args)); err != nil {
			return nil, err
		}
		return f.Handler(args)
	case *object.CSpecial:
		n := object.Length(rawArgs)
		if err := checkArity(f.Name, f.MinArity, f.MaxArity, n); err != nil {
			return nil, err
		}
		return f.Handler(rawArgs, env)
	case *object.Closure:
		args, err := e.evalArgs(rawArgs, env)
		if err != nil {
			return nil, err
		}
		return e.applyClosure(f, args)
	case *object.Macro:
		return e.applyMacro(f, rawArgs, env)
	case *object.ILOSObject:
		if f.IsGenericFunction {
			args, err := e.evalArgs(rawArgs, env)
			if err != nil {
				return nil, err
			}
			if f.GenericInvoke == nil {
				return nil, kisserr.NewUndefinedMethod(f.ClassName)
			}
			return f.GenericInvoke(f, args)
		}
		if f.MethodInvoke == nil {
			return nil, kisserr.NewUndefinedMethod(f.ClassName)
		}
		args, err := e.evalArgs(rawArgs, env)
		if err != nil {
			return nil, err
		}
		return f.MethodInvoke(f, args)
	default:
		return nil, kisserr.New(kisserr.DomainError, "cannot invoke function-like object ~S", callable)
	}
}

// applyMacro runs the macro's expander (body evaluated with its
// parameters bound to the unevaluated argument forms, in the macro's
// own closure environment) and then evaluates the resulting form in
// the environment active at the macro's call site: a macro's handler
// returns a form, and that form is then evaluated at the call site.
func (e *Evaluator) applyMacro(m *object.Macro, rawArgs object.Object, callSiteEnv *environment.Env) (object.Object, error) {
	args, ok := object.ListToSlice(rawArgs)
	if !ok {
		return nil, kisserr.NewImproperList(rawArgs)
	}
	macroEnv := environment.NewEnclosed(m.Env.(*environment.Env))
	if err := bindParams(macroEnv, m.Params, args); err != nil {
		return nil, err
	}
	expansion, err := e.evalBody(m.Body, macroEnv)
	if err != nil {
		return nil, err
	}
	return e.eval(expansion, callSiteEnv)
}

func (e *Evaluator) applyClosure(c *object.Closure, args []object.Object) (object.Object, error) {
	callEnv := environment.NewEnclosed(c.Env.(*environment.Env))
	if err := bindParams(callEnv, c.Params, args); err != nil {
		return nil, err
	}
	return e.evalBody(c.Body, callEnv)
}

// evalBody evaluates a sequence of forms in order: all but the last
// form's result is discarded; an empty body returns nil.
func (e *Evaluator) evalBody(body object.Object, env *environment.Env) (object.Object, error) {
	var result object.Object = object.Nil
	for cur := body; object.IsCons(cur); {
		c := cur.(*object.Cons)
		v, err := e.eval(c.Car, env)
		if err != nil {
			return nil, err
		}
		result = v
		cur = c.Cdr
	}
	return result, nil
}

func (e *Evaluator) evalArgs(args object.Object, env *environment.Env) ([]object.Object, error) {
	elems, ok := object.ListToSlice(args)
	if !ok {
		return nil, kisserr.NewImproperList(args)
	}
	result := make([]object.Object, len(elems))
	for i, a := range elems {
		v, err := e.eval(a, env)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func bindParams(env *environment.Env, tmpl *object.ParamTemplate, args []object.Object) error {
	if err := checkArity("lambda", tmpl.MinArity(), tmpl.MaxArity(), len(args)); err != nil {
		return err
	}
	for i, sym := range tmpl.Required {
		env.Bind(sym, args[i])
	}
	if tmpl.Rest != nil {
		var rest object.Object = object.Nil
		for i := len(args) - 1; i >= len(tmpl.Required); i-- {
			rest = object.NewCons(args[i], rest)
		}
		env.Bind(tmpl.Rest, rest)
	}
	return nil
}

func checkArity(name string, min, max, got int) error {
	if got < min || (max >= 0 && got > max) {
		return kisserr.NewArityError(name, min, max, got)
	}
	return nil
}

// makeLambda builds a Closure from a raw (params . body) form and the
// environment active at the point a `(lambda ...)` head is invoked
// directly as a compound-form operator: a cons whose car is the
// symbol lambda is made into an anonymous closure and invoked.
func (e *Evaluator) makeLambda(rawParamsAndBody object.Object, env *environment.Env) (*object.Closure, error) {
	c, ok := rawParamsAndBody.(*object.Cons)
	if !ok {
		return nil, kisserr.NewInvalidCompoundForm(rawParamsAndBody)
	}
	tmpl, err := parseParamTemplate(c.Car)
	if err != nil {
		return nil, err
	}
	closure := &object.Closure{Params: tmpl, Body: c.Cdr, Env: env}
	return closure, nil
}

// parseParamTemplate parses a parameter list into required symbols
// optionally followed by &rest/:rest SYM.
func parseParamTemplate(paramList object.Object) (*object.ParamTemplate, error) {
	elems, ok := object.ListToSlice(paramList)
	if !ok {
		return nil, kisserr.NewImproperList(paramList)
	}
	tmpl := &object.ParamTemplate{}
	for i := 0; i < len(elems); i++ {
		sym, ok := elems[i].(*object.Symbol)
		if !ok {
			return nil, kisserr.NewDomainError("symbol", elems[i])
		}
		if sym.Name == "&rest" || sym.Name == ":rest" {
			if i+1 >= len(elems) {
				return nil, kisserr.NewInvalidCompoundForm(paramList)
			}
			restSym, ok := elems[i+1].(*object.Symbol)
			if !ok {
				return nil, kisserr.NewDomainError("symbol", elems[i+1])
			}
			tmpl.Rest = restSym
			break
		}
		tmpl.Required = append(tmpl.Required, sym)
	}
	return tmpl, nil
}
