package evaluator

import (
	"github.com/awesome-interesting-projects/kiss/internal/environment"
	"github.com/awesome-interesting-projects/kiss/internal/kisserr"
	"github.com/awesome-interesting-projects/kiss/internal/object"
)

// builtinSpecials returns the table of required special operators.
// Each handler receives the operator's argument forms
// unevaluated, exactly as a *object.CSpecial handler would, since
// special operators need full control over which sub-forms are
// evaluated and when.
func builtinSpecials() map[string]specialHandler {
	return map[string]specialHandler{
		"quote":        evalQuote,
		"if":           evalIf,
		"cond":         evalCond,
		"case":         evalCase,
		"case-using":   evalCaseUsing,
		"and":          evalAnd,
		"or":           evalOr,
		"progn":        evalProgn,
		"prog1":        evalProg1,
		"while":        evalWhile,
		"let":          evalLet,
		"let*":         evalLetStar,
		"flet":         evalFlet,
		"labels":       evalLabels,
		"defun":        evalDefun,
		"defmacro":     evalDefmacro,
		"defglobal":    evalDefglobal,
		"defconstant":  evalDefconstant,
		"defdynamic":   evalDefdynamic,
		"dynamic":      evalDynamic,
		"dynamic-let":  evalDynamicLet,
		"set-dynamic":  evalSetDynamic,
		"setq":         evalSetq,
		"lambda":       evalLambdaForm,
		"function":     evalFunction,
		"catch":        evalCatch,
		"throw":        evalThrow,
		"block":        evalBlock,
		"return-from":  evalReturnFrom,
		"tagbody":      evalTagbody,
		"go":           evalGo,
		"unwind-protect": evalUnwindProtect,
		"convert":      evalConvert,
	}
}

func listElems(o object.Object) []object.Object {
	elems, _ := object.ListToSlice(o)
	return elems
}

func nth(elems []object.Object, i int) object.Object {
	if i < 0 || i >= len(elems) {
		return object.Nil
	}
	return elems[i]
}

// --- quote / if / cond / case / and / or / progn / prog1 / while ----------

func evalQuote(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	return nth(listElems(rawArgs), 0), nil
}

func evalIf(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	test, err := e.eval(nth(args, 0), env)
	if err != nil {
		return nil, err
	}
	if object.IsTruthy(test) {
		return e.eval(nth(args, 1), env)
	}
	if len(args) > 2 {
		return e.eval(args[2], env)
	}
	return object.Nil, nil
}

// evalCond implements (cond (test form...) ... ), each clause's test
// evaluated in order; the first truthy test's body (evaluated
// sequentially) supplies the result. No clause matching returns nil.
func evalCond(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	for _, clause := range listElems(rawArgs) {
		parts := listElems(clause)
		if len(parts) == 0 {
			continue
		}
		test, err := e.eval(parts[0], env)
		if err != nil {
			return nil, err
		}
		if object.IsTruthy(test) {
			return e.evalBody(listToBody(parts[1:]), env)
		}
	}
	return object.Nil, nil
}

func listToBody(elems []object.Object) object.Object {
	var result object.Object = object.Nil
	for i := len(elems) - 1; i >= 0; i-- {
		result = object.NewCons(elems[i], result)
	}
	return result
}

// evalCase implements (case keyform ((key...) form...) ... (t form...)),
// comparing keyform's value to each case key with object.Eq.
func evalCase(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	key, err := e.eval(args[0], env)
	if err != nil {
		return nil, err
	}
	for _, clause := range args[1:] {
		parts := listElems(clause)
		if len(parts) == 0 {
			continue
		}
		if sym, ok := parts[0].(*object.Symbol); ok && sym.Name == "t" {
			return e.evalBody(listToBody(parts[1:]), env)
		}
		for _, k := range listElems(parts[0]) {
			if object.Eq(k, key) {
				return e.evalBody(listToBody(parts[1:]), env)
			}
		}
	}
	return object.Nil, nil
}

// evalCaseUsing implements (case-using pred keyform clauses...), the
// same shape as case but comparing with a caller-supplied predicate
// function designator instead of a fixed eq comparison.
func evalCaseUsing(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) < 2 {
		return object.Nil, nil
	}
	predForm, err := e.eval(args[0], env)
	if err != nil {
		return nil, err
	}
	key, err := e.eval(args[1], env)
	if err != nil {
		return nil, err
	}
	for _, clause := range args[2:] {
		parts := listElems(clause)
		if len(parts) == 0 {
			continue
		}
		if sym, ok := parts[0].(*object.Symbol); ok && sym.Name == "t" {
			return e.evalBody(listToBody(parts[1:]), env)
		}
		for _, k := range listElems(parts[0]) {
			result, err := e.invoke(predForm, listToBody([]object.Object{quoted(e, k), quoted(e, key)}), env)
			if err != nil {
				return nil, err
			}
			if object.IsTruthy(result) {
				return e.evalBody(listToBody(parts[1:]), env)
			}
		}
	}
	return object.Nil, nil
}

// quoted wraps an already-evaluated object so it can be passed back
// through invoke (which evaluates C-function/Closure arguments) without
// re-evaluating it.
func quoted(e *Evaluator, o object.Object) object.Object {
	return object.List(e.Syms.Intern("quote"), o)
}

func evalAnd(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	var result object.Object = object.T
	for _, form := range listElems(rawArgs) {
		v, err := e.eval(form, env)
		if err != nil {
			return nil, err
		}
		if object.IsNil(v) {
			return object.Nil, nil
		}
		result = v
	}
	return result, nil
}

func evalOr(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	for _, form := range listElems(rawArgs) {
		v, err := e.eval(form, env)
		if err != nil {
			return nil, err
		}
		if object.IsTruthy(v) {
			return v, nil
		}
	}
	return object.Nil, nil
}

func evalProgn(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	return e.evalBody(rawArgs, env)
}

func evalProg1(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	first, err := e.eval(args[0], env)
	if err != nil {
		return nil, err
	}
	for _, form := range args[1:] {
		if _, err := e.eval(form, env); err != nil {
			return nil, err
		}
	}
	return first, nil
}

func evalWhile(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	test, body := args[0], args[1:]
	for {
		v, err := e.eval(test, env)
		if err != nil {
			return nil, err
		}
		if !object.IsTruthy(v) {
			return object.Nil, nil
		}
		for _, form := range body {
			if _, err := e.eval(form, env); err != nil {
				return nil, err
			}
		}
	}
}

// --- binding operators -------------------------------------------------

// evalLet implements (let ((var init)...) body...): all inits are
// evaluated in the outer environment before any binding takes effect.
func evalLet(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	bindings := listElems(args[0])
	newEnv := environment.NewEnclosed(env)
	vals := make([]object.Object, len(bindings))
	syms := make([]*object.Symbol, len(bindings))
	for i, b := range bindings {
		sym, init, err := parseBinding(b)
		if err != nil {
			return nil, err
		}
		v, err := e.eval(init, env)
		if err != nil {
			return nil, err
		}
		syms[i], vals[i] = sym, v
	}
	for i, sym := range syms {
		newEnv.Bind(sym, vals[i])
	}
	return e.evalBody(listToBody(args[1:]), newEnv)
}

// evalLetStar implements (let* ((var init)...) body...): each init is
// evaluated with the bindings introduced so far already in scope.
func evalLetStar(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	newEnv := environment.NewEnclosed(env)
	for _, b := range listElems(args[0]) {
		sym, init, err := parseBinding(b)
		if err != nil {
			return nil, err
		}
		v, err := e.eval(init, newEnv)
		if err != nil {
			return nil, err
		}
		newEnv.Bind(sym, v)
	}
	return e.evalBody(listToBody(args[1:]), newEnv)
}

func parseBinding(b object.Object) (*object.Symbol, object.Object, error) {
	if sym, ok := b.(*object.Symbol); ok {
		return sym, object.Nil, nil
	}
	parts := listElems(b)
	if len(parts) == 0 {
		return nil, nil, kisserr.NewInvalidCompoundForm(b)
	}
	sym, ok := parts[0].(*object.Symbol)
	if !ok {
		return nil, nil, kisserr.NewDomainError("symbol", parts[0])
	}
	return sym, nth(parts, 1), nil
}

// evalFlet implements (flet ((name (params) body...)...) body...): the
// local functions cannot see each other or themselves (not mutually
// recursive), unlike labels.
func evalFlet(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	newEnv := environment.NewEnclosed(env)
	for _, def := range listElems(args[0]) {
		name, closure, err := parseFunctionDef(def, env)
		if err != nil {
			return nil, err
		}
		newEnv.BindFunction(name, closure)
	}
	return e.evalBody(listToBody(args[1:]), newEnv)
}

// evalLabels implements (labels ((name (params) body...)...) body...):
// every local function's captured environment is newEnv itself, so
// they can call each other and themselves.
func evalLabels(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	newEnv := environment.NewEnclosed(env)
	for _, def := range listElems(args[0]) {
		name, closure, err := parseFunctionDef(def, newEnv)
		if err != nil {
			return nil, err
		}
		newEnv.BindFunction(name, closure)
	}
	return e.evalBody(listToBody(args[1:]), newEnv)
}

func parseFunctionDef(def object.Object, closureEnv *environment.Env) (*object.Symbol, *object.Closure, error) {
	parts := listElems(def)
	if len(parts) < 2 {
		return nil, nil, kisserr.NewInvalidCompoundForm(def)
	}
	name, ok := parts[0].(*object.Symbol)
	if !ok {
		return nil, nil, kisserr.NewDomainError("symbol", parts[0])
	}
	tmpl, err := parseParamTemplate(parts[1])
	if err != nil {
		return nil, nil, err
	}
	return name, &object.Closure{Name: name.Name, Params: tmpl, Body: listToBody(parts[2:]), Env: closureEnv}, nil
}

// evalDefun implements (defun name (params) body...): a global
// function definition, installed on the symbol's Function slot
// directly regardless of lexical nesting (the global function
// namespace), captured over env (top-level def bodies still see
// whatever lexical scope surrounded the defun form).
func evalDefun(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) < 2 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	name, ok := args[0].(*object.Symbol)
	if !ok {
		return nil, kisserr.NewDomainError("symbol", args[0])
	}
	tmpl, err := parseParamTemplate(args[1])
	if err != nil {
		return nil, err
	}
	closure := &object.Closure{Name: name.Name, Params: tmpl, Body: listToBody(args[2:]), Env: env}
	name.Function = closure
	return name, nil
}

func evalDefmacro(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) < 2 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	name, ok := args[0].(*object.Symbol)
	if !ok {
		return nil, kisserr.NewDomainError("symbol", args[0])
	}
	tmpl, err := parseParamTemplate(args[1])
	if err != nil {
		return nil, err
	}
	macro := &object.Macro{Name: name.Name, Params: tmpl, Body: listToBody(args[2:]), Env: env}
	name.Function = macro
	return name, nil
}

func evalDefglobal(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	name, ok := args[0].(*object.Symbol)
	if !ok {
		return nil, kisserr.NewDomainError("symbol", args[0])
	}
	v, err := e.eval(nth(args, 1), env)
	if err != nil {
		return nil, err
	}
	name.Value = v
	return name, nil
}

// evalDefconstant is defglobal with the same mechanics; constancy is
// a usage convention the language defines, not something this
// evaluator enforces with a write-barrier.
func evalDefconstant(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	return evalDefglobal(e, rawArgs, env)
}

// evalDefdynamic declares a dynamic variable's default global value,
// stored in the same symbol.Value slot dynamic-let/set-dynamic/dynamic
// operate on.
func evalDefdynamic(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	return evalDefglobal(e, rawArgs, env)
}

// evalDynamic implements (dynamic name): reads the symbol's dynamic
// (global) value slot directly, bypassing any lexical shadow.
func evalDynamic(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	sym, ok := args[0].(*object.Symbol)
	if !ok {
		return nil, kisserr.NewDomainError("symbol", args[0])
	}
	if sym.Value == nil {
		return nil, kisserr.NewUnboundVariable(sym)
	}
	return sym.Value, nil
}

// evalDynamicLet implements (dynamic-let ((var init)...) body...):
// every push is matched with a deferred pop so the shadow is restored
// on every exit path, including a non-local exit or signalled
// condition unwinding through this frame.
func evalDynamicLet(e *Evaluator, rawArgs object.Object, env *environment.Env) (result object.Object, err error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	bindings := listElems(args[0])
	type pending struct {
		sym *object.Symbol
		val object.Object
	}
	pendings := make([]pending, 0, len(bindings))
	for _, b := range bindings {
		sym, init, err := parseBinding(b)
		if err != nil {
			return nil, err
		}
		v, err := e.eval(init, env)
		if err != nil {
			return nil, err
		}
		pendings = append(pendings, pending{sym, v})
	}
	for _, p := range pendings {
		env.PushDynamic(p.sym, p.val)
	}
	defer func() {
		for range pendings {
			env.PopDynamic()
		}
	}()
	return e.evalBody(listToBody(args[1:]), env)
}

func evalSetDynamic(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) < 2 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	v, err := e.eval(args[0], env)
	if err != nil {
		return nil, err
	}
	sym, ok := args[1].(*object.Symbol)
	if !ok {
		return nil, kisserr.NewDomainError("symbol", args[1])
	}
	env.SetDynamic(sym, v)
	return v, nil
}

func evalSetq(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) < 2 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	sym, ok := args[0].(*object.Symbol)
	if !ok {
		return nil, kisserr.NewDomainError("symbol", args[0])
	}
	v, err := e.eval(args[1], env)
	if err != nil {
		return nil, err
	}
	env.SetVar(sym, v)
	return v, nil
}

func evalLambdaForm(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	return e.makeLambda(rawArgs, env)
}

// evalFunction implements (function f): f is either a symbol (function
// lookup) or a (lambda ...) form (built into a fresh closure); it is
// never evaluated as a general expression.
func evalFunction(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	switch f := args[0].(type) {
	case *object.Symbol:
		fn, ok := env.LookupFunction(f)
		if !ok {
			return nil, kisserr.NewUnboundFunction(f)
		}
		return fn, nil
	case *object.Cons:
		if sym, ok := f.Car.(*object.Symbol); ok && sym.Name == "lambda" {
			return e.makeLambda(f.Cdr, env)
		}
		return nil, kisserr.NewInvalidCompoundForm(f)
	default:
		return nil, kisserr.NewInvalidCompoundForm(f)
	}
}

// --- non-local exits ------------------------------------------------------

func evalCatch(e *Evaluator, rawArgs object.Object, env *environment.Env) (result object.Object, err error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	tag, err := e.eval(args[0], env)
	if err != nil {
		return nil, err
	}
	watermark := e.Heap.Watermark()
	frame := env.PushExitFrame(environment.FrameCatch, tag)
	defer env.PopExitFrame(frame)
	defer func() {
		if r := recover(); r != nil {
			if v, _, ok := environment.Recover(frame, r); ok {
				e.Heap.Rewind(watermark)
				result, err = v, nil
				return
			}
			panic(r)
		}
	}()
	result, err = e.evalBody(listToBody(args[1:]), env)
	if err != nil {
		e.Heap.Rewind(watermark)
		return nil, err
	}
	e.Heap.Compact(watermark, result)
	return result, nil
}

func evalThrow(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) < 2 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	tag, err := e.eval(args[0], env)
	if err != nil {
		return nil, err
	}
	val, err := e.eval(args[1], env)
	if err != nil {
		return nil, err
	}
	frame, ok := env.FindCatch(tag)
	if !ok {
		return nil, kisserr.New(kisserr.ControlError, "no enclosing catch for tag ~S", tag)
	}
	environment.Throw(frame, val)
	panic("unreachable") // Throw always panics.
}

func evalBlock(e *Evaluator, rawArgs object.Object, env *environment.Env) (result object.Object, err error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	name, ok := args[0].(*object.Symbol)
	if !ok {
		return nil, kisserr.NewDomainError("symbol", args[0])
	}
	watermark := e.Heap.Watermark()
	frame := env.PushExitFrame(environment.FrameBlock, name)
	defer env.PopExitFrame(frame)
	defer func() {
		if r := recover(); r != nil {
			if v, _, ok := environment.Recover(frame, r); ok {
				e.Heap.Rewind(watermark)
				result, err = v, nil
				return
			}
			panic(r)
		}
	}()
	result, err = e.evalBody(listToBody(args[1:]), env)
	if err != nil {
		e.Heap.Rewind(watermark)
		return nil, err
	}
	e.Heap.Compact(watermark, result)
	return result, nil
}

func evalReturnFrom(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	name, ok := args[0].(*object.Symbol)
	if !ok {
		return nil, kisserr.NewDomainError("symbol", args[0])
	}
	val, err := e.eval(nth(args, 1), env)
	if err != nil {
		return nil, err
	}
	frame, ok := env.FindBlock(name)
	if !ok {
		return nil, kisserr.New(kisserr.ControlError, "no enclosing block named ~S", name)
	}
	environment.ReturnFrom(frame, val)
	panic("unreachable")
}

// evalTagbody implements (tagbody tag1 form1 form2 tag2 form3 ...): an
// iterative outer loop around a recoverable inner stepper, since
// Go's recover() can only let the panicking function return, never
// resume execution inside it. A `go` panics with the target index; the
// recover handler here reports it via named returns, and the outer
// loop re-enters runTagbodyFrom at the new position rather than trying
// to "continue" the unwound call.
func evalTagbody(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	forms := listElems(rawArgs)
	var labels []environment.TagLabel
	for i, f := range forms {
		switch f.(type) {
		case *object.Symbol, *object.Fixnum:
			labels = append(labels, environment.TagLabel{Tag: f, Index: i})
		}
	}
	watermark := e.Heap.Watermark()
	frame := env.PushTagbodyFrame(labels)
	defer env.PopExitFrame(frame)

	pos := 0
	for pos < len(forms) {
		next, jumped, err := runTagbodyFrom(e, forms, pos, frame, env, watermark)
		if err != nil {
			e.Heap.Rewind(watermark)
			return nil, err
		}
		if jumped {
			pos = next
			continue
		}
		break
	}
	e.Heap.Compact(watermark, object.Nil)
	return object.Nil, nil
}

// runTagbodyFrom evaluates forms[start:], skipping label markers,
// until either the end of the body or a `go` panic addressed to frame
// is recovered. A recovered `go` is itself a non-local exit from the
// forms evaluated since watermark, so it rewinds the heap just like
// catch/throw and block/return-from do.
func runTagbodyFrom(e *Evaluator, forms []object.Object, start int, frame *environment.ExitFrame, env *environment.Env, watermark int) (next int, jumped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, idx, ok := environment.Recover(frame, r); ok {
				e.Heap.Rewind(watermark)
				next, jumped, err = idx, true, nil
				return
			}
			panic(r)
		}
	}()
	for i := start; i < len(forms); i++ {
		switch forms[i].(type) {
		case *object.Symbol, *object.Fixnum:
			continue // label marker, not a form to evaluate
		}
		if _, evalErr := e.eval(forms[i], env); evalErr != nil {
			return 0, false, evalErr
		}
	}
	return 0, false, nil
}

func evalGo(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	label := args[0]
	frame, idx, ok := env.FindTagbody(label)
	if !ok {
		return nil, kisserr.New(kisserr.ControlError, "no enclosing tagbody label ~S", label)
	}
	environment.Goto(frame, idx)
	panic("unreachable")
}

// evalUnwindProtect implements (unwind-protect protected cleanup...):
// cleanup forms run, in order, whenever protected form's evaluation
// completes — normally, via a condition, or via a non-local exit
// passing through. Go's defer gives this for free: the cleanup loop
// below always runs before the panic (if any) continues propagating.
func evalUnwindProtect(e *Evaluator, rawArgs object.Object, env *environment.Env) (result object.Object, err error) {
	args := listElems(rawArgs)
	if len(args) == 0 {
		return object.Nil, nil
	}
	protected, cleanups := args[0], args[1:]
	defer func() {
		for _, c := range cleanups {
			// Cleanup errors do not mask an in-flight panic (non-local
			// exit or condition); they only surface if nothing is
			// already unwinding.
			if _, cleanupErr := e.eval(c, env); cleanupErr != nil && err == nil {
				err = cleanupErr
			}
		}
	}()
	return e.eval(protected, env)
}

// evalConvert implements (convert obj class-name): a kind-directed
// conversion dispatcher. The full ISLISP numeric-tower/class-lattice
// conversion table is out of scope for this evaluator; the cases here
// cover the conversions a complete core needs most (string/symbol/
// character/number interplay), grounded on the printer's own
// object-to-text rendering for the string direction.
func evalConvert(e *Evaluator, rawArgs object.Object, env *environment.Env) (object.Object, error) {
	args := listElems(rawArgs)
	if len(args) < 2 {
		return nil, kisserr.NewInvalidCompoundForm(rawArgs)
	}
	obj, err := e.eval(args[0], env)
	if err != nil {
		return nil, err
	}
	classArg, err := e.eval(args[1], env)
	if err != nil {
		return nil, err
	}
	className, ok := classArg.(*object.Symbol)
	if !ok {
		return nil, kisserr.NewDomainError("symbol", classArg)
	}
	return convertTo(e.Syms, obj, className.Name)
}
