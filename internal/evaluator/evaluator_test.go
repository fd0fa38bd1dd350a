package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/awesome-interesting-projects/kiss/internal/environment"
	"github.com/awesome-interesting-projects/kiss/internal/heap"
	"github.com/awesome-interesting-projects/kiss/internal/object"
	"github.com/awesome-interesting-projects/kiss/internal/printer"
	"github.com/awesome-interesting-projects/kiss/internal/reader"
	"github.com/awesome-interesting-projects/kiss/internal/symtab"
)

// fixture bundles the collaborators a form needs to be read and
// evaluated, mirroring the shape pkg/kiss.New wires together.
type fixture struct {
	syms *symtab.Table
	heap *heap.Heap
	eval *Evaluator
	env  *environment.Env
}

func newFixture() *fixture {
	syms := symtab.New()
	h := heap.New(1024)
	e := New(syms, h)
	InstallBuiltins(syms, h, e)
	return &fixture{syms: syms, heap: h, eval: e, env: environment.New()}
}

// eval reads and evaluates every top-level form in src, returning the
// last form's result.
func (f *fixture) eval(t *testing.T, src string) (object.Object, error) {
	t.Helper()
	r := reader.NewFromString(src, f.syms, f.heap)
	var result object.Object = object.Nil
	for {
		form, err := r.Read()
		if err != nil {
			break
		}
		result, err = f.eval.Eval(form, f.env)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// run evaluates src and returns its printed result, failing the test
// on error.
func (f *fixture) run(t *testing.T, src string) string {
	t.Helper()
	v, err := f.eval(t, src)
	assert.NoError(t, err)
	return printer.Print(v)
}

// runErr evaluates src and returns the error, failing the test if
// evaluation succeeds.
func (f *fixture) runErr(t *testing.T, src string) error {
	t.Helper()
	_, err := f.eval(t, src)
	assert.Error(t, err)
	return err
}

func TestEvalSelfEvaluatingAtoms(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "42", f.run(t, "42"))
	assert.Equal(t, "1.5", f.run(t, "1.5"))
	assert.Equal(t, `"hi"`, f.run(t, `"hi"`))
	assert.Equal(t, "nil", f.run(t, "nil"))
	assert.Equal(t, "t", f.run(t, "t"))
}

func TestEvalQuote(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "(1 2 3)", f.run(t, "(quote (1 2 3))"))
	assert.Equal(t, "foo", f.run(t, "'foo"))
}

func TestEvalUnboundVariableIsError(t *testing.T) {
	f := newFixture()
	f.runErr(t, "never-bound-var")
}

func TestEvalUnboundFunctionIsError(t *testing.T) {
	f := newFixture()
	f.runErr(t, "(never-defined-fn 1 2)")
}

func TestEvalIf(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "1", f.run(t, "(if t 1 2)"))
	assert.Equal(t, "2", f.run(t, "(if nil 1 2)"))
	assert.Equal(t, "nil", f.run(t, "(if nil 1)"))
}

func TestEvalCond(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "2", f.run(t, "(cond (nil 1) (t 2) (t 3))"))
	assert.Equal(t, "nil", f.run(t, "(cond (nil 1))"))
}

func TestEvalCase(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "b-result", f.run(t, `(case 2 ((1) 'a-result) ((2 3) 'b-result) (t 'default))`))
	assert.Equal(t, "default", f.run(t, `(case 99 ((1) 'a-result) (t 'default))`))
}

func TestEvalAndOr(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "3", f.run(t, "(and 1 2 3)"))
	assert.Equal(t, "nil", f.run(t, "(and 1 nil 3)"))
	assert.Equal(t, "1", f.run(t, "(or 1 2)"))
	assert.Equal(t, "2", f.run(t, "(or nil 2)"))
	assert.Equal(t, "nil", f.run(t, "(or nil nil)"))
}

func TestEvalProgn(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "3", f.run(t, "(progn 1 2 3)"))
}

func TestEvalProg1(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "1", f.run(t, "(prog1 1 2 3)"))
}

func TestEvalWhile(t *testing.T) {
	f := newFixture()
	f.run(t, "(defglobal n 0)")
	f.run(t, "(defglobal acc 0)")
	f.run(t, "(while (< n 5) (setq acc (+ acc n)) (setq n (+ n 1)))")
	assert.Equal(t, "10", f.run(t, "acc"))
}

func TestEvalLet(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "3", f.run(t, "(let ((x 1) (y 2)) (+ x y))"))
}

func TestEvalLetBindingsSeeOuterScopeNotEachOther(t *testing.T) {
	f := newFixture()
	f.run(t, "(defglobal x 100)")
	// y's init sees the outer x (100), not the about-to-be-bound local x (1).
	assert.Equal(t, "101", f.run(t, "(let ((x 1) (y (+ x 1))) y)"))
}

func TestEvalLetStarBindingsSeeEachOther(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "2", f.run(t, "(let* ((x 1) (y (+ x 1))) y)"))
}

func TestEvalSetq(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "5", f.run(t, "(let ((x 1)) (setq x 5) x)"))
}

func TestEvalSetqOnUnboundGlobalCreatesGlobal(t *testing.T) {
	f := newFixture()
	f.run(t, "(setq brand-new 9)")
	assert.Equal(t, "9", f.run(t, "brand-new"))
}

func TestEvalLambdaAndFuncall(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "3", f.run(t, "(funcall (lambda (x y) (+ x y)) 1 2)"))
}

func TestEvalLambdaAsDirectOperator(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "3", f.run(t, "((lambda (x y) (+ x y)) 1 2)"))
}

func TestEvalLambdaWithRestParam(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "(2 3)", f.run(t, "(funcall (lambda (x &rest xs) xs) 1 2 3)"))
}

func TestEvalDefunAndCall(t *testing.T) {
	f := newFixture()
	f.run(t, "(defun square (x) (* x x))")
	assert.Equal(t, "9", f.run(t, "(square 3)"))
}

func TestEvalDefunRecursion(t *testing.T) {
	f := newFixture()
	f.run(t, `(defun fact (n) (if (< n 2) 1 (* n (fact (- n 1)))))`)
	assert.Equal(t, "120", f.run(t, "(fact 5)"))
}

func TestEvalDefmacroExpandsAtCallSite(t *testing.T) {
	f := newFixture()
	f.run(t, "(defmacro my-if (test then else) (list 'cond (list test then) (list t else)))")
	assert.Equal(t, "1", f.run(t, "(my-if t 1 2)"))
	assert.Equal(t, "2", f.run(t, "(my-if nil 1 2)"))
}

func TestEvalFletIsNotMutuallyRecursive(t *testing.T) {
	f := newFixture()
	f.runErr(t, `(flet ((even? (n) (if (= n 0) t (odd? (- n 1)))) (odd? (n) (if (= n 0) nil (even? (- n 1))))) (even? 4))`)
}

func TestEvalLabelsIsMutuallyRecursive(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "t", f.run(t, `(labels ((even? (n) (if (= n 0) t (odd? (- n 1)))) (odd? (n) (if (= n 0) nil (even? (- n 1))))) (even? 4))`))
}

func TestEvalDefglobalAndDefconstant(t *testing.T) {
	f := newFixture()
	f.run(t, "(defglobal g 1)")
	f.run(t, "(defconstant k 2)")
	assert.Equal(t, "3", f.run(t, "(+ g k)"))
}

func TestEvalDynamicVariables(t *testing.T) {
	f := newFixture()
	f.run(t, "(defdynamic *v* 1)")
	assert.Equal(t, "1", f.run(t, "(dynamic *v*)"))
	assert.Equal(t, "2", f.run(t, "(dynamic-let ((*v* 2)) (dynamic *v*))"))
	assert.Equal(t, "1", f.run(t, "(dynamic *v*)"), "dynamic-let restores the prior value on exit")
}

func TestEvalSetDynamic(t *testing.T) {
	f := newFixture()
	f.run(t, "(defdynamic *v* 1)")
	f.run(t, "(set-dynamic 9 *v*)")
	assert.Equal(t, "9", f.run(t, "(dynamic *v*)"))
}

func TestEvalFunctionSpecialFormLooksUpWithoutCalling(t *testing.T) {
	f := newFixture()
	f.run(t, "(defun double (x) (* x 2))")
	assert.Equal(t, "6", f.run(t, "(funcall (function double) 3)"))
}

func TestEvalCatchThrow(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "42", f.run(t, "(catch 'tag (throw 'tag 42) 99)"))
	assert.Equal(t, "99", f.run(t, "(catch 'tag 99)"), "catch with no throw returns the body's value")
}

func TestEvalThrowWithNoEnclosingCatchIsControlError(t *testing.T) {
	f := newFixture()
	f.runErr(t, "(throw 'no-such-tag 1)")
}

func TestEvalBlockReturnFrom(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "42", f.run(t, "(block done (return-from done 42) 99)"))
	assert.Equal(t, "99", f.run(t, "(block done 99)"))
}

func TestEvalReturnFromNestedBlockTargetsNamedBlock(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "outer-val", f.run(t, `(block outer (block inner (return-from outer 'outer-val)) 'unreached)`))
}

func TestEvalTagbodyGo(t *testing.T) {
	f := newFixture()
	f.run(t, "(defglobal i 0)")
	f.run(t, "(defglobal total 0)")
	f.run(t, `(tagbody
	           top
	           (if (= i 3) (go done) nil)
	           (setq total (+ total i))
	           (setq i (+ i 1))
	           (go top)
	           done)`)
	assert.Equal(t, "3", f.run(t, "total"))
}

func TestEvalGoWithNoEnclosingTagbodyIsControlError(t *testing.T) {
	f := newFixture()
	f.runErr(t, "(go nowhere)")
}

// parseOne reads a single form from src so its own parse-time
// representation is already on the heap before a caller takes a
// watermark, isolating evaluation-time heap growth from parse-time growth.
func (f *fixture) parseOne(t *testing.T, src string) object.Object {
	t.Helper()
	form, err := reader.NewFromString(src, f.syms, f.heap).Read()
	assert.NoError(t, err)
	return form
}

func TestThrowRewindsHeapGarbageFromProtectedBody(t *testing.T) {
	f := newFixture()
	form := f.parseOne(t, "(catch 'tag (cons 1 2) (throw 'tag 'done))")

	before := f.heap.Watermark()
	_, err := f.eval.Eval(form, f.env)
	assert.NoError(t, err)
	assert.Equal(t, before, f.heap.Watermark(), "throw must rewind heap objects allocated before it in the catch body")
}

func TestReturnFromRewindsHeapGarbageFromProtectedBody(t *testing.T) {
	f := newFixture()
	form := f.parseOne(t, "(block done (cons 1 2) (return-from done 'ok))")

	before := f.heap.Watermark()
	_, err := f.eval.Eval(form, f.env)
	assert.NoError(t, err)
	assert.Equal(t, before, f.heap.Watermark(), "return-from must rewind heap objects allocated before it in the block body")
}

func TestGoRewindsHeapGarbageFromSkippedIteration(t *testing.T) {
	f := newFixture()
	form := f.parseOne(t, `(tagbody
	           (cons 1 2)
	           (go done)
	           (cons 3 4)
	           done)`)

	before := f.heap.Watermark()
	_, err := f.eval.Eval(form, f.env)
	assert.NoError(t, err)
	assert.Equal(t, before, f.heap.Watermark(), "go must rewind heap objects allocated since the tagbody began")
}

func TestEvalUnwindProtectRunsCleanupOnNormalExit(t *testing.T) {
	f := newFixture()
	f.run(t, "(defglobal cleaned nil)")
	assert.Equal(t, "1", f.run(t, "(unwind-protect 1 (setq cleaned t))"))
	assert.Equal(t, "t", f.run(t, "cleaned"))
}

func TestEvalUnwindProtectRunsCleanupOnNonLocalExit(t *testing.T) {
	f := newFixture()
	f.run(t, "(defglobal cleaned nil)")
	assert.Equal(t, "done", f.run(t, "(block b (unwind-protect (return-from b 'done) (setq cleaned t)))"))
	assert.Equal(t, "t", f.run(t, "cleaned"))
}

func TestConvertBuiltinNumberToString(t *testing.T) {
	f := newFixture()
	assert.Equal(t, `"42"`, f.run(t, "(convert 42 '<string>)"))
}

func TestConvertBuiltinStringToInteger(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "42", f.run(t, `(convert "42" '<integer>)`))
}

func TestConvertBuiltinStringToSymbolInternsIntoSymbolTable(t *testing.T) {
	f := newFixture()
	v, err := f.eval(t, `(convert "new-sym" '<symbol>)`)
	assert.NoError(t, err)
	sym, ok := v.(*object.Symbol)
	assert.True(t, ok, "expected a *object.Symbol, got %T", v)
	assert.Equal(t, "new-sym", sym.Name)

	found, ok := f.syms.Find("new-sym")
	assert.True(t, ok, "conversion must intern into the shared symbol table")
	assert.Same(t, sym, found)
}

func TestConvertBuiltinSymbolToSymbolIsIdentity(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "foo", f.run(t, "(convert 'foo '<symbol>)"))
}

func TestConvertBuiltinIntegerToFloat(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "42.0", f.run(t, "(convert 42 '<float>)"))
}

func TestMaxCallDepthSignalsStorageExhausted(t *testing.T) {
	f := newFixture()
	f.eval.WithMaxCallDepth(8)
	f.run(t, "(defun recur (n) (recur (+ n 1)))")
	err := f.runErr(t, "(recur 0)")
	assert.Contains(t, err.Error(), "storage-exhausted")
}

func TestInvokeRawDispatchesGenericFunctionToGenericInvoke(t *testing.T) {
	f := newFixture()
	gf := &object.ILOSObject{
		ClassName:         "<standard-generic-function>",
		IsGenericFunction: true,
		GenericInvoke: func(self *object.ILOSObject, args []object.Object) (object.Object, error) {
			sum := int64(0)
			for _, a := range args {
				sum += a.(*object.Fixnum).Value
			}
			return object.NewFixnum(sum), nil
		},
	}
	f.env.BindFunction(f.syms.Intern("area"), gf)
	assert.Equal(t, "6", f.run(t, "(area 1 2 3)"))
}

func TestInvokeRawDispatchesMethodObjectToMethodInvoke(t *testing.T) {
	f := newFixture()
	method := &object.ILOSObject{
		ClassName: "<method>",
		MethodInvoke: func(self *object.ILOSObject, args []object.Object) (object.Object, error) {
			return args[0], nil
		},
	}
	f.env.BindFunction(f.syms.Intern("identity-method"), method)
	assert.Equal(t, "42", f.run(t, "(identity-method 42)"))
}

func TestInvokeRawGenericFunctionWithoutGenericInvokeIsUndefinedMethod(t *testing.T) {
	f := newFixture()
	gf := &object.ILOSObject{ClassName: "<standard-generic-function>", IsGenericFunction: true}
	f.env.BindFunction(f.syms.Intern("unimplemented-gf"), gf)
	err := f.runErr(t, "(unimplemented-gf 1)")
	assert.Contains(t, err.Error(), "undefined-method")
}
