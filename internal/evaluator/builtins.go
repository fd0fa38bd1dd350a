package evaluator

import (
	"fmt"

	"github.com/awesome-interesting-projects/kiss/internal/heap"
	"github.com/awesome-interesting-projects/kiss/internal/kisserr"
	"github.com/awesome-interesting-projects/kiss/internal/object"
	"github.com/awesome-interesting-projects/kiss/internal/printer"
	"github.com/awesome-interesting-projects/kiss/internal/symtab"
)

// InstallBuiltins populates the global function namespace (every
// built-in's symbol.Function slot) with the C-functions a core needs
// to exercise the object universe and the reader/evaluator's own
// expansion output (append*, list, funcall, apply) without first
// requiring a full ISLISP standard library. Each constructor call
// registers its allocation with h per the heap's ownership contract.
func InstallBuiltins(syms *symtab.Table, h *heap.Heap, e *Evaluator) {
	def := func(name string, min, max int, fn func(args []object.Object) (object.Object, error)) {
		syms.Intern(name).Function = &object.CFunction{Name: name, MinArity: min, MaxArity: max, Handler: fn}
	}

	def("cons", 2, 2, func(a []object.Object) (object.Object, error) {
		c := object.NewCons(a[0], a[1])
		h.Register(c)
		return c, nil
	})
	def("car", 1, 1, func(a []object.Object) (object.Object, error) {
		c, ok := a[0].(*object.Cons)
		if !ok {
			return nil, kisserr.NewDomainError("<cons>", a[0])
		}
		return c.Car, nil
	})
	def("cdr", 1, 1, func(a []object.Object) (object.Object, error) {
		c, ok := a[0].(*object.Cons)
		if !ok {
			return nil, kisserr.NewDomainError("<cons>", a[0])
		}
		return c.Cdr, nil
	})
	def("list", 0, -1, func(a []object.Object) (object.Object, error) {
		return registeredList(h, a), nil
	})
	def("append*", 0, -1, func(a []object.Object) (object.Object, error) {
		return appendLists(h, a)
	})
	def("eq", 2, 2, func(a []object.Object) (object.Object, error) {
		return object.Bool(object.Eq(a[0], a[1])), nil
	})
	def("eql", 2, 2, func(a []object.Object) (object.Object, error) {
		return object.Bool(object.Eq(a[0], a[1])), nil
	})
	def("equal", 2, 2, func(a []object.Object) (object.Object, error) {
		return object.Bool(structurallyEqual(a[0], a[1])), nil
	})
	def("not", 1, 1, func(a []object.Object) (object.Object, error) {
		return object.Bool(object.IsNil(a[0])), nil
	})
	def("null", 1, 1, func(a []object.Object) (object.Object, error) {
		return object.Bool(object.IsNil(a[0])), nil
	})
	def("atom", 1, 1, func(a []object.Object) (object.Object, error) {
		return object.Bool(!object.IsCons(a[0])), nil
	})
	def("consp", 1, 1, func(a []object.Object) (object.Object, error) {
		return object.Bool(object.IsCons(a[0])), nil
	})
	def("length", 1, 1, func(a []object.Object) (object.Object, error) {
		switch v := a[0].(type) {
		case *object.Vector:
			return h.Register(object.NewFixnum(int64(len(v.Elems)))), nil
		case *object.String:
			return h.Register(object.NewFixnum(int64(len(v.Chars)))), nil
		default:
			if !object.IsProperList(a[0]) {
				return nil, kisserr.NewImproperList(a[0])
			}
			return h.Register(object.NewFixnum(int64(object.Length(a[0])))), nil
		}
	})
	def("funcall", 1, -1, func(a []object.Object) (object.Object, error) {
		return e.applyEvaluated(a[0], a[1:])
	})
	def("apply", 2, -1, func(a []object.Object) (object.Object, error) {
		last := a[len(a)-1]
		tail, ok := object.ListToSlice(last)
		if !ok {
			return nil, kisserr.NewImproperList(last)
		}
		args := append(append([]object.Object{}, a[1:len(a)-1]...), tail...)
		return e.applyEvaluated(a[0], args)
	})

	arith("+", h, syms, func(acc, v int64) int64 { return acc + v }, func(acc, v float64) float64 { return acc + v }, 0)
	arith("*", h, syms, func(acc, v int64) int64 { return acc * v }, func(acc, v float64) float64 { return acc * v }, 1)
	defSub(h, syms)
	defQuotient(h, syms)
	defCompare(syms)

	def("print", 1, 1, func(a []object.Object) (object.Object, error) {
		fmt.Println(printer.Print(a[0]))
		return a[0], nil
	})

	syms.Intern("*pi*").Value = object.NewFloat(3.14159265358979323846)
	syms.Intern("*most-positive-fixnum*").Value = object.NewFixnum(1<<62 - 1)
	syms.Intern("*most-negative-fixnum*").Value = object.NewFixnum(-(1 << 62))
}

func (e *Evaluator) applyEvaluated(fn object.Object, args []object.Object) (object.Object, error) {
	watermark := e.Heap.Watermark()
	result, err := e.invokeEvaluated(fn, args)
	if err != nil {
		e.Heap.Rewind(watermark)
		return nil, err
	}
	e.Heap.Compact(watermark, result)
	return result, nil
}

// invokeEvaluated runs a callable against already-evaluated arguments
// (funcall/apply's contract), as opposed to invokeRaw which evaluates
// its raw argument forms itself.
func (e *Evaluator) invokeEvaluated(fn object.Object, args []object.Object) (object.Object, error) {
	switch f := fn.(type) {
	case *object.CFunction:
		if err := checkArity(f.Name, f.MinArity, f.MaxArity, len(args)); err != nil {
			return nil, err
		}
		return f.Handler(args)
	case *object.Closure:
		return e.applyClosure(f, args)
	case *object.ILOSObject:
		if f.IsGenericFunction {
			if f.GenericInvoke == nil {
				return nil, kisserr.NewUndefinedMethod(f.ClassName)
			}
			return f.GenericInvoke(f, args)
		}
		if f.MethodInvoke == nil {
			return nil, kisserr.NewUndefinedMethod(f.ClassName)
		}
		return f.MethodInvoke(f, args)
	default:
		return nil, kisserr.New(kisserr.DomainError, "cannot funcall non-function object ~S", fn)
	}
}

func registeredList(h *heap.Heap, elems []object.Object) object.Object {
	var result object.Object = object.Nil
	for i := len(elems) - 1; i >= 0; i-- {
		c := object.NewCons(elems[i], result)
		h.Register(c)
		result = c
	}
	return result
}

// appendLists implements append* (N-ary append, the last argument
// supplying the tail unchanged): every list but the last is copied
// into newly registered conses; the last argument is used as-is.
func appendLists(h *heap.Heap, lists []object.Object) (object.Object, error) {
	if len(lists) == 0 {
		return object.Nil, nil
	}
	var elemsAll []object.Object
	for _, l := range lists[:len(lists)-1] {
		elems, ok := object.ListToSlice(l)
		if !ok {
			return nil, kisserr.NewImproperList(l)
		}
		elemsAll = append(elemsAll, elems...)
	}
	tail := lists[len(lists)-1]
	result := tail
	for i := len(elemsAll) - 1; i >= 0; i-- {
		c := object.NewCons(elemsAll[i], result)
		h.Register(c)
		result = c
	}
	return result, nil
}

func structurallyEqual(a, b object.Object) bool {
	if object.Eq(a, b) {
		return true
	}
	switch av := a.(type) {
	case *object.Cons:
		bv, ok := b.(*object.Cons)
		return ok && structurallyEqual(av.Car, bv.Car) && structurallyEqual(av.Cdr, bv.Cdr)
	case *object.String:
		bv, ok := b.(*object.String)
		return ok && object.StringEq(av, bv)
	case *object.Vector:
		bv, ok := b.(*object.Vector)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !structurallyEqual(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func arith(name string, h *heap.Heap, syms *symtab.Table, iop func(a, b int64) int64, fop func(a, b float64) float64, identity int64) {
	syms.Intern(name).Function = &object.CFunction{Name: name, MinArity: 0, MaxArity: -1, Handler: func(a []object.Object) (object.Object, error) {
		allInt := true
		for _, v := range a {
			if _, ok := v.(*object.Fixnum); !ok {
				allInt = false
				break
			}
		}
		if allInt {
			acc := identity
			for _, v := range a {
				acc = iop(acc, v.(*object.Fixnum).Value)
			}
			r := object.NewFixnum(acc)
			h.Register(r)
			return r, nil
		}
		acc := float64(identity)
		for _, v := range a {
			f, err := asFloat(v)
			if err != nil {
				return nil, err
			}
			acc = fop(acc, f)
		}
		r := object.NewFloat(acc)
		h.Register(r)
		return r, nil
	}}
}

func asFloat(o object.Object) (float64, error) {
	switch v := o.(type) {
	case *object.Fixnum:
		return float64(v.Value), nil
	case *object.Float:
		return v.Value, nil
	default:
		return 0, kisserr.NewDomainError("<number>", o)
	}
}

func defSub(h *heap.Heap, syms *symtab.Table) {
	syms.Intern("-").Function = &object.CFunction{Name: "-", MinArity: 1, MaxArity: -1, Handler: func(a []object.Object) (object.Object, error) {
		if len(a) == 1 {
			f, err := asFloat(a[0])
			if err != nil {
				return nil, err
			}
			if fx, ok := a[0].(*object.Fixnum); ok {
				r := object.NewFixnum(-fx.Value)
				h.Register(r)
				return r, nil
			}
			r := object.NewFloat(-f)
			h.Register(r)
			return r, nil
		}
		allInt := true
		for _, v := range a {
			if _, ok := v.(*object.Fixnum); !ok {
				allInt = false
			}
		}
		if allInt {
			acc := a[0].(*object.Fixnum).Value
			for _, v := range a[1:] {
				acc -= v.(*object.Fixnum).Value
			}
			r := object.NewFixnum(acc)
			h.Register(r)
			return r, nil
		}
		acc, err := asFloat(a[0])
		if err != nil {
			return nil, err
		}
		for _, v := range a[1:] {
			f, err := asFloat(v)
			if err != nil {
				return nil, err
			}
			acc -= f
		}
		r := object.NewFloat(acc)
		h.Register(r)
		return r, nil
	}}
}

func defQuotient(h *heap.Heap, syms *symtab.Table) {
	syms.Intern("quotient").Function = &object.CFunction{Name: "quotient", MinArity: 2, MaxArity: 2, Handler: func(a []object.Object) (object.Object, error) {
		x, xok := a[0].(*object.Fixnum)
		y, yok := a[1].(*object.Fixnum)
		if xok && yok {
			if y.Value == 0 {
				return nil, kisserr.NewDivisionByZero("quotient")
			}
			r := object.NewFixnum(x.Value / y.Value)
			h.Register(r)
			return r, nil
		}
		fx, err := asFloat(a[0])
		if err != nil {
			return nil, err
		}
		fy, err := asFloat(a[1])
		if err != nil {
			return nil, err
		}
		if fy == 0 {
			return nil, kisserr.NewDivisionByZero("quotient")
		}
		r := object.NewFloat(fx / fy)
		h.Register(r)
		return r, nil
	}}
}

func defCompare(syms *symtab.Table) {
	ops := map[string]func(a, b float64) bool{
		"=":  func(a, b float64) bool { return a == b },
		"<":  func(a, b float64) bool { return a < b },
		">":  func(a, b float64) bool { return a > b },
		"<=": func(a, b float64) bool { return a <= b },
		">=": func(a, b float64) bool { return a >= b },
	}
	for name, cmp := range ops {
		name, cmp := name, cmp
		syms.Intern(name).Function = &object.CFunction{Name: name, MinArity: 1, MaxArity: -1, Handler: func(a []object.Object) (object.Object, error) {
			for i := 0; i+1 < len(a); i++ {
				x, err := asFloat(a[i])
				if err != nil {
					return nil, err
				}
				y, err := asFloat(a[i+1])
				if err != nil {
					return nil, err
				}
				if !cmp(x, y) {
					return object.Nil, nil
				}
			}
			return object.T, nil
		}}
	}
}
