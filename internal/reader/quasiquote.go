package reader

import "github.com/awesome-interesting-projects/kiss/internal/object"

// expandBackquote implements the quasi-quote expansion rules, carried
// over unchanged from original_source/read.c's kiss_expand_backquote:
//
//	`ATOM                      = 'ATOM
//	`,FORM                     = FORM
//	`,@FORM                    => error
//	`(FORM1 ,FORM2 ,@FORM3)    = (append* (list `FORM1) (list FORM2) FORM3)
//	`(FORM1 . FORM2)           = (append* (list `FORM1) `FORM2)
//	`(FORM1 . ,FORM2)          = (append* (list `FORM1) FORM2)
//	`(FORM1 . ,@FORM2)         => error
//
// It also accepts the dotted-comma sugar (A B COMMA C), which denotes
// (A B . ,C) — i.e. a bare comma/comma-at marker symbol appearing as a
// list element (rather than as a sub-list's head) switches the
// remaining tail into unquoted position.
func (r *Reader) expandBackquote(p object.Object) (object.Object, error) {
	if !object.IsCons(p) {
		return r.list2(r.syms.Intern("quote"), p), nil
	}
	c := p.(*object.Cons)

	if object.Eq(c.Car, r.commaSym) {
		return cadr(c), nil
	}
	if object.Eq(c.Car, r.commaAtSym) {
		return nil, r.controlErr("Unquote-splicing(,@) out of list")
	}

	listSym := r.syms.Intern("list")
	appendSym := r.syms.Intern("append*")

	var parts []object.Object
	var cur object.Object = p
	for object.IsCons(cur) {
		elemCons := cur.(*object.Cons)
		x := elemCons.Car

		switch {
		case object.IsCons(x):
			xc := x.(*object.Cons)
			switch {
			case object.Eq(xc.Car, r.commaSym):
				parts = append(parts, r.list2(listSym, cadr(xc)))
			case object.Eq(xc.Car, r.commaAtSym):
				parts = append(parts, cadr(xc))
			default:
				expanded, err := r.expandBackquote(x)
				if err != nil {
					return nil, err
				}
				parts = append(parts, r.list2(listSym, expanded))
			}
		case object.Eq(x, r.commaSym):
			// (a b COMMA c) denotes (a b . ,c): advance past the
			// marker and take the next element unquoted as-is.
			cur = elemCons.Cdr
			if cc, ok := cur.(*object.Cons); ok {
				parts = append(parts, cc.Car)
			}
		case object.Eq(x, r.commaAtSym):
			return nil, r.controlErr("Invalid unquote-splicing(,@)")
		default:
			parts = append(parts, r.list2(listSym, r.list2(r.syms.Intern("quote"), x)))
		}

		if cc, ok := cur.(*object.Cons); ok {
			cur = cc.Cdr
		} else {
			cur = object.Nil
		}
	}

	if !object.IsNil(cur) {
		expanded, err := r.expandBackquote(cur)
		if err != nil {
			return nil, err
		}
		parts = append(parts, expanded)
	}

	return r.listN(appendSym, parts), nil
}

func cadr(c *object.Cons) object.Object {
	if cdr, ok := c.Cdr.(*object.Cons); ok {
		return cdr.Car
	}
	return object.Nil
}

// listN builds and registers a proper list headed by sym.
func (r *Reader) listN(sym object.Object, rest []object.Object) object.Object {
	var result object.Object = object.Nil
	for i := len(rest) - 1; i >= 0; i-- {
		c := object.NewCons(rest[i], result)
		r.heap.Register(c)
		result = c
	}
	head := object.NewCons(sym, result)
	r.heap.Register(head)
	return head
}
