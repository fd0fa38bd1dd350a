package evaluator

import (
	"strconv"

	"github.com/awesome-interesting-projects/kiss/internal/kisserr"
	"github.com/awesome-interesting-projects/kiss/internal/object"
	"github.com/awesome-interesting-projects/kiss/internal/printer"
	"github.com/awesome-interesting-projects/kiss/internal/symtab"
)

// convertTo implements the destination-class cases of (convert obj
// class-name) this core carries: the string/symbol/character/number
// conversions required to write portable ISLISP text-processing code.
// A destination class name not covered here is an unbound-class
// error, and an object a covered case cannot convert is a
// domain-error, rather than a silent pass-through.
func convertTo(syms *symtab.Table, obj object.Object, className string) (object.Object, error) {
	switch className {
	case "<string>":
		return object.NewString(printer.Princ(obj)), nil
	case "<symbol>":
		switch o := obj.(type) {
		case *object.Symbol:
			return o, nil
		case *object.String:
			return syms.Intern(o.String()), nil
		default:
			return nil, kisserr.NewDomainError("<string> or <symbol>", obj)
		}
	case "<character>":
		s, ok := obj.(*object.String)
		if !ok || len(s.Chars) != 1 {
			return nil, kisserr.NewDomainError("a one-character <string>", obj)
		}
		return object.NewCharacter(s.Chars[0]), nil
	case "<integer>":
		switch o := obj.(type) {
		case *object.Fixnum:
			return o, nil
		case *object.Float:
			return object.NewFixnum(int64(o.Value)), nil
		case *object.String:
			i, err := strconv.ParseInt(o.String(), 10, 64)
			if err != nil {
				return nil, kisserr.NewDomainError("a numeric <string>", obj)
			}
			return object.NewFixnum(i), nil
		default:
			return nil, kisserr.NewDomainError("<integer>-convertible object", obj)
		}
	case "<float>":
		switch o := obj.(type) {
		case *object.Fixnum:
			return object.NewFloat(float64(o.Value)), nil
		case *object.Float:
			return o, nil
		case *object.String:
			f, err := strconv.ParseFloat(o.String(), 64)
			if err != nil {
				return nil, kisserr.NewDomainError("a numeric <string>", obj)
			}
			return object.NewFloat(f), nil
		default:
			return nil, kisserr.NewDomainError("<float>-convertible object", obj)
		}
	case "<list>":
		if v, ok := obj.(*object.Vector); ok {
			return object.List(v.Elems...), nil
		}
		return nil, kisserr.NewDomainError("<general-vector>", obj)
	case "<general-vector>":
		elems, ok := object.ListToSlice(obj)
		if !ok {
			return nil, kisserr.NewImproperList(obj)
		}
		return object.NewVector(elems), nil
	default:
		return nil, kisserr.NewUnboundClass(className)
	}
}
