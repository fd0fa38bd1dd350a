// Package printer renders objects back to their external,
// machine-readable representation. It is deliberately minimal: just
// enough of `print` to make read/print round-trip properties and the
// CLI testable, not a general pretty-printer or `format` directive
// engine.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awesome-interesting-projects/kiss/internal/object"
)

// Print renders o the way `print` would: strings are double-quoted
// with escapes, characters use the #\name / #\c form, symbols are
// printed by their stored name as-is (lower-case unless the reader
// saw them escaped, per its case-folding rule), and lists/vectors/
// arrays recurse structurally.
func Print(o object.Object) string {
	var sb strings.Builder
	print1(&sb, o, true)
	return sb.String()
}

// Princ renders o the way `princ` (display, no escaping) would:
// strings and characters are emitted literally without quoting.
func Princ(o object.Object) string {
	var sb strings.Builder
	print1(&sb, o, false)
	return sb.String()
}

func print1(sb *strings.Builder, o object.Object, readably bool) {
	if object.IsNil(o) {
		sb.WriteString("nil")
		return
	}
	switch v := o.(type) {
	case *object.Symbol:
		sb.WriteString(v.Name)
	case *object.Fixnum:
		sb.WriteString(strconv.FormatInt(v.Value, 10))
	case *object.Bignum:
		sb.WriteString(v.Value)
	case *object.Float:
		sb.WriteString(formatFloat(v.Value))
	case *object.Character:
		if readably {
			sb.WriteString(printCharacter(v.Value))
		} else {
			sb.WriteRune(v.Value)
		}
	case *object.String:
		if readably {
			sb.WriteString(quoteString(v.Chars))
		} else {
			sb.WriteString(string(v.Chars))
		}
	case *object.Cons:
		printCons(sb, v, readably)
	case *object.Vector:
		sb.WriteString("#(")
		for i, e := range v.Elems {
			if i > 0 {
				sb.WriteByte(' ')
			}
			print1(sb, e, readably)
		}
		sb.WriteByte(')')
	case *object.Array:
		fmt.Fprintf(sb, "#%da", len(v.Dimensions))
		printArrayElems(sb, v, v.Dimensions, 0, nil, readably)
	case *object.HashTable:
		sb.WriteString("#<hash-table>")
	case *object.Stream:
		fmt.Fprintf(sb, "#<stream %s>", v.Name)
	case *object.CFunction:
		fmt.Fprintf(sb, "#<subr %s>", v.Name)
	case *object.CSpecial:
		fmt.Fprintf(sb, "#<special %s>", v.Name)
	case *object.Closure:
		name := v.Name
		if name == "" {
			name = "anonymous"
		}
		fmt.Fprintf(sb, "#<function %s>", name)
	case *object.Macro:
		fmt.Fprintf(sb, "#<macro %s>", v.Name)
	case *object.ILOSObject:
		fmt.Fprintf(sb, "#<%s>", v.ClassName)
	default:
		fmt.Fprintf(sb, "#<unknown %T>", o)
	}
}

func printCons(sb *strings.Builder, c *object.Cons, readably bool) {
	sb.WriteByte('(')
	print1(sb, c.Car, readably)
	rest := c.Cdr
	for {
		if object.IsNil(rest) {
			break
		}
		next, ok := rest.(*object.Cons)
		if !ok {
			sb.WriteString(" . ")
			print1(sb, rest, readably)
			break
		}
		sb.WriteByte(' ')
		print1(sb, next.Car, readably)
		rest = next.Cdr
	}
	sb.WriteByte(')')
}

// printArrayElems walks a row-major backing vector and prints nested
// parenthesized groups matching the #Na(...) reader syntax.
func printArrayElems(sb *strings.Builder, a *object.Array, dims []int, offset int, strides []int, readably bool) {
	if strides == nil {
		strides = make([]int, len(dims))
		acc := 1
		for i := len(dims) - 1; i >= 0; i-- {
			strides[i] = acc
			acc *= dims[i]
		}
	}
	printDim(sb, a, dims, strides, 0, 0, readably)
}

func printDim(sb *strings.Builder, a *object.Array, dims, strides []int, dim, offset int, readably bool) {
	sb.WriteByte('(')
	for i := 0; i < dims[dim]; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		next := offset + i*strides[dim]
		if dim == len(dims)-1 {
			print1(sb, a.Backing.Elems[next], readably)
		} else {
			printDim(sb, a, dims, strides, dim+1, next, readably)
		}
	}
	sb.WriteByte(')')
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func printCharacter(r rune) string {
	switch r {
	case '\n':
		return "#\\newline"
	case ' ':
		return "#\\space"
	default:
		return "#\\" + string(r)
	}
}

func quoteString(chars []rune) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range chars {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
