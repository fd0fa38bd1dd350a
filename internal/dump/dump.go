// Package dump renders an object graph to JSON for `kiss dump` and for
// golden-file tests. It is built incrementally with tidwall/sjson
// rather than a tagged struct plus encoding/json: the tidwall
// gjson/sjson stack suits a value whose shape is already a
// dynamically-typed object graph rather than a fixed Go struct, better
// than reflection-based marshaling would.
package dump

import (
	"strconv"

	"github.com/tidwall/sjson"

	"github.com/awesome-interesting-projects/kiss/internal/object"
)

// ToJSON renders o as a JSON document: conses become {"kind":"cons",
// "cons":[car,cdr]}, symbols {"kind":"sym","name":"x"}, vectors
// {"kind":"vec","vec":[...]}, and so on — every node tagged with
// "kind" so a reader can tell a fixnum from a float (JSON's own number
// type cannot) or nil from the empty vector.
func ToJSON(o object.Object) string {
	return node(o)
}

func node(o object.Object) string {
	if object.IsNil(o) {
		return `{"kind":"nil"}`
	}
	switch v := o.(type) {
	case *object.Symbol:
		if v == object.T {
			return `{"kind":"t"}`
		}
		doc := `{}`
		doc, _ = sjson.SetRaw(doc, "kind", `"sym"`)
		doc, _ = sjson.Set(doc, "name", v.Name)
		return doc
	case *object.Fixnum:
		doc := `{}`
		doc, _ = sjson.SetRaw(doc, "kind", `"fixnum"`)
		doc, _ = sjson.Set(doc, "value", v.Value)
		return doc
	case *object.Float:
		doc := `{}`
		doc, _ = sjson.SetRaw(doc, "kind", `"float"`)
		doc, _ = sjson.Set(doc, "value", v.Value)
		return doc
	case *object.Character:
		doc := `{}`
		doc, _ = sjson.SetRaw(doc, "kind", `"char"`)
		doc, _ = sjson.Set(doc, "value", string(v.Value))
		return doc
	case *object.String:
		doc := `{}`
		doc, _ = sjson.SetRaw(doc, "kind", `"string"`)
		doc, _ = sjson.Set(doc, "value", v.String())
		return doc
	case *object.Cons:
		doc := `{}`
		doc, _ = sjson.SetRaw(doc, "kind", `"cons"`)
		doc, _ = sjson.SetRaw(doc, "cons.0", node(v.Car))
		doc, _ = sjson.SetRaw(doc, "cons.1", node(v.Cdr))
		return doc
	case *object.Vector:
		doc := `{}`
		doc, _ = sjson.SetRaw(doc, "kind", `"vec"`)
		for i, e := range v.Elems {
			doc, _ = sjson.SetRaw(doc, "vec."+strconv.Itoa(i), node(e))
		}
		if len(v.Elems) == 0 {
			doc, _ = sjson.SetRaw(doc, "vec", "[]")
		}
		return doc
	case *object.Array:
		doc := `{}`
		doc, _ = sjson.SetRaw(doc, "kind", `"array"`)
		dims := make([]int64, len(v.Dimensions))
		for i, d := range v.Dimensions {
			dims[i] = int64(d)
		}
		doc, _ = sjson.Set(doc, "dims", dims)
		for i, e := range v.Backing.Elems {
			doc, _ = sjson.SetRaw(doc, "backing."+strconv.Itoa(i), node(e))
		}
		return doc
	default:
		doc := `{}`
		doc, _ = sjson.Set(doc, "kind", v.Kind().String())
		return doc
	}
}
