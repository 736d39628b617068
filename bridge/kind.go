package bridge

import (
	"github.com/chazu/jbridge/foreign"
)

// variant is the closed set of marshaling behaviors a Type can have. It is
// derived once from the class name and component type when the Type is
// created.
type variant int

const (
	variantObject variant = iota
	variantVoid
	variantPrimitive
	variantBoxed
	variantString
	variantPrimitiveArray
	variantObjectArray
)

// boxedClasses maps the wrapper classes to the primitive kind they carry.
var boxedClasses = map[string]foreign.Kind{
	"java.lang.Boolean":   foreign.KindBoolean,
	"java.lang.Character": foreign.KindChar,
	"java.lang.Byte":      foreign.KindByte,
	"java.lang.Short":     foreign.KindShort,
	"java.lang.Integer":   foreign.KindInt,
	"java.lang.Long":      foreign.KindLong,
	"java.lang.Float":     foreign.KindFloat,
	"java.lang.Double":    foreign.KindDouble,
}

const stringClass = "java.lang.String"

// classify picks the variant of a type and the primitive kind it carries:
// its own kind for primitives, the boxed kind for wrappers and the element
// kind for primitive arrays.
func classify(name string, primitive bool, component *Type) (variant, foreign.Kind) {
	switch {
	case primitive:
		k, _ := foreign.PrimitiveKind(name)
		if k == foreign.KindVoid {
			return variantVoid, k
		}
		return variantPrimitive, k
	case component != nil && component.variant == variantPrimitive:
		return variantPrimitiveArray, component.prim
	case component != nil:
		return variantObjectArray, 0
	case name == stringClass:
		return variantString, 0
	}
	if k, ok := boxedClasses[name]; ok {
		return variantBoxed, k
	}
	return variantObject, 0
}

// foreignKind is the kind used to pass or read a value of t.
func (t *Type) foreignKind() foreign.Kind {
	switch t.variant {
	case variantPrimitive, variantVoid:
		return t.prim
	}
	return foreign.KindObject
}

// ---------------------------------------------------------------------------
// Assessors
// ---------------------------------------------------------------------------

// assessFunc scores v against a parameter. Zero means v cannot be passed.
type assessFunc func(p *Param, v any) int

func assessorFor(t *Type) assessFunc {
	switch t.variant {
	case variantPrimitive:
		return func(p *Param, v any) int { return assessScalar(p.Type.prim, v) }
	case variantBoxed:
		return assessBoxed
	case variantString:
		return assessString
	case variantPrimitiveArray:
		return assessPrimitiveArray
	}
	return func(p *Param, v any) int { return assessObject(p.Type, v) }
}

// assessScalar scores a Go scalar against primitive kind k. Exact widths
// win over other integers, and float64 prefers double over float.
func assessScalar(k foreign.Kind, v any) int {
	if v == nil {
		return 1
	}
	switch x := v.(type) {
	case bool:
		switch {
		case k == foreign.KindBoolean:
			return 100
		case k.IsIntegral():
			return 10
		case k.IsFloating():
			return 1
		}
		return 0
	case float32:
		switch k {
		case foreign.KindFloat:
			return 100
		case foreign.KindDouble:
			return 90
		}
		return 0
	case float64:
		switch k {
		case foreign.KindDouble:
			return 100
		case foreign.KindFloat:
			return 90
		}
		return 0
	default:
		if !isInteger(x) {
			return 0
		}
		switch {
		case k == foreign.KindBoolean:
			return 10
		case k.IsIntegral():
			if exactKind(x) == k {
				return 100
			}
			return 90
		case k.IsFloating():
			return 50
		}
	}
	return 0
}

func assessBoxed(p *Param, v any) int {
	if inst, ok := v.(*Instance); ok {
		return assessObject(p.Type, inst)
	}
	return assessScalar(p.Type.prim, v)
}

func assessString(p *Param, v any) int {
	switch x := v.(type) {
	case nil:
		return 1
	case string:
		return 100
	case *Instance:
		if x.typ.variant == variantString {
			return 100
		}
	}
	return 0
}

func assessPrimitiveArray(p *Param, v any) int {
	switch x := v.(type) {
	case *Instance:
		return assessObject(p.Type, x)
	case Buffer:
		view, err := x.AcquireBuffer(false)
		if err != nil {
			return 0
		}
		defer view.Release()
		return assessFormat(p.Type.prim, view.Format, view.ItemSize)
	}
	if v == nil {
		return 1
	}
	return 0
}

// assessObject scores an instance against a reference type: 100 for the
// same type, 90 for an instance of it with the same component type, 80 for
// an array whose component type is assignable.
func assessObject(t *Type, v any) int {
	if v == nil {
		return 1
	}
	inst, ok := v.(*Instance)
	if !ok || inst.ref.IsNull() {
		return 0
	}
	if inst.typ == t {
		return 100
	}
	rt := t.reg.rt
	if inst.typ.component == t.component && rt.IsInstanceOf(inst.ref, t.ref) {
		return 90
	}
	if inst.typ.component != nil && t.component != nil &&
		rt.IsAssignableFrom(inst.typ.component.ref, t.component.ref) {
		return 80
	}
	return 0
}

// ---------------------------------------------------------------------------
// Scalar coercion
// ---------------------------------------------------------------------------

func isInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
		return true
	}
	return false
}

// exactKind returns the primitive kind with the same representation as an
// integer value, or 0.
func exactKind(v any) foreign.Kind {
	switch v.(type) {
	case int8:
		return foreign.KindByte
	case uint16:
		return foreign.KindChar
	case int16:
		return foreign.KindShort
	case int32:
		return foreign.KindInt
	case int64:
		return foreign.KindLong
	}
	return 0
}

// asInt widens bools and integers to int64. Unsigned values above
// math.MaxInt64 wrap.
func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case uintptr:
		return int64(x), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	if n, ok := asInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

// coerce converts a Go scalar to a value of primitive kind k with the
// width rules of the target: integers truncate, bools become 0 or 1 and
// nil becomes zero.
func coerce(k foreign.Kind, v any) (foreign.Value, error) {
	var out foreign.Value
	if v == nil {
		return out, nil
	}
	switch {
	case k == foreign.KindBoolean:
		n, ok := asInt(v)
		if !ok {
			return out, &ConversionError{Value: v, Target: k.TypeName()}
		}
		out.Z = n != 0
	case k.IsIntegral():
		n, ok := asInt(v)
		if !ok {
			return out, &ConversionError{Value: v, Target: k.TypeName()}
		}
		switch k {
		case foreign.KindByte:
			out.B = int8(n)
		case foreign.KindChar:
			out.C = uint16(n)
		case foreign.KindShort:
			out.S = int16(n)
		case foreign.KindInt:
			out.I = int32(n)
		case foreign.KindLong:
			out.J = n
		}
	case k.IsFloating():
		f, ok := asFloat(v)
		if !ok {
			return out, &ConversionError{Value: v, Target: k.TypeName()}
		}
		if k == foreign.KindFloat {
			out.F = float32(f)
		} else {
			out.D = f
		}
	default:
		return out, &ConversionError{Value: v, Target: k.String(), Reason: "not a primitive kind"}
	}
	return out, nil
}

// scalarOf reads a value of primitive kind k as its typed Go scalar.
func scalarOf(k foreign.Kind, v foreign.Value) any {
	switch k {
	case foreign.KindBoolean:
		return v.Z
	case foreign.KindByte:
		return v.B
	case foreign.KindChar:
		return v.C
	case foreign.KindShort:
		return v.S
	case foreign.KindInt:
		return v.I
	case foreign.KindLong:
		return v.J
	case foreign.KindFloat:
		return v.F
	case foreign.KindDouble:
		return v.D
	}
	return nil
}
