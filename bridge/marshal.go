package bridge

import (
	"bytes"
	"fmt"

	"github.com/chazu/jbridge/foreign"
)

// ---------------------------------------------------------------------------
// Outbound: Go value -> foreign value
// ---------------------------------------------------------------------------

// convertFunc produces the foreign representation of v for a parameter.
// Call-scoped resources it creates are registered with g.
type convertFunc func(p *Param, v any, g *guard) (foreign.Value, error)

func converterFor(t *Type) convertFunc {
	switch t.variant {
	case variantPrimitive:
		return convertPrimitive
	case variantBoxed:
		return convertBoxed
	case variantString:
		return convertString
	case variantPrimitiveArray:
		return convertPrimitiveArray
	}
	return convertObject
}

func convertPrimitive(p *Param, v any, _ *guard) (foreign.Value, error) {
	return coerce(p.Type.prim, v)
}

// convertBoxed constructs a wrapper instance from the coerced scalar.
func convertBoxed(p *Param, v any, g *guard) (foreign.Value, error) {
	switch x := v.(type) {
	case nil:
		return foreign.Value{}, nil
	case *Instance:
		return passInstance(p.Type, x)
	}
	r := p.Type.reg
	w, ok := r.wrappers[p.Type.prim]
	if !ok {
		return foreign.Value{}, &ConversionError{Value: v, Target: p.Type.name, Reason: "wrapper class not initialized"}
	}
	val, err := coerce(p.Type.prim, v)
	if err != nil {
		return foreign.Value{}, err
	}
	ref, err := r.rt.NewObject(p.Type.ref, w.ctor, []foreign.Value{val})
	if err != nil {
		return foreign.Value{}, &ConversionError{Value: v, Target: p.Type.name, Cause: err}
	}
	g.add(func() error {
		r.rt.DeleteLocalRef(ref)
		return nil
	})
	return foreign.Value{L: ref}, nil
}

func convertString(p *Param, v any, g *guard) (foreign.Value, error) {
	switch x := v.(type) {
	case nil:
		return foreign.Value{}, nil
	case *Instance:
		if x.typ.variant == variantString {
			return passInstance(p.Type, x)
		}
	case string:
		rt := p.Type.reg.rt
		ref, err := rt.NewString(x)
		if err != nil {
			return foreign.Value{}, &ConversionError{Value: v, Target: p.Type.name, Cause: err}
		}
		g.add(func() error {
			rt.DeleteLocalRef(ref)
			return nil
		})
		return foreign.Value{L: ref}, nil
	}
	return foreign.Value{}, &ConversionError{Value: v, Target: p.Type.name, Reason: "not a string"}
}

func convertObject(p *Param, v any, _ *guard) (foreign.Value, error) {
	switch x := v.(type) {
	case nil:
		return foreign.Value{}, nil
	case *Instance:
		return passInstance(p.Type, x)
	}
	return foreign.Value{}, &ConversionError{Value: v, Target: p.Type.name, Reason: "not an instance"}
}

// passInstance hands the durable handle of inst to the call. Ownership
// stays with inst, so nothing is registered for cleanup.
func passInstance(t *Type, inst *Instance) (foreign.Value, error) {
	if inst.Released() {
		return foreign.Value{}, &ConversionError{Value: inst, Target: t.name, Cause: ErrReleased}
	}
	if inst.typ != t && !t.reg.rt.IsInstanceOf(inst.ref, t.ref) {
		return foreign.Value{}, &ConversionError{Value: inst, Target: t.name, Reason: inst.typ.name + " is not assignable"}
	}
	return foreign.Value{L: inst.ref}, nil
}

// convertPrimitiveArray copies a buffer into a new foreign array. The
// cleanup copies the array back for mutable parameters, then releases the
// array and the buffer view.
func convertPrimitiveArray(p *Param, v any, g *guard) (foreign.Value, error) {
	switch x := v.(type) {
	case nil:
		return foreign.Value{}, nil
	case *Instance:
		return passInstance(p.Type, x)
	case Buffer:
		return bufferToArray(p, x, g)
	}
	return foreign.Value{}, &ConversionError{Value: v, Target: p.Type.name, Reason: "not a buffer"}
}

func bufferToArray(p *Param, buf Buffer, g *guard) (foreign.Value, error) {
	k := p.Type.prim
	view, err := buf.AcquireBuffer(p.Mutable)
	if err != nil {
		return foreign.Value{}, &ConversionError{Value: buf, Target: p.Type.name, Cause: err}
	}
	fail := func(reason string) (foreign.Value, error) {
		view.Release()
		return foreign.Value{}, &ConversionError{Value: buf, Target: p.Type.name, Reason: reason}
	}
	size := k.Size()
	switch {
	case view.ItemSize != size:
		return fail(fmt.Sprintf("item size %d, want %d", view.ItemSize, size))
	case len(view.Data) == 0:
		return fail("buffer has no elements")
	case len(view.Data)%size != 0:
		return fail(fmt.Sprintf("buffer length %d is not a multiple of %d", len(view.Data), size))
	}

	rt := p.Type.reg.rt
	arr, err := rt.NewPrimitiveArray(k, len(view.Data)/size)
	if err != nil {
		view.Release()
		return foreign.Value{}, &AllocationError{What: p.Type.name, Cause: err}
	}
	if err := rt.SetArrayRegion(arr, view.Data); err != nil {
		rt.DeleteLocalRef(arr)
		view.Release()
		return foreign.Value{}, &ConversionError{Value: buf, Target: p.Type.name, Cause: err}
	}
	// An array the callee left untouched is not copied back.
	var sent []byte
	if p.Mutable {
		sent = bytes.Clone(view.Data)
	}
	g.add(func() error {
		var err error
		if sent != nil {
			got := make([]byte, len(sent))
			if cerr := rt.GetArrayRegion(arr, got); cerr != nil {
				err = &ConversionError{Value: buf, Target: p.Type.name, Reason: "copy back", Cause: cerr}
			} else if !bytes.Equal(got, sent) {
				copy(view.Data, got)
			}
		}
		rt.DeleteLocalRef(arr)
		view.Release()
		return err
	})
	return foreign.Value{L: arr}, nil
}

// ---------------------------------------------------------------------------
// Inbound: foreign value -> Go value
// ---------------------------------------------------------------------------

// typeLookup maps a class ref to its Type. Cataloging passes the variant
// that expects the registry lock to be held.
type typeLookup func(cls foreign.Ref) (*Type, error)

// fromForeign converts a value whose declared type is t. It never deletes
// v.L; the caller owns it. Objects of a plain declared type are converted
// by their runtime class, so an Object holding a String yields a string.
func (r *Registry) fromForeign(t *Type, v foreign.Value, lookup typeLookup) (any, error) {
	switch t.variant {
	case variantVoid:
		return nil, nil
	case variantPrimitive:
		return scalarOf(t.prim, v), nil
	}
	if v.L.IsNull() {
		return nil, nil
	}
	if t.variant == variantObject || t.variant == variantObjectArray {
		if cls := r.rt.GetObjectClass(v.L); !cls.IsNull() {
			actual, err := lookup(cls)
			r.rt.DeleteLocalRef(cls)
			if err != nil {
				return nil, err
			}
			t = actual
		}
	}

	switch t.variant {
	case variantBoxed:
		w, ok := r.wrappers[t.prim]
		if !ok {
			return nil, &ConversionError{Value: v, Target: t.name, Reason: "wrapper class not initialized"}
		}
		val, err := r.rt.CallMethod(v.L, w.value, t.prim, nil)
		if err != nil {
			return nil, &ConversionError{Value: v, Target: t.prim.TypeName(), Cause: err}
		}
		return scalarOf(t.prim, val), nil
	case variantString:
		s, err := r.rt.StringContent(v.L)
		if err != nil {
			return nil, &ConversionError{Value: v, Target: "string", Cause: err}
		}
		return s, nil
	case variantPrimitiveArray:
		n := r.rt.ArrayLength(v.L)
		data := make([]byte, n*t.prim.Size())
		if err := r.rt.GetArrayRegion(v.L, data); err != nil {
			return nil, &ConversionError{Value: v, Target: t.name, Cause: err}
		}
		return newPrimitiveArrayFrom(inboundFormats[t.prim], data), nil
	}

	global := r.rt.NewGlobalRef(v.L)
	if global.IsNull() {
		return nil, &AllocationError{What: "global reference to " + t.name}
	}
	return &Instance{typ: t, ref: global}, nil
}
