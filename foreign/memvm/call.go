package memvm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chazu/jbridge/foreign"
)

// Call is the context handed to a method body. Its helpers run under the VM
// lock and must not be retained after the body returns.
type Call struct {
	VM     *VM
	Method *Method
	This   *Object // nil for static methods
	Args   []foreign.Value
}

// Object dereferences a reference argument.
func (c *Call) Object(ref foreign.Ref) (*Object, error) {
	return c.VM.deref(ref)
}

// String returns the content of a java.lang.String argument.
func (c *Call) String(ref foreign.Ref) (string, error) {
	obj, err := c.VM.mustDeref(ref)
	if err != nil {
		return "", err
	}
	if obj.class == nil || obj.class.Name != "java.lang.String" {
		return "", fmt.Errorf("memvm: ClassCastException: %s is not a String", className(obj))
	}
	return obj.str, nil
}

// NewString returns a Value holding a new local string ref.
func (c *Call) NewString(s string) foreign.Value {
	return foreign.Value{L: c.VM.newLocal(c.VM.newStringObject(s))}
}

// Ref returns a Value holding a new local ref to obj.
func (c *Call) Ref(obj *Object) foreign.Value {
	return foreign.Value{L: c.VM.newLocal(obj)}
}

// Box returns a Value holding a new instance of the wrapper class carrying v.
func (c *Call) Box(class string, v foreign.Value) (foreign.Value, error) {
	cls, ok := c.VM.classes[NormalizeName(class)]
	if !ok || boxKinds[cls.Name] == 0 {
		return foreign.Value{}, fmt.Errorf("memvm: %s is not a wrapper class", class)
	}
	obj := c.VM.newInstance(cls)
	obj.boxed = v
	return c.Ref(obj), nil
}

// Field returns the slot value of an instance field of This.
func (c *Call) Field(name string) foreign.Value {
	if c.This == nil {
		return foreign.Value{}
	}
	if s, ok := c.This.fields[name]; ok {
		return s.prim
	}
	return foreign.Value{}
}

// SetField stores a primitive value in an instance field of This.
func (c *Call) SetField(name string, v foreign.Value) {
	if c.This == nil {
		return
	}
	if s, ok := c.This.fields[name]; ok {
		s.prim = v
	}
}

// Ints returns a copy of the elements of an int[] argument.
func (c *Call) Ints(ref foreign.Ref) ([]int32, error) {
	data, err := c.primitiveData(ref, foreign.KindInt)
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(data)/4)
	for i := range out {
		out[i] = int32(binary.NativeEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// SetInts overwrites the elements of an int[] argument.
func (c *Call) SetInts(ref foreign.Ref, vals []int32) error {
	data, err := c.primitiveData(ref, foreign.KindInt)
	if err != nil {
		return err
	}
	if len(vals)*4 != len(data) {
		return fmt.Errorf("memvm: ArrayIndexOutOfBoundsException")
	}
	for i, v := range vals {
		binary.NativeEndian.PutUint32(data[i*4:], uint32(v))
	}
	return nil
}

// Doubles returns a copy of the elements of a double[] argument.
func (c *Call) Doubles(ref foreign.Ref) ([]float64, error) {
	data, err := c.primitiveData(ref, foreign.KindDouble)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.NativeEndian.Uint64(data[i*8:]))
	}
	return out, nil
}

// SetDoubles overwrites the elements of a double[] argument.
func (c *Call) SetDoubles(ref foreign.Ref, vals []float64) error {
	data, err := c.primitiveData(ref, foreign.KindDouble)
	if err != nil {
		return err
	}
	if len(vals)*8 != len(data) {
		return fmt.Errorf("memvm: ArrayIndexOutOfBoundsException")
	}
	for i, v := range vals {
		binary.NativeEndian.PutUint64(data[i*8:], math.Float64bits(v))
	}
	return nil
}

func (c *Call) primitiveData(ref foreign.Ref, k foreign.Kind) ([]byte, error) {
	obj, err := c.VM.mustDeref(ref)
	if err != nil {
		return nil, err
	}
	if obj.class == nil || !obj.class.IsArray() || obj.class.Component.Kind != k {
		return nil, fmt.Errorf("memvm: ClassCastException: %s is not a %s array", className(obj), k.TypeName())
	}
	return obj.data, nil
}

func (vm *VM) newStringObject(s string) *Object {
	return &Object{class: vm.classes["java.lang.String"], str: s, hash: vm.hash()}
}

// newInstance allocates an object of c with every instance field of the
// class chain zeroed.
func (vm *VM) newInstance(c *Class) *Object {
	obj := &Object{class: c, fields: make(map[string]*slot), hash: vm.hash()}
	for k := c; k != nil; k = k.Super {
		for _, f := range k.Fields {
			if f.Modifiers.IsStatic() {
				continue
			}
			if _, ok := obj.fields[f.Name]; !ok {
				obj.fields[f.Name] = &slot{}
			}
		}
	}
	return obj
}

func className(obj *Object) string {
	if obj == nil || obj.class == nil {
		return "<null>"
	}
	return obj.class.Name
}

// kindOf returns the value kind of a binary type name.
func kindOf(name string) foreign.Kind {
	if k, ok := foreign.PrimitiveKind(name); ok {
		return k
	}
	return foreign.KindObject
}
