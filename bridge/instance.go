package bridge

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/chazu/jbridge/foreign"
)

// Instance is a foreign object held by a durable handle.
type Instance struct {
	typ      *Type
	ref      foreign.Ref
	released atomic.Bool
}

// NewInstance wraps a durable (global) ref of an object of type t. The
// Instance takes ownership of ref.
func NewInstance(t *Type, ref foreign.Ref) *Instance {
	return &Instance{typ: t, ref: ref}
}

func (i *Instance) Type() *Type      { return i.typ }
func (i *Instance) Ref() foreign.Ref { return i.ref }
func (i *Instance) Released() bool   { return i.released.Load() }

func (i *Instance) String() string {
	return fmt.Sprintf("%s@%#x", i.typ.name, uintptr(i.ref))
}

// Release deletes the durable handle. Only the first call has an effect.
func (i *Instance) Release() {
	if i.released.CompareAndSwap(false, true) {
		i.typ.reg.rt.DeleteGlobalRef(i.ref)
	}
}

// Call invokes the instance method name that best accepts args. Methods
// inherited from supertypes are candidates unless overridden.
func (i *Instance) Call(name string, args ...any) (any, error) {
	if i.Released() {
		return nil, ErrReleased
	}
	if name == ConstructorName {
		return nil, &NotFoundError{What: "method", Name: i.typ.name + "." + name}
	}
	if err := i.typ.reg.Resolve(i.typ); err != nil {
		return nil, err
	}
	candidates := i.typ.candidates(name, false)
	if len(candidates) == 0 {
		return nil, &NotFoundError{What: "method", Name: i.typ.name + "." + name}
	}
	m, err := resolveOverload(name, candidates, args)
	if err != nil {
		return nil, err
	}
	return i.typ.reg.invoke(m, i.ref, args)
}

// Get reads an instance field, or the value of a constant.
func (i *Instance) Get(name string) (any, error) {
	if i.Released() {
		return nil, ErrReleased
	}
	if err := i.typ.reg.Resolve(i.typ); err != nil {
		return nil, err
	}
	m, ok := i.typ.lookup(name)
	if !ok {
		return nil, &NotFoundError{What: "field", Name: i.typ.name + "." + name}
	}
	f, ok := m.(*Field)
	if !ok {
		return unwrapMember(m), nil
	}
	return i.typ.reg.getField(i, f)
}

// Set writes an instance field. Final fields and constants cannot be set.
func (i *Instance) Set(name string, v any) error {
	if i.Released() {
		return ErrReleased
	}
	if err := i.typ.reg.Resolve(i.typ); err != nil {
		return err
	}
	m, ok := i.typ.lookup(name)
	if !ok {
		return &NotFoundError{What: "field", Name: i.typ.name + "." + name}
	}
	f, ok := m.(*Field)
	if !ok {
		return &ConversionError{Value: v, Target: i.typ.name + "." + name, Reason: "not a settable field"}
	}
	if f.Final {
		return &ConversionError{Value: v, Target: f.Type.name, Reason: "field " + name + " is final"}
	}
	return i.typ.reg.setField(i, f, v)
}

func (r *Registry) getField(i *Instance, f *Field) (any, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	k := f.Type.foreignKind()
	v, err := r.rt.GetField(i.ref, f.id, k)
	if err != nil {
		return nil, fmt.Errorf("bridge: get %s.%s: %w", f.Owner.name, f.Name, err)
	}
	if k == foreign.KindObject && !v.L.IsNull() {
		defer r.rt.DeleteLocalRef(v.L)
	}
	return r.fromForeign(f.Type, v, r.GetOrCreateType)
}

func (r *Registry) setField(i *Instance, f *Field, v any) (err error) {
	if err := r.checkOpen(); err != nil {
		return err
	}
	g := &guard{}
	defer func() {
		err = errors.Join(err, g.discharge())
	}()
	val, err := f.param.convert(f.param, v, g)
	if err != nil {
		return err
	}
	if err := r.rt.SetField(i.ref, f.id, f.Type.foreignKind(), val); err != nil {
		return fmt.Errorf("bridge: set %s.%s: %w", f.Owner.name, f.Name, err)
	}
	return nil
}
