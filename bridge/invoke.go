package bridge

import (
	"fmt"

	"github.com/chazu/jbridge/foreign"
)

// invoke converts args for m, calls it and converts the result. this is
// ignored for constructors and static methods. Every call-scoped handle
// the call creates is released before invoke returns, on every path.
func (r *Registry) invoke(m *Method, this foreign.Ref, args []any) (result any, err error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	g := &guard{}
	defer func() {
		derr := g.discharge()
		if derr == nil {
			return
		}
		if err != nil {
			log.Warningf("cleanup after failed call to %s: %v", m.Signature(), derr)
			return
		}
		if inst, ok := result.(*Instance); ok {
			inst.Release()
		}
		result, err = nil, derr
	}()

	vals := make([]foreign.Value, len(m.Params))
	for i, p := range m.Params {
		v, err := p.convert(p, args[i], g)
		if err != nil {
			return nil, fmt.Errorf("bridge: %s.%s argument %d: %w", m.owner.name, m.Name, i, err)
		}
		vals[i] = v
	}

	owner := m.owner
	var val foreign.Value
	switch {
	case m.IsConstructor():
		ref, err := r.rt.NewObject(owner.ref, m.id, vals)
		if err != nil {
			return nil, callError(m, err)
		}
		global := r.rt.NewGlobalRef(ref)
		r.rt.DeleteLocalRef(ref)
		if global.IsNull() {
			return nil, &AllocationError{What: "global reference to " + owner.name}
		}
		return &Instance{typ: owner, ref: global}, nil
	case m.Static:
		val, err = r.rt.CallStaticMethod(owner.ref, m.id, m.retKind(), vals)
	default:
		val, err = r.rt.CallMethod(this, m.id, m.retKind(), vals)
	}
	if err != nil {
		return nil, callError(m, err)
	}
	if m.Return == nil {
		return nil, nil
	}
	if m.retKind() == foreign.KindObject && !val.L.IsNull() {
		defer r.rt.DeleteLocalRef(val.L)
	}
	return r.fromForeign(m.Return.Type, val, r.GetOrCreateType)
}

func callError(m *Method, err error) error {
	return fmt.Errorf("bridge: %s.%s: %w", m.owner.name, m.Signature(), err)
}
