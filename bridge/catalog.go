package bridge

import (
	"errors"
	"fmt"

	"github.com/chazu/jbridge/foreign"
)

// frameCapacity is the local-ref capacity requested for each cataloging
// phase.
const frameCapacity = 64

// resolveLocked catalogs t after its supertypes. r.mu must be held. A type
// that is already resolving or resolved is left alone, which is what stops
// recursion through self-referential class graphs.
func (r *Registry) resolveLocked(t *Type) error {
	if t.state != StateNew {
		return nil
	}
	t.transition(StateResolving)
	log.Debugf("resolving %s", t.name)

	if t.super != nil {
		if err := r.resolveLocked(t.super); err != nil {
			t.transition(StateNew)
			return &ResolutionError{Type: t.name, Cause: err}
		}
	}

	c := &cataloger{r: r, t: t, members: make(map[string]any)}
	if err := c.run(); err != nil {
		c.discard()
		t.transition(StateNew)
		log.Debugf("resolution of %s failed: %v", t.name, err)
		return err
	}
	t.members, t.memberOrder = c.members, c.order
	t.transition(StateResolved)
	log.Debugf("resolved %s with %d members", t.name, len(c.order))
	return nil
}

// inFrame runs fn inside a foreign local frame so every local ref it
// creates is released when it returns.
func (r *Registry) inFrame(fn func() error) error {
	if err := r.rt.PushLocalFrame(frameCapacity); err != nil {
		return &AllocationError{What: "local frame", Cause: err}
	}
	defer r.rt.PopLocalFrame()
	return fn()
}

// cataloger builds the member table of one type. Nothing is installed on
// the type until every phase succeeded.
type cataloger struct {
	r       *Registry
	t       *Type
	members map[string]any
	order   []string
}

func (c *cataloger) run() error {
	for _, phase := range []func() error{c.constructors, c.methods, c.fields} {
		if err := c.r.inFrame(phase); err != nil {
			var re *ResolutionError
			if errors.As(err, &re) {
				return re
			}
			return &ResolutionError{Type: c.t.name, Cause: err}
		}
	}
	return nil
}

func (c *cataloger) constructors() error {
	ctors, err := c.r.rt.DeclaredConstructors(c.t.ref)
	if err != nil {
		return &ResolutionError{Type: c.t.name, Member: ConstructorName, Cause: err}
	}
	for _, ex := range ctors {
		if !ex.Modifiers.IsPublic() {
			continue
		}
		m, err := c.method(ConstructorName, ex)
		if err != nil {
			return &ResolutionError{Type: c.t.name, Member: ConstructorName, Cause: err}
		}
		c.group(ConstructorName).add(m)
		c.notify(ConstructorName, m)
	}
	return nil
}

func (c *cataloger) methods() error {
	methods, err := c.r.rt.DeclaredMethods(c.t.ref)
	if err != nil {
		return &ResolutionError{Type: c.t.name, Cause: err}
	}
	policy := c.r.opts.policies[c.t.name]
	for _, ex := range methods {
		if !ex.Modifiers.IsPublic() {
			continue
		}
		m, err := c.method(ex.Name, ex)
		if err != nil {
			return &ResolutionError{Type: c.t.name, Member: ex.Name, Cause: err}
		}
		if policy != nil && !c.accept(policy, m) {
			log.Debugf("policy excluded %s.%s", c.t.name, m.Signature())
			continue
		}
		c.group(ex.Name).add(m)
		c.notify(ex.Name, m)
	}
	return nil
}

func (c *cataloger) accept(p MethodPolicy, m *Method) bool {
	ok, err := p.Accept(c.t, m)
	if err != nil {
		warn(UnsupportedMemberWarning{
			Type:   c.t.name,
			Member: m.Name,
			Reason: fmt.Sprintf("method policy failed, accepting: %v", err),
		})
		return true
	}
	return ok
}

func (c *cataloger) fields() error {
	fields, err := c.r.rt.DeclaredFields(c.t.ref)
	if err != nil {
		return &ResolutionError{Type: c.t.name, Cause: err}
	}
	for _, f := range fields {
		if !f.Modifiers.IsPublic() {
			continue
		}
		ft, err := c.r.getOrCreateLocked(f.Type)
		if err != nil {
			return &ResolutionError{Type: c.t.name, Member: f.Name, Cause: err}
		}
		static, final := f.Modifiers.IsStatic(), f.Modifiers.IsFinal()
		if _, taken := c.members[f.Name]; taken && !(static && !final) {
			log.Debugf("field %s.%s replaces the method of the same name", c.t.name, f.Name)
		}
		switch {
		case static && final:
			v, err := c.constant(f, ft)
			if err != nil {
				return &ResolutionError{Type: c.t.name, Member: f.Name, Cause: err}
			}
			c.set(f.Name, constant{value: v})
			c.notify(f.Name, v)
		case static:
			warn(UnsupportedMemberWarning{Type: c.t.name, Member: f.Name, Reason: "static non-final fields are not supported"})
		default:
			fd := &Field{
				Owner: c.t,
				Name:  f.Name,
				Type:  ft,
				Final: final,
				id:    f.ID,
				param: newParam(ft, false),
			}
			c.set(f.Name, fd)
			c.notify(f.Name, fd)
		}
	}
	return nil
}

// constant reads a static final field once.
func (c *cataloger) constant(f foreign.Field, ft *Type) (any, error) {
	k := ft.foreignKind()
	v, err := c.r.rt.GetStaticField(c.t.ref, f.ID, k)
	if err != nil {
		return nil, err
	}
	if k == foreign.KindObject && !v.L.IsNull() {
		defer c.r.rt.DeleteLocalRef(v.L)
	}
	return c.r.fromForeign(ft, v, c.r.getOrCreateLocked)
}

// method builds a descriptor; any parameter or return type that cannot be
// mirrored fails it.
func (c *cataloger) method(name string, ex foreign.Executable) (*Method, error) {
	m := &Method{
		Name:   name,
		Static: ex.Modifiers.IsStatic() && name != ConstructorName,
		id:     ex.ID,
		owner:  c.t,
	}
	for _, pref := range ex.ParamTypes {
		pt, err := c.r.getOrCreateLocked(pref)
		if err != nil {
			return nil, err
		}
		m.Params = append(m.Params, newParam(pt, !c.r.opts.readOnlyArrays))
	}
	if !ex.ReturnType.IsNull() {
		rt, err := c.r.getOrCreateLocked(ex.ReturnType)
		if err != nil {
			return nil, err
		}
		if rt.variant != variantVoid {
			m.Return = &Return{Type: rt}
		}
	}
	return m, nil
}

func (c *cataloger) group(name string) *OverloadGroup {
	if g, ok := c.members[name].(*OverloadGroup); ok {
		return g
	}
	g := &OverloadGroup{Name: name, Owner: c.t}
	c.set(name, g)
	return g
}

func (c *cataloger) set(name string, member any) {
	if _, ok := c.members[name]; !ok {
		c.order = append(c.order, name)
	}
	c.members[name] = member
}

func (c *cataloger) notify(name string, member any) {
	if c.r.opts.onMember != nil {
		c.r.opts.onMember(c.t, name, member)
	}
}

// discard releases what a failed cataloging run already acquired.
func (c *cataloger) discard() {
	releaseMembers(c.members)
	c.members, c.order = nil, nil
}

func releaseMembers(members map[string]any) {
	for _, m := range members {
		if k, ok := m.(constant); ok {
			if inst, ok := k.value.(*Instance); ok {
				inst.Release()
			}
		}
	}
}
