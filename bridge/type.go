package bridge

import (
	"github.com/chazu/jbridge/foreign"
)

// Type mirrors one foreign class, array class or primitive type.
type Type struct {
	reg       *Registry
	name      string
	primitive bool
	state     ResolutionState
	ref       foreign.Ref // durable class handle
	super     *Type
	component *Type

	variant variant
	prim    foreign.Kind

	members     map[string]any // *OverloadGroup, *Field or constant
	memberOrder []string
}

// Name returns the dotted binary class name, e.g. "java.lang.String" or
// "[I".
func (t *Type) Name() string      { return t.name }
func (t *Type) String() string    { return t.name }
func (t *Type) IsPrimitive() bool { return t.primitive }
func (t *Type) IsArray() bool     { return t.component != nil }

// Super returns the supertype, or nil at the root, for interfaces and for
// primitives.
func (t *Type) Super() *Type { return t.super }

// Component returns the element type of an array type, or nil.
func (t *Type) Component() *Type { return t.component }

// Ref returns the durable class handle. It stays owned by the Type.
func (t *Type) Ref() foreign.Ref { return t.ref }

func (t *Type) Registry() *Registry { return t.reg }

func (t *Type) State() ResolutionState {
	t.reg.mu.Lock()
	defer t.reg.mu.Unlock()
	return t.state
}

// Members returns the names of the members t declares itself, in cataloging
// order.
func (t *Type) Members() ([]string, error) {
	t.reg.mu.Lock()
	defer t.reg.mu.Unlock()
	if t.state != StateResolved {
		return nil, ErrNotResolved
	}
	out := make([]string, len(t.memberOrder))
	copy(out, t.memberOrder)
	return out, nil
}

// Member returns a member t declares itself: an *OverloadGroup, a *Field or
// the value of a constant.
func (t *Type) Member(name string) (any, error) {
	t.reg.mu.Lock()
	defer t.reg.mu.Unlock()
	if t.state != StateResolved {
		return nil, ErrNotResolved
	}
	m, ok := t.members[name]
	if !ok {
		return nil, &NotFoundError{What: "member", Name: t.name + "." + name}
	}
	return unwrapMember(m), nil
}

// Attr resolves t and looks name up along the supertype chain. It returns
// an *OverloadGroup, a *Field or the value of a constant.
func (t *Type) Attr(name string) (any, error) {
	if err := t.reg.Resolve(t); err != nil {
		return nil, err
	}
	m, ok := t.lookup(name)
	if !ok {
		return nil, &NotFoundError{What: "member", Name: t.name + "." + name}
	}
	return unwrapMember(m), nil
}

// New invokes the constructor that best accepts args.
func (t *Type) New(args ...any) (*Instance, error) {
	if err := t.reg.Resolve(t); err != nil {
		return nil, err
	}
	g, ok := t.members[ConstructorName].(*OverloadGroup)
	if !ok {
		return nil, &NotFoundError{What: "constructor", Name: t.name}
	}
	m, err := g.Resolve(args)
	if err != nil {
		return nil, err
	}
	out, err := t.reg.invoke(m, 0, args)
	if err != nil {
		return nil, err
	}
	return out.(*Instance), nil
}

// CallStatic invokes the static method name that best accepts args.
func (t *Type) CallStatic(name string, args ...any) (any, error) {
	if err := t.reg.Resolve(t); err != nil {
		return nil, err
	}
	candidates := t.candidates(name, true)
	if len(candidates) == 0 {
		return nil, &NotFoundError{What: "static method", Name: t.name + "." + name}
	}
	m, err := resolveOverload(name, candidates, args)
	if err != nil {
		return nil, err
	}
	return t.reg.invoke(m, 0, args)
}

// lookup searches the member tables of t and its supertypes. t must be
// resolved.
func (t *Type) lookup(name string) (any, bool) {
	for k := t; k != nil; k = k.super {
		if m, ok := k.members[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// candidates merges the overload groups called name along the supertype
// chain. A method hides supertype methods with the same parameter types.
func (t *Type) candidates(name string, staticOnly bool) []*Method {
	var out []*Method
	seen := make(map[string]bool)
	for k := t; k != nil; k = k.super {
		g, ok := k.members[name].(*OverloadGroup)
		if !ok {
			continue
		}
		for _, m := range g.methods {
			if staticOnly && !m.Static {
				continue
			}
			key := m.paramKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, m)
		}
	}
	return out
}

// release drops the member table and links and deletes the class handle.
func (t *Type) release() {
	releaseMembers(t.members)
	t.members, t.memberOrder = nil, nil
	t.component = nil
	t.super = nil
	t.reg.rt.DeleteGlobalRef(t.ref)
	t.ref = 0
}

func unwrapMember(m any) any {
	if c, ok := m.(constant); ok {
		return c.value
	}
	return m
}
