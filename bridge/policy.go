package bridge

import (
	"errors"
	"slices"
)

// MethodPolicy decides whether a public method of one declaring class is
// exposed. A policy may also adjust the method before accepting it, e.g.
// clear Param.Mutable. A policy that returns an error has no opinion: the
// method is accepted and the error logged.
type MethodPolicy interface {
	Accept(t *Type, m *Method) (bool, error)
}

// MethodPolicyFunc adapts a function to MethodPolicy.
type MethodPolicyFunc func(t *Type, m *Method) (bool, error)

func (f MethodPolicyFunc) Accept(t *Type, m *Method) (bool, error) { return f(t, m) }

// ExcludeMethods vetoes the named methods.
func ExcludeMethods(names ...string) MethodPolicy {
	return MethodPolicyFunc(func(_ *Type, m *Method) (bool, error) {
		return !slices.Contains(names, m.Name), nil
	})
}

// IncludeMethods vetoes every method not named.
func IncludeMethods(names ...string) MethodPolicy {
	return MethodPolicyFunc(func(_ *Type, m *Method) (bool, error) {
		return slices.Contains(names, m.Name), nil
	})
}

// ReadOnlyArrays accepts every method and marks the array parameters of the
// named methods read-only, so buffers passed to them are not copied back.
func ReadOnlyArrays(names ...string) MethodPolicy {
	return MethodPolicyFunc(func(_ *Type, m *Method) (bool, error) {
		if slices.Contains(names, m.Name) {
			for _, p := range m.Params {
				p.Mutable = false
			}
		}
		return true, nil
	})
}

// chain runs policies in order. The first veto wins; errors are joined and
// do not stop later policies.
type chain []MethodPolicy

func (c chain) Accept(t *Type, m *Method) (bool, error) {
	var errs []error
	for _, p := range c {
		ok, err := p.Accept(t, m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			return false, nil
		}
	}
	return true, errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Option configures a Registry.
type Option func(*options)

type options struct {
	readOnlyArrays bool
	policies       map[string]chain
	onMember       func(t *Type, name string, member any)
}

// WithReadOnlyArrays makes every primitive array parameter read-only.
func WithReadOnlyArrays() Option {
	return func(o *options) { o.readOnlyArrays = true }
}

// WithMethodPolicy registers a policy for the methods declared by class.
// Policies for the same class run in registration order.
func WithMethodPolicy(class string, p MethodPolicy) Option {
	return func(o *options) {
		if o.policies == nil {
			o.policies = make(map[string]chain)
		}
		name := canonicalName(class)
		o.policies[name] = append(o.policies[name], p)
	}
}

// OnMember registers a hook called for every member the cataloger accepts.
// member is a *Method, a *Field or a constant value. The hook runs with the
// registry locked and must not call back into it.
func OnMember(fn func(t *Type, name string, member any)) Option {
	return func(o *options) { o.onMember = fn }
}
