package bridge

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/chazu/jbridge/foreign"
)

// Registry owns the mirror Types of one foreign runtime. At most one Type
// exists per class name, and a Type is registered before its supertype and
// component links are followed, so self-referential class graphs resolve.
//
// The registry mutex is the execution right for all registry mutation:
// type creation, state transitions and member-table writes. Foreign calls
// made on behalf of Type.New, Type.CallStatic and Instance.Call run without
// it; they only read member tables, which never change once resolved.
type Registry struct {
	mu   sync.Mutex
	rt   foreign.Runtime
	opts options

	types    map[string]*Type
	order    []*Type // creation order
	wrappers map[foreign.Kind]wrapper
	closed   bool
}

// wrapper caches the invocation handles of a boxing class.
type wrapper struct {
	ctor  foreign.MethodID // <init>(X)V
	value foreign.MethodID // xValue()X
}

// NewRegistry creates a registry over rt. It mirrors java.lang.String, the
// eight wrapper classes and their primitive types up front and caches the
// wrapper constructors and accessors used for boxing.
func NewRegistry(rt foreign.Runtime, opts ...Option) (*Registry, error) {
	r := &Registry{
		rt:       rt,
		types:    make(map[string]*Type),
		wrappers: make(map[foreign.Kind]wrapper),
	}
	for _, opt := range opts {
		opt(&r.opts)
	}

	r.mu.Lock()
	err := r.bootstrap()
	r.mu.Unlock()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("bridge: init: %w", err)
	}
	return r, nil
}

func (r *Registry) bootstrap() error {
	if _, err := r.typeByNameLocked(stringClass); err != nil {
		return err
	}
	names := make([]string, 0, len(boxedClasses))
	for name := range boxedClasses {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		k := boxedClasses[name]
		t, err := r.typeByNameLocked(name)
		if err != nil {
			return err
		}
		desc := string(k.Descriptor())
		ctor, err := r.rt.GetMethodID(t.ref, "<init>", "("+desc+")V")
		if err != nil {
			return &NotFoundError{What: "constructor", Name: name, Cause: err}
		}
		value, err := r.rt.GetMethodID(t.ref, k.TypeName()+"Value", "()"+desc)
		if err != nil {
			return &NotFoundError{What: "accessor", Name: name, Cause: err}
		}
		r.wrappers[k] = wrapper{ctor: ctor, value: value}
		if err := r.inFrame(func() error { return r.primitiveOf(t, k) }); err != nil {
			return err
		}
	}
	return nil
}

// primitiveOf mirrors the primitive type of kind k, reached through the
// parameter of the wrapper's one-argument constructor.
func (r *Registry) primitiveOf(wrapperType *Type, k foreign.Kind) error {
	ctors, err := r.rt.DeclaredConstructors(wrapperType.ref)
	if err != nil {
		return err
	}
	for _, ex := range ctors {
		if len(ex.ParamTypes) == 1 && r.rt.IsPrimitive(ex.ParamTypes[0]) {
			_, err := r.getOrCreateLocked(ex.ParamTypes[0])
			return err
		}
	}
	return &NotFoundError{What: "primitive type", Name: k.TypeName()}
}

// TypeByName returns the Type of a class. Dotted, slashed and source-form
// array names ("int[]") are equivalent.
func (r *Registry) TypeByName(name string) (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.typeByNameLocked(name)
}

func (r *Registry) typeByNameLocked(name string) (*Type, error) {
	if r.closed {
		return nil, ErrClosed
	}
	canon := canonicalName(name)
	if t, ok := r.types[canon]; ok {
		return t, nil
	}
	cls, err := r.rt.FindClass(strings.ReplaceAll(canon, ".", "/"))
	if err != nil {
		return nil, &NotFoundError{What: "class", Name: name, Cause: err}
	}
	defer r.rt.DeleteLocalRef(cls)
	return r.getOrCreateLocked(cls)
}

// GetOrCreateType returns the Type of the class cls, creating an unresolved
// Type on first sight. The caller keeps ownership of cls.
func (r *Registry) GetOrCreateType(cls foreign.Ref) (*Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateLocked(cls)
}

func (r *Registry) getOrCreateLocked(cls foreign.Ref) (*Type, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if cls.IsNull() {
		return nil, &NotFoundError{What: "class", Name: "null"}
	}
	name, err := r.rt.ClassName(cls)
	if err != nil {
		return nil, &NotFoundError{What: "class", Name: fmt.Sprintf("%#x", uintptr(cls)), Cause: err}
	}
	if t, ok := r.types[name]; ok {
		return t, nil
	}

	global := r.rt.NewGlobalRef(cls)
	if global.IsNull() {
		return nil, &AllocationError{What: "class handle for " + name}
	}
	t := &Type{
		reg:       r,
		name:      name,
		primitive: r.rt.IsPrimitive(cls),
		ref:       global,
	}
	// Visible before its links are followed.
	r.types[name] = t
	r.order = append(r.order, t)

	if err := r.link(t, cls); err != nil {
		r.evict(t)
		return nil, err
	}
	t.variant, t.prim = classify(name, t.primitive, t.component)
	log.Debugf("created type %s", name)
	return t, nil
}

func (r *Registry) link(t *Type, cls foreign.Ref) error {
	if super := r.rt.Superclass(cls); !super.IsNull() {
		st, err := r.getOrCreateLocked(super)
		r.rt.DeleteLocalRef(super)
		if err != nil {
			return err
		}
		t.super = st
	}
	if comp := r.rt.ComponentType(cls); !comp.IsNull() {
		ct, err := r.getOrCreateLocked(comp)
		r.rt.DeleteLocalRef(comp)
		if err != nil {
			return err
		}
		t.component = ct
	}
	return nil
}

// evict drops a stub whose links could not be built.
func (r *Registry) evict(t *Type) {
	delete(r.types, t.name)
	if i := slices.Index(r.order, t); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	r.rt.DeleteGlobalRef(t.ref)
	t.ref = 0
	log.Debugf("evicted type %s", t.name)
}

// Resolve catalogs the members of t and its supertypes. It is idempotent;
// on failure t is left unresolved with an empty member table and a
// *ResolutionError is returned.
func (r *Registry) Resolve(t *Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if t.reg != r {
		return fmt.Errorf("bridge: type %s belongs to another registry", t.name)
	}
	return r.resolveLocked(t)
}

// Types returns every Type in creation order.
func (r *Registry) Types() []*Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Runtime returns the foreign runtime the registry mirrors.
func (r *Registry) Runtime() foreign.Runtime { return r.rt }

// Close releases every durable handle the registry owns, newest type
// first. Instances handed out earlier keep their own handles and must
// still be released by their holders. Close is idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for i := len(r.order) - 1; i >= 0; i-- {
		r.order[i].release()
	}
	log.Debugf("closed registry with %d types", len(r.order))
	r.types, r.order = nil, nil
	return nil
}

func (r *Registry) checkOpen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}

// canonicalName converts slashed and source-form array names to dotted
// binary names: "java/lang/String" and "java.lang.String[]" become
// "java.lang.String" and "[Ljava.lang.String;".
func canonicalName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "/", ".")
	dims := 0
	for strings.HasSuffix(name, "[]") {
		name = strings.TrimSuffix(name, "[]")
		dims++
	}
	if dims == 0 {
		return name
	}
	elem := "L" + name + ";"
	if k, ok := foreign.PrimitiveKind(name); ok {
		elem = string(k.Descriptor())
	}
	return strings.Repeat("[", dims) + elem
}
