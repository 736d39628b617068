package memvm

import (
	"fmt"

	"github.com/chazu/jbridge/foreign"
)

var _ foreign.Runtime = (*VM)(nil)

// ---------------------------------------------------------------------------
// Classes and reflection
// ---------------------------------------------------------------------------

func (vm *VM) FindClass(name string) (foreign.Ref, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, ok := vm.findClass(NormalizeName(name))
	if !ok {
		if k, prim := foreign.PrimitiveKind(name); prim {
			// FindClass never sees primitives in a real runtime, but accepting
			// them keeps lookups by name uniform.
			c = vm.classes[k.TypeName()]
		} else {
			return 0, fmt.Errorf("memvm: NoClassDefFoundError: %s", name)
		}
	}
	return vm.newLocal(c.object), nil
}

func (vm *VM) ClassName(cls foreign.Ref) (string, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, err := vm.derefClass(cls)
	if err != nil {
		return "", err
	}
	if c.phantom {
		return "", fmt.Errorf("memvm: NoClassDefFoundError: %s", c.Name)
	}
	return c.Name, nil
}

func (vm *VM) IsPrimitive(cls foreign.Ref) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, err := vm.derefClass(cls)
	return err == nil && c.IsPrimitive()
}

func (vm *VM) Superclass(cls foreign.Ref) foreign.Ref {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, err := vm.derefClass(cls)
	if err != nil || c.Super == nil {
		return 0
	}
	return vm.newLocal(c.Super.object)
}

func (vm *VM) ComponentType(cls foreign.Ref) foreign.Ref {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, err := vm.derefClass(cls)
	if err != nil || c.Component == nil {
		return 0
	}
	return vm.newLocal(c.Component.object)
}

func (vm *VM) GetObjectClass(obj foreign.Ref) foreign.Ref {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	o, err := vm.mustDeref(obj)
	if err != nil || o.class == nil {
		return 0
	}
	return vm.newLocal(o.class.object)
}

func (vm *VM) IsInstanceOf(obj, cls foreign.Ref) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	o, err := vm.deref(obj)
	if err != nil {
		return false
	}
	if o == nil {
		return true
	}
	c, err := vm.derefClass(cls)
	if err != nil {
		return false
	}
	return assignable(o.class, c)
}

func (vm *VM) IsAssignableFrom(from, to foreign.Ref) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	f, err := vm.derefClass(from)
	if err != nil {
		return false
	}
	t, err := vm.derefClass(to)
	if err != nil {
		return false
	}
	return assignable(f, t)
}

func (vm *VM) DeclaredConstructors(cls foreign.Ref) ([]foreign.Executable, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, err := vm.derefClass(cls)
	if err != nil {
		return nil, err
	}
	return vm.executables(c.Constructors), nil
}

func (vm *VM) DeclaredMethods(cls foreign.Ref) ([]foreign.Executable, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, err := vm.derefClass(cls)
	if err != nil {
		return nil, err
	}
	return vm.executables(c.Methods), nil
}

func (vm *VM) executables(ms []*Method) []foreign.Executable {
	out := make([]foreign.Executable, 0, len(ms))
	for _, m := range ms {
		ex := foreign.Executable{
			Name:      m.Name,
			Modifiers: m.Modifiers,
			ID:        m.id,
		}
		for _, p := range m.Params {
			ex.ParamTypes = append(ex.ParamTypes, vm.newLocal(vm.classNamed(p).object))
		}
		if m.Return != "" {
			ex.ReturnType = vm.newLocal(vm.classNamed(m.Return).object)
		}
		out = append(out, ex)
	}
	return out
}

func (vm *VM) DeclaredFields(cls foreign.Ref) ([]foreign.Field, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, err := vm.derefClass(cls)
	if err != nil {
		return nil, err
	}
	out := make([]foreign.Field, 0, len(c.Fields))
	for _, f := range c.Fields {
		out = append(out, foreign.Field{
			Name:      f.Name,
			Modifiers: f.Modifiers,
			Type:      vm.newLocal(vm.classNamed(f.Type).object),
			ID:        f.id,
		})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Handles
// ---------------------------------------------------------------------------

func (vm *VM) NewGlobalRef(ref foreign.Ref) foreign.Ref {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	obj, err := vm.deref(ref)
	if err != nil || obj == nil {
		return 0
	}
	return vm.newGlobal(obj)
}

func (vm *VM) DeleteGlobalRef(ref foreign.Ref) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.deleteGlobal(ref)
}

func (vm *VM) DeleteLocalRef(ref foreign.Ref) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.deleteLocal(ref)
}

func (vm *VM) PushLocalFrame(capacity int) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.frames = append(vm.frames, make([]foreign.Ref, 0, capacity))
	return nil
}

func (vm *VM) PopLocalFrame() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if len(vm.frames) == 1 {
		vm.badReleases++
		log.Warning("pop of base local frame")
		return
	}
	top := vm.frames[len(vm.frames)-1]
	for _, ref := range top {
		delete(vm.handles, ref)
	}
	vm.frames = vm.frames[:len(vm.frames)-1]
}

// ---------------------------------------------------------------------------
// Invocation
// ---------------------------------------------------------------------------

func (vm *VM) GetMethodID(cls foreign.Ref, name, sig string) (foreign.MethodID, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, err := vm.derefClass(cls)
	if err != nil {
		return 0, err
	}
	for k := c; k != nil; k = k.Super {
		list := k.Methods
		if name == "<init>" {
			list = k.Constructors
		}
		for _, m := range list {
			if m.Name == name && m.Descriptor() == sig {
				return m.id, nil
			}
		}
		if name == "<init>" {
			break
		}
	}
	return 0, fmt.Errorf("memvm: NoSuchMethodError: %s.%s%s", c.Name, name, sig)
}

func (vm *VM) NewObject(cls foreign.Ref, ctor foreign.MethodID, args []foreign.Value) (foreign.Ref, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, err := vm.derefClass(cls)
	if err != nil {
		return 0, err
	}
	m, ok := vm.methods[ctor]
	if !ok || m.owner != c || m.Name != "<init>" {
		return 0, fmt.Errorf("memvm: NoSuchMethodError: constructor %d of %s", ctor, c.Name)
	}
	if err := checkArity(m, args); err != nil {
		return 0, err
	}
	obj := vm.newInstance(c)
	if m.Impl != nil {
		if _, err := m.Impl(&Call{VM: vm, Method: m, This: obj, Args: args}); err != nil {
			return 0, err
		}
	}
	return vm.newLocal(obj), nil
}

func (vm *VM) CallMethod(obj foreign.Ref, mid foreign.MethodID, ret foreign.Kind, args []foreign.Value) (foreign.Value, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	this, err := vm.mustDeref(obj)
	if err != nil {
		return foreign.Value{}, err
	}
	m, ok := vm.methods[mid]
	if !ok || m.Name == "<init>" {
		return foreign.Value{}, fmt.Errorf("memvm: NoSuchMethodError: method %d", mid)
	}
	if !assignable(this.class, m.owner) {
		return foreign.Value{}, fmt.Errorf("memvm: IncompatibleClassChangeError: %s is not a %s", className(this), m.owner.Name)
	}
	m = vm.dispatch(this.class, m)
	return vm.invoke(m, this, ret, args)
}

func (vm *VM) CallStaticMethod(cls foreign.Ref, mid foreign.MethodID, ret foreign.Kind, args []foreign.Value) (foreign.Value, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if _, err := vm.derefClass(cls); err != nil {
		return foreign.Value{}, err
	}
	m, ok := vm.methods[mid]
	if !ok || !m.Modifiers.IsStatic() {
		return foreign.Value{}, fmt.Errorf("memvm: NoSuchMethodError: static method %d", mid)
	}
	return vm.invoke(m, nil, ret, args)
}

// dispatch finds the most specific override of m for receiver class c.
func (vm *VM) dispatch(c *Class, m *Method) *Method {
	if m.Modifiers.IsStatic() {
		return m
	}
	desc := m.Descriptor()
	for k := c; k != nil && k != m.owner; k = k.Super {
		for _, cand := range k.Methods {
			if cand.Name == m.Name && !cand.Modifiers.IsStatic() && cand.Descriptor() == desc {
				return cand
			}
		}
	}
	return m
}

func (vm *VM) invoke(m *Method, this *Object, ret foreign.Kind, args []foreign.Value) (foreign.Value, error) {
	if want := kindOf(m.Return); want != ret {
		return foreign.Value{}, fmt.Errorf("memvm: %s.%s returns %s, called as %s", m.owner.Name, m.Name, want, ret)
	}
	if err := checkArity(m, args); err != nil {
		return foreign.Value{}, err
	}
	if m.Impl == nil {
		return foreign.Value{}, nil
	}
	return m.Impl(&Call{VM: vm, Method: m, This: this, Args: args})
}

func checkArity(m *Method, args []foreign.Value) error {
	if len(args) != len(m.Params) {
		return fmt.Errorf("memvm: %s.%s expects %d arguments, got %d", m.owner.Name, m.Name, len(m.Params), len(args))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Fields
// ---------------------------------------------------------------------------

func (vm *VM) GetField(obj foreign.Ref, fid foreign.FieldID, k foreign.Kind) (foreign.Value, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	o, err := vm.mustDeref(obj)
	if err != nil {
		return foreign.Value{}, err
	}
	f, s, err := vm.instanceSlot(o, fid)
	if err != nil {
		return foreign.Value{}, err
	}
	return vm.readSlot(f, s, k)
}

func (vm *VM) SetField(obj foreign.Ref, fid foreign.FieldID, k foreign.Kind, v foreign.Value) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	o, err := vm.mustDeref(obj)
	if err != nil {
		return err
	}
	f, s, err := vm.instanceSlot(o, fid)
	if err != nil {
		return err
	}
	if want := kindOf(f.Type); want != k {
		return fmt.Errorf("memvm: field %s is %s, set as %s", f.Name, want, k)
	}
	if k == foreign.KindObject {
		target, err := vm.deref(v.L)
		if err != nil {
			return err
		}
		s.obj = target
		return nil
	}
	s.prim = v
	return nil
}

func (vm *VM) GetStaticField(cls foreign.Ref, fid foreign.FieldID, k foreign.Kind) (foreign.Value, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if _, err := vm.derefClass(cls); err != nil {
		return foreign.Value{}, err
	}
	f, ok := vm.fields[fid]
	if !ok || !f.Modifiers.IsStatic() {
		return foreign.Value{}, fmt.Errorf("memvm: NoSuchFieldError: static field %d", fid)
	}
	return vm.readSlot(f, f.owner.statics[f.Name], k)
}

func (vm *VM) instanceSlot(o *Object, fid foreign.FieldID) (*Field, *slot, error) {
	f, ok := vm.fields[fid]
	if !ok || f.Modifiers.IsStatic() {
		return nil, nil, fmt.Errorf("memvm: NoSuchFieldError: field %d", fid)
	}
	s, ok := o.fields[f.Name]
	if !ok {
		return nil, nil, fmt.Errorf("memvm: NoSuchFieldError: %s has no field %s", className(o), f.Name)
	}
	return f, s, nil
}

func (vm *VM) readSlot(f *Field, s *slot, k foreign.Kind) (foreign.Value, error) {
	if want := kindOf(f.Type); want != k {
		return foreign.Value{}, fmt.Errorf("memvm: field %s is %s, read as %s", f.Name, want, k)
	}
	if s == nil {
		return foreign.Value{}, nil
	}
	if k == foreign.KindObject {
		return foreign.Value{L: vm.newLocal(s.obj)}, nil
	}
	return s.prim, nil
}

// ---------------------------------------------------------------------------
// Strings and arrays
// ---------------------------------------------------------------------------

func (vm *VM) NewString(s string) (foreign.Ref, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.newLocal(vm.newStringObject(s)), nil
}

func (vm *VM) StringContent(str foreign.Ref) (string, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c := &Call{VM: vm}
	return c.String(str)
}

func (vm *VM) NewPrimitiveArray(k foreign.Kind, n int) (foreign.Ref, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if !k.IsPrimitive() {
		return 0, fmt.Errorf("memvm: %s is not a primitive kind", k)
	}
	if n < 0 {
		return 0, fmt.Errorf("memvm: NegativeArraySizeException: %d", n)
	}
	c := vm.arrayOf(vm.classes[k.TypeName()])
	obj := &Object{class: c, data: make([]byte, n*k.Size()), hash: vm.hash()}
	return vm.newLocal(obj), nil
}

func (vm *VM) ArrayLength(arr foreign.Ref) int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	o, err := vm.mustDeref(arr)
	if err != nil || o.class == nil || !o.class.IsArray() {
		return 0
	}
	if o.class.Component.IsPrimitive() {
		return len(o.data) / o.class.Component.Kind.Size()
	}
	return len(o.elems)
}

func (vm *VM) GetArrayRegion(arr foreign.Ref, dst []byte) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	data, err := vm.arrayData(arr)
	if err != nil {
		return err
	}
	if len(dst) != len(data) {
		return fmt.Errorf("memvm: ArrayIndexOutOfBoundsException: region %d of %d bytes", len(dst), len(data))
	}
	copy(dst, data)
	return nil
}

func (vm *VM) SetArrayRegion(arr foreign.Ref, src []byte) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	data, err := vm.arrayData(arr)
	if err != nil {
		return err
	}
	if len(src) != len(data) {
		return fmt.Errorf("memvm: ArrayIndexOutOfBoundsException: region %d of %d bytes", len(src), len(data))
	}
	copy(data, src)
	return nil
}

func (vm *VM) arrayData(arr foreign.Ref) ([]byte, error) {
	o, err := vm.mustDeref(arr)
	if err != nil {
		return nil, err
	}
	if o.class == nil || !o.class.IsArray() || !o.class.Component.IsPrimitive() {
		return nil, fmt.Errorf("memvm: %s is not a primitive array", className(o))
	}
	return o.data, nil
}
