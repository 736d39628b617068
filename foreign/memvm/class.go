package memvm

import (
	"fmt"
	"strings"

	"github.com/chazu/jbridge/foreign"
)

// Object is a heap object: a plain instance, a class object, a string, a
// boxed scalar or an array.
type Object struct {
	class  *Class
	fields map[string]*slot
	hash   int32

	meta  *Class        // class objects only
	str   string        // java.lang.String
	boxed foreign.Value // wrapper instances
	data  []byte        // primitive arrays, native element order
	elems []*Object     // reference arrays
}

// Class returns the runtime class of the object.
func (o *Object) Class() *Class { return o.class }

// slot stores a field value. Reference values hold the object directly so
// that a field never pins a handle.
type slot struct {
	prim foreign.Value
	obj  *Object
}

// Class is a loaded class, array class or primitive type.
type Class struct {
	Name      string // dotted binary name
	Super     *Class
	Component *Class
	Kind      foreign.Kind // primitive kind, or KindObject
	Modifiers foreign.Modifier

	Constructors []*Method
	Methods      []*Method
	Fields       []*Field

	statics map[string]*slot
	object  *Object
	phantom bool // referenced by name but never defined
	boot    bool
}

// IsPrimitive reports whether the class is a primitive type.
func (c *Class) IsPrimitive() bool { return c.Kind != foreign.KindObject }

// IsArray reports whether the class is an array class.
func (c *Class) IsArray() bool { return c.Component != nil }

// Func is a method or constructor body. For constructors, Call.This is the
// freshly allocated object and the returned value is ignored.
type Func func(c *Call) (foreign.Value, error)

// Method is a constructor or method of a Class.
type Method struct {
	Name      string
	Modifiers foreign.Modifier
	Params    []string // binary names of parameter types
	Return    string   // binary name of the return type; "" for constructors
	Impl      Func

	id    foreign.MethodID
	owner *Class
}

// Descriptor returns the method's type descriptor, e.g. "(I[D)V".
func (m *Method) Descriptor() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range m.Params {
		b.WriteString(descriptorOf(p))
	}
	b.WriteByte(')')
	if m.Return == "" {
		b.WriteByte('V')
	} else {
		b.WriteString(descriptorOf(m.Return))
	}
	return b.String()
}

// Field is a field of a Class.
type Field struct {
	Name      string
	Modifiers foreign.Modifier
	Type      string

	id    foreign.FieldID
	owner *Class
}

// ClassDef declares a class for DefineClass.
type ClassDef struct {
	Name         string
	Super        string // defaults to java.lang.Object
	Modifiers    foreign.Modifier
	Constructors []MethodDef
	Methods      []MethodDef
	Fields       []FieldDef
}

// MethodDef declares a constructor or method. Type names may be given as
// binary names ("[I") or in source form ("int[]").
type MethodDef struct {
	Name      string
	Modifiers foreign.Modifier
	Params    []string
	Return    string
	Impl      Func
}

// FieldDef declares a field. Value seeds static primitive fields; Text seeds
// static java.lang.String fields.
type FieldDef struct {
	Name      string
	Modifiers foreign.Modifier
	Type      string
	Value     foreign.Value
	Text      string
}

// DefineClass loads a class. The superclass must already be defined;
// parameter and field types are looked up lazily and may be defined later.
func (vm *VM) DefineClass(def ClassDef) (*Class, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.defineClass(def)
}

func (vm *VM) defineClass(def ClassDef) (*Class, error) {
	name := NormalizeName(def.Name)
	if name == "" {
		return nil, fmt.Errorf("memvm: empty class name")
	}
	if _, ok := vm.classes[name]; ok {
		return nil, fmt.Errorf("memvm: class %s already defined", name)
	}
	if _, ok := foreign.PrimitiveKind(name); ok || strings.HasPrefix(name, "[") {
		return nil, fmt.Errorf("memvm: cannot define %s", name)
	}

	c := &Class{
		Name:      name,
		Kind:      foreign.KindObject,
		Modifiers: def.Modifiers,
		statics:   make(map[string]*slot),
	}
	superName := def.Super
	if superName == "" && name != "java.lang.Object" {
		superName = "java.lang.Object"
	}
	if superName != "" {
		super, ok := vm.classes[NormalizeName(superName)]
		if !ok {
			return nil, fmt.Errorf("memvm: superclass %s of %s is not defined", superName, name)
		}
		c.Super = super
	}

	for _, md := range def.Constructors {
		c.Constructors = append(c.Constructors, vm.newMethod(c, "<init>", md, ""))
	}
	for _, md := range def.Methods {
		ret := md.Return
		if ret == "" {
			ret = "void"
		}
		c.Methods = append(c.Methods, vm.newMethod(c, md.Name, md, ret))
	}
	for _, fd := range def.Fields {
		vm.nextFieldID++
		f := &Field{
			Name:      fd.Name,
			Modifiers: fd.Modifiers,
			Type:      NormalizeName(fd.Type),
			id:        vm.nextFieldID,
			owner:     c,
		}
		c.Fields = append(c.Fields, f)
		vm.fields[f.id] = f
		if f.Modifiers.IsStatic() {
			s := &slot{prim: fd.Value}
			if f.Type == "java.lang.String" && fd.Text != "" {
				s.obj = vm.newStringObject(fd.Text)
			}
			c.statics[f.Name] = s
		}
	}

	vm.installClass(c)
	log.Debugf("defined class %s", name)
	return c, nil
}

func (vm *VM) newMethod(c *Class, name string, md MethodDef, ret string) *Method {
	vm.nextMethodID++
	m := &Method{
		Name:      name,
		Modifiers: md.Modifiers,
		Return:    NormalizeName(ret),
		Impl:      md.Impl,
		id:        vm.nextMethodID,
		owner:     c,
	}
	for _, p := range md.Params {
		m.Params = append(m.Params, NormalizeName(p))
	}
	vm.methods[m.id] = m
	return m
}

func (vm *VM) installClass(c *Class) {
	c.object = &Object{meta: c, hash: vm.hash()}
	if cc, ok := vm.classes["java.lang.Class"]; ok {
		c.object.class = cc
	}
	vm.classes[c.Name] = c
	vm.order = append(vm.order, c)
}

// Lookup returns a defined class by dotted or slashed name.
func (vm *VM) Lookup(name string) (*Class, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c, ok := vm.classes[NormalizeName(name)]
	return c, ok
}

// classNamed resolves a type name, creating array classes on demand and
// phantom classes for names that were never defined.
func (vm *VM) classNamed(name string) *Class {
	if c, ok := vm.classes[name]; ok {
		return c
	}
	if strings.HasPrefix(name, "[") {
		comp := vm.classNamed(componentName(name))
		return vm.arrayOf(comp)
	}
	if c, ok := vm.phantoms[name]; ok {
		return c
	}
	c := &Class{Name: name, Kind: foreign.KindObject, phantom: true}
	c.object = &Object{meta: c, class: vm.classes["java.lang.Class"], hash: vm.hash()}
	vm.phantoms[name] = c
	return c
}

// findClass is classNamed without phantom creation.
func (vm *VM) findClass(name string) (*Class, bool) {
	if c, ok := vm.classes[name]; ok {
		return c, true
	}
	if strings.HasPrefix(name, "[") {
		comp, ok := vm.findClass(componentName(name))
		if !ok {
			return nil, false
		}
		return vm.arrayOf(comp), true
	}
	return nil, false
}

func (vm *VM) arrayOf(comp *Class) *Class {
	name := "[" + descriptorOf(comp.Name)
	name = strings.ReplaceAll(name, "/", ".")
	if c, ok := vm.classes[name]; ok {
		return c
	}
	c := &Class{
		Name:      name,
		Super:     vm.classes["java.lang.Object"],
		Component: comp,
		Kind:      foreign.KindObject,
		Modifiers: foreign.ModPublic | foreign.ModFinal,
		statics:   make(map[string]*slot),
		boot:      true,
	}
	vm.installClass(c)
	return c
}

// assignable reports whether a value of class from can be stored in a
// location of class to.
func assignable(from, to *Class) bool {
	if from == to {
		return true
	}
	if from.IsPrimitive() || to.IsPrimitive() {
		return false
	}
	if from.IsArray() && to.IsArray() {
		if from.Component.IsPrimitive() || to.Component.IsPrimitive() {
			return from.Component == to.Component
		}
		return assignable(from.Component, to.Component)
	}
	for c := from.Super; c != nil; c = c.Super {
		if c == to {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Names and descriptors
// ---------------------------------------------------------------------------

// NormalizeName converts slashed names, descriptor names and source-form
// array names ("int[]", "java.lang.String[][]") to dotted binary names.
func NormalizeName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "/", ".")
	dims := 0
	for strings.HasSuffix(name, "[]") {
		name = strings.TrimSuffix(name, "[]")
		dims++
	}
	if dims == 0 {
		return name
	}
	return strings.Repeat("[", dims) + strings.ReplaceAll(descriptorOf(name), "/", ".")
}

// descriptorOf returns the field descriptor of a binary type name.
func descriptorOf(name string) string {
	if k, ok := foreign.PrimitiveKind(name); ok {
		return string(k.Descriptor())
	}
	if strings.HasPrefix(name, "[") {
		return strings.ReplaceAll(name, ".", "/")
	}
	return "L" + strings.ReplaceAll(name, ".", "/") + ";"
}

// componentName strips one array dimension from a binary array name.
func componentName(name string) string {
	rest := strings.TrimPrefix(name, "[")
	switch {
	case strings.HasPrefix(rest, "["):
		return rest
	case strings.HasPrefix(rest, "L") && strings.HasSuffix(rest, ";"):
		return strings.TrimSuffix(strings.TrimPrefix(rest, "L"), ";")
	case len(rest) == 1:
		if k := foreign.KindForDescriptor(rest[0]); k.IsPrimitive() {
			return k.TypeName()
		}
	}
	return rest
}
