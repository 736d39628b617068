// Package foreign defines the narrow contract between the type bridge and a
// foreign object runtime: class reflection, handle lifetimes, invocation and
// bulk array access.
package foreign

// Ref is an opaque handle to a foreign object or class. The zero Ref is the
// foreign null reference.
//
// Handles come in two lifetime classes. Local refs are call-scoped: they stay
// valid until they are deleted or the enclosing local frame is popped. Global
// refs are durable and stay valid until DeleteGlobalRef.
type Ref uintptr

// IsNull reports whether r is the null reference.
func (r Ref) IsNull() bool { return r == 0 }

// MethodID identifies a constructor or method for invocation.
type MethodID uintptr

// FieldID identifies a field for get/set.
type FieldID uintptr

// Modifier is a reflective member modifier bit set.
type Modifier int32

const (
	ModPublic Modifier = 0x0001
	ModStatic Modifier = 0x0008
	ModFinal  Modifier = 0x0010
)

func (m Modifier) IsPublic() bool { return m&ModPublic != 0 }
func (m Modifier) IsStatic() bool { return m&ModStatic != 0 }
func (m Modifier) IsFinal() bool  { return m&ModFinal != 0 }

// Value is a single call argument or result. Exactly one field is meaningful,
// selected by the Kind of the parameter or return type.
type Value struct {
	Z bool
	B int8
	C uint16
	S int16
	I int32
	J int64
	F float32
	D float64
	L Ref
}

// Executable describes a reflected constructor or method. ParamTypes and
// ReturnType are local class refs. ReturnType is null for constructors.
type Executable struct {
	Name       string
	Modifiers  Modifier
	ParamTypes []Ref
	ReturnType Ref
	ID         MethodID
}

// Field describes a reflected field. Type is a local class ref.
type Field struct {
	Name      string
	Modifiers Modifier
	Type      Ref
	ID        FieldID
}

// Runtime is the reflection and invocation facility of a foreign runtime.
//
// Every Ref returned by a Runtime method is a new local ref unless documented
// otherwise. Callers own those refs and release them with DeleteLocalRef or by
// popping the enclosing local frame.
type Runtime interface {
	// FindClass looks up a class by its slash-delimited resource name
	// ("java/lang/String", "[I"). Returns a local ref.
	FindClass(name string) (Ref, error)
	// ClassName returns the dotted binary name of a class
	// ("java.lang.String", "int", "[Ljava.lang.Object;").
	ClassName(cls Ref) (string, error)
	IsPrimitive(cls Ref) bool
	// Superclass returns the superclass of cls, or null for the root class,
	// interfaces and primitives.
	Superclass(cls Ref) Ref
	// ComponentType returns the element class of an array class, or null.
	ComponentType(cls Ref) Ref
	GetObjectClass(obj Ref) Ref
	IsInstanceOf(obj, cls Ref) bool
	// IsAssignableFrom reports whether an object of class from can be
	// safely cast to class to.
	IsAssignableFrom(from, to Ref) bool

	DeclaredConstructors(cls Ref) ([]Executable, error)
	DeclaredMethods(cls Ref) ([]Executable, error)
	DeclaredFields(cls Ref) ([]Field, error)

	NewGlobalRef(ref Ref) Ref
	DeleteGlobalRef(ref Ref)
	DeleteLocalRef(ref Ref)
	// PushLocalFrame opens a frame; every local ref created until the
	// matching PopLocalFrame is released by it.
	PushLocalFrame(capacity int) error
	PopLocalFrame()

	// GetMethodID resolves a method by name and type descriptor, e.g.
	// ("<init>", "(I)V") or ("intValue", "()I").
	GetMethodID(cls Ref, name, sig string) (MethodID, error)
	NewObject(cls Ref, ctor MethodID, args []Value) (Ref, error)
	CallMethod(obj Ref, m MethodID, ret Kind, args []Value) (Value, error)
	CallStaticMethod(cls Ref, m MethodID, ret Kind, args []Value) (Value, error)

	GetField(obj Ref, f FieldID, k Kind) (Value, error)
	SetField(obj Ref, f FieldID, k Kind, v Value) error
	GetStaticField(cls Ref, f FieldID, k Kind) (Value, error)

	NewString(s string) (Ref, error)
	StringContent(str Ref) (string, error)
	// NewPrimitiveArray allocates a zeroed array of n elements of kind k.
	NewPrimitiveArray(k Kind, n int) (Ref, error)
	ArrayLength(arr Ref) int
	// GetArrayRegion copies the raw native-order element bytes of arr into
	// dst, which must be exactly ArrayLength(arr)*k.Size() bytes long.
	GetArrayRegion(arr Ref, dst []byte) error
	// SetArrayRegion overwrites the element bytes of arr from src.
	SetArrayRegion(arr Ref, src []byte) error
}
