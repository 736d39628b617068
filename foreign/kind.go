package foreign

//go:generate go tool stringer -type=Kind -output=kind_string.go

// Kind is the value category a parameter, field or return slot carries
// across the runtime boundary.
type Kind int

const (
	_ Kind = iota // zero is invalid

	KindVoid
	KindBoolean
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindObject
)

var primitiveNames = map[string]Kind{
	"void":    KindVoid,
	"boolean": KindBoolean,
	"byte":    KindByte,
	"char":    KindChar,
	"short":   KindShort,
	"int":     KindInt,
	"long":    KindLong,
	"float":   KindFloat,
	"double":  KindDouble,
}

// PrimitiveKind maps a primitive type name ("int", "boolean", ...) to its
// Kind. The second result is false for non-primitive names.
func PrimitiveKind(name string) (Kind, bool) {
	k, ok := primitiveNames[name]
	return k, ok
}

// IsPrimitive reports whether k is a primitive value kind (void excluded).
func (k Kind) IsPrimitive() bool {
	return k >= KindBoolean && k <= KindDouble
}

func (k Kind) IsIntegral() bool {
	switch k {
	case KindByte, KindChar, KindShort, KindInt, KindLong:
		return true
	}
	return false
}

func (k Kind) IsFloating() bool {
	return k == KindFloat || k == KindDouble
}

// Size returns the element width in bytes of a primitive kind, or 0.
func (k Kind) Size() int {
	switch k {
	case KindBoolean, KindByte:
		return 1
	case KindChar, KindShort:
		return 2
	case KindInt, KindFloat:
		return 4
	case KindLong, KindDouble:
		return 8
	}
	return 0
}

// TypeName returns the source-level primitive name ("int"), or "" for
// object and invalid kinds.
func (k Kind) TypeName() string {
	for name, pk := range primitiveNames {
		if pk == k {
			return name
		}
	}
	return ""
}

// Descriptor returns the single-character type descriptor of a primitive or
// void kind ('I' for int), or 0 for object kinds.
func (k Kind) Descriptor() byte {
	switch k {
	case KindVoid:
		return 'V'
	case KindBoolean:
		return 'Z'
	case KindByte:
		return 'B'
	case KindChar:
		return 'C'
	case KindShort:
		return 'S'
	case KindInt:
		return 'I'
	case KindLong:
		return 'J'
	case KindFloat:
		return 'F'
	case KindDouble:
		return 'D'
	}
	return 0
}

// KindForDescriptor is the inverse of Descriptor. Any reference descriptor
// ('L' or '[') maps to KindObject.
func KindForDescriptor(c byte) Kind {
	switch c {
	case 'V':
		return KindVoid
	case 'Z':
		return KindBoolean
	case 'B':
		return KindByte
	case 'C':
		return KindChar
	case 'S':
		return KindShort
	case 'I':
		return KindInt
	case 'J':
		return KindLong
	case 'F':
		return KindFloat
	case 'D':
		return KindDouble
	case 'L', '[':
		return KindObject
	}
	return 0
}
