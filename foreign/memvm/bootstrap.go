package memvm

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/chazu/jbridge/foreign"
)

const (
	public       = foreign.ModPublic
	publicStatic = foreign.ModPublic | foreign.ModStatic
	constant     = foreign.ModPublic | foreign.ModStatic | foreign.ModFinal
)

// boxKinds maps the wrapper classes to the primitive kind they box.
var boxKinds = map[string]foreign.Kind{
	"java.lang.Boolean":   foreign.KindBoolean,
	"java.lang.Character": foreign.KindChar,
	"java.lang.Byte":      foreign.KindByte,
	"java.lang.Short":     foreign.KindShort,
	"java.lang.Integer":   foreign.KindInt,
	"java.lang.Long":      foreign.KindLong,
	"java.lang.Float":     foreign.KindFloat,
	"java.lang.Double":    foreign.KindDouble,
}

func (vm *VM) bootstrap() {
	for _, name := range []string{"void", "boolean", "byte", "char", "short", "int", "long", "float", "double"} {
		k, _ := foreign.PrimitiveKind(name)
		vm.installClass(&Class{
			Name:      name,
			Kind:      k,
			Modifiers: foreign.ModPublic | foreign.ModFinal,
			statics:   make(map[string]*slot),
			boot:      true,
		})
	}

	vm.mustDefine(objectClass())
	vm.mustDefine(classClass())
	// Class objects created before java.lang.Class existed get their class now.
	classOfClasses := vm.classes["java.lang.Class"]
	for _, c := range vm.classes {
		c.object.class = classOfClasses
	}

	vm.mustDefine(stringClass())
	vm.mustDefine(ClassDef{
		Name:      "java.lang.Number",
		Modifiers: public,
		Constructors: []MethodDef{
			{Modifiers: public},
		},
		Methods: []MethodDef{
			numberAccessor("byteValue", "byte"),
			numberAccessor("shortValue", "short"),
			numberAccessor("intValue", "int"),
			numberAccessor("longValue", "long"),
			numberAccessor("floatValue", "float"),
			numberAccessor("doubleValue", "double"),
		},
	})
	vm.mustDefine(wrapperClass("java.lang.Boolean", "java.lang.Object", "boolean", "booleanValue", nil))
	vm.mustDefine(wrapperClass("java.lang.Character", "java.lang.Object", "char", "charValue", []FieldDef{
		{Name: "MIN_VALUE", Modifiers: constant, Type: "char", Value: foreign.Value{C: 0}},
		{Name: "MAX_VALUE", Modifiers: constant, Type: "char", Value: foreign.Value{C: math.MaxUint16}},
	}))
	vm.mustDefine(wrapperClass("java.lang.Byte", "java.lang.Number", "byte", "", []FieldDef{
		{Name: "MIN_VALUE", Modifiers: constant, Type: "byte", Value: foreign.Value{B: math.MinInt8}},
		{Name: "MAX_VALUE", Modifiers: constant, Type: "byte", Value: foreign.Value{B: math.MaxInt8}},
	}))
	vm.mustDefine(wrapperClass("java.lang.Short", "java.lang.Number", "short", "", []FieldDef{
		{Name: "MIN_VALUE", Modifiers: constant, Type: "short", Value: foreign.Value{S: math.MinInt16}},
		{Name: "MAX_VALUE", Modifiers: constant, Type: "short", Value: foreign.Value{S: math.MaxInt16}},
	}))
	integer := wrapperClass("java.lang.Integer", "java.lang.Number", "int", "", []FieldDef{
		{Name: "MIN_VALUE", Modifiers: constant, Type: "int", Value: foreign.Value{I: math.MinInt32}},
		{Name: "MAX_VALUE", Modifiers: constant, Type: "int", Value: foreign.Value{I: math.MaxInt32}},
	})
	integer.Methods = append(integer.Methods, MethodDef{
		Name: "parseInt", Modifiers: publicStatic, Params: []string{"java.lang.String"}, Return: "int",
		Impl: func(c *Call) (foreign.Value, error) {
			s, err := c.String(c.Args[0].L)
			if err != nil {
				return foreign.Value{}, err
			}
			n, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return foreign.Value{}, fmt.Errorf("memvm: NumberFormatException: %q", s)
			}
			return foreign.Value{I: int32(n)}, nil
		},
	})
	vm.mustDefine(integer)
	vm.mustDefine(wrapperClass("java.lang.Long", "java.lang.Number", "long", "", []FieldDef{
		{Name: "MIN_VALUE", Modifiers: constant, Type: "long", Value: foreign.Value{J: math.MinInt64}},
		{Name: "MAX_VALUE", Modifiers: constant, Type: "long", Value: foreign.Value{J: math.MaxInt64}},
	}))
	vm.mustDefine(wrapperClass("java.lang.Float", "java.lang.Number", "float", "", []FieldDef{
		{Name: "MAX_VALUE", Modifiers: constant, Type: "float", Value: foreign.Value{F: math.MaxFloat32}},
	}))
	vm.mustDefine(wrapperClass("java.lang.Double", "java.lang.Number", "double", "", []FieldDef{
		{Name: "MAX_VALUE", Modifiers: constant, Type: "double", Value: foreign.Value{D: math.MaxFloat64}},
	}))
	vm.mustDefine(mathClass())
	vm.mustDefine(arraysClass())

	for _, c := range vm.classes {
		c.boot = true
	}
}

func (vm *VM) mustDefine(def ClassDef) {
	if _, err := vm.defineClass(def); err != nil {
		panic(fmt.Sprintf("memvm: bootstrap: %v", err))
	}
}

func objectClass() ClassDef {
	return ClassDef{
		Name:      "java.lang.Object",
		Modifiers: public,
		Constructors: []MethodDef{
			{Modifiers: public},
		},
		Methods: []MethodDef{
			{Name: "hashCode", Modifiers: public, Return: "int", Impl: func(c *Call) (foreign.Value, error) {
				return foreign.Value{I: c.This.hash}, nil
			}},
			{Name: "equals", Modifiers: public, Params: []string{"java.lang.Object"}, Return: "boolean", Impl: func(c *Call) (foreign.Value, error) {
				other, err := c.Object(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				return foreign.Value{Z: other == c.This}, nil
			}},
			{Name: "toString", Modifiers: public, Return: "java.lang.String", Impl: func(c *Call) (foreign.Value, error) {
				return c.NewString(stringOf(c.This)), nil
			}},
			{Name: "getClass", Modifiers: public | foreign.ModFinal, Return: "java.lang.Class", Impl: func(c *Call) (foreign.Value, error) {
				return c.Ref(c.This.class.object), nil
			}},
			// Non-public members are reflected but never exposed.
			{Name: "finalize", Return: "void"},
		},
	}
}

func classClass() ClassDef {
	meta := func(c *Call) *Class { return c.This.meta }
	return ClassDef{
		Name:      "java.lang.Class",
		Modifiers: public | foreign.ModFinal,
		Methods: []MethodDef{
			{Name: "getName", Modifiers: public, Return: "java.lang.String", Impl: func(c *Call) (foreign.Value, error) {
				return c.NewString(meta(c).Name), nil
			}},
			{Name: "getSuperclass", Modifiers: public, Return: "java.lang.Class", Impl: func(c *Call) (foreign.Value, error) {
				if s := meta(c).Super; s != nil {
					return c.Ref(s.object), nil
				}
				return foreign.Value{}, nil
			}},
			{Name: "getComponentType", Modifiers: public, Return: "java.lang.Class", Impl: func(c *Call) (foreign.Value, error) {
				if comp := meta(c).Component; comp != nil {
					return c.Ref(comp.object), nil
				}
				return foreign.Value{}, nil
			}},
			{Name: "isPrimitive", Modifiers: public, Return: "boolean", Impl: func(c *Call) (foreign.Value, error) {
				return foreign.Value{Z: meta(c).IsPrimitive()}, nil
			}},
			{Name: "isArray", Modifiers: public, Return: "boolean", Impl: func(c *Call) (foreign.Value, error) {
				return foreign.Value{Z: meta(c).IsArray()}, nil
			}},
			{Name: "isInstance", Modifiers: public, Params: []string{"java.lang.Object"}, Return: "boolean", Impl: func(c *Call) (foreign.Value, error) {
				obj, err := c.Object(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				return foreign.Value{Z: obj != nil && assignable(obj.class, meta(c))}, nil
			}},
		},
	}
}

func stringClass() ClassDef {
	valueOf := func(param string, format func(foreign.Value) string) MethodDef {
		return MethodDef{
			Name: "valueOf", Modifiers: publicStatic, Params: []string{param}, Return: "java.lang.String",
			Impl: func(c *Call) (foreign.Value, error) {
				return c.NewString(format(c.Args[0])), nil
			},
		}
	}
	return ClassDef{
		Name:      "java.lang.String",
		Modifiers: public | foreign.ModFinal,
		Constructors: []MethodDef{
			{Modifiers: public},
			{Modifiers: public, Params: []string{"java.lang.String"}, Impl: func(c *Call) (foreign.Value, error) {
				s, err := c.String(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				c.This.str = s
				return foreign.Value{}, nil
			}},
		},
		Methods: []MethodDef{
			{Name: "length", Modifiers: public, Return: "int", Impl: func(c *Call) (foreign.Value, error) {
				return foreign.Value{I: int32(len([]rune(c.This.str)))}, nil
			}},
			{Name: "isEmpty", Modifiers: public, Return: "boolean", Impl: func(c *Call) (foreign.Value, error) {
				return foreign.Value{Z: c.This.str == ""}, nil
			}},
			{Name: "charAt", Modifiers: public, Params: []string{"int"}, Return: "char", Impl: func(c *Call) (foreign.Value, error) {
				runes := []rune(c.This.str)
				i := int(c.Args[0].I)
				if i < 0 || i >= len(runes) {
					return foreign.Value{}, fmt.Errorf("memvm: StringIndexOutOfBoundsException: %d", i)
				}
				return foreign.Value{C: uint16(runes[i])}, nil
			}},
			{Name: "concat", Modifiers: public, Params: []string{"java.lang.String"}, Return: "java.lang.String", Impl: func(c *Call) (foreign.Value, error) {
				s, err := c.String(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				return c.NewString(c.This.str + s), nil
			}},
			{Name: "toString", Modifiers: public, Return: "java.lang.String", Impl: func(c *Call) (foreign.Value, error) {
				return c.Ref(c.This), nil
			}},
			{Name: "equals", Modifiers: public, Params: []string{"java.lang.Object"}, Return: "boolean", Impl: func(c *Call) (foreign.Value, error) {
				other, err := c.Object(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				eq := other != nil && other.class == c.This.class && other.str == c.This.str
				return foreign.Value{Z: eq}, nil
			}},
			valueOf("boolean", func(v foreign.Value) string { return strconv.FormatBool(v.Z) }),
			valueOf("char", func(v foreign.Value) string { return string(rune(v.C)) }),
			valueOf("int", func(v foreign.Value) string { return strconv.FormatInt(int64(v.I), 10) }),
			valueOf("long", func(v foreign.Value) string { return strconv.FormatInt(v.J, 10) }),
			valueOf("float", func(v foreign.Value) string { return strconv.FormatFloat(float64(v.F), 'g', -1, 32) }),
			valueOf("double", func(v foreign.Value) string { return strconv.FormatFloat(v.D, 'g', -1, 64) }),
			{Name: "valueOf", Modifiers: publicStatic, Params: []string{"java.lang.Object"}, Return: "java.lang.String", Impl: func(c *Call) (foreign.Value, error) {
				obj, err := c.Object(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				if obj == nil {
					return c.NewString("null"), nil
				}
				return c.NewString(stringOf(obj)), nil
			}},
		},
	}
}

func numberAccessor(name, prim string) MethodDef {
	k, _ := foreign.PrimitiveKind(prim)
	return MethodDef{
		Name: name, Modifiers: public, Return: prim,
		Impl: func(c *Call) (foreign.Value, error) {
			return convertBoxed(c.This, k), nil
		},
	}
}

// wrapperClass declares a boxing class with a one-argument constructor and,
// when accessor is non-empty, its own xValue() accessor.
func wrapperClass(name, super, prim, accessor string, fields []FieldDef) ClassDef {
	def := ClassDef{
		Name:      name,
		Super:     super,
		Modifiers: public | foreign.ModFinal,
		Constructors: []MethodDef{
			{Modifiers: public, Params: []string{prim}, Impl: func(c *Call) (foreign.Value, error) {
				c.This.boxed = c.Args[0]
				return foreign.Value{}, nil
			}},
		},
		Methods: []MethodDef{
			{Name: "toString", Modifiers: public, Return: "java.lang.String", Impl: func(c *Call) (foreign.Value, error) {
				return c.NewString(stringOf(c.This)), nil
			}},
		},
		Fields: fields,
	}
	if accessor != "" {
		def.Methods = append(def.Methods, MethodDef{
			Name: accessor, Modifiers: public, Return: prim,
			Impl: func(c *Call) (foreign.Value, error) {
				return c.This.boxed, nil
			},
		})
	}
	return def
}

func mathClass() ClassDef {
	def := ClassDef{
		Name:      "java.lang.Math",
		Modifiers: public | foreign.ModFinal,
		Fields: []FieldDef{
			{Name: "PI", Modifiers: constant, Type: "double", Value: foreign.Value{D: math.Pi}},
			{Name: "E", Modifiers: constant, Type: "double", Value: foreign.Value{D: math.E}},
		},
	}
	def.Methods = []MethodDef{
		{Name: "max", Modifiers: publicStatic, Params: []string{"int", "int"}, Return: "int", Impl: func(c *Call) (foreign.Value, error) {
			return foreign.Value{I: max(c.Args[0].I, c.Args[1].I)}, nil
		}},
		{Name: "max", Modifiers: publicStatic, Params: []string{"long", "long"}, Return: "long", Impl: func(c *Call) (foreign.Value, error) {
			return foreign.Value{J: max(c.Args[0].J, c.Args[1].J)}, nil
		}},
		{Name: "max", Modifiers: publicStatic, Params: []string{"float", "float"}, Return: "float", Impl: func(c *Call) (foreign.Value, error) {
			return foreign.Value{F: max(c.Args[0].F, c.Args[1].F)}, nil
		}},
		{Name: "max", Modifiers: publicStatic, Params: []string{"double", "double"}, Return: "double", Impl: func(c *Call) (foreign.Value, error) {
			return foreign.Value{D: max(c.Args[0].D, c.Args[1].D)}, nil
		}},
		{Name: "abs", Modifiers: publicStatic, Params: []string{"int"}, Return: "int", Impl: func(c *Call) (foreign.Value, error) {
			v := c.Args[0].I
			if v < 0 {
				v = -v
			}
			return foreign.Value{I: v}, nil
		}},
		{Name: "abs", Modifiers: publicStatic, Params: []string{"double"}, Return: "double", Impl: func(c *Call) (foreign.Value, error) {
			return foreign.Value{D: math.Abs(c.Args[0].D)}, nil
		}},
	}
	return def
}

func arraysClass() ClassDef {
	return ClassDef{
		Name:      "java.util.Arrays",
		Modifiers: public,
		Methods: []MethodDef{
			{Name: "sort", Modifiers: publicStatic, Params: []string{"int[]"}, Return: "void", Impl: func(c *Call) (foreign.Value, error) {
				vals, err := c.Ints(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
				return foreign.Value{}, c.SetInts(c.Args[0].L, vals)
			}},
			{Name: "sort", Modifiers: publicStatic, Params: []string{"double[]"}, Return: "void", Impl: func(c *Call) (foreign.Value, error) {
				vals, err := c.Doubles(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				sort.Float64s(vals)
				return foreign.Value{}, c.SetDoubles(c.Args[0].L, vals)
			}},
			{Name: "fill", Modifiers: publicStatic, Params: []string{"int[]", "int"}, Return: "void", Impl: func(c *Call) (foreign.Value, error) {
				vals, err := c.Ints(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				for i := range vals {
					vals[i] = c.Args[1].I
				}
				return foreign.Value{}, c.SetInts(c.Args[0].L, vals)
			}},
			{Name: "fill", Modifiers: publicStatic, Params: []string{"double[]", "double"}, Return: "void", Impl: func(c *Call) (foreign.Value, error) {
				vals, err := c.Doubles(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				for i := range vals {
					vals[i] = c.Args[1].D
				}
				return foreign.Value{}, c.SetDoubles(c.Args[0].L, vals)
			}},
			{Name: "sum", Modifiers: publicStatic, Params: []string{"int[]"}, Return: "long", Impl: func(c *Call) (foreign.Value, error) {
				vals, err := c.Ints(c.Args[0].L)
				if err != nil {
					return foreign.Value{}, err
				}
				var total int64
				for _, v := range vals {
					total += int64(v)
				}
				return foreign.Value{J: total}, nil
			}},
			{Name: "range", Modifiers: publicStatic, Params: []string{"int"}, Return: "int[]", Impl: func(c *Call) (foreign.Value, error) {
				n := int(c.Args[0].I)
				if n < 0 {
					return foreign.Value{}, fmt.Errorf("memvm: NegativeArraySizeException: %d", n)
				}
				arr := &Object{class: c.VM.arrayOf(c.VM.classes["int"]), data: make([]byte, n*4), hash: c.VM.hash()}
				v := c.Ref(arr)
				vals := make([]int32, n)
				for i := range vals {
					vals[i] = int32(i)
				}
				return v, c.SetInts(v.L, vals)
			}},
		},
	}
}

// convertBoxed reads the boxed scalar of a wrapper instance as kind k.
func convertBoxed(obj *Object, k foreign.Kind) foreign.Value {
	src := boxKinds[className(obj)]
	var (
		i int64
		f float64
	)
	b := obj.boxed
	switch src {
	case foreign.KindBoolean:
		if b.Z {
			i = 1
		}
		f = float64(i)
	case foreign.KindChar:
		i, f = int64(b.C), float64(b.C)
	case foreign.KindByte:
		i, f = int64(b.B), float64(b.B)
	case foreign.KindShort:
		i, f = int64(b.S), float64(b.S)
	case foreign.KindInt:
		i, f = int64(b.I), float64(b.I)
	case foreign.KindLong:
		i, f = b.J, float64(b.J)
	case foreign.KindFloat:
		i, f = int64(b.F), float64(b.F)
	case foreign.KindDouble:
		i, f = int64(b.D), b.D
	}
	switch k {
	case foreign.KindBoolean:
		return foreign.Value{Z: i != 0}
	case foreign.KindChar:
		return foreign.Value{C: uint16(i)}
	case foreign.KindByte:
		return foreign.Value{B: int8(i)}
	case foreign.KindShort:
		return foreign.Value{S: int16(i)}
	case foreign.KindInt:
		return foreign.Value{I: int32(i)}
	case foreign.KindLong:
		return foreign.Value{J: i}
	case foreign.KindFloat:
		return foreign.Value{F: float32(f)}
	case foreign.KindDouble:
		return foreign.Value{D: f}
	}
	return foreign.Value{}
}

// stringOf renders an object the way its toString would.
func stringOf(obj *Object) string {
	if obj.class == nil {
		return "<unknown>"
	}
	if obj.class.Name == "java.lang.String" {
		return obj.str
	}
	if obj.meta != nil {
		return "class " + obj.meta.Name
	}
	if k, ok := boxKinds[obj.class.Name]; ok {
		b := obj.boxed
		switch k {
		case foreign.KindBoolean:
			return strconv.FormatBool(b.Z)
		case foreign.KindChar:
			return string(rune(b.C))
		case foreign.KindFloat:
			return strconv.FormatFloat(float64(b.F), 'g', -1, 32)
		case foreign.KindDouble:
			return strconv.FormatFloat(b.D, 'g', -1, 64)
		default:
			return strconv.FormatInt(convertBoxed(obj, foreign.KindLong).J, 10)
		}
	}
	return fmt.Sprintf("%s@%x", obj.class.Name, obj.hash)
}
