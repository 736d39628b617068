package bridge

import (
	"testing"

	"github.com/chazu/jbridge/foreign"
	"github.com/chazu/jbridge/foreign/memvm"
)

const (
	pub       = foreign.ModPublic
	pubStatic = foreign.ModPublic | foreign.ModStatic
	pubFinal  = foreign.ModPublic | foreign.ModFinal
	pubConst  = foreign.ModPublic | foreign.ModStatic | foreign.ModFinal
)

// newTestRegistry returns a fresh VM with the demo classes defined and a
// registry over it. The registry is closed when the test ends.
func newTestRegistry(t *testing.T, opts ...Option) (*memvm.VM, *Registry) {
	t.Helper()
	vm := memvm.New()
	defineDemoClasses(t, vm)
	r, err := NewRegistry(vm, opts...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return vm, r
}

func mustType(t *testing.T, r *Registry, name string) *Type {
	t.Helper()
	typ, err := r.TypeByName(name)
	if err != nil {
		t.Fatalf("TypeByName(%q): %v", name, err)
	}
	return typ
}

func defineDemoClasses(t *testing.T, vm *memvm.VM) {
	t.Helper()
	defs := []memvm.ClassDef{
		{
			Name:      "demo.Point",
			Modifiers: pub,
			Constructors: []memvm.MethodDef{
				{Modifiers: pub, Params: []string{"int", "int"}, Impl: func(c *memvm.Call) (foreign.Value, error) {
					c.SetField("x", c.Args[0])
					c.SetField("y", c.Args[1])
					c.SetField("id", foreign.Value{I: 7})
					return foreign.Value{}, nil
				}},
			},
			Methods: []memvm.MethodDef{
				{Name: "sum", Modifiers: pub, Return: "int", Impl: func(c *memvm.Call) (foreign.Value, error) {
					return foreign.Value{I: c.Field("x").I + c.Field("y").I}, nil
				}},
			},
			Fields: []memvm.FieldDef{
				{Name: "x", Modifiers: pub, Type: "int"},
				{Name: "y", Modifiers: pub, Type: "int"},
				{Name: "id", Modifiers: pubFinal, Type: "int"},
				{Name: "label", Modifiers: pub, Type: "java.lang.String"},
				{Name: "secret", Type: "int"},
				{Name: "counter", Modifiers: pubStatic, Type: "int"},
				{Name: "ORIGIN", Modifiers: pubConst, Type: "java.lang.String", Text: "origin"},
				{Name: "DIMENSIONS", Modifiers: pubConst, Type: "int", Value: foreign.Value{I: 2}},
			},
		},
		{
			Name:      "demo.Shape",
			Modifiers: pub,
			Constructors: []memvm.MethodDef{
				{Modifiers: pub},
			},
			Methods: []memvm.MethodDef{
				{Name: "area", Modifiers: pub, Return: "double"},
				{Name: "kind", Modifiers: pub, Return: "java.lang.String", Impl: func(c *memvm.Call) (foreign.Value, error) {
					return c.NewString("shape"), nil
				}},
			},
		},
		{
			Name:      "demo.Square",
			Super:     "demo.Shape",
			Modifiers: pub,
			Constructors: []memvm.MethodDef{
				{Modifiers: pub, Params: []string{"double"}, Impl: func(c *memvm.Call) (foreign.Value, error) {
					c.SetField("side", c.Args[0])
					return foreign.Value{}, nil
				}},
			},
			Methods: []memvm.MethodDef{
				{Name: "area", Modifiers: pub, Return: "double", Impl: func(c *memvm.Call) (foreign.Value, error) {
					s := c.Field("side").D
					return foreign.Value{D: s * s}, nil
				}},
			},
			Fields: []memvm.FieldDef{
				{Name: "side", Modifiers: pub, Type: "double"},
			},
		},
		{
			Name:      "demo.Box",
			Modifiers: pub,
			Methods: []memvm.MethodDef{
				{Name: "pick", Modifiers: pubStatic, Params: []string{"int"}, Return: "java.lang.Object", Impl: func(c *memvm.Call) (foreign.Value, error) {
					switch c.Args[0].I {
					case 0:
						return c.NewString("text"), nil
					case 1:
						return c.Box("java.lang.Integer", foreign.Value{I: 41})
					case 2:
						return c.Box("java.lang.Double", foreign.Value{D: 2.5})
					}
					return foreign.Value{}, nil
				}},
				{Name: "describe", Modifiers: pubStatic, Params: []string{"java.lang.Integer"}, Return: "java.lang.String", Impl: func(c *memvm.Call) (foreign.Value, error) {
					obj, err := c.Object(c.Args[0].L)
					if err != nil {
						return foreign.Value{}, err
					}
					if obj == nil {
						return c.NewString("null"), nil
					}
					return c.NewString("boxed"), nil
				}},
				{Name: "fail", Modifiers: pubStatic, Params: []string{"java.lang.String"}, Return: "int", Impl: func(c *memvm.Call) (foreign.Value, error) {
					s, err := c.String(c.Args[0].L)
					if err != nil {
						return foreign.Value{}, err
					}
					return foreign.Value{}, &demoException{msg: s}
				}},
			},
		},
		{
			Name:      "demo.Tally",
			Modifiers: pub,
			Constructors: []memvm.MethodDef{
				{Modifiers: pub, Impl: func(c *memvm.Call) (foreign.Value, error) {
					c.SetField("count", foreign.Value{I: 3})
					return foreign.Value{}, nil
				}},
			},
			Methods: []memvm.MethodDef{
				{Name: "count", Modifiers: pub, Return: "int", Impl: func(c *memvm.Call) (foreign.Value, error) {
					return foreign.Value{I: 99}, nil
				}},
				{Name: "reset", Modifiers: pub, Return: "void", Impl: func(c *memvm.Call) (foreign.Value, error) {
					c.SetField("count", foreign.Value{})
					return foreign.Value{}, nil
				}},
			},
			Fields: []memvm.FieldDef{
				{Name: "count", Modifiers: pub, Type: "int"},
			},
		},
		{
			Name:      "demo.Copier",
			Modifiers: pub,
			Methods: []memvm.MethodDef{
				{Name: "shift", Modifiers: pubStatic, Params: []string{"int[]", "int[]"}, Return: "void", Impl: func(c *memvm.Call) (foreign.Value, error) {
					src, err := c.Ints(c.Args[0].L)
					if err != nil {
						return foreign.Value{}, err
					}
					dst, err := c.Ints(c.Args[1].L)
					if err != nil {
						return foreign.Value{}, err
					}
					for i := 1; i < len(dst) && i-1 < len(src); i++ {
						dst[i] = src[i-1]
					}
					return foreign.Value{}, c.SetInts(c.Args[1].L, dst)
				}},
			},
		},
		{
			Name:      "demo.Broken",
			Modifiers: pub,
			Constructors: []memvm.MethodDef{
				{Modifiers: pub},
			},
			Methods: []memvm.MethodDef{
				{Name: "ok", Modifiers: pub, Return: "int"},
				{Name: "use", Modifiers: pub, Params: []string{"demo.Missing"}, Return: "void"},
			},
		},
		{
			Name:      "demo.BrokenChild",
			Super:     "demo.Broken",
			Modifiers: pub,
		},
	}
	for _, def := range defs {
		if _, err := vm.DefineClass(def); err != nil {
			t.Fatalf("DefineClass(%s): %v", def.Name, err)
		}
	}
}

type demoException struct{ msg string }

func (e *demoException) Error() string { return "demo.Exception: " + e.msg }
