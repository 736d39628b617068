package bridge

import (
	"strings"

	"github.com/chazu/jbridge/foreign"
)

// ConstructorName is the member name constructors are cataloged under.
const ConstructorName = "__jinit__"

// Method describes one constructor or method of a Type.
type Method struct {
	Name   string
	Params []*Param
	Return *Return // nil for void methods and constructors
	Static bool

	id    foreign.MethodID
	owner *Type
}

func (m *Method) ID() foreign.MethodID { return m.id }
func (m *Method) Owner() *Type         { return m.owner }
func (m *Method) IsConstructor() bool  { return m.Name == ConstructorName }

// Signature renders the method for diagnostics, e.g.
// "static max(int, int) int".
func (m *Method) Signature() string {
	var b strings.Builder
	if m.Static {
		b.WriteString("static ")
	}
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.name)
	}
	b.WriteByte(')')
	if m.Return != nil {
		b.WriteByte(' ')
		b.WriteString(m.Return.Type.name)
	}
	return b.String()
}

// paramKey identifies a parameter list; an override shares it with the
// method it hides.
func (m *Method) paramKey() string {
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = p.Type.name
	}
	return strings.Join(names, ",")
}

// retKind is the kind the foreign call returns.
func (m *Method) retKind() foreign.Kind {
	if m.Return == nil {
		return foreign.KindVoid
	}
	return m.Return.Type.foreignKind()
}

// score sums the parameter scores for args. A zero score for any parameter
// eliminates the method.
func (m *Method) score(args []any) (int, bool) {
	total := 0
	for i, p := range m.Params {
		s := p.assess(p, args[i])
		if s <= 0 {
			return 0, false
		}
		total += s
	}
	return total, true
}

// Param describes one parameter. Mutable array parameters are copied back
// into the caller's buffer after the call.
type Param struct {
	Type    *Type
	Mutable bool

	assess  assessFunc
	convert convertFunc
}

// Score rates v against the parameter; zero means it cannot be passed.
func (p *Param) Score(v any) int { return p.assess(p, v) }

func newParam(t *Type, mutable bool) *Param {
	return &Param{
		Type:    t,
		Mutable: mutable && t.variant == variantPrimitiveArray,
		assess:  assessorFor(t),
		convert: converterFor(t),
	}
}

// Return describes a non-void result.
type Return struct {
	Type *Type
}

// Field describes an instance field. Static final fields are stored as
// constants instead.
type Field struct {
	Owner  *Type
	Name   string
	Type   *Type
	Static bool
	Final  bool

	id    foreign.FieldID
	param *Param
}

func (f *Field) ID() foreign.FieldID { return f.id }

// OverloadGroup is the list of same-named methods of one Type. It only
// grows while its Type is being cataloged.
type OverloadGroup struct {
	Name  string
	Owner *Type

	methods []*Method
}

func (g *OverloadGroup) add(m *Method) {
	g.methods = append(g.methods, m)
}

// Methods returns the candidates in cataloging order.
func (g *OverloadGroup) Methods() []*Method {
	out := make([]*Method, len(g.methods))
	copy(out, g.methods)
	return out
}

func (g *OverloadGroup) Len() int { return len(g.methods) }

// constant is the member-table entry of a static final field.
type constant struct {
	value any
}
