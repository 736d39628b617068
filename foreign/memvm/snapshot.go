package memvm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/jbridge/foreign"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is the serialized declaration of a class set. Method bodies are
// not part of a snapshot: methods of a loaded snapshot return zero values.
type Snapshot struct {
	Version int             `cbor:"version"`
	Classes []ClassSnapshot `cbor:"classes"`
}

// ClassSnapshot declares one class.
type ClassSnapshot struct {
	Name         string           `cbor:"name"`
	Super        string           `cbor:"super,omitempty"`
	Modifiers    int32            `cbor:"mods"`
	Constructors []MemberSnapshot `cbor:"ctors,omitempty"`
	Methods      []MemberSnapshot `cbor:"methods,omitempty"`
	Fields       []FieldSnapshot  `cbor:"fields,omitempty"`
}

// MemberSnapshot declares a constructor or method.
type MemberSnapshot struct {
	Name      string   `cbor:"name"`
	Modifiers int32    `cbor:"mods"`
	Params    []string `cbor:"params,omitempty"`
	Return    string   `cbor:"ret,omitempty"`
}

// FieldSnapshot declares a field and, for static fields, its value.
type FieldSnapshot struct {
	Name      string      `cbor:"name"`
	Modifiers int32       `cbor:"mods"`
	Type      string      `cbor:"type"`
	Value     ScalarValue `cbor:"value"`
	Text      string      `cbor:"text,omitempty"`
}

// ScalarValue is the reference-free part of a foreign.Value.
type ScalarValue struct {
	Z bool    `cbor:"z,omitempty"`
	B int8    `cbor:"b,omitempty"`
	C uint16  `cbor:"c,omitempty"`
	S int16   `cbor:"s,omitempty"`
	I int32   `cbor:"i,omitempty"`
	J int64   `cbor:"j,omitempty"`
	F float32 `cbor:"f,omitempty"`
	D float64 `cbor:"d,omitempty"`
}

func scalarOf(v foreign.Value) ScalarValue {
	return ScalarValue{Z: v.Z, B: v.B, C: v.C, S: v.S, I: v.I, J: v.J, F: v.F, D: v.D}
}

func (s ScalarValue) value() foreign.Value {
	return foreign.Value{Z: s.Z, B: s.B, C: s.C, S: s.S, I: s.I, J: s.J, F: s.F, D: s.D}
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("memvm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalSnapshot serializes a Snapshot to canonical CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("memvm: unmarshal snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("memvm: unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}

// Snapshot captures the declarations of every loaded class in definition
// order. With includeBoot false the bootstrap classes are left out.
func (vm *VM) Snapshot(includeBoot bool) *Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	s := &Snapshot{Version: SnapshotVersion}
	for _, c := range vm.order {
		if c.IsPrimitive() || c.IsArray() || (c.boot && !includeBoot) {
			continue
		}
		cs := ClassSnapshot{Name: c.Name, Modifiers: int32(c.Modifiers)}
		if c.Super != nil {
			cs.Super = c.Super.Name
		}
		for _, m := range c.Constructors {
			cs.Constructors = append(cs.Constructors, memberSnapshot(m))
		}
		for _, m := range c.Methods {
			cs.Methods = append(cs.Methods, memberSnapshot(m))
		}
		for _, f := range c.Fields {
			fs := FieldSnapshot{Name: f.Name, Modifiers: int32(f.Modifiers), Type: f.Type}
			if st, ok := c.statics[f.Name]; ok {
				fs.Value = scalarOf(st.prim)
				if st.obj != nil && st.obj.class != nil && st.obj.class.Name == "java.lang.String" {
					fs.Text = st.obj.str
				}
			}
			cs.Fields = append(cs.Fields, fs)
		}
		s.Classes = append(s.Classes, cs)
	}
	return s
}

func memberSnapshot(m *Method) MemberSnapshot {
	ms := MemberSnapshot{Modifiers: int32(m.Modifiers), Params: m.Params}
	if m.Name != "<init>" {
		ms.Name = m.Name
		ms.Return = m.Return
	}
	return ms
}

// Load defines every class of a snapshot that is not already loaded and
// returns how many were defined.
func (vm *VM) Load(s *Snapshot) (int, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	n := 0
	for _, cs := range s.Classes {
		if _, ok := vm.classes[cs.Name]; ok {
			continue
		}
		def := ClassDef{Name: cs.Name, Super: cs.Super, Modifiers: foreign.Modifier(cs.Modifiers)}
		for _, m := range cs.Constructors {
			def.Constructors = append(def.Constructors, MethodDef{Modifiers: foreign.Modifier(m.Modifiers), Params: m.Params})
		}
		for _, m := range cs.Methods {
			def.Methods = append(def.Methods, MethodDef{
				Name:      m.Name,
				Modifiers: foreign.Modifier(m.Modifiers),
				Params:    m.Params,
				Return:    m.Return,
			})
		}
		for _, f := range cs.Fields {
			def.Fields = append(def.Fields, FieldDef{
				Name:      f.Name,
				Modifiers: foreign.Modifier(f.Modifiers),
				Type:      f.Type,
				Value:     f.Value.value(),
				Text:      f.Text,
			})
		}
		if _, err := vm.defineClass(def); err != nil {
			return n, fmt.Errorf("memvm: load %s: %w", cs.Name, err)
		}
		n++
	}
	return n, nil
}
