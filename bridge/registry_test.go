package bridge

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/jbridge/foreign"
	"github.com/chazu/jbridge/foreign/memvm"
)

func TestTypeByName_Singleton(t *testing.T) {
	vm, r := newTestRegistry(t)

	dotted := mustType(t, r, "java.lang.String")
	slashed := mustType(t, r, "java/lang/String")
	if dotted != slashed {
		t.Error("expected dotted and slashed names to yield the same Type")
	}

	cls, err := vm.FindClass("java/lang/String")
	if err != nil {
		t.Fatal(err)
	}
	defer vm.DeleteLocalRef(cls)
	byRef, err := r.GetOrCreateType(cls)
	if err != nil {
		t.Fatalf("GetOrCreateType: %v", err)
	}
	if byRef != dotted {
		t.Error("expected GetOrCreateType to return the registered Type")
	}
}

func TestTypeByName_NotFound(t *testing.T) {
	_, r := newTestRegistry(t)

	_, err := r.TypeByName("demo.Nowhere")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %v", err)
	}
	if nf.Name != "demo.Nowhere" {
		t.Errorf("expected name demo.Nowhere, got %q", nf.Name)
	}
}

// unnamedVM fails to name one class, so types linking to it cannot be built.
type unnamedVM struct {
	*memvm.VM
	class string
}

func (v *unnamedVM) ClassName(cls foreign.Ref) (string, error) {
	name, err := v.VM.ClassName(cls)
	if err == nil && name == v.class {
		return "", errors.New("unnamedVM: class has no name")
	}
	return name, err
}

func TestTypeByName_LinkFailureEvictsStub(t *testing.T) {
	vm := memvm.New()
	defineDemoClasses(t, vm)
	r, err := NewRegistry(&unnamedVM{VM: vm, class: "demo.Shape"})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	before := vm.Stats()

	for i := 0; i < 2; i++ {
		_, err := r.TypeByName("demo.Square")
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("attempt %d: expected *NotFoundError, got %v", i, err)
		}
	}
	for _, typ := range r.Types() {
		if typ.Name() == "demo.Square" {
			t.Error("expected the demo.Square stub to be evicted")
		}
	}
	if diff := cmp.Diff(before, vm.Stats()); diff != "" {
		t.Errorf("handle accounting changed (-want +got):\n%s", diff)
	}

	if _, err := r.TypeByName("demo.Point"); err != nil {
		t.Errorf("expected unrelated types to still resolve, got %v", err)
	}
}

func TestTypeByName_Arrays(t *testing.T) {
	_, r := newTestRegistry(t)

	ints := mustType(t, r, "int[]")
	if ints.Name() != "[I" {
		t.Errorf("expected [I, got %q", ints.Name())
	}
	if !ints.IsArray() || ints.Component() != mustType(t, r, "int") {
		t.Error("expected int[] to link to the int primitive type")
	}
	if ints.Super() != mustType(t, r, "java.lang.Object") {
		t.Error("expected arrays to extend java.lang.Object")
	}

	strs := mustType(t, r, "java.lang.String[]")
	if strs.Name() != "[Ljava.lang.String;" {
		t.Errorf("expected [Ljava.lang.String;, got %q", strs.Name())
	}
	if strs != mustType(t, r, "[Ljava/lang/String;") {
		t.Error("expected source and descriptor array names to agree")
	}
}

func TestNewRegistry_PrimitivesMirrored(t *testing.T) {
	_, r := newTestRegistry(t)
	for _, name := range []string{"boolean", "byte", "char", "short", "int", "long", "float", "double"} {
		typ := mustType(t, r, name)
		if !typ.IsPrimitive() {
			t.Errorf("expected %s to be primitive", name)
		}
		if typ.Super() != nil {
			t.Errorf("expected %s to have no supertype", name)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	_, r := newTestRegistry(t)
	math := mustType(t, r, "java.lang.Math")

	if got := math.State(); got != StateNew {
		t.Fatalf("expected StateNew before Resolve, got %s", got)
	}
	for i := 0; i < 3; i++ {
		if err := r.Resolve(math); err != nil {
			t.Fatalf("Resolve #%d: %v", i, err)
		}
	}
	if got := math.State(); got != StateResolved {
		t.Errorf("expected StateResolved, got %s", got)
	}
	m, err := math.Member("max")
	if err != nil {
		t.Fatalf("Member: %v", err)
	}
	if n := m.(*OverloadGroup).Len(); n != 4 {
		t.Errorf("expected 4 max overloads, got %d", n)
	}
}

func TestResolve_SupertypesFirst(t *testing.T) {
	_, r := newTestRegistry(t)
	integer := mustType(t, r, "java.lang.Integer")
	if err := r.Resolve(integer); err != nil {
		t.Fatal(err)
	}
	for k := integer; k != nil; k = k.Super() {
		if k.State() != StateResolved {
			t.Errorf("expected %s resolved, got %s", k.Name(), k.State())
		}
	}
	if integer.Super().Name() != "java.lang.Number" {
		t.Errorf("expected Number supertype, got %s", integer.Super().Name())
	}
}

func TestResolve_CyclicClassGraph(t *testing.T) {
	_, r := newTestRegistry(t)
	class := mustType(t, r, "java.lang.Class")
	if err := r.Resolve(class); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	g, err := class.Attr("getSuperclass")
	if err != nil {
		t.Fatal(err)
	}
	ret := g.(*OverloadGroup).Methods()[0].Return
	if ret == nil || ret.Type != class {
		t.Error("expected getSuperclass to return the java.lang.Class type itself")
	}

	s, err := mustType(t, r, "java.lang.String").New("abc")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Release()

	out, err := s.Call("getClass")
	if err != nil {
		t.Fatalf("getClass: %v", err)
	}
	cls := out.(*Instance)
	defer cls.Release()
	if cls.Type() != class {
		t.Errorf("expected a java.lang.Class instance, got %s", cls.Type())
	}
	name, err := cls.Call("getName")
	if err != nil {
		t.Fatal(err)
	}
	if name != "java.lang.String" {
		t.Errorf("expected java.lang.String, got %v", name)
	}

	out, err = cls.Call("getClass")
	if err != nil {
		t.Fatal(err)
	}
	meta := out.(*Instance)
	defer meta.Release()
	if meta.Type() != class {
		t.Error("expected the class of java.lang.Class to be java.lang.Class")
	}
}

func TestResolve_FailureLeavesTypeNew(t *testing.T) {
	vm, r := newTestRegistry(t)
	broken := mustType(t, r, "demo.Broken")
	if err := r.Resolve(mustType(t, r, "java.lang.Object")); err != nil {
		t.Fatal(err)
	}
	before := vm.Stats()

	for i := 0; i < 2; i++ {
		err := r.Resolve(broken)
		var re *ResolutionError
		if !errors.As(err, &re) {
			t.Fatalf("attempt %d: expected *ResolutionError, got %v", i, err)
		}
		if re.Member != "use" {
			t.Errorf("expected failing member use, got %q", re.Member)
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("expected the cause to be *NotFoundError, got %v", re.Cause)
		}
		if got := broken.State(); got != StateNew {
			t.Errorf("expected StateNew after failure, got %s", got)
		}
		if _, err := broken.Members(); !errors.Is(err, ErrNotResolved) {
			t.Errorf("expected ErrNotResolved, got %v", err)
		}
	}

	if diff := cmp.Diff(before, vm.Stats()); diff != "" {
		t.Errorf("handle accounting changed (-want +got):\n%s", diff)
	}
}

func TestResolve_FailedSupertypeFailsSubtype(t *testing.T) {
	_, r := newTestRegistry(t)
	child := mustType(t, r, "demo.BrokenChild")
	err := r.Resolve(child)
	var re *ResolutionError
	if !errors.As(err, &re) || re.Type != "demo.BrokenChild" {
		t.Fatalf("expected *ResolutionError for demo.BrokenChild, got %v", err)
	}
	if child.State() != StateNew || child.Super().State() != StateNew {
		t.Error("expected both types to stay unresolved")
	}
}

func TestTypes_CreationOrder(t *testing.T) {
	_, r := newTestRegistry(t)
	types := r.Types()
	if len(types) == 0 || types[0].Name() != "java.lang.String" {
		t.Fatalf("expected java.lang.String to be created first")
	}
	point := mustType(t, r, "demo.Point")
	types = r.Types()
	if types[len(types)-1] != point {
		t.Error("expected the newest type last")
	}
}

func TestClose_ReleasesGlobals(t *testing.T) {
	vm := memvm.New()
	defineDemoClasses(t, vm)
	baseline := vm.Stats()

	r, err := NewRegistry(vm)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"java.lang.Math", "java.lang.Byte", "demo.Point", "java.util.Arrays"} {
		if err := r.Resolve(mustType(t, r, name)); err != nil {
			t.Fatalf("Resolve(%s): %v", name, err)
		}
	}
	p, err := mustType(t, r, "demo.Point").New(int32(1), int32(2))
	if err != nil {
		t.Fatal(err)
	}
	p.Release()
	p.Release()

	if vm.Stats().GlobalRefs == baseline.GlobalRefs {
		t.Fatal("expected the registry to hold global refs")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if diff := cmp.Diff(baseline, vm.Stats()); diff != "" {
		t.Errorf("handle accounting after Close (-want +got):\n%s", diff)
	}

	if _, err := r.TypeByName("java.lang.Math"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from TypeByName, got %v", err)
	}
	if len(r.Types()) != 0 {
		t.Error("expected no types after Close")
	}
}

func TestStateTransitions(t *testing.T) {
	_, r := newTestRegistry(t)
	typ := &Type{reg: r, name: "demo.Fake", state: StateResolved}

	defer func() {
		if recover() == nil {
			t.Error("expected Resolved -> Resolving to panic")
		}
	}()
	typ.transition(StateResolving)
}

func TestResolutionState_String(t *testing.T) {
	got := []string{StateNew.String(), StateResolving.String(), StateResolved.String(), ResolutionState(9).String()}
	want := []string{"New", "Resolving", "Resolved", "ResolutionState(9)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("state names (-want +got):\n%s", diff)
	}
}
