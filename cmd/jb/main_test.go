package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/jbridge/bridge"
	"github.com/chazu/jbridge/foreign"
	"github.com/chazu/jbridge/foreign/memvm"
	"github.com/chazu/jbridge/manifest"
)

func TestParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"null", nil},
		{"true", true},
		{"false", false},
		{"42", int32(42)},
		{"-7", int32(-7)},
		{"4294967296", int64(4294967296)},
		{"2.5", 2.5},
		{"hello", "hello"},
		{":42", "42"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseArg(tt.in); got != tt.want {
			t.Errorf("parseArg(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	arr, err := bridge.NewPrimitiveArray("i", 3)
	if err != nil {
		t.Fatal(err)
	}
	arr.SetIndex(1, 5)

	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"a b", `"a b"`},
		{uint16('x'), `'x'`},
		{int8(-128), "-128"},
		{2.5, "2.5"},
		{arr, "[0 5 0]"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDescribeType(t *testing.T) {
	r, err := bridge.NewRegistry(memvm.New())
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	typ, err := r.TypeByName("java.lang.Byte")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Resolve(typ); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := describeType(&buf, typ); err != nil {
		t.Fatal(err)
	}
	want := `java.lang.Byte extends java.lang.Number > java.lang.Object
  new (byte)
  method toString() java.lang.String
  const MIN_VALUE = -128
  const MAX_VALUE = 127
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("describeType (-want +got):\n%s", diff)
	}
}

func TestNewRuntime_LoadsSnapshots(t *testing.T) {
	src := memvm.New()
	_, err := src.DefineClass(memvm.ClassDef{
		Name:      "demo.Greeter",
		Modifiers: foreign.ModPublic,
		Methods: []memvm.MethodDef{
			{Name: "greet", Modifiers: foreign.ModPublic, Params: []string{"java.lang.String"}, Return: "java.lang.String"},
		},
		Fields: []memvm.FieldDef{
			{Name: "GREETING", Modifiers: foreign.ModPublic | foreign.ModStatic | foreign.ModFinal, Type: "java.lang.String", Text: "hi"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := memvm.MarshalSnapshot(src.Snapshot(false))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "classes.cbor"), data, 0644); err != nil {
		t.Fatal(err)
	}

	m := &manifest.Manifest{
		Dir:       dir,
		Bridge:    manifest.Bridge{Preload: []string{"demo.Greeter"}},
		Classpath: manifest.Classpath{Snapshots: []string{"classes.cbor"}},
	}
	vm, err := newRuntime(m, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err := newRegistry(vm, m)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	typ, err := r.TypeByName("demo.Greeter")
	if err != nil {
		t.Fatal(err)
	}
	if typ.State() != bridge.StateResolved {
		t.Errorf("expected demo.Greeter preloaded, got %s", typ.State())
	}
	greeting, err := typ.Attr("GREETING")
	if err != nil {
		t.Fatal(err)
	}
	if greeting != "hi" {
		t.Errorf("expected GREETING hi, got %#v", greeting)
	}
}

func TestNewRuntime_MissingSnapshot(t *testing.T) {
	m := &manifest.Manifest{Dir: t.TempDir(), Classpath: manifest.Classpath{Snapshots: []string{"nope.cbor"}}}
	if _, err := newRuntime(m, nil); err == nil {
		t.Error("expected a missing snapshot to fail")
	}
}
