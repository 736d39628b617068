package bridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/jbridge/foreign"
)

func TestAssessScalar(t *testing.T) {
	tests := []struct {
		kind foreign.Kind
		v    any
		want int
	}{
		{foreign.KindBoolean, true, 100},
		{foreign.KindBoolean, 1, 10},
		{foreign.KindBoolean, 1.0, 0},
		{foreign.KindInt, int32(1), 100},
		{foreign.KindInt, 1, 90},
		{foreign.KindInt, int64(1), 90},
		{foreign.KindLong, int64(1), 100},
		{foreign.KindByte, int8(1), 100},
		{foreign.KindChar, uint16('a'), 100},
		{foreign.KindShort, int16(1), 100},
		{foreign.KindInt, true, 10},
		{foreign.KindInt, 1.5, 0},
		{foreign.KindFloat, float32(1), 100},
		{foreign.KindFloat, 1.0, 90},
		{foreign.KindDouble, 1.0, 100},
		{foreign.KindDouble, float32(1), 90},
		{foreign.KindDouble, 1, 50},
		{foreign.KindDouble, true, 1},
		{foreign.KindInt, "1", 0},
		{foreign.KindInt, nil, 1},
		{foreign.KindDouble, nil, 1},
	}
	for _, tt := range tests {
		if got := assessScalar(tt.kind, tt.v); got != tt.want {
			t.Errorf("assessScalar(%s, %#v) = %d, want %d", tt.kind, tt.v, got, tt.want)
		}
	}
}

func TestAssessFormat(t *testing.T) {
	tests := []struct {
		kind     foreign.Kind
		format   string
		itemSize int
		want     int
	}{
		{foreign.KindBoolean, "?", 1, 100},
		{foreign.KindBoolean, "B", 1, 100},
		{foreign.KindByte, "b", 1, 100},
		{foreign.KindByte, "B", 1, 90},
		{foreign.KindChar, "u", 2, 100},
		{foreign.KindChar, "H", 2, 90},
		{foreign.KindChar, "h", 2, 80},
		{foreign.KindShort, "h", 2, 100},
		{foreign.KindShort, "H", 2, 90},
		{foreign.KindInt, "i", 4, 100},
		{foreign.KindInt, "l", 4, 100},
		{foreign.KindInt, "I", 4, 90},
		{foreign.KindInt, "<i", 4, 100},
		{foreign.KindInt, "i", 8, 0},
		{foreign.KindInt, "", 4, 10},
		{foreign.KindInt, "f", 4, 0},
		{foreign.KindLong, "q", 8, 100},
		{foreign.KindLong, "l", 8, 100},
		{foreign.KindLong, "Q", 8, 90},
		{foreign.KindFloat, "f", 4, 100},
		{foreign.KindDouble, "d", 8, 100},
		{foreign.KindDouble, "", 8, 10},
		{foreign.KindDouble, "q", 8, 0},
	}
	for _, tt := range tests {
		if got := assessFormat(tt.kind, tt.format, tt.itemSize); got != tt.want {
			t.Errorf("assessFormat(%s, %q, %d) = %d, want %d", tt.kind, tt.format, tt.itemSize, got, tt.want)
		}
	}
}

func TestOverload_DeterministicPick(t *testing.T) {
	_, r := newTestRegistry(t)
	math := mustType(t, r, "java.lang.Math")
	g, err := math.Attr("max")
	if err != nil {
		t.Fatal(err)
	}
	group := g.(*OverloadGroup)

	args := []any{int32(3), int32(7)}
	first, err := group.Resolve(args)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first.Signature() != "static max(int, int) int" {
		t.Errorf("expected max(int, int), got %s", first.Signature())
	}
	for i := 0; i < 10; i++ {
		m, err := group.Resolve(args)
		if err != nil || m != first {
			t.Fatalf("pick %d differs: %v, %v", i, m, err)
		}
	}

	got, err := math.CallStatic("max", int32(3), int32(7))
	if err != nil {
		t.Fatal(err)
	}
	if got != int32(7) {
		t.Errorf("expected int32(7), got %#v", got)
	}
}

func TestOverload_PrecisionPreferred(t *testing.T) {
	_, r := newTestRegistry(t)
	math := mustType(t, r, "java.lang.Math")

	got, err := math.CallStatic("max", 1.5, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2.5 {
		t.Errorf("expected float64 2.5 from max(double, double), got %#v", got)
	}

	got, err = math.CallStatic("max", float32(1.5), float32(2.5))
	if err != nil {
		t.Fatal(err)
	}
	if got != float32(2.5) {
		t.Errorf("expected float32 2.5 from max(float, float), got %#v", got)
	}

	got, err = math.CallStatic("max", int64(1), int64(9))
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(9) {
		t.Errorf("expected int64 9 from max(long, long), got %#v", got)
	}
}

func TestOverload_Ambiguous(t *testing.T) {
	_, r := newTestRegistry(t)
	math := mustType(t, r, "java.lang.Math")

	// A plain Go int is exact for neither int nor long.
	_, err := math.CallStatic("max", 1, 2)
	var amb *AmbiguousOverloadError
	if !errors.As(err, &amb) {
		t.Fatalf("expected *AmbiguousOverloadError, got %v", err)
	}
	if len(amb.Candidates) != 2 || amb.Score != 180 {
		t.Errorf("expected two candidates scoring 180, got %d scoring %d", len(amb.Candidates), amb.Score)
	}
	msg := err.Error()
	for _, want := range []string{"ambiguous max call with (int, int)", "static max(int, int) int", "static max(long, long) long", "all score 180"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}

	_, err = math.CallStatic("abs", nil)
	if !errors.As(err, &amb) {
		t.Errorf("expected nil against abs(int)/abs(double) to be ambiguous, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "with (nil)") {
		t.Errorf("expected nil in the argument list, got %q", err.Error())
	}
}

func TestOverload_NoMatch(t *testing.T) {
	_, r := newTestRegistry(t)
	math := mustType(t, r, "java.lang.Math")

	for _, args := range [][]any{
		{"a", "b"},
		{int32(1)},
		{int32(1), int32(2), int32(3)},
	} {
		_, err := math.CallStatic("max", args...)
		var nm *NoMatchError
		if !errors.As(err, &nm) {
			t.Errorf("max%v: expected *NoMatchError, got %v", args, err)
		}
	}

	p := newPoint(t, r, 1, 2)
	_, err := math.CallStatic("max", p, "b")
	if err == nil {
		t.Fatal("expected max(Point, string) to fail")
	}
	if want := "bridge: no max overload matches (demo.Point, string)"; err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestOverload_StringParams(t *testing.T) {
	_, r := newTestRegistry(t)
	str := mustType(t, r, "java.lang.String")

	tests := []struct {
		arg  any
		want string
	}{
		{true, "true"},
		{uint16('x'), "x"},
		{int32(42), "42"},
		{int64(42), "42"},
		{2.5, "2.5"},
	}
	for _, tt := range tests {
		got, err := str.CallStatic("valueOf", tt.arg)
		if err != nil {
			t.Errorf("valueOf(%#v): %v", tt.arg, err)
			continue
		}
		if got != tt.want {
			t.Errorf("valueOf(%#v) = %#v, want %q", tt.arg, got, tt.want)
		}
	}
}
