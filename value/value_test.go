package value

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	bridgeerrors "github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/schema"
)

func TestZeroValueIsUndefined(t *testing.T) {
	var v Value
	if v.Kind() != KindUndefined || !v.IsUndefined() || !v.IsNullish() {
		t.Errorf("zero value kind = %s", v.Kind())
	}
	if !Null().IsNullish() || Null().IsUndefined() {
		t.Error("null must be nullish but not undefined")
	}
}

func TestNumericExtraction(t *testing.T) {
	tests := []struct {
		name   string
		in     Value
		want32 int32
		ok32   bool
		want64 int64
		ok64   bool
		wantF  float64
		okF    bool
	}{
		{"int", Int(-7), -7, true, -7, true, -7, true},
		{"long in range", Long(1 << 20), 1 << 20, true, 1 << 20, true, 1 << 20, true},
		{"long out of range", Long(math.MaxInt32 + 1), 0, false, math.MaxInt32 + 1, true, math.MaxInt32 + 1, true},
		{"integral double", Double(12), 12, true, 12, true, 12, true},
		{"fractional double", Double(1.5), 0, false, 0, false, 1.5, true},
		{"string", String("1"), 0, false, 0, false, 0, false},
		{"undefined", Undefined(), 0, false, 0, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n32, err := tt.in.AsInt32()
			if (err == nil) != tt.ok32 || (tt.ok32 && n32 != tt.want32) {
				t.Errorf("AsInt32() = %d, %v", n32, err)
			}
			n64, err := tt.in.AsInt64()
			if (err == nil) != tt.ok64 || (tt.ok64 && n64 != tt.want64) {
				t.Errorf("AsInt64() = %d, %v", n64, err)
			}
			f, err := tt.in.AsFloat64()
			if (err == nil) != tt.okF || (tt.okF && f != tt.wantF) {
				t.Errorf("AsFloat64() = %v, %v", f, err)
			}
		})
	}
}

func TestMismatchError(t *testing.T) {
	_, err := Bool(true).AsString()
	if !errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseUnmarshal, Kind: bridgeerrors.KindTypeMismatch}) {
		t.Fatalf("error = %v, want type mismatch", err)
	}
	var be *bridgeerrors.Error
	if errors.As(err, &be) && be.SchemaType != "string" {
		t.Errorf("schema type = %q, want string", be.SchemaType)
	}
}

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("b", Int(1))
	m.Set("a", Int(2))
	m.Set("b", Int(3))

	if diff := cmp.Diff([]string{"b", "a"}, m.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	v, ok := m.Get("b")
	if !ok {
		t.Fatal("b missing")
	}
	if n, _ := v.AsInt32(); n != 3 {
		t.Errorf("b = %d, want 3", n)
	}
	if _, ok := m.Get("c"); ok {
		t.Error("absent key reported present")
	}
}

func TestTypedObject(t *testing.T) {
	class := schema.MustParse("c 'Point'{'x': d, 'y': d}").Class
	obj := NewTypedObject(class)
	obj.SetProperty(1, Double(4))

	if got, _ := obj.PropertyByName("y"); !Equal(got, Double(4)) {
		t.Errorf("y = %v, want 4", got)
	}
	if got, ok := obj.PropertyByName("x"); !ok || !got.IsUndefined() {
		t.Errorf("x = %v, %v, want undefined", got, ok)
	}
	if _, ok := obj.PropertyByName("z"); ok {
		t.Error("unknown property reported present")
	}

	p := NewProxyObject(obj)
	q := NewProxyObject(obj)
	if p.ID == q.ID {
		t.Error("proxy ids are not unique")
	}
	viaProxy, err := Proxy(p).AsTypedObject()
	if err != nil || viaProxy != obj {
		t.Errorf("proxy does not expose its object: %v", err)
	}
	if _, err := Object(obj).AsProxyObject(); err == nil {
		t.Error("plain object accepted as proxy")
	}
}

func TestEqual(t *testing.T) {
	class := schema.MustParse("c 'Point'{'x': d, 'y': d}").Class
	point := func(x, y float64) Value {
		o := NewTypedObject(class)
		o.SetProperty(0, Double(x))
		o.SetProperty(1, Double(y))
		return Object(o)
	}
	m1, m2 := NewMap(), NewMap()
	m1.Set("a", Int(1))
	m1.Set("b", String("x"))
	m2.Set("b", String("x"))
	m2.Set("a", Int(1))

	fn := Func(FuncOf(func([]Value) (Value, error) { return Undefined(), nil }))
	proxy := Proxy(NewProxyObject(NewTypedObject(class)))

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"undefined", Undefined(), Undefined(), true},
		{"null vs undefined", Null(), Undefined(), false},
		{"int vs long", Int(1), Long(1), false},
		{"doubles", Double(0.5), Double(0.5), true},
		{"arrays", ArrayOf(Int(1), String("a")), ArrayOf(Int(1), String("a")), true},
		{"array lengths", ArrayOf(Int(1)), ArrayOf(Int(1), Int(2)), false},
		{"maps ignore order", FromMap(m1), FromMap(m2), true},
		{"objects", point(1, 2), point(1, 2), true},
		{"objects differ", point(1, 2), point(2, 1), false},
		{"same proxy", proxy, proxy, true},
		{"distinct proxies", proxy, Proxy(NewProxyObject(NewTypedObject(class))), false},
		{"func values", fn, fn, false},
		{"bytes", Bytes([]byte{1, 2}), Bytes([]byte{1, 2}), true},
		{"bytes differ", Bytes([]byte{1, 2}), Bytes([]byte{2, 1}), false},
		{"bytes vs string", Bytes([]byte("a")), String("a"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	class := schema.MustParse("c 'Point'{'x': d, 'y': d}").Class
	o := NewTypedObject(class)
	o.SetProperty(0, Double(1.5))

	m := NewMap()
	m.Set("k", ArrayOf(Bool(true), Null()))

	tests := []struct {
		in   Value
		want string
	}{
		{Long(-3), "-3"},
		{String("hi"), `"hi"`},
		{FromMap(m), `{"k": [true, null]}`},
		{Object(o), "Point{x: 1.5, y: undefined}"},
		{Error(errors.New("bad")), "<error: bad>"},
		{Bytes([]byte("abc")), "<bytes: 3>"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}

func TestErrValue(t *testing.T) {
	cause := errors.New("script failed")
	if err := Error(cause).Err(); err != cause {
		t.Errorf("Err() = %v, want %v", err, cause)
	}
	if err := String("x").Err(); err != nil {
		t.Errorf("Err() on string = %v", err)
	}
}

func TestBytes(t *testing.T) {
	buf := []byte{0xde, 0xad}
	v := Bytes(buf)
	if v.Kind() != KindBytes {
		t.Fatalf("Kind() = %s, want bytes", v.Kind())
	}
	got, err := v.AsBytes()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(buf, got); diff != "" {
		t.Errorf("AsBytes mismatch (-want +got):\n%s", diff)
	}
	if _, err := String("x").AsBytes(); err == nil {
		t.Error("AsBytes on a string should fail")
	}
	if _, err := v.AsString(); err == nil {
		t.Error("AsString on bytes should fail")
	}
}
