package marshal

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	bridgeerrors "github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/value"
)

func TestFunc_NativeCall(t *testing.T) {
	c := NewContext()
	conv := Func1(String, Bool)
	var seen []string
	fn := func(s string) (bool, error) {
		seen = append(seen, s)
		return s == "tap", nil
	}

	v, err := conv.Marshal(c, fn)
	if err != nil {
		t.Fatal(err)
	}
	f, err := v.AsFunction()
	if err != nil {
		t.Fatalf("AsFunction: %v", err)
	}
	out, err := f.Call([]value.Value{value.String("tap")})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if b, _ := out.AsBool(); !b {
		t.Error("Call returned false, want true")
	}
	if diff := cmp.Diff([]string{"tap"}, seen); diff != "" {
		t.Errorf("native arguments mismatch (-want +got):\n%s", diff)
	}
}

func TestFunc_NativeUnwrapsToOriginal(t *testing.T) {
	c := NewContext()
	calls := 0
	fn := func(s string) (bool, error) {
		calls++
		return true, nil
	}

	v, err := Func1(String, Bool).Marshal(c, fn)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Func1(String, Bool).Unmarshal(c, v)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := back("x"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	// the unwrapped function is the original, not a boundary round trip
	if _, ok := any(back).(func(string) (bool, error)); !ok {
		t.Errorf("unwrapped type = %T", back)
	}
}

func TestFunc_RequiredRejectsNil(t *testing.T) {
	c := NewContext()
	conv := Func0(Int32)

	_, err := conv.Marshal(c, nil)
	if !errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseMarshal, Kind: bridgeerrors.KindNilPointer}) {
		t.Errorf("nil function error = %v, want nil_pointer", err)
	}
	for _, v := range []value.Value{value.Null(), value.Undefined()} {
		fn, err := conv.Unmarshal(c, v)
		if !errors.Is(err, &bridgeerrors.Error{Phase: bridgeerrors.PhaseUnmarshal, Kind: bridgeerrors.KindTypeMismatch}) {
			t.Errorf("Unmarshal(%v) error = %v, want type_mismatch", v, err)
		}
		if fn != nil {
			t.Errorf("Unmarshal(%v) returned a function", v)
		}
	}
	if _, err := conv.Unmarshal(c, value.Int(3)); err == nil {
		t.Error("expected error for non-callable value")
	}
}

func TestFunc_Nullable(t *testing.T) {
	c := NewContext()
	conv := Nullable[func() (int32, error)](Func0(Int32))

	v, err := conv.Marshal(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsUndefined() {
		t.Errorf("nil function marshalled to %v", v)
	}
	fn, err := conv.Unmarshal(c, value.Null())
	if err != nil {
		t.Fatal(err)
	}
	if fn != nil {
		t.Error("null unmarshalled to a non-nil function")
	}

	v, err = conv.Marshal(c, func() (int32, error) { return 7, nil })
	if err != nil {
		t.Fatal(err)
	}
	fn, err = conv.Unmarshal(c, v)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := fn(); got != 7 {
		t.Errorf("fn() = %d, want 7", got)
	}

	s, err := SchemaOf(c, conv)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.String(); got != "func?(): int" {
		t.Errorf("schema = %s, want func?(): int", got)
	}
}

func TestFunc_NativeErrors(t *testing.T) {
	c := NewContext()
	boom := errors.New("boom")

	tests := []struct {
		name  string
		fn    func(float64, float64) (float64, error)
		args  []value.Value
		kind  bridgeerrors.Kind
		cause error
		text  string
	}{
		{
			name:  "native error",
			fn:    func(float64, float64) (float64, error) { return 0, boom },
			args:  []value.Value{value.Double(1), value.Double(2)},
			kind:  bridgeerrors.KindNativeError,
			cause: boom,
		},
		{
			name: "native panic",
			fn:   func(float64, float64) (float64, error) { panic("overflow") },
			args: []value.Value{value.Double(1), value.Double(2)},
			kind: bridgeerrors.KindNativeError,
			text: "panic: overflow",
		},
		{
			name: "bad argument",
			fn:   func(a, b float64) (float64, error) { return a + b, nil },
			args: []value.Value{value.String("x"), value.Double(2)},
			kind: bridgeerrors.KindTypeMismatch,
			text: "arg0",
		},
		{
			name: "missing argument",
			fn:   func(a, b float64) (float64, error) { return a + b, nil },
			args: []value.Value{value.Double(1)},
			kind: bridgeerrors.KindTypeMismatch,
			text: "arg1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := addConverter.Marshal(c, tt.fn)
			if err != nil {
				t.Fatal(err)
			}
			f, _ := v.AsFunction()
			_, err = f.Call(tt.args)

			var be *bridgeerrors.Error
			if !errors.As(err, &be) {
				t.Fatalf("error = %v, want *bridgeerrors.Error", err)
			}
			if be.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", be.Kind, tt.kind)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("error %v does not wrap %v", err, tt.cause)
			}
			if tt.text != "" && !strings.Contains(err.Error(), tt.text) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.text)
			}
		})
	}
}

func TestFunc_BoundaryCallable(t *testing.T) {
	c := NewContext()
	var got []value.Value
	boundary := value.Func(value.FuncOf(func(args []value.Value) (value.Value, error) {
		got = args
		return value.Bool(true), nil
	}))

	fn, err := Func1(String, Bool).Unmarshal(c, boundary)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := fn("hello")
	if err != nil {
		t.Fatalf("fn: %v", err)
	}
	if !ok {
		t.Error("fn returned false")
	}
	if len(got) != 1 {
		t.Fatalf("boundary got %d args, want 1", len(got))
	}
	if s, _ := got[0].AsString(); s != "hello" {
		t.Errorf("boundary arg = %q, want hello", s)
	}
}

func TestFunc_BoundaryFailures(t *testing.T) {
	c := NewContext()
	boom := errors.New("script threw")

	tests := []struct {
		name string
		f    value.FuncOf
		kind bridgeerrors.Kind
	}{
		{
			name: "call error",
			f:    func([]value.Value) (value.Value, error) { return value.Undefined(), boom },
			kind: bridgeerrors.KindBoundaryError,
		},
		{
			name: "error result",
			f:    func([]value.Value) (value.Value, error) { return value.Error(boom), nil },
			kind: bridgeerrors.KindBoundaryError,
		},
		{
			name: "wrong result type",
			f:    func([]value.Value) (value.Value, error) { return value.String("nope"), nil },
			kind: bridgeerrors.KindTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := Func0(Int32).Unmarshal(c, value.Func(tt.f))
			if err != nil {
				t.Fatal(err)
			}
			_, err = fn()
			var be *bridgeerrors.Error
			if !errors.As(err, &be) {
				t.Fatalf("error = %v, want *bridgeerrors.Error", err)
			}
			if be.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", be.Kind, tt.kind)
			}
			if tt.kind == bridgeerrors.KindBoundaryError && !errors.Is(err, boom) {
				t.Errorf("error %v does not wrap the boundary cause", err)
			}
		})
	}
}

func TestProc_RoundTrip(t *testing.T) {
	c := NewContext()
	var total int64
	proc := func(a int64, b string) error {
		total += a + int64(len(b))
		return nil
	}

	conv := Proc2(Int64, String)
	v, err := conv.Marshal(c, proc)
	if err != nil {
		t.Fatal(err)
	}
	f, _ := v.AsFunction()
	out, err := f.Call([]value.Value{value.Long(40), value.String("ab")})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsUndefined() {
		t.Errorf("procedure returned %v, want undefined", out)
	}
	if total != 42 {
		t.Errorf("total = %d, want 42", total)
	}

	called := false
	done, err := Proc0().Unmarshal(c, value.Func(value.FuncOf(func([]value.Value) (value.Value, error) {
		called = true
		return value.Undefined(), nil
	})))
	if err != nil {
		t.Fatal(err)
	}
	if err := done(); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("boundary procedure not called")
	}
}

func TestFunc_Schema(t *testing.T) {
	c := NewContext()

	tests := []struct {
		name string
		got  func() (schema.ValueSchema, error)
		want string
	}{
		{"func1", func() (schema.ValueSchema, error) { return SchemaOf(c, Func1(String, Bool)) }, "func(string): bool"},
		{"proc1", func() (schema.ValueSchema, error) { return SchemaOf(c, Proc1(Float64)) }, "func(double): void"},
		{"func3", func() (schema.ValueSchema, error) {
			return SchemaOf(c, Func3(Int32, Int64, Optional(String), Slice(Float64)))
		}, "func(int, long, string?): array<double>"},
		{"model arg", func() (schema.ValueSchema, error) {
			return SchemaOf(c, Func1(Converter[MyCard](cardConverter), Bool))
		}, "func(ref:'MyCard'): bool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.got()
			if err != nil {
				t.Fatal(err)
			}
			if got := s.String(); got != tt.want {
				t.Errorf("schema = %s, want %s", got, tt.want)
			}
		})
	}
}
