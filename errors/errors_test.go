package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:      PhaseMarshal,
				Kind:       KindTypeMismatch,
				Path:       []string{"section", "cards", "[1]"},
				GoType:     "string",
				SchemaType: "int",
				Detail:     "cannot convert",
			},
			contains: []string{"[marshal]", "type_mismatch", "section.cards.[1]", "Go type string", "schema type int", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseUnmarshal,
				Kind:  KindNilPointer,
			},
			contains: []string{"[unmarshal]", "nil_pointer"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseCall,
				Kind:   KindNativeError,
				Detail: "native call failed",
				Cause:  errors.New("division by zero"),
			},
			contains: []string{"[call]", "native_error", "native call failed", "caused by", "division by zero"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseModule,
		Kind:  KindRegistration,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause in chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseMarshal,
		Kind:  KindTypeMismatch,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseMarshal, Kind: KindTypeMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseUnmarshal, Kind: KindTypeMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseMarshal, Kind: KindInvalidEnum}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, &Error{Phase: PhaseMarshal, Kind: KindTypeMismatch}) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseUnmarshal, KindTypeMismatch).
		Path("card", "width").
		GoType("float64").
		SchemaType("double").
		Value("wide").
		Cause(cause).
		Detail("expected %s, got %s", "double", "string").
		Build()

	if err.Phase != PhaseUnmarshal {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseUnmarshal)
	}
	if len(err.Path) != 2 || err.Path[0] != "card" || err.Path[1] != "width" {
		t.Errorf("Path = %v, want [card width]", err.Path)
	}
	if err.GoType != "float64" || err.SchemaType != "double" {
		t.Errorf("GoType=%v SchemaType=%v", err.GoType, err.SchemaType)
	}
	if err.Value != "wide" {
		t.Errorf("Value = %v, want wide", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected double, got string" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestWithPathPrefix(t *testing.T) {
	t.Run("structured error is copied", func(t *testing.T) {
		inner := TypeMismatch(PhaseUnmarshal, []string{"title"}, "string", "int")
		got := WithPathPrefix(PhaseUnmarshal, inner, "[1]")

		var e *Error
		if !errors.As(got, &e) {
			t.Fatalf("expected *Error, got %T", got)
		}
		if strings.Join(e.Path, ".") != "[1].title" {
			t.Errorf("Path = %v, want [[1] title]", e.Path)
		}
		if len(inner.Path) != 1 {
			t.Errorf("inner path mutated: %v", inner.Path)
		}
	})

	t.Run("plain error is wrapped", func(t *testing.T) {
		plain := errors.New("boom")
		got := WithPathPrefix(PhaseMarshal, plain, "ids")
		if !errors.Is(got, plain) {
			t.Error("wrapped error should keep cause")
		}
		if !strings.Contains(got.Error(), "at ids") {
			t.Errorf("message %q should contain path", got.Error())
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if WithPathPrefix(PhaseMarshal, nil, "x") != nil {
			t.Error("expected nil")
		}
	})
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		kind     Kind
		contains string
	}{
		{"TypeMismatch", TypeMismatch(PhaseUnmarshal, []string{"f"}, "int32", "string"), KindTypeMismatch, "int32"},
		{"InvalidEnum", InvalidEnum(PhaseMarshal, []string{"status"}, 7, "Status"), KindInvalidEnum, "invalid enum value 7 for Status"},
		{"Deallocated", Deallocated("method add"), KindDeallocated, "object was deallocated"},
		{"NativeError", NativeError(errors.New("bad")), KindNativeError, "bad"},
		{"BoundaryError", BoundaryError(errors.New("thrown")), KindBoundaryError, "thrown"},
		{"ParseFailed", ParseFailed("schema", 4, "unexpected '}'"), KindParse, "offset 4"},
		{"Unresolved", Unresolved(nil, "MyCard"), KindUnresolvedReference, "MyCard"},
		{"FieldMissing", FieldMissing(PhaseUnmarshal, nil, "title"), KindFieldMissing, "title"},
		{"Unsupported", Unsupported(PhaseMarshal, "function"), KindUnsupported, "function"},
		{"NilPointer", NilPointer(PhaseMarshal, nil, "*Card"), KindNilPointer, "*Card"},
		{"NotFound", NotFound(PhaseModule, "module", "calc"), KindNotFound, `module "calc" not found`},
		{"InvalidInput", InvalidInput(PhaseModule, "empty name"), KindInvalidInput, "empty name"},
		{"Registration", Registration(PhaseRegister, "MyCard", errors.New("dup")), KindRegistration, "register MyCard"},
		{"Wrap", Wrap(PhaseResolve, KindUnresolvedReference, errors.New("inner"), "outer"), KindUnresolvedReference, "inner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("message %q does not contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}
