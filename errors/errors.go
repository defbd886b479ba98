package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the bridge the error occurred
type Phase string

const (
	PhaseRegister  Phase = "register"  // schema registration
	PhaseResolve   Phase = "resolve"   // schema resolution
	PhaseMarshal   Phase = "marshal"   // native to boundary
	PhaseUnmarshal Phase = "unmarshal" // boundary to native
	PhaseCall      Phase = "call"      // callable invocation
	PhaseProxy     Phase = "proxy"     // proxy object store
	PhaseModule    Phase = "module"    // module loading
	PhaseParse     Phase = "parse"     // schema and manifest parsing
)

// Kind categorizes the error
type Kind string

const (
	KindParse               Kind = "parse"
	KindUnresolvedReference Kind = "unresolved_reference"
	KindInvalidEnum         Kind = "invalid_enum"
	KindTypeMismatch        Kind = "type_mismatch"
	KindDeallocated         Kind = "deallocated"
	KindNativeError         Kind = "native_error"
	KindBoundaryError       Kind = "boundary_error"
	KindRegistration        Kind = "registration"
	KindNotFound            Kind = "not_found"
	KindInvalidInput        Kind = "invalid_input"
	KindUnsupported         Kind = "unsupported"
	KindNilPointer          Kind = "nil_pointer"
	KindFieldMissing        Kind = "field_missing"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	SchemaType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	typed := e.GoType != "" || e.SchemaType != ""
	if typed {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.SchemaType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", schema type ")
			b.WriteString(e.SchemaType)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("schema type ")
			b.WriteString(e.SchemaType)
		}
	}

	if e.Detail != "" {
		if typed {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// SchemaType sets the schema type name
func (b *Builder) SchemaType(t string) *Builder {
	b.err.SchemaType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// WithPathPrefix returns err with segment prepended to its path.
// Structured errors are copied; other errors are wrapped as a
// type mismatch in the given phase.
func WithPathPrefix(phase Phase, err error, segment string) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*Error)
	if !ok {
		return &Error{
			Phase: phase,
			Kind:  KindTypeMismatch,
			Path:  []string{segment},
			Cause: err,
		}
	}
	cp := *e
	cp.Path = append([]string{segment}, e.Path...)
	return &cp
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, schemaType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindTypeMismatch,
		Path:       path,
		GoType:     goType,
		SchemaType: schemaType,
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, path []string, value any, enumType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindInvalidEnum,
		Path:       path,
		SchemaType: enumType,
		Detail:     fmt.Sprintf("invalid enum value %v for %s", value, enumType),
		Value:      value,
	}
}

// Deallocated creates the error returned when a call targets a released object
func Deallocated(what string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindDeallocated,
		Detail: fmt.Sprintf("cannot call %s: object was deallocated", what),
	}
}

// NativeError wraps a failure raised by native code behind a boundary callable
func NativeError(cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindNativeError,
		Detail: "native call failed",
		Cause:  cause,
	}
}

// BoundaryError wraps an error reported by a boundary callable
func BoundaryError(cause error) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindBoundaryError,
		Detail: "boundary call failed",
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindParse,
		Detail: fmt.Sprintf("parse %s at offset %d: %s", what, offset, detail),
		Value:  offset,
	}
}

// Unresolved creates an unresolved type reference error
func Unresolved(path []string, name string) *Error {
	return &Error{
		Phase:      PhaseResolve,
		Kind:       KindUnresolvedReference,
		Path:       path,
		SchemaType: name,
		Detail:     fmt.Sprintf("type %q is not registered", name),
	}
}

// FieldMissing creates a missing field error
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(phase Phase, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s", name),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
