package marshal

import (
	"reflect"
	"strconv"
	"sync"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/value"
)

// Converter converts one native type to and from boundary values.
// Converters are stateless and safe for concurrent use; all per-bridge
// state lives in the Context.
type Converter[T any] interface {
	Marshal(c *Context, v T) (value.Value, error)
	Unmarshal(c *Context, v value.Value) (T, error)
	// Schema describes T for use as a generic type argument
	Schema(r registry.Resolver) (schema.ValueSchema, error)
}

// To marshals v with conv
func To[T any](c *Context, conv Converter[T], v T) (value.Value, error) {
	return conv.Marshal(c, v)
}

// From unmarshals v with conv
func From[T any](c *Context, conv Converter[T], v value.Value) (T, error) {
	return conv.Unmarshal(c, v)
}

// SchemaOf returns the schema conv describes, resolving entries in c
func SchemaOf[T any](c *Context, conv Converter[T]) (schema.ValueSchema, error) {
	return conv.Schema(c.registry.Resolver())
}

type scalar[T any] struct {
	to   func(T) value.Value
	from func(value.Value) (T, error)
	kind schema.Kind
}

func (s scalar[T]) Marshal(_ *Context, v T) (value.Value, error) { return s.to(v), nil }

func (s scalar[T]) Unmarshal(_ *Context, v value.Value) (T, error) { return s.from(v) }

func (s scalar[T]) Schema(registry.Resolver) (schema.ValueSchema, error) {
	return schema.Of(s.kind), nil
}

// Scalar converters
var (
	Bool    Converter[bool]    = scalar[bool]{to: value.Bool, from: value.Value.AsBool, kind: schema.KindBool}
	Int32   Converter[int32]   = scalar[int32]{to: value.Int, from: value.Value.AsInt32, kind: schema.KindInt}
	Int64   Converter[int64]   = scalar[int64]{to: value.Long, from: value.Value.AsInt64, kind: schema.KindLong}
	Float64 Converter[float64] = scalar[float64]{to: value.Double, from: value.Value.AsFloat64, kind: schema.KindDouble}
	String  Converter[string]  = scalar[string]{to: value.String, from: value.Value.AsString, kind: schema.KindString}

	// Bytes shares the buffer with the boundary value in both directions
	Bytes Converter[[]byte] = scalar[[]byte]{to: value.Bytes, from: value.Value.AsBytes, kind: schema.KindBytes}

	// Untyped passes boundary values through unchanged
	Untyped Converter[value.Value] = scalar[value.Value]{
		to:   func(v value.Value) value.Value { return v },
		from: func(v value.Value) (value.Value, error) { return v, nil },
		kind: schema.KindUntyped,
	}

	// Map converts untyped string-keyed mappings. A nil map marshals to undefined.
	Map Converter[*value.Map] = scalar[*value.Map]{
		to: func(m *value.Map) value.Value {
			if m == nil {
				return value.Undefined()
			}
			return value.FromMap(m)
		},
		from: func(v value.Value) (*value.Map, error) {
			if v.IsNullish() {
				return nil, nil
			}
			return v.AsMap()
		},
		kind: schema.KindMap,
	}
)

type nullable[T any] struct {
	inner Converter[T]
}

// Nullable admits undefined and null for converters whose native type
// has its own nil, such as callables and interfaces. Nil marshals to
// undefined and null or undefined unmarshal to nil; without Nullable
// those converters reject nullish values.
func Nullable[T any](inner Converter[T]) Converter[T] {
	return nullable[T]{inner: inner}
}

func (n nullable[T]) Marshal(c *Context, v T) (value.Value, error) {
	if isNil(v) {
		return value.Undefined(), nil
	}
	return n.inner.Marshal(c, v)
}

func (n nullable[T]) Unmarshal(c *Context, v value.Value) (T, error) {
	if v.IsNullish() {
		var zero T
		return zero, nil
	}
	return n.inner.Unmarshal(c, v)
}

func (n nullable[T]) Schema(r registry.Resolver) (schema.ValueSchema, error) {
	s, err := n.inner.Schema(r)
	if err != nil {
		return schema.ValueSchema{}, err
	}
	return s.AsOptional(), nil
}

type optional[T any] struct {
	inner Converter[T]
}

// Optional maps nil to undefined and null or undefined back to nil
func Optional[T any](inner Converter[T]) Converter[*T] {
	return optional[T]{inner: inner}
}

func (o optional[T]) Marshal(c *Context, v *T) (value.Value, error) {
	if v == nil {
		return value.Undefined(), nil
	}
	return o.inner.Marshal(c, *v)
}

func (o optional[T]) Unmarshal(c *Context, v value.Value) (*T, error) {
	if v.IsNullish() {
		return nil, nil
	}
	out, err := o.inner.Unmarshal(c, v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (o optional[T]) Schema(r registry.Resolver) (schema.ValueSchema, error) {
	s, err := o.inner.Schema(r)
	if err != nil {
		return schema.ValueSchema{}, err
	}
	return s.AsOptional(), nil
}

type slice[T any] struct {
	elem Converter[T]
}

// Slice converts element-wise, preserving order. Unmarshalling stops at
// the first failing element.
func Slice[T any](elem Converter[T]) Converter[[]T] {
	return slice[T]{elem: elem}
}

func index(i int) string { return "[" + strconv.Itoa(i) + "]" }

func (s slice[T]) Marshal(c *Context, v []T) (value.Value, error) {
	arr := value.NewArray(len(v))
	for i := range v {
		ev, err := s.elem.Marshal(c, v[i])
		if err != nil {
			return value.Undefined(), errors.WithPathPrefix(errors.PhaseMarshal, err, index(i))
		}
		arr.Set(i, ev)
	}
	return value.FromArray(arr), nil
}

func (s slice[T]) Unmarshal(c *Context, v value.Value) ([]T, error) {
	arr, err := v.AsArray()
	if err != nil {
		return nil, err
	}
	out := make([]T, arr.Len())
	for i := range out {
		if out[i], err = s.elem.Unmarshal(c, arr.At(i)); err != nil {
			return nil, errors.WithPathPrefix(errors.PhaseUnmarshal, err, index(i))
		}
	}
	return out, nil
}

func (s slice[T]) Schema(r registry.Resolver) (schema.ValueSchema, error) {
	es, err := s.elem.Schema(r)
	if err != nil {
		return schema.ValueSchema{}, err
	}
	return schema.ArrayOf(es), nil
}

type lazy[T any] struct {
	build func() Converter[T]
	conv  Converter[T]
	once  sync.Once
}

// Lazy defers building a converter until first use, breaking
// initialization cycles between recursive types.
func Lazy[T any](build func() Converter[T]) Converter[T] {
	return &lazy[T]{build: build}
}

func (l *lazy[T]) get() Converter[T] {
	l.once.Do(func() { l.conv = l.build() })
	return l.conv
}

func (l *lazy[T]) Marshal(c *Context, v T) (value.Value, error) { return l.get().Marshal(c, v) }

func (l *lazy[T]) Unmarshal(c *Context, v value.Value) (T, error) { return l.get().Unmarshal(c, v) }

func (l *lazy[T]) Schema(r registry.Resolver) (schema.ValueSchema, error) {
	return l.get().Schema(r)
}

// isNil reports nil interfaces and nil values of nillable kinds
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
