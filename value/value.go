// Package value defines the dynamically typed values exchanged with the
// script runtime.
package value

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/schema"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInt
	KindLong
	KindDouble
	KindString
	KindArray
	KindMap
	KindTypedObject
	KindProxyObject
	KindFunction
	KindError
	KindBytes
)

var kindNames = [...]string{
	KindUndefined:   "undefined",
	KindNull:        "null",
	KindBool:        "bool",
	KindInt:         "int",
	KindLong:        "long",
	KindDouble:      "double",
	KindString:      "string",
	KindArray:       "array",
	KindMap:         "map",
	KindTypedObject: "typed_object",
	KindProxyObject: "proxy_object",
	KindFunction:    "function",
	KindError:       "error",
	KindBytes:       "bytes",
}

// String returns the kind name
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a dynamically typed boundary value. The zero Value is undefined.
type Value struct {
	ref  any // *Array, *Map, *TypedObject, *ProxyObject, Function, error, []byte
	str  string
	num  uint64
	kind Kind
}

// Function is a callable boundary value
type Function interface {
	Call(args []Value) (Value, error)
}

// FuncOf adapts a plain Go function to Function
type FuncOf func(args []Value) (Value, error)

// Call invokes f
func (f FuncOf) Call(args []Value) (Value, error) { return f(args) }

// Undefined returns the undefined value
func Undefined() Value { return Value{} }

// Null returns the null value
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a bool
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

// Int wraps a 32-bit integer
func Int(i int32) Value { return Value{kind: KindInt, num: uint64(int64(i))} }

// Long wraps a 64-bit integer
func Long(i int64) Value { return Value{kind: KindLong, num: uint64(i)} }

// Double wraps a float64
func Double(f float64) Value { return Value{kind: KindDouble, num: math.Float64bits(f)} }

// String wraps a string
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bytes wraps a byte buffer without copying it
func Bytes(b []byte) Value { return Value{kind: KindBytes, ref: b} }

// ArrayOf wraps elements in a new array value
func ArrayOf(elems ...Value) Value {
	return Value{kind: KindArray, ref: &Array{elems: elems}}
}

// FromArray wraps an existing array
func FromArray(a *Array) Value { return Value{kind: KindArray, ref: a} }

// FromMap wraps an existing map
func FromMap(m *Map) Value { return Value{kind: KindMap, ref: m} }

// Object wraps a typed object
func Object(o *TypedObject) Value { return Value{kind: KindTypedObject, ref: o} }

// Proxy wraps a proxy object
func Proxy(p *ProxyObject) Value { return Value{kind: KindProxyObject, ref: p} }

// Func wraps a callable
func Func(f Function) Value { return Value{kind: KindFunction, ref: f} }

// Error wraps an error raised on either side of the boundary
func Error(err error) Value { return Value{kind: KindError, ref: err} }

// Kind returns the variant held by v
func (v Value) Kind() Kind { return v.kind }

// IsNullish reports whether v is undefined or null
func (v Value) IsNullish() bool { return v.kind == KindUndefined || v.kind == KindNull }

// IsUndefined reports whether v is undefined
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

func (v Value) mismatch(want string) error {
	return errors.New(errors.PhaseUnmarshal, errors.KindTypeMismatch).
		SchemaType(want).
		Value(v.kind.String()).
		Detail("expected %s, got %s", want, v.kind).
		Build()
}

// AsBool extracts a bool
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch("bool")
	}
	return v.num != 0, nil
}

// AsInt32 extracts an int. Longs and integral doubles in range are accepted.
func (v Value) AsInt32() (int32, error) {
	switch v.kind {
	case KindInt:
		return int32(int64(v.num)), nil
	case KindLong:
		n := int64(v.num)
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, v.mismatch("int")
		}
		return int32(n), nil
	case KindDouble:
		f := math.Float64frombits(v.num)
		if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
			return 0, v.mismatch("int")
		}
		return int32(f), nil
	}
	return 0, v.mismatch("int")
}

// AsInt64 extracts a long from any numeric kind
func (v Value) AsInt64() (int64, error) {
	switch v.kind {
	case KindInt, KindLong:
		return int64(v.num), nil
	case KindDouble:
		f := math.Float64frombits(v.num)
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, v.mismatch("long")
		}
		return int64(f), nil
	}
	return 0, v.mismatch("long")
}

// AsFloat64 extracts a double from any numeric kind
func (v Value) AsFloat64() (float64, error) {
	switch v.kind {
	case KindInt, KindLong:
		return float64(int64(v.num)), nil
	case KindDouble:
		return math.Float64frombits(v.num), nil
	}
	return 0, v.mismatch("double")
}

// AsString extracts a string
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch("string")
	}
	return v.str, nil
}

// AsArray extracts an array
func (v Value) AsArray() (*Array, error) {
	if v.kind != KindArray {
		return nil, v.mismatch("array")
	}
	return v.ref.(*Array), nil
}

// AsMap extracts a map
func (v Value) AsMap() (*Map, error) {
	if v.kind != KindMap {
		return nil, v.mismatch("map")
	}
	return v.ref.(*Map), nil
}

// AsTypedObject extracts a typed object. A proxy object yields the
// object it wraps.
func (v Value) AsTypedObject() (*TypedObject, error) {
	switch v.kind {
	case KindTypedObject:
		return v.ref.(*TypedObject), nil
	case KindProxyObject:
		return v.ref.(*ProxyObject).Object, nil
	}
	return nil, v.mismatch("typed_object")
}

// AsProxyObject extracts a proxy object
func (v Value) AsProxyObject() (*ProxyObject, error) {
	if v.kind != KindProxyObject {
		return nil, v.mismatch("proxy_object")
	}
	return v.ref.(*ProxyObject), nil
}

// AsFunction extracts a callable
func (v Value) AsFunction() (Function, error) {
	if v.kind != KindFunction {
		return nil, v.mismatch("function")
	}
	return v.ref.(Function), nil
}

// AsBytes extracts a byte buffer
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, v.mismatch("bytes")
	}
	return v.ref.([]byte), nil
}

// Err returns the wrapped error of an error value, nil otherwise
func (v Value) Err() error {
	if v.kind != KindError {
		return nil
	}
	return v.ref.(error)
}

// Array is an ordered boundary sequence
type Array struct {
	elems []Value
}

// NewArray allocates an array of n undefined elements
func NewArray(n int) *Array { return &Array{elems: make([]Value, n)} }

// Len returns the number of elements
func (a *Array) Len() int { return len(a.elems) }

// At returns element i
func (a *Array) At(i int) Value { return a.elems[i] }

// Set replaces element i
func (a *Array) Set(i int, v Value) { a.elems[i] = v }

// Append adds v at the end
func (a *Array) Append(v Value) { a.elems = append(a.elems, v) }

// Values returns the backing elements
func (a *Array) Values() []Value { return a.elems }

// Map is an insertion-ordered string-keyed boundary mapping
type Map struct {
	index map[string]int
	keys  []string
	vals  []Value
}

// NewMap creates an empty map
func NewMap() *Map { return &Map{index: make(map[string]int)} }

// Set inserts or replaces key
func (m *Map) Set(key string, v Value) {
	if i, ok := m.index[key]; ok {
		m.vals[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
}

// Get returns the value for key, undefined if absent
func (m *Map) Get(key string) (Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return Value{}, false
	}
	return m.vals[i], true
}

// Len returns the number of keys
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order
func (m *Map) Keys() []string { return m.keys }

// TypedObject is a class instance with positional property slots
type TypedObject struct {
	Class *schema.ClassSchema
	props []Value
}

// NewTypedObject allocates an object with one undefined slot per class field
func NewTypedObject(class *schema.ClassSchema) *TypedObject {
	return &TypedObject{Class: class, props: make([]Value, len(class.Fields))}
}

// Len returns the number of property slots
func (o *TypedObject) Len() int { return len(o.props) }

// Property returns slot i
func (o *TypedObject) Property(i int) Value { return o.props[i] }

// SetProperty replaces slot i
func (o *TypedObject) SetProperty(i int, v Value) { o.props[i] = v }

// PropertyByName returns the named property, undefined if the class has no such field
func (o *TypedObject) PropertyByName(name string) (Value, bool) {
	i := o.Class.FieldIndex(name)
	if i < 0 {
		return Value{}, false
	}
	return o.props[i], true
}

var nextProxyID atomic.Uint64

// ProxyObject is the boundary stand-in for a native interface instance
type ProxyObject struct {
	Object *TypedObject
	ID     uint64
}

// NewProxyObject wraps obj with a process-unique id
func NewProxyObject(obj *TypedObject) *ProxyObject {
	return &ProxyObject{Object: obj, ID: nextProxyID.Add(1)}
}

// Equal reports deep equality for data values and identity for
// proxies, functions and errors.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool, KindInt, KindLong, KindDouble:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindBytes:
		return bytes.Equal(a.ref.([]byte), b.ref.([]byte))
	case KindArray:
		x, y := a.ref.(*Array), b.ref.(*Array)
		if x.Len() != y.Len() {
			return false
		}
		for i := range x.elems {
			if !Equal(x.elems[i], y.elems[i]) {
				return false
			}
		}
		return true
	case KindMap:
		x, y := a.ref.(*Map), b.ref.(*Map)
		if x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			yv, ok := y.Get(k)
			if !ok || !Equal(x.vals[i], yv) {
				return false
			}
		}
		return true
	case KindTypedObject:
		x, y := a.ref.(*TypedObject), b.ref.(*TypedObject)
		if x == y {
			return true
		}
		if x.Class.Name != y.Class.Name || x.Len() != y.Len() {
			return false
		}
		for i := range x.props {
			if !Equal(x.props[i], y.props[i]) {
				return false
			}
		}
		return true
	default:
		return sameRef(a.ref, b.ref)
	}
}

// sameRef compares references without panicking on func-typed callables
func sameRef(a, b any) bool {
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return false
	}
	return a == b
}

// String renders v for diagnostics
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindBool:
		b.WriteString(strconv.FormatBool(v.num != 0))
	case KindInt, KindLong:
		b.WriteString(strconv.FormatInt(int64(v.num), 10))
	case KindDouble:
		b.WriteString(strconv.FormatFloat(math.Float64frombits(v.num), 'g', -1, 64))
	case KindString:
		b.WriteString(strconv.Quote(v.str))
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.ref.(*Array).elems {
			if i > 0 {
				b.WriteString(", ")
			}
			e.write(b)
		}
		b.WriteByte(']')
	case KindMap:
		m := v.ref.(*Map)
		b.WriteByte('{')
		for i, k := range m.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			m.vals[i].write(b)
		}
		b.WriteByte('}')
	case KindTypedObject:
		writeObject(b, v.ref.(*TypedObject))
	case KindProxyObject:
		p := v.ref.(*ProxyObject)
		fmt.Fprintf(b, "proxy#%d ", p.ID)
		writeObject(b, p.Object)
	case KindBytes:
		fmt.Fprintf(b, "<bytes: %d>", len(v.ref.([]byte)))
	case KindFunction:
		b.WriteString("<function>")
	case KindError:
		b.WriteString("<error: ")
		b.WriteString(v.ref.(error).Error())
		b.WriteByte('>')
	default:
		b.WriteString(v.kind.String())
	}
}

func writeObject(b *strings.Builder, o *TypedObject) {
	b.WriteString(o.Class.Name)
	b.WriteByte('{')
	for i, f := range o.Class.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		o.props[i].write(b)
	}
	b.WriteByte('}')
}
