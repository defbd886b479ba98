package marshal

import (
	"fmt"
	"sync/atomic"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/value"
)

// Field binds one property of a model class to a struct field.
// Fields are created with FieldOf.
type Field[M any] interface {
	Name() string
	marshal(c *Context, m *M) (value.Value, error)
	unmarshal(c *Context, m *M, v value.Value) error
}

type field[M, T any] struct {
	conv Converter[T]
	get  func(*M) *T
	name string
}

// FieldOf declares a model field named name, accessed through get
func FieldOf[M, T any](name string, conv Converter[T], get func(*M) *T) Field[M] {
	return &field[M, T]{name: name, conv: conv, get: get}
}

func (f *field[M, T]) Name() string { return f.name }

func (f *field[M, T]) marshal(c *Context, m *M) (value.Value, error) {
	return f.conv.Marshal(c, *f.get(m))
}

func (f *field[M, T]) unmarshal(c *Context, m *M, v value.Value) error {
	out, err := f.conv.Unmarshal(c, v)
	if err != nil {
		return err
	}
	*f.get(m) = out
	return nil
}

// ModelConverter converts a value-semantics struct to and from a typed
// object whose properties follow the class declaration order.
type ModelConverter[M any] struct {
	entry    *registry.Entry
	verified atomic.Pointer[schema.ClassSchema]
	fields   []Field[M]
}

// Model creates a converter for the class declared by entry. fields must
// list every class property in declaration order; a mismatch panics on
// first use.
func Model[M any](entry *registry.Entry, fields ...Field[M]) *ModelConverter[M] {
	return &ModelConverter[M]{entry: entry, fields: fields}
}

// Entry returns the registry entry of the model class
func (m *ModelConverter[M]) Entry() *registry.Entry { return m.entry }

func (m *ModelConverter[M]) class(c *Context, phase errors.Phase) (*schema.ClassSchema, error) {
	class, err := c.classOf(phase, m.entry)
	if err != nil {
		return nil, err
	}
	if m.verified.Load() != class {
		verifyFields(class, len(m.fields), func(i int) string { return m.fields[i].Name() })
		m.verified.Store(class)
	}
	return class, nil
}

// verifyFields panics when a converter's fields disagree with the class
func verifyFields(class *schema.ClassSchema, n int, name func(int) string) {
	if n != len(class.Fields) {
		panic(fmt.Sprintf("marshal: %s declares %d properties, converter has %d",
			class.Name, len(class.Fields), n))
	}
	for i, f := range class.Fields {
		if name(i) != f.Name {
			panic(fmt.Sprintf("marshal: %s property %d is %q, converter has %q",
				class.Name, i, f.Name, name(i)))
		}
	}
}

func (m *ModelConverter[M]) Marshal(c *Context, v M) (value.Value, error) {
	class, err := m.class(c, errors.PhaseMarshal)
	if err != nil {
		return value.Undefined(), err
	}

	obj := value.NewTypedObject(class)
	for i, f := range m.fields {
		pv, err := f.marshal(c, &v)
		if err != nil {
			return value.Undefined(), errors.WithPathPrefix(errors.PhaseMarshal, err, f.Name())
		}
		obj.SetProperty(i, pv)
	}
	return value.Object(obj), nil
}

// Unmarshal accepts a typed object of the same class (read positionally),
// any other typed object, or a map (read by property name).
func (m *ModelConverter[M]) Unmarshal(c *Context, v value.Value) (M, error) {
	var out M

	class, err := m.class(c, errors.PhaseUnmarshal)
	if err != nil {
		return out, err
	}

	var prop func(i int) value.Value
	switch v.Kind() {
	case value.KindTypedObject, value.KindProxyObject:
		obj, _ := v.AsTypedObject()
		if obj.Class == class || (obj.Class.Name == class.Name && obj.Len() == len(m.fields)) {
			prop = obj.Property
		} else {
			prop = func(i int) value.Value {
				pv, _ := obj.PropertyByName(m.fields[i].Name())
				return pv
			}
		}
	case value.KindMap:
		mp, _ := v.AsMap()
		prop = func(i int) value.Value {
			pv, _ := mp.Get(m.fields[i].Name())
			return pv
		}
	default:
		return out, errors.TypeMismatch(errors.PhaseUnmarshal, nil, "", class.Name)
	}

	for i, f := range m.fields {
		if err := f.unmarshal(c, &out, prop(i)); err != nil {
			return out, errors.WithPathPrefix(errors.PhaseUnmarshal, err, f.Name())
		}
	}
	return out, nil
}

func (m *ModelConverter[M]) Schema(r registry.Resolver) (schema.ValueSchema, error) {
	return r.Reference(m.entry)
}

// Property reads the named property of obj with conv. Intended for
// building local proxies of boundary interface objects.
func Property[T any](c *Context, conv Converter[T], obj *value.TypedObject, name string) (T, error) {
	pv, ok := obj.PropertyByName(name)
	if !ok {
		var zero T
		return zero, errors.FieldMissing(errors.PhaseUnmarshal, nil, name)
	}
	out, err := conv.Unmarshal(c, pv)
	if err != nil {
		return out, errors.WithPathPrefix(errors.PhaseUnmarshal, err, name)
	}
	return out, nil
}
