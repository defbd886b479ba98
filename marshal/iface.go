package marshal

import (
	"fmt"
	"sync/atomic"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/proxy"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/value"
)

// Receiver holds a native interface instance by weak reference.
type Receiver[I proxy.Native] struct {
	ref proxy.Ref
}

// NewReceiver creates a weak receiver for n
func NewReceiver[I proxy.Native](n I) Receiver[I] {
	return Receiver[I]{ref: proxy.WeakRef(n)}
}

// Get returns the receiver, or a deallocated error once it has been collected
func (r Receiver[I]) Get(method string) (I, error) {
	var zero I
	n, ok := r.ref.Get()
	if !ok {
		return zero, errors.Deallocated("method " + method)
	}
	recv, ok := n.(I)
	if !ok {
		return zero, errors.TypeMismatch(errors.PhaseCall, []string{method}, fmt.Sprintf("%T", n), fmt.Sprintf("%T", zero))
	}
	return recv, nil
}

// Method binds one interface method to a class property.
// Methods are created with BindMethod.
type Method[I proxy.Native] interface {
	Name() string
	bind(c *Context, recv Receiver[I]) value.Value
}

type method[I proxy.Native, F any] struct {
	conv FuncConverter[F]
	get  func(I) F
	name string
}

// BindMethod declares that property name calls get(receiver) with conv
func BindMethod[I proxy.Native, F any](name string, conv FuncConverter[F], get func(I) F) Method[I] {
	return &method[I, F]{name: name, conv: conv, get: get}
}

func (m *method[I, F]) Name() string { return m.name }

// bind returns a boundary callable that resolves the receiver on every
// call and fails without invoking anything once it is gone.
func (m *method[I, F]) bind(c *Context, recv Receiver[I]) value.Value {
	return value.Func(value.FuncOf(func(args []value.Value) (value.Value, error) {
		r, err := recv.Get(m.name)
		if err != nil {
			return value.Undefined(), err
		}
		return m.conv.Invoke(c, m.get(r), args)
	}))
}

// InterfaceConverter converts reference-semantics interface instances
// through proxy objects, preserving identity in both directions.
type InterfaceConverter[I proxy.Native] struct {
	entry    *registry.Entry
	verified atomic.Pointer[schema.ClassSchema]
	newProxy func(c *Context, obj *value.TypedObject) (I, error)
	methods  []Method[I]
}

// Interface creates a converter for the interface class declared by entry.
// newProxy builds a native implementation backed by a boundary object; its
// result must embed a fresh proxy.Object. methods must list every class
// property in declaration order.
//
// Nil instances and nullish boundary values are rejected; wrap the
// converter with Nullable for optional interface fields.
func Interface[I proxy.Native](entry *registry.Entry, newProxy func(c *Context, obj *value.TypedObject) (I, error), methods ...Method[I]) *InterfaceConverter[I] {
	return &InterfaceConverter[I]{entry: entry, newProxy: newProxy, methods: methods}
}

// Entry returns the registry entry of the interface class
func (ic *InterfaceConverter[I]) Entry() *registry.Entry { return ic.entry }

func (ic *InterfaceConverter[I]) class(c *Context, phase errors.Phase) (*schema.ClassSchema, error) {
	class, err := c.classOf(phase, ic.entry)
	if err != nil {
		return nil, err
	}
	if ic.verified.Load() != class {
		verifyFields(class, len(ic.methods), func(i int) string { return ic.methods[i].Name() })
		ic.verified.Store(class)
	}
	return class, nil
}

// Marshal returns the live proxy of v in c, creating one if needed
func (ic *InterfaceConverter[I]) Marshal(c *Context, v I) (value.Value, error) {
	if isNil(v) {
		return value.Undefined(), errors.NilPointer(errors.PhaseMarshal, nil, fmt.Sprintf("%T", v))
	}
	if p, ok := c.store.ProxyFor(v); ok {
		return value.Proxy(p), nil
	}

	class, err := ic.class(c, errors.PhaseMarshal)
	if err != nil {
		return value.Undefined(), err
	}

	recv := NewReceiver(v)
	obj := value.NewTypedObject(class)
	for i, m := range ic.methods {
		obj.SetProperty(i, m.bind(c, recv))
	}

	// a concurrent marshal of v may have attached first; Attach keeps that one
	p := c.store.Attach(v, value.NewProxyObject(obj))
	return value.Proxy(p), nil
}

// Unmarshal returns the native instance behind a proxy created in c, or
// wraps any other boundary object in a local proxy that marshals back to
// the same boundary object for as long as the local proxy lives.
func (ic *InterfaceConverter[I]) Unmarshal(c *Context, v value.Value) (I, error) {
	var zero I
	if v.IsNullish() {
		return zero, errors.TypeMismatch(errors.PhaseUnmarshal, nil, fmt.Sprintf("%T", zero), v.Kind().String())
	}

	var p *value.ProxyObject
	switch v.Kind() {
	case value.KindProxyObject:
		p, _ = v.AsProxyObject()
		if n, ok := c.store.Lookup(p.ID); ok {
			native, ok := n.(I)
			if !ok {
				return zero, errors.TypeMismatch(errors.PhaseUnmarshal, nil, fmt.Sprintf("%T", n), fmt.Sprintf("%T", zero))
			}
			return native, nil
		}
	case value.KindTypedObject:
		obj, _ := v.AsTypedObject()
		p = value.NewProxyObject(obj)
	case value.KindMap:
		obj, err := ic.objectFromMap(c, v)
		if err != nil {
			return zero, err
		}
		p = value.NewProxyObject(obj)
	default:
		return zero, errors.TypeMismatch(errors.PhaseUnmarshal, nil, fmt.Sprintf("%T", zero), v.Kind().String())
	}

	if err := ic.checkMethods(c, p.Object); err != nil {
		return zero, err
	}
	local, err := ic.newProxy(c, p.Object)
	if err != nil {
		return zero, errors.WithPathPrefix(errors.PhaseUnmarshal, err, ic.entry.ClassName())
	}
	if isNil(local) {
		return zero, errors.NilPointer(errors.PhaseUnmarshal, nil, fmt.Sprintf("%T", zero))
	}
	c.store.Adopt(local, p)
	return local, nil
}

// checkMethods fails when obj lacks a property the class requires
func (ic *InterfaceConverter[I]) checkMethods(c *Context, obj *value.TypedObject) error {
	class, err := ic.class(c, errors.PhaseUnmarshal)
	if err != nil {
		return err
	}
	for _, f := range class.Fields {
		if f.Type.Optional {
			continue
		}
		if pv, _ := obj.PropertyByName(f.Name); pv.IsNullish() {
			return errors.FieldMissing(errors.PhaseUnmarshal, []string{class.Name, f.Name}, f.Name)
		}
	}
	return nil
}

func (ic *InterfaceConverter[I]) objectFromMap(c *Context, v value.Value) (*value.TypedObject, error) {
	class, err := ic.class(c, errors.PhaseUnmarshal)
	if err != nil {
		return nil, err
	}
	m, _ := v.AsMap()
	obj := value.NewTypedObject(class)
	for i, f := range class.Fields {
		pv, _ := m.Get(f.Name)
		obj.SetProperty(i, pv)
	}
	return obj, nil
}

func (ic *InterfaceConverter[I]) Schema(r registry.Resolver) (schema.ValueSchema, error) {
	return r.Reference(ic.entry)
}
