package marshal

import (
	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/value"
)

// Conform checks that v has the shape described by s without converting
// it. Referenced classes, enums and generic instantiations are looked up
// in the context's schema table, so s should come from a resolved entry.
func Conform(c *Context, s schema.ValueSchema, v value.Value) error {
	return conform(c.registry.Table(), s, v, nil)
}

func conform(t *schema.Table, s schema.ValueSchema, v value.Value, path []string) error {
	mismatch := func() error {
		return errors.TypeMismatch(errors.PhaseUnmarshal, path, v.Kind().String(), s.String())
	}

	if v.IsNullish() {
		if s.Optional || s.Kind == schema.KindUntyped || s.Kind == schema.KindVoid || s.Kind == schema.KindTypeParam {
			return nil
		}
		return mismatch()
	}

	var err error
	switch s.Kind {
	case schema.KindUntyped, schema.KindTypeParam:
		return nil
	case schema.KindVoid:
		return mismatch()
	case schema.KindString:
		_, err = v.AsString()
	case schema.KindInt:
		_, err = v.AsInt32()
	case schema.KindLong:
		_, err = v.AsInt64()
	case schema.KindDouble:
		_, err = v.AsFloat64()
	case schema.KindBool:
		_, err = v.AsBool()
	case schema.KindMap:
		_, err = v.AsMap()
	case schema.KindBytes:
		_, err = v.AsBytes()
	case schema.KindFunction:
		_, err = v.AsFunction()
	case schema.KindArray:
		arr, aerr := v.AsArray()
		if aerr != nil {
			return mismatch()
		}
		if s.Elem == nil {
			return nil
		}
		for i := 0; i < arr.Len(); i++ {
			if err := conform(t, *s.Elem, arr.At(i), append(append([]string{}, path...), index(i))); err != nil {
				return err
			}
		}
		return nil
	case schema.KindEnum:
		return conformEnum(s.Enum, v, path)
	case schema.KindClass:
		return conformClass(t, s.Class, v, path)
	case schema.KindTypeRef, schema.KindGenericRef:
		target, ok := t.Find(s.Key())
		if !ok {
			return errors.Unresolved(path, s.Key())
		}
		return conform(t, target, v, path)
	}
	if err != nil {
		return mismatch()
	}
	return nil
}

func conformEnum(e *schema.EnumSchema, v value.Value, path []string) error {
	if e.StringValued {
		raw, err := v.AsString()
		if err != nil {
			return errors.TypeMismatch(errors.PhaseUnmarshal, path, v.Kind().String(), e.Name)
		}
		for _, ec := range e.Cases {
			if ec.Str == raw {
				return nil
			}
		}
		return errors.InvalidEnum(errors.PhaseUnmarshal, path, raw, e.Name)
	}
	raw, err := v.AsInt64()
	if err != nil {
		return errors.TypeMismatch(errors.PhaseUnmarshal, path, v.Kind().String(), e.Name)
	}
	for _, ec := range e.Cases {
		if ec.Int == raw {
			return nil
		}
	}
	return errors.InvalidEnum(errors.PhaseUnmarshal, path, raw, e.Name)
}

func conformClass(t *schema.Table, class *schema.ClassSchema, v value.Value, path []string) error {
	var get func(name string) value.Value
	switch v.Kind() {
	case value.KindMap:
		m, _ := v.AsMap()
		get = func(name string) value.Value {
			pv, _ := m.Get(name)
			return pv
		}
	case value.KindTypedObject, value.KindProxyObject:
		obj, _ := v.AsTypedObject()
		get = func(name string) value.Value {
			pv, _ := obj.PropertyByName(name)
			return pv
		}
	default:
		return errors.TypeMismatch(errors.PhaseUnmarshal, path, v.Kind().String(), class.Name)
	}

	for _, f := range class.Fields {
		if err := conform(t, f.Type, get(f.Name), append(append([]string{}, path...), f.Name)); err != nil {
			return err
		}
	}
	return nil
}
