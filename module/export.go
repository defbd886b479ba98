package module

import (
	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/marshal"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/value"
)

// Loader loads script modules. It is implemented by the script runtime.
type Loader interface {
	LoadModule(path string) (value.Value, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(path string) (value.Value, error)

// LoadModule calls f
func (f LoaderFunc) LoadModule(path string) (value.Value, error) { return f(path) }

// ResolveExport loads the script module at path and converts its primary
// export to a native function. entry declares the class the module must
// conform to; its first property is the primary export. A callable or
// array module stands in for that property directly. With a nil entry
// the module is not checked and its first value is the primary export.
func ResolveExport[F any](c *marshal.Context, loader Loader, path string, entry *registry.Entry, conv marshal.FuncConverter[F]) (F, error) {
	var zero F

	var class *schema.ClassSchema
	if entry != nil {
		s, err := c.Registry().ResolvedSchema(entry)
		if err != nil {
			return zero, errors.WithPathPrefix(errors.PhaseModule, err, path)
		}
		if !s.IsClass() {
			return zero, errors.TypeMismatch(errors.PhaseModule, []string{path}, entry.ClassName(), s.Kind.String())
		}
		class = s.Class
	}

	mod, err := loader.LoadModule(path)
	if err != nil {
		return zero, errors.Wrap(errors.PhaseModule, errors.KindBoundaryError, err, "load module "+path)
	}
	if e := mod.Err(); e != nil {
		return zero, errors.Wrap(errors.PhaseModule, errors.KindBoundaryError, e, "load module "+path)
	}

	export, err := primaryExport(mod, class)
	if err != nil {
		return zero, errors.WithPathPrefix(errors.PhaseModule, err, path)
	}
	if class != nil {
		if err := conformModule(c, class, mod, export); err != nil {
			return zero, errors.WithPathPrefix(errors.PhaseModule, err, path)
		}
	}
	if export.IsNullish() {
		return zero, errors.NotFound(errors.PhaseModule, "export", path)
	}

	fn, err := conv.Unmarshal(c, export)
	if err != nil {
		return zero, errors.WithPathPrefix(errors.PhaseModule, err, path)
	}
	return fn, nil
}

// conformModule checks an object module against the whole class and a
// callable or array module's export against the first property
func conformModule(c *marshal.Context, class *schema.ClassSchema, mod, export value.Value) error {
	switch mod.Kind() {
	case value.KindMap, value.KindTypedObject, value.KindProxyObject:
		return marshal.Conform(c, schema.ClassOf(class), mod)
	}
	f := class.Fields[0]
	if err := marshal.Conform(c, f.Type, export); err != nil {
		return errors.WithPathPrefix(errors.PhaseModule, err, f.Name)
	}
	return nil
}

func primaryExport(mod value.Value, class *schema.ClassSchema) (value.Value, error) {
	if class != nil && len(class.Fields) == 0 {
		return value.Undefined(), errors.NotFound(errors.PhaseModule, "export", class.Name)
	}
	switch mod.Kind() {
	case value.KindFunction:
		return mod, nil
	case value.KindTypedObject, value.KindProxyObject:
		obj, _ := mod.AsTypedObject()
		if class != nil {
			v, _ := obj.PropertyByName(class.Fields[0].Name)
			return v, nil
		}
		if obj.Len() == 0 {
			return value.Undefined(), errors.NotFound(errors.PhaseModule, "export", obj.Class.Name)
		}
		return obj.Property(0), nil
	case value.KindMap:
		m, _ := mod.AsMap()
		if class != nil {
			v, _ := m.Get(class.Fields[0].Name)
			return v, nil
		}
		keys := m.Keys()
		if len(keys) == 0 {
			return value.Undefined(), errors.NotFound(errors.PhaseModule, "export", "map")
		}
		v, _ := m.Get(keys[0])
		return v, nil
	case value.KindArray:
		arr, _ := mod.AsArray()
		if arr.Len() == 0 {
			return value.Undefined(), errors.NotFound(errors.PhaseModule, "export", "array")
		}
		return arr.At(0), nil
	}
	return value.Undefined(), errors.TypeMismatch(errors.PhaseModule, nil, "", mod.Kind().String())
}
