package witexport

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/schema"
)

// Exporter projects bridge schemas onto WIT types. Named classes and
// enums become named type definitions, shared across one exporter so
// recursive and repeated references resolve to the same definition.
type Exporter struct {
	table *schema.Table
	defs  map[string]*wit.TypeDef
	added []string
}

// NewExporter creates an exporter that looks references up in t.
// A nil table rejects every type reference.
func NewExporter(t *schema.Table) *Exporter {
	return &Exporter{table: t, defs: make(map[string]*wit.TypeDef)}
}

// Export projects s without a schema table
func Export(s schema.ValueSchema) (wit.Type, error) {
	return NewExporter(nil).Export(s)
}

// Export projects s onto a WIT type. A failed export leaves no
// definitions behind.
func (e *Exporter) Export(s schema.ValueSchema) (wit.Type, error) {
	e.added = e.added[:0]
	t, err := e.export(s, nil)
	if err != nil {
		for _, key := range e.added {
			delete(e.defs, key)
		}
	}
	e.added = e.added[:0]
	return t, err
}

func (e *Exporter) define(key string, td *wit.TypeDef) {
	e.defs[key] = td
	e.added = append(e.added, key)
}

func (e *Exporter) export(s schema.ValueSchema, path []string) (wit.Type, error) {
	t, err := e.exportRequired(s, path)
	if err != nil || !s.Optional {
		return t, err
	}
	return &wit.TypeDef{Kind: &wit.Option{Type: t}}, nil
}

func (e *Exporter) exportRequired(s schema.ValueSchema, path []string) (wit.Type, error) {
	switch s.Kind {
	case schema.KindBool:
		return wit.Bool{}, nil
	case schema.KindInt:
		return wit.S32{}, nil
	case schema.KindLong:
		return wit.S64{}, nil
	case schema.KindDouble:
		return wit.F64{}, nil
	case schema.KindString:
		return wit.String{}, nil
	case schema.KindBytes:
		return &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}, nil
	case schema.KindArray:
		if s.Elem == nil {
			return nil, unsupported(path, "array of untyped values")
		}
		elem, err := e.export(*s.Elem, append(append([]string{}, path...), "[]"))
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.List{Type: elem}}, nil
	case schema.KindClass:
		return e.exportClass(s.Class, path)
	case schema.KindEnum:
		return e.exportEnum(s.Enum), nil
	case schema.KindTypeRef, schema.KindGenericRef:
		if td, ok := e.defs[s.Key()]; ok {
			return td, nil
		}
		if e.table == nil {
			return nil, errors.Unresolved(path, s.Key())
		}
		target, ok := e.table.Find(s.Key())
		if !ok {
			return nil, errors.Unresolved(path, s.Key())
		}
		if target.IsClass() && s.Kind == schema.KindGenericRef {
			return e.exportClassAs(s.Key(), genericName(s), target.Class, path)
		}
		return e.exportRequired(target, path)
	}
	return nil, unsupported(path, s.Kind.String())
}

func (e *Exporter) exportClass(c *schema.ClassSchema, path []string) (wit.Type, error) {
	return e.exportClassAs(c.Name, KebabCase(c.Name), c, path)
}

func (e *Exporter) exportClassAs(key, name string, c *schema.ClassSchema, path []string) (wit.Type, error) {
	if c.Interface {
		return nil, unsupported(path, "interface class "+c.Name)
	}
	if td, ok := e.defs[key]; ok {
		return td, nil
	}

	rec := &wit.Record{}
	td := &wit.TypeDef{Name: &name, Kind: rec}
	// registered before the fields so self references terminate
	e.define(key, td)

	rec.Fields = make([]wit.Field, 0, len(c.Fields))
	for _, f := range c.Fields {
		ft, err := e.export(f.Type, append(append([]string{}, path...), f.Name))
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, wit.Field{Name: KebabCase(f.Name), Type: ft})
	}
	return td, nil
}

func (e *Exporter) exportEnum(en *schema.EnumSchema) wit.Type {
	if td, ok := e.defs[en.Name]; ok {
		return td
	}
	name := KebabCase(en.Name)
	cases := make([]wit.EnumCase, len(en.Cases))
	for i, c := range en.Cases {
		cases[i] = wit.EnumCase{Name: KebabCase(c.Name)}
	}
	td := &wit.TypeDef{Name: &name, Kind: &wit.Enum{Cases: cases}}
	e.define(en.Name, td)
	return td
}

// genericName names an instantiation after its declaration and arguments,
// e.g. generic-container-my-card
func genericName(s schema.ValueSchema) string {
	name := KebabCase(s.Name)
	for _, a := range s.Args {
		switch a.Kind {
		case schema.KindTypeRef, schema.KindGenericRef, schema.KindClass, schema.KindEnum:
			name += "-" + KebabCase(a.Key())
		case schema.KindArray:
			name += "-list"
		default:
			name += "-" + a.Kind.String()
		}
		if a.Optional {
			name += "-option"
		}
	}
	return name
}

func unsupported(path []string, what string) error {
	return errors.New(errors.PhaseMarshal, errors.KindUnsupported).
		Path(path...).
		Detail("no WIT projection for %s", what).
		Build()
}
