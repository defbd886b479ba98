package witexport

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"
)

// Render writes t as WIT source. Every named definition reachable from t
// is emitted once, dependencies first. An anonymous root is rendered as a
// trailing type expression.
func Render(t wit.Type) string {
	r := &renderer{seen: make(map[*wit.TypeDef]bool)}
	r.collect(t)

	var b strings.Builder
	for i, td := range r.order {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeDef(&b, td)
	}
	if td, ok := t.(*wit.TypeDef); !ok || td.Name == nil {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(typeExpr(t))
		b.WriteByte('\n')
	}
	return b.String()
}

type renderer struct {
	seen  map[*wit.TypeDef]bool
	order []*wit.TypeDef
}

func (r *renderer) collect(t wit.Type) {
	td, ok := t.(*wit.TypeDef)
	if !ok {
		return
	}
	if td.Name != nil {
		if r.seen[td] {
			return
		}
		r.seen[td] = true
	}

	switch k := td.Kind.(type) {
	case *wit.Record:
		for _, f := range k.Fields {
			r.collect(f.Type)
		}
	case *wit.List:
		r.collect(k.Type)
	case *wit.Option:
		r.collect(k.Type)
	}

	if td.Name != nil {
		r.order = append(r.order, td)
	}
}

func writeDef(b *strings.Builder, td *wit.TypeDef) {
	switch k := td.Kind.(type) {
	case *wit.Record:
		fmt.Fprintf(b, "record %s {\n", *td.Name)
		for _, f := range k.Fields {
			fmt.Fprintf(b, "    %s: %s,\n", f.Name, typeExpr(f.Type))
		}
		b.WriteString("}\n")
	case *wit.Enum:
		fmt.Fprintf(b, "enum %s {\n", *td.Name)
		for _, c := range k.Cases {
			fmt.Fprintf(b, "    %s,\n", c.Name)
		}
		b.WriteString("}\n")
	default:
		fmt.Fprintf(b, "type %s = %s;\n", *td.Name, kindExpr(td.Kind))
	}
}

func typeExpr(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F64:
		return "f64"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		return kindExpr(v.Kind)
	}
	return fmt.Sprintf("%T", t)
}

func kindExpr(k any) string {
	switch v := k.(type) {
	case *wit.List:
		return "list<" + typeExpr(v.Type) + ">"
	case *wit.Option:
		return "option<" + typeExpr(v.Type) + ">"
	case wit.Type:
		return typeExpr(v)
	}
	return fmt.Sprintf("%T", k)
}
