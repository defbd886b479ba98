package schema

import (
	"strconv"

	"github.com/wippyai/marshal-bridge/errors"
)

// Resolver links type references against a Table and substitutes
// generic type parameters.
type Resolver struct {
	table *Table
}

// NewResolver creates a resolver backed by table
func NewResolver(table *Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve returns a copy of s with every type reference checked against
// the table and every type parameter replaced by the matching element of
// typeArgs. Generic references are instantiated and registered under
// their instance key. With no typeArgs, type parameters are left in place
// so open generic declarations resolve to themselves.
//
// Referenced types only need to be registered, not resolved, so cyclic
// references terminate.
func (r *Resolver) Resolve(s ValueSchema, typeArgs []ValueSchema) (ValueSchema, error) {
	active := make(map[string]bool)

	args := make([]ValueSchema, len(typeArgs))
	outer := &resolveState{table: r.table, active: active}
	for i, a := range typeArgs {
		ra, err := outer.resolve(a, []string{"<" + strconv.Itoa(i) + ">"})
		if err != nil {
			return ValueSchema{}, err
		}
		args[i] = ra
	}

	st := &resolveState{table: r.table, args: args, active: active}
	return st.resolve(s, nil)
}

type resolveState struct {
	table  *Table
	active map[string]bool
	args   []ValueSchema
}

func childPath(path []string, name string) []string {
	return append(append([]string{}, path...), name)
}

func (st *resolveState) resolve(s ValueSchema, path []string) (ValueSchema, error) {
	switch s.Kind {
	case KindTypeParam:
		if len(st.args) == 0 {
			return s, nil
		}
		if s.Param >= len(st.args) {
			return ValueSchema{}, errors.New(errors.PhaseResolve, errors.KindUnresolvedReference).
				Path(path...).
				Detail("type parameter %d out of range (%d arguments)", s.Param, len(st.args)).
				Build()
		}
		out := st.args[s.Param]
		out.Optional = out.Optional || s.Optional
		return out, nil

	case KindTypeRef:
		if _, ok := st.table.Lookup(s.Name); !ok {
			return ValueSchema{}, errors.Unresolved(path, s.Name)
		}
		s.Linked = true
		return s, nil

	case KindGenericRef:
		return st.instantiate(s, path)

	case KindArray:
		if s.Elem == nil {
			return s, nil
		}
		elem, err := st.resolve(*s.Elem, childPath(path, "[]"))
		if err != nil {
			return ValueSchema{}, err
		}
		s.Elem = &elem
		return s, nil

	case KindFunction:
		if s.Func == nil {
			return s, nil
		}
		fn := &FunctionSchema{Params: make([]ValueSchema, len(s.Func.Params))}
		for i, p := range s.Func.Params {
			rp, err := st.resolve(p, childPath(path, "("+strconv.Itoa(i)+")"))
			if err != nil {
				return ValueSchema{}, err
			}
			fn.Params[i] = rp
		}
		ret, err := st.resolve(s.Func.Return, childPath(path, "return"))
		if err != nil {
			return ValueSchema{}, err
		}
		fn.Return = ret
		s.Func = fn
		return s, nil

	case KindClass:
		if s.Class == nil {
			return s, nil
		}
		c := &ClassSchema{
			Name:      s.Class.Name,
			Interface: s.Class.Interface,
			Fields:    make([]Field, len(s.Class.Fields)),
		}
		for i, f := range s.Class.Fields {
			ft, err := st.resolve(f.Type, childPath(path, f.Name))
			if err != nil {
				return ValueSchema{}, err
			}
			c.Fields[i] = Field{Name: f.Name, Type: ft}
		}
		s.Class = c
		return s, nil
	}
	return s, nil
}

func (st *resolveState) instantiate(s ValueSchema, path []string) (ValueSchema, error) {
	args := make([]ValueSchema, len(s.Args))
	open := false
	for i, a := range s.Args {
		ra, err := st.resolve(a, childPath(path, "<"+strconv.Itoa(i)+">"))
		if err != nil {
			return ValueSchema{}, err
		}
		args[i] = ra
		open = open || hasParam(ra)
	}

	decl, ok := st.table.Find(s.Name)
	if !ok || !decl.IsClass() {
		return ValueSchema{}, errors.Unresolved(path, s.Name)
	}

	out := s
	out.Args = args
	out.Linked = true

	key := InstanceKey(s.Name, args)
	if open || st.active[key] {
		return out, nil
	}
	if _, ok := st.table.Lookup(key); ok {
		return out, nil
	}

	st.active[key] = true
	defer delete(st.active, key)

	inner := &resolveState{table: st.table, args: args, active: st.active}
	inst, err := inner.resolve(decl, path)
	if err != nil {
		return ValueSchema{}, err
	}
	if _, err := st.table.RegisterAs(key, inst); err != nil {
		return ValueSchema{}, err
	}
	return out, nil
}

func hasParam(s ValueSchema) bool {
	switch s.Kind {
	case KindTypeParam:
		return true
	case KindArray:
		return s.Elem != nil && hasParam(*s.Elem)
	case KindGenericRef:
		for _, a := range s.Args {
			if hasParam(a) {
				return true
			}
		}
	case KindFunction:
		if s.Func == nil {
			return false
		}
		for _, p := range s.Func.Params {
			if hasParam(p) {
				return true
			}
		}
		return hasParam(s.Func.Return)
	case KindClass:
		if s.Class == nil {
			return false
		}
		for _, f := range s.Class.Fields {
			if hasParam(f.Type) {
				return true
			}
		}
	}
	return false
}
