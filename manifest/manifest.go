package manifest

import (
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
)

// Manifest declares bridged types outside Go code
type Manifest struct {
	Types []TypeSpec `yaml:"types"`
}

// TypeSpec declares one registry entry. Template placeholders [i] refer
// to Deps[i]; TypeArgs are schema strings that may reference other types
// of the manifest by name.
type TypeSpec struct {
	Name     string   `yaml:"name"`
	Template string   `yaml:"template"`
	Deps     []string `yaml:"deps,omitempty"`
	TypeArgs []string `yaml:"type_args,omitempty"`
}

// Load reads a manifest file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindNotFound, err, "read manifest "+path)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.WithPathPrefix(errors.PhaseParse, err, path)
	}
	return m, nil
}

// Parse decodes a manifest document
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindParse, err, "decode manifest")
	}
	return &m, nil
}

// Set is the registry entries declared by a manifest, in declaration order
type Set struct {
	entries map[string]*registry.Entry
	names   []string
}

// Entries builds one registry entry per declared type. Dependencies are
// wired by name, so types may refer to each other in any order and form
// cycles.
func (m *Manifest) Entries() (*Set, error) {
	set := &Set{entries: make(map[string]*registry.Entry, len(m.Types))}

	for i := range m.Types {
		spec := &m.Types[i]
		if spec.Name == "" {
			return nil, errors.InvalidInput(errors.PhaseParse, "type name cannot be empty")
		}
		if _, ok := set.entries[spec.Name]; ok {
			return nil, errors.New(errors.PhaseParse, errors.KindRegistration).
				Value(spec.Name).
				Detail("type %q is declared twice", spec.Name).
				Build()
		}
		set.names = append(set.names, spec.Name)
		set.entries[spec.Name] = nil
	}

	for i := range m.Types {
		spec := &m.Types[i]
		for _, dep := range spec.Deps {
			if _, ok := set.entries[dep]; !ok {
				return nil, errors.NotFound(errors.PhaseParse, "dependency of "+spec.Name, dep)
			}
		}
		typeArgs, err := parseTypeArgs(spec)
		if err != nil {
			return nil, err
		}

		entry, err := set.newEntry(spec, typeArgs)
		if err != nil {
			return nil, err
		}
		if name := entry.ClassName(); name != "" && name != spec.Name {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidInput).
				Path(spec.Name).
				Detail("template declares %q", name).
				Build()
		}
		set.entries[spec.Name] = entry
	}
	return set, nil
}

func (s *Set) newEntry(spec *TypeSpec, typeArgs []schema.ValueSchema) (*registry.Entry, error) {
	if isEnumTemplate(spec.Template) {
		if len(spec.Deps) > 0 || len(typeArgs) > 0 {
			return nil, errors.InvalidInput(errors.PhaseParse, "enum "+spec.Name+" cannot have dependencies or type arguments")
		}
		return registry.NewEnumEntry(spec.Template), nil
	}

	var deps func() []*registry.Entry
	if len(spec.Deps) > 0 {
		names := spec.Deps
		deps = func() []*registry.Entry {
			out := make([]*registry.Entry, len(names))
			for i, n := range names {
				out[i] = s.entries[n]
			}
			return out
		}
	}

	if len(typeArgs) == 0 {
		return registry.NewEntry(spec.Template, deps), nil
	}
	return registry.NewGenericEntry(spec.Template, deps, func(r registry.Resolver) ([]schema.ValueSchema, error) {
		// referenced manifest types must be registered before resolution
		for _, ta := range typeArgs {
			for _, name := range referencedNames(ta) {
				if e, ok := s.entries[name]; ok {
					if _, err := r.Reference(e); err != nil {
						return nil, err
					}
				}
			}
		}
		return typeArgs, nil
	}), nil
}

func parseTypeArgs(spec *TypeSpec) ([]schema.ValueSchema, error) {
	out := make([]schema.ValueSchema, 0, len(spec.TypeArgs))
	for i, text := range spec.TypeArgs {
		s, err := schema.Parse(text)
		if err != nil {
			return nil, errors.WithPathPrefix(errors.PhaseParse,
				errors.WithPathPrefix(errors.PhaseParse, err, "type_args["+strconv.Itoa(i)+"]"), spec.Name)
		}
		out = append(out, s)
	}
	return out, nil
}

func isEnumTemplate(t string) bool {
	t = strings.TrimSpace(t)
	return strings.HasPrefix(t, "e<") || strings.HasPrefix(t, "enum<")
}

// referencedNames lists the type reference names inside s
func referencedNames(s schema.ValueSchema) []string {
	var out []string
	var walk func(schema.ValueSchema)
	walk = func(s schema.ValueSchema) {
		switch s.Kind {
		case schema.KindTypeRef:
			out = append(out, s.Name)
		case schema.KindGenericRef:
			out = append(out, s.Name)
			for _, a := range s.Args {
				walk(a)
			}
		case schema.KindArray:
			if s.Elem != nil {
				walk(*s.Elem)
			}
		case schema.KindFunction:
			if s.Func != nil {
				walk(s.Func.Return)
				for _, p := range s.Func.Params {
					walk(p)
				}
			}
		case schema.KindClass:
			if s.Class != nil {
				for _, f := range s.Class.Fields {
					walk(f.Type)
				}
			}
		}
	}
	walk(s)
	return out
}

// Names returns declared type names in order
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Get returns the entry declared as name
func (s *Set) Get(name string) (*registry.Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// ResolveAll registers and resolves every entry in declaration order,
// returning the resolved schemas by name.
func (s *Set) ResolveAll(r *registry.Registry) (map[string]schema.ValueSchema, error) {
	out := make(map[string]schema.ValueSchema, len(s.names))
	for _, name := range s.names {
		rs, err := r.ResolvedSchema(s.entries[name])
		if err != nil {
			return nil, errors.WithPathPrefix(errors.PhaseResolve, err, name)
		}
		out[name] = rs
	}
	return out, nil
}
