package registry

import (
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/schema"
)

// Entry describes one native type to the bridge: its schema template,
// the entries its template depends on, and for generic instantiations
// the callback producing its type arguments.
//
// Entries are created once per native type, usually as package-level
// variables next to the type, and live for the life of the process.
// Registration and resolution state is kept per Registry.
//
// Placeholders '[i]' in the template are replaced by the class name of
// the i-th dependency before parsing.
type Entry struct {
	deps     func() []*Entry
	typeArgs func(Resolver) ([]schema.ValueSchema, error)
	template string
	name     string
	nameOnce sync.Once
	enum     bool
}

// NewEntry creates an entry for a class or interface
func NewEntry(template string, deps func() []*Entry) *Entry {
	return &Entry{template: template, deps: deps}
}

// NewGenericEntry creates an entry for one concrete instantiation of a
// generic class. typeArgs runs once per Registry during resolution.
func NewGenericEntry(template string, deps func() []*Entry, typeArgs func(Resolver) ([]schema.ValueSchema, error)) *Entry {
	return &Entry{template: template, deps: deps, typeArgs: typeArgs}
}

// NewEnumEntry creates an entry for an int or string enum. Enums have no
// dependencies and are resolved as soon as they are registered.
func NewEnumEntry(template string) *Entry {
	return &Entry{template: template, enum: true}
}

// Template returns the unsubstituted schema template
func (e *Entry) Template() string { return e.template }

// Generic reports whether the entry is a generic instantiation
func (e *Entry) Generic() bool { return e.typeArgs != nil }

// Enum reports whether the entry describes an enum
func (e *Entry) Enum() bool { return e.enum }

// Dependencies returns the entries referenced by the template placeholders
func (e *Entry) Dependencies() []*Entry {
	if e.deps == nil {
		return nil
	}
	return e.deps()
}

// ClassName returns the declared class or enum name, or "" when the
// template header cannot be read. Errors are deliberately discarded.
func (e *Entry) ClassName() string {
	e.nameOnce.Do(func() {
		name, err := schema.HeaderName(e.template)
		if err == nil {
			e.name = name
		}
	})
	return e.name
}

// source substitutes dependency placeholders into the template
func (e *Entry) source() (string, error) {
	deps := e.Dependencies()
	if len(deps) == 0 {
		return e.template, nil
	}
	pairs := make([]string, 0, 2*len(deps))
	for i, d := range deps {
		if d == nil {
			return "", errors.NilPointer(errors.PhaseRegister, []string{"[" + strconv.Itoa(i) + "]"}, "*registry.Entry")
		}
		name := d.ClassName()
		if name == "" {
			return "", errors.New(errors.PhaseRegister, errors.KindParse).
				Path("[" + strconv.Itoa(i) + "]").
				Detail("dependency template has no readable class name: %q", d.template).
				Build()
		}
		pairs = append(pairs, "'["+strconv.Itoa(i)+"]'", "'"+name+"'")
	}
	return strings.NewReplacer(pairs...).Replace(e.template), nil
}
