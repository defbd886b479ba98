package schema

import (
	"strconv"
	"strings"
)

// Kind identifies the shape of a value schema
type Kind uint8

const (
	KindVoid Kind = iota
	KindUntyped
	KindString
	KindInt
	KindLong
	KindBool
	KindDouble
	KindMap
	KindArray
	KindClass
	KindEnum
	KindFunction
	KindTypeRef
	KindTypeParam
	KindGenericRef
	KindBytes
)

var kindNames = [...]string{
	KindVoid:       "void",
	KindUntyped:    "untyped",
	KindString:     "string",
	KindInt:        "int",
	KindLong:       "long",
	KindBool:       "bool",
	KindDouble:     "double",
	KindMap:        "map",
	KindArray:      "array",
	KindClass:      "class",
	KindEnum:       "enum",
	KindFunction:   "func",
	KindTypeRef:    "ref",
	KindTypeParam:  "param",
	KindGenericRef: "generic",
	KindBytes:      "bytes",
}

// String returns the kind name used in long-form schemas
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ValueSchema describes the shape of one boundary value.
// Schemas are immutable once built; resolution produces new trees.
type ValueSchema struct {
	Class    *ClassSchema
	Enum     *EnumSchema
	Func     *FunctionSchema
	Elem     *ValueSchema
	Name     string // type reference or generic name
	Args     []ValueSchema
	Param    int
	Kind     Kind
	Optional bool
	Linked   bool // reference checked against a schema table
}

// Field is a named class property
type Field struct {
	Name string
	Type ValueSchema
}

// ClassSchema describes a class or interface with positional properties
type ClassSchema struct {
	Name      string
	Fields    []Field
	Interface bool
}

// FieldIndex returns the position of the named field or -1
func (c *ClassSchema) FieldIndex(name string) int {
	for i, f := range c.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// EnumCase is one declared enum value. Int holds the value of
// integer enums, Str the value of string enums.
type EnumCase struct {
	Name string
	Str  string
	Int  int64
}

// EnumSchema describes an integer- or string-valued enum
type EnumSchema struct {
	Name         string
	Cases        []EnumCase
	StringValued bool
}

// FunctionSchema describes a callable signature
type FunctionSchema struct {
	Params []ValueSchema
	Return ValueSchema
}

// Of returns a schema for a scalar kind
func Of(k Kind) ValueSchema {
	return ValueSchema{Kind: k}
}

// ArrayOf returns an array schema with the given element type
func ArrayOf(elem ValueSchema) ValueSchema {
	return ValueSchema{Kind: KindArray, Elem: &elem}
}

// ClassOf wraps a class schema
func ClassOf(c *ClassSchema) ValueSchema {
	return ValueSchema{Kind: KindClass, Class: c}
}

// EnumOf wraps an enum schema
func EnumOf(e *EnumSchema) ValueSchema {
	return ValueSchema{Kind: KindEnum, Enum: e}
}

// FuncOf returns a function schema
func FuncOf(ret ValueSchema, params ...ValueSchema) ValueSchema {
	return ValueSchema{Kind: KindFunction, Func: &FunctionSchema{Params: params, Return: ret}}
}

// RefTo returns an unresolved reference to a named type
func RefTo(name string) ValueSchema {
	return ValueSchema{Kind: KindTypeRef, Name: name}
}

// ParamAt returns a reference to the index-th generic type argument
func ParamAt(index int) ValueSchema {
	return ValueSchema{Kind: KindTypeParam, Param: index}
}

// GenericOf returns a reference to a generic type instantiated with args
func GenericOf(name string, args ...ValueSchema) ValueSchema {
	return ValueSchema{Kind: KindGenericRef, Name: name, Args: args}
}

// AsOptional returns a copy of s marked optional
func (s ValueSchema) AsOptional() ValueSchema {
	s.Optional = true
	return s
}

// IsClass reports whether s is an inline class
func (s ValueSchema) IsClass() bool { return s.Kind == KindClass && s.Class != nil }

// IsEnum reports whether s is an inline enum
func (s ValueSchema) IsEnum() bool { return s.Kind == KindEnum && s.Enum != nil }

// Key returns the schema table key of s: the class or enum name,
// the referenced name, or Name<args> for generic instantiations.
func (s ValueSchema) Key() string {
	switch s.Kind {
	case KindClass:
		if s.Class != nil {
			return s.Class.Name
		}
	case KindEnum:
		if s.Enum != nil {
			return s.Enum.Name
		}
	case KindTypeRef:
		return s.Name
	case KindGenericRef:
		return InstanceKey(s.Name, s.Args)
	}
	return ""
}

// InstanceKey names a generic instantiation
func InstanceKey(name string, args []ValueSchema) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte('>')
	return b.String()
}

// String renders s in the long schema form accepted by Parse
func (s ValueSchema) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s ValueSchema) write(b *strings.Builder) {
	switch s.Kind {
	case KindArray:
		b.WriteString("array<")
		if s.Elem != nil {
			s.Elem.write(b)
		} else {
			b.WriteString("untyped")
		}
		b.WriteByte('>')
	case KindClass:
		writeClass(b, s.Class)
	case KindEnum:
		writeEnum(b, s.Enum)
	case KindFunction:
		b.WriteString("func")
		if s.Optional {
			b.WriteByte('?')
		}
		b.WriteByte('(')
		if s.Func != nil {
			for i, p := range s.Func.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				p.write(b)
			}
		}
		b.WriteString("): ")
		if s.Func != nil {
			s.Func.Return.write(b)
		} else {
			b.WriteString("void")
		}
		return
	case KindTypeRef:
		if s.Linked {
			b.WriteString("link:")
		}
		b.WriteString("ref:")
		writeQuoted(b, s.Name)
	case KindTypeParam:
		b.WriteString("ref:")
		b.WriteString(strconv.Itoa(s.Param))
	case KindGenericRef:
		if s.Linked {
			b.WriteString("link:")
		}
		b.WriteString("generic:")
		writeQuoted(b, s.Name)
		b.WriteByte('<')
		for i, a := range s.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b)
		}
		b.WriteByte('>')
	default:
		b.WriteString(s.Kind.String())
	}
	if s.Optional {
		b.WriteByte('?')
	}
}

func writeClass(b *strings.Builder, c *ClassSchema) {
	if c == nil {
		b.WriteString("class ''{}")
		return
	}
	b.WriteString("class")
	if c.Interface {
		b.WriteByte('+')
	}
	b.WriteByte(' ')
	writeQuoted(b, c.Name)
	b.WriteByte('{')
	for i, f := range c.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		writeQuoted(b, f.Name)
		b.WriteString(": ")
		f.Type.write(b)
	}
	b.WriteByte('}')
}

func writeEnum(b *strings.Builder, e *EnumSchema) {
	if e == nil {
		b.WriteString("enum<int> ''{}")
		return
	}
	if e.StringValued {
		b.WriteString("enum<string> ")
	} else {
		b.WriteString("enum<int> ")
	}
	writeQuoted(b, e.Name)
	b.WriteByte('{')
	for i, c := range e.Cases {
		if i > 0 {
			b.WriteString(", ")
		}
		writeQuoted(b, c.Name)
		b.WriteString(": ")
		if e.StringValued {
			writeQuoted(b, c.Str)
		} else {
			b.WriteString(strconv.FormatInt(c.Int, 10))
		}
	}
	b.WriteByte('}')
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('\'')
	b.WriteString(s)
	b.WriteByte('\'')
}
