package marshal

import (
	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/value"
)

// IntEnumConverter converts an integer enum. The native value is the
// declared case value and must appear in the registered enum.
type IntEnumConverter[E ~int32] struct {
	entry *registry.Entry
}

// IntEnum creates a converter for an integer enum declared by entry
func IntEnum[E ~int32](entry *registry.Entry) *IntEnumConverter[E] {
	return &IntEnumConverter[E]{entry: entry}
}

func (e *IntEnumConverter[E]) check(c *Context, phase errors.Phase, raw int32) error {
	enum, err := c.enumOf(phase, e.entry)
	if err != nil {
		return err
	}
	if enum.StringValued {
		return errors.TypeMismatch(phase, nil, "int32", "enum<string> "+enum.Name)
	}
	for _, ec := range enum.Cases {
		if ec.Int == int64(raw) {
			return nil
		}
	}
	return errors.InvalidEnum(phase, nil, raw, enum.Name)
}

func (e *IntEnumConverter[E]) Marshal(c *Context, v E) (value.Value, error) {
	if err := e.check(c, errors.PhaseMarshal, int32(v)); err != nil {
		return value.Undefined(), err
	}
	return value.Int(int32(v)), nil
}

func (e *IntEnumConverter[E]) Unmarshal(c *Context, v value.Value) (E, error) {
	raw, err := v.AsInt32()
	if err != nil {
		return 0, err
	}
	if err := e.check(c, errors.PhaseUnmarshal, raw); err != nil {
		return 0, err
	}
	return E(raw), nil
}

func (e *IntEnumConverter[E]) Schema(r registry.Resolver) (schema.ValueSchema, error) {
	return r.Reference(e.entry)
}

// StringEnumConverter converts a string enum. The native value is the
// declared case string.
type StringEnumConverter[E ~string] struct {
	entry *registry.Entry
}

// StringEnum creates a converter for a string enum declared by entry
func StringEnum[E ~string](entry *registry.Entry) *StringEnumConverter[E] {
	return &StringEnumConverter[E]{entry: entry}
}

func (e *StringEnumConverter[E]) check(c *Context, phase errors.Phase, raw string) error {
	enum, err := c.enumOf(phase, e.entry)
	if err != nil {
		return err
	}
	if !enum.StringValued {
		return errors.TypeMismatch(phase, nil, "string", "enum<int> "+enum.Name)
	}
	for _, ec := range enum.Cases {
		if ec.Str == raw {
			return nil
		}
	}
	return errors.InvalidEnum(phase, nil, raw, enum.Name)
}

func (e *StringEnumConverter[E]) Marshal(c *Context, v E) (value.Value, error) {
	if err := e.check(c, errors.PhaseMarshal, string(v)); err != nil {
		return value.Undefined(), err
	}
	return value.String(string(v)), nil
}

func (e *StringEnumConverter[E]) Unmarshal(c *Context, v value.Value) (E, error) {
	raw, err := v.AsString()
	if err != nil {
		return "", err
	}
	if err := e.check(c, errors.PhaseUnmarshal, raw); err != nil {
		return "", err
	}
	return E(raw), nil
}

func (e *StringEnumConverter[E]) Schema(r registry.Resolver) (schema.ValueSchema, error) {
	return r.Reference(e.entry)
}
