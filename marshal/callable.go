package marshal

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/value"
)

// FuncConverter converts a native function type. Nil functions and
// nullish boundary values are rejected; wrap the converter with Nullable
// for optional callables.
type FuncConverter[F any] interface {
	Converter[F]
	// Invoke calls fn with boundary arguments and marshals its result
	Invoke(c *Context, fn F, args []value.Value) (value.Value, error)
}

type schemaFunc func(registry.Resolver) (schema.ValueSchema, error)

type callable[F any] struct {
	ret    schemaFunc
	invoke func(c *Context, fn F, args []value.Value) (value.Value, error)
	wrap   func(c *Context, f value.Function) F
	params []schemaFunc
}

// nativeFunction exposes a native function as a boundary callable
type nativeFunction[F any] struct {
	fn   F
	conv *callable[F]
	ctx  *Context
}

func (n *nativeFunction[F]) Call(args []value.Value) (out value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			n.ctx.logger.Warn("native callable panicked", zap.Any("panic", r))
			out, err = value.Undefined(), errors.NativeError(fmt.Errorf("panic: %v", r))
		}
	}()
	return n.conv.invoke(n.ctx, n.fn, args)
}

func (k *callable[F]) Marshal(c *Context, fn F) (value.Value, error) {
	if isNil(fn) {
		return value.Undefined(), errors.NilPointer(errors.PhaseMarshal, nil, fmt.Sprintf("%T", fn))
	}
	return value.Func(&nativeFunction[F]{fn: fn, conv: k, ctx: c}), nil
}

func (k *callable[F]) Unmarshal(c *Context, v value.Value) (F, error) {
	var zero F
	if v.IsNullish() {
		return zero, errors.TypeMismatch(errors.PhaseUnmarshal, nil, fmt.Sprintf("%T", zero), v.Kind().String())
	}
	f, err := v.AsFunction()
	if err != nil {
		return zero, err
	}
	// a native function coming back unwraps to the original
	if nf, ok := f.(*nativeFunction[F]); ok {
		return nf.fn, nil
	}
	return k.wrap(c, f), nil
}

func (k *callable[F]) Invoke(c *Context, fn F, args []value.Value) (out value.Value, err error) {
	if isNil(fn) {
		return value.Undefined(), errors.NilPointer(errors.PhaseCall, nil, fmt.Sprintf("%T", fn))
	}
	return (&nativeFunction[F]{fn: fn, conv: k, ctx: c}).Call(args)
}

func (k *callable[F]) Schema(r registry.Resolver) (schema.ValueSchema, error) {
	params := make([]schema.ValueSchema, len(k.params))
	for i, p := range k.params {
		ps, err := p(r)
		if err != nil {
			return schema.ValueSchema{}, err
		}
		params[i] = ps
	}
	ret := schema.Of(schema.KindVoid)
	if k.ret != nil {
		var err error
		if ret, err = k.ret(r); err != nil {
			return schema.ValueSchema{}, err
		}
	}
	return schema.FuncOf(ret, params...), nil
}

// argument unmarshals the i-th boundary argument; missing arguments read as undefined
func argument[T any](c *Context, conv Converter[T], args []value.Value, i int) (T, error) {
	var v value.Value
	if i < len(args) {
		v = args[i]
	}
	out, err := conv.Unmarshal(c, v)
	if err != nil {
		return out, errors.WithPathPrefix(errors.PhaseCall, err, "arg"+strconv.Itoa(i))
	}
	return out, nil
}

func nativeResult[R any](c *Context, conv Converter[R], r R, err error) (value.Value, error) {
	if err != nil {
		return value.Undefined(), errors.NativeError(err)
	}
	return conv.Marshal(c, r)
}

func nativeDone(err error) (value.Value, error) {
	if err != nil {
		return value.Undefined(), errors.NativeError(err)
	}
	return value.Undefined(), nil
}

// callBoundary invokes a boundary callable, turning reported errors into
// boundary_error failures at the native call site
func callBoundary(f value.Function, args ...value.Value) (value.Value, error) {
	out, err := f.Call(args)
	if err != nil {
		return value.Undefined(), errors.BoundaryError(err)
	}
	if e := out.Err(); e != nil {
		return value.Undefined(), errors.BoundaryError(e)
	}
	return out, nil
}

func boundaryArg[T any](c *Context, conv Converter[T], v T, i int) (value.Value, error) {
	out, err := conv.Marshal(c, v)
	if err != nil {
		return value.Undefined(), errors.WithPathPrefix(errors.PhaseCall, err, "arg"+strconv.Itoa(i))
	}
	return out, nil
}

// Func0 converts func() (R, error)
func Func0[R any](ret Converter[R]) FuncConverter[func() (R, error)] {
	return &callable[func() (R, error)]{
		ret: ret.Schema,
		invoke: func(c *Context, fn func() (R, error), _ []value.Value) (value.Value, error) {
			r, err := fn()
			return nativeResult(c, ret, r, err)
		},
		wrap: func(c *Context, f value.Function) func() (R, error) {
			return func() (R, error) {
				out, err := callBoundary(f)
				if err != nil {
					var zero R
					return zero, err
				}
				return ret.Unmarshal(c, out)
			}
		},
	}
}

// Func1 converts func(A) (R, error)
func Func1[A, R any](a Converter[A], ret Converter[R]) FuncConverter[func(A) (R, error)] {
	return &callable[func(A) (R, error)]{
		params: []schemaFunc{a.Schema},
		ret:    ret.Schema,
		invoke: func(c *Context, fn func(A) (R, error), args []value.Value) (value.Value, error) {
			av, err := argument(c, a, args, 0)
			if err != nil {
				return value.Undefined(), err
			}
			r, err := fn(av)
			return nativeResult(c, ret, r, err)
		},
		wrap: func(c *Context, f value.Function) func(A) (R, error) {
			return func(x A) (R, error) {
				var zero R
				xv, err := boundaryArg(c, a, x, 0)
				if err != nil {
					return zero, err
				}
				out, err := callBoundary(f, xv)
				if err != nil {
					return zero, err
				}
				return ret.Unmarshal(c, out)
			}
		},
	}
}

// Func2 converts func(A, B) (R, error)
func Func2[A, B, R any](a Converter[A], b Converter[B], ret Converter[R]) FuncConverter[func(A, B) (R, error)] {
	return &callable[func(A, B) (R, error)]{
		params: []schemaFunc{a.Schema, b.Schema},
		ret:    ret.Schema,
		invoke: func(c *Context, fn func(A, B) (R, error), args []value.Value) (value.Value, error) {
			av, err := argument(c, a, args, 0)
			if err != nil {
				return value.Undefined(), err
			}
			bv, err := argument(c, b, args, 1)
			if err != nil {
				return value.Undefined(), err
			}
			r, err := fn(av, bv)
			return nativeResult(c, ret, r, err)
		},
		wrap: func(c *Context, f value.Function) func(A, B) (R, error) {
			return func(x A, y B) (R, error) {
				var zero R
				xv, err := boundaryArg(c, a, x, 0)
				if err != nil {
					return zero, err
				}
				yv, err := boundaryArg(c, b, y, 1)
				if err != nil {
					return zero, err
				}
				out, err := callBoundary(f, xv, yv)
				if err != nil {
					return zero, err
				}
				return ret.Unmarshal(c, out)
			}
		},
	}
}

// Func3 converts func(A, B, C) (R, error)
func Func3[A, B, C, R any](a Converter[A], b Converter[B], cc Converter[C], ret Converter[R]) FuncConverter[func(A, B, C) (R, error)] {
	return &callable[func(A, B, C) (R, error)]{
		params: []schemaFunc{a.Schema, b.Schema, cc.Schema},
		ret:    ret.Schema,
		invoke: func(c *Context, fn func(A, B, C) (R, error), args []value.Value) (value.Value, error) {
			av, err := argument(c, a, args, 0)
			if err != nil {
				return value.Undefined(), err
			}
			bv, err := argument(c, b, args, 1)
			if err != nil {
				return value.Undefined(), err
			}
			cv, err := argument(c, cc, args, 2)
			if err != nil {
				return value.Undefined(), err
			}
			r, err := fn(av, bv, cv)
			return nativeResult(c, ret, r, err)
		},
		wrap: func(c *Context, f value.Function) func(A, B, C) (R, error) {
			return func(x A, y B, z C) (R, error) {
				var zero R
				xv, err := boundaryArg(c, a, x, 0)
				if err != nil {
					return zero, err
				}
				yv, err := boundaryArg(c, b, y, 1)
				if err != nil {
					return zero, err
				}
				zv, err := boundaryArg(c, cc, z, 2)
				if err != nil {
					return zero, err
				}
				out, err := callBoundary(f, xv, yv, zv)
				if err != nil {
					return zero, err
				}
				return ret.Unmarshal(c, out)
			}
		},
	}
}

// Proc0 converts func() error
func Proc0() FuncConverter[func() error] {
	return &callable[func() error]{
		invoke: func(_ *Context, fn func() error, _ []value.Value) (value.Value, error) {
			return nativeDone(fn())
		},
		wrap: func(_ *Context, f value.Function) func() error {
			return func() error {
				_, err := callBoundary(f)
				return err
			}
		},
	}
}

// Proc1 converts func(A) error
func Proc1[A any](a Converter[A]) FuncConverter[func(A) error] {
	return &callable[func(A) error]{
		params: []schemaFunc{a.Schema},
		invoke: func(c *Context, fn func(A) error, args []value.Value) (value.Value, error) {
			av, err := argument(c, a, args, 0)
			if err != nil {
				return value.Undefined(), err
			}
			return nativeDone(fn(av))
		},
		wrap: func(c *Context, f value.Function) func(A) error {
			return func(x A) error {
				xv, err := boundaryArg(c, a, x, 0)
				if err != nil {
					return err
				}
				_, err = callBoundary(f, xv)
				return err
			}
		},
	}
}

// Proc2 converts func(A, B) error
func Proc2[A, B any](a Converter[A], b Converter[B]) FuncConverter[func(A, B) error] {
	return &callable[func(A, B) error]{
		params: []schemaFunc{a.Schema, b.Schema},
		invoke: func(c *Context, fn func(A, B) error, args []value.Value) (value.Value, error) {
			av, err := argument(c, a, args, 0)
			if err != nil {
				return value.Undefined(), err
			}
			bv, err := argument(c, b, args, 1)
			if err != nil {
				return value.Undefined(), err
			}
			return nativeDone(fn(av, bv))
		},
		wrap: func(c *Context, f value.Function) func(A, B) error {
			return func(x A, y B) error {
				xv, err := boundaryArg(c, a, x, 0)
				if err != nil {
					return err
				}
				yv, err := boundaryArg(c, b, y, 1)
				if err != nil {
					return err
				}
				_, err = callBoundary(f, xv, yv)
				return err
			}
		},
	}
}
