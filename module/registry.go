package module

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/marshal"
	"github.com/wippyai/marshal-bridge/value"
)

// Factory instantiates one native module for a bridge
type Factory struct {
	New  func(c *marshal.Context) (value.Value, error)
	Name string
}

// Provider contributes a group of factories at registration time
type Provider interface {
	Factories() []Factory
}

type slot struct {
	factory Factory
	module  value.Value
	loaded  atomic.Bool
	mu      sync.Mutex
}

// Registry holds the module factories of one bridge context. Each module
// is instantiated at most once; a factory that fails is retried on the
// next Load.
type Registry struct {
	ctx    *marshal.Context
	logger *zap.Logger
	slots  map[string]*slot
	order  []string
	mu     sync.RWMutex
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger overrides the context logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New creates an empty module registry bound to c
func New(c *marshal.Context, opts ...Option) *Registry {
	r := &Registry{ctx: c, slots: make(map[string]*slot)}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = c.Logger()
	}
	return r
}

// Register appends f. Names must be unique within the registry.
func (r *Registry) Register(f Factory) error {
	if f.Name == "" {
		return errors.InvalidInput(errors.PhaseModule, "module name cannot be empty")
	}
	if f.New == nil {
		return errors.NilPointer(errors.PhaseModule, []string{f.Name}, "module.Factory.New")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slots[f.Name]; ok {
		return errors.New(errors.PhaseModule, errors.KindRegistration).
			Value(f.Name).
			Detail("module %q is already registered", f.Name).
			Build()
	}
	r.slots[f.Name] = &slot{factory: f}
	r.order = append(r.order, f.Name)
	r.logger.Debug("module registered", zap.String("module", f.Name))
	return nil
}

// RegisterProvider registers every factory p supplies, stopping at the
// first failure.
func (r *Registry) RegisterProvider(p Provider) error {
	for _, f := range p.Factories() {
		if err := r.Register(f); err != nil {
			return err
		}
	}
	return nil
}

// RegisterTyped registers a module built as a native value and marshalled
// with conv.
func RegisterTyped[T any](r *Registry, name string, conv marshal.Converter[T], build func() (T, error)) error {
	return r.Register(Factory{
		Name: name,
		New: func(c *marshal.Context) (value.Value, error) {
			native, err := build()
			if err != nil {
				return value.Undefined(), err
			}
			return conv.Marshal(c, native)
		},
	})
}

// Names returns module names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered modules
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Load returns the module instance for name, creating it on first use
func (r *Registry) Load(ctx context.Context, name string) (value.Value, error) {
	r.mu.RLock()
	s, ok := r.slots[name]
	r.mu.RUnlock()
	if !ok {
		return value.Undefined(), errors.NotFound(errors.PhaseModule, "module", name)
	}

	if s.loaded.Load() {
		return s.module, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded.Load() {
		return s.module, nil
	}
	if err := ctx.Err(); err != nil {
		return value.Undefined(), errors.Wrap(errors.PhaseModule, errors.KindInvalidInput, err, "load "+name)
	}

	v, err := s.factory.New(r.ctx)
	if err == nil {
		err = v.Err()
	}
	if err != nil {
		r.logger.Warn("module load failed", zap.String("module", name), zap.Error(err))
		return value.Undefined(), loadFailed(name, err)
	}

	s.module = v
	s.loaded.Store(true)
	r.logger.Debug("module loaded", zap.String("module", name))
	return v, nil
}

// LoadAll instantiates every module in registration order
func (r *Registry) LoadAll(ctx context.Context) (map[string]value.Value, error) {
	out := make(map[string]value.Value, r.Len())
	for _, name := range r.Names() {
		v, err := r.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func loadFailed(name string, err error) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return errors.WithPathPrefix(errors.PhaseModule, e, name)
	}
	return errors.Wrap(errors.PhaseModule, errors.KindNativeError, err, "load "+name)
}
