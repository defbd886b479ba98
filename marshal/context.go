package marshal

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/proxy"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
)

// Context owns the state one bridge instance marshals against: the schema
// registry and the proxy object store. Independent contexts share nothing,
// so a native interface instance marshalled through two contexts gets two
// distinct proxies.
type Context struct {
	registry *registry.Registry
	store    *proxy.Store
	logger   *zap.Logger
	id       uuid.UUID
}

// Option configures a Context
type Option func(*Context)

// WithLogger sets the logger used by the context, its registry and store
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// WithRegistry uses an existing registry
func WithRegistry(r *registry.Registry) Option {
	return func(c *Context) { c.registry = r }
}

// WithStore uses an existing proxy store
func WithStore(s *proxy.Store) Option {
	return func(c *Context) { c.store = s }
}

// NewContext creates an independent bridge context
func NewContext(opts ...Option) *Context {
	c := &Context{id: uuid.New()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = Logger()
	}
	c.logger = c.logger.With(zap.String("bridge", c.id.String()))
	if c.registry == nil {
		c.registry = registry.New(registry.WithLogger(c.logger))
	}
	if c.store == nil {
		c.store = proxy.NewStore(proxy.WithLogger(c.logger))
	}
	return c
}

var (
	shared     *Context
	sharedOnce sync.Once
)

// Shared returns the process-wide default context
func Shared() *Context {
	sharedOnce.Do(func() {
		shared = NewContext()
	})
	return shared
}

// ID identifies the context in logs
func (c *Context) ID() uuid.UUID { return c.id }

// Registry returns the schema registry
func (c *Context) Registry() *registry.Registry { return c.registry }

// Store returns the proxy object store
func (c *Context) Store() *proxy.Store { return c.store }

// Logger returns the context logger
func (c *Context) Logger() *zap.Logger { return c.logger }

// classOf returns the resolved class schema of entry
func (c *Context) classOf(phase errors.Phase, entry *registry.Entry) (*schema.ClassSchema, error) {
	s, err := c.registry.ResolvedSchema(entry)
	if err != nil {
		return nil, err
	}
	if !s.IsClass() {
		return nil, errors.TypeMismatch(phase, nil, "", s.Kind.String())
	}
	return s.Class, nil
}

// enumOf returns the resolved enum schema of entry
func (c *Context) enumOf(phase errors.Phase, entry *registry.Entry) (*schema.EnumSchema, error) {
	s, err := c.registry.ResolvedSchema(entry)
	if err != nil {
		return nil, err
	}
	if !s.IsEnum() {
		return nil, errors.TypeMismatch(phase, nil, "", s.Kind.String())
	}
	return s.Enum, nil
}
