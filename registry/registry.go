package registry

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/marshal-bridge/errors"
	"github.com/wippyai/marshal-bridge/schema"
)

// Resolver gives type-argument callbacks access to other entries while a
// resolution is in progress.
type Resolver interface {
	// Resolved returns the resolved schema of e
	Resolved(e *Entry) (schema.ValueSchema, error)
	// Reference registers e and returns a type reference to it
	Reference(e *Entry) (schema.ValueSchema, error)
}

type entryState struct {
	resolvedSchema atomic.Pointer[schema.ValueSchema]
	id             schema.ID
	registered     atomic.Bool
	resolved       atomic.Bool
	resolving      bool // guarded by Registry.mu
}

// Registry memoizes registration and resolution of entries into one
// schema table. Once an entry is resolved, lookups take no lock.
type Registry struct {
	table    *schema.Table
	resolver *schema.Resolver
	logger   *zap.Logger
	states   sync.Map // *Entry -> *entryState
	mu       sync.Mutex
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the registry logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithTable backs the registry with an existing schema table
func WithTable(t *schema.Table) Option {
	return func(r *Registry) { r.table = t }
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	if r.table == nil {
		r.table = schema.NewTable()
	}
	if r.logger == nil {
		r.logger = Logger()
	}
	r.resolver = schema.NewResolver(r.table)
	return r
}

// Table returns the schema table
func (r *Registry) Table() *schema.Table { return r.table }

func (r *Registry) state(e *Entry) *entryState {
	if st, ok := r.states.Load(e); ok {
		return st.(*entryState)
	}
	st, _ := r.states.LoadOrStore(e, &entryState{})
	return st.(*entryState)
}

// EnsureRegistered parses the entry's template into the schema table once
func (r *Registry) EnsureRegistered(e *Entry) (schema.ID, error) {
	st := r.state(e)
	if st.registered.Load() {
		return st.id, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(e, st)
}

// ResolvedSchema returns the entry's schema with references linked and
// type arguments substituted, resolving dependencies first.
func (r *Registry) ResolvedSchema(e *Entry) (schema.ValueSchema, error) {
	st := r.state(e)
	if st.resolved.Load() {
		return *st.resolvedSchema.Load(), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(e, st)
}

// Reference registers e and returns a type reference to its class
func (r *Registry) Reference(e *Entry) (schema.ValueSchema, error) {
	if _, err := r.EnsureRegistered(e); err != nil {
		return schema.ValueSchema{}, err
	}
	return schema.RefTo(e.ClassName()), nil
}

// Resolver returns a Resolver that takes the registry lock per call.
// Inside type-argument callbacks use the Resolver passed in instead.
func (r *Registry) Resolver() Resolver { return lockingResolver{r} }

// IsResolved reports whether e has been resolved in this registry
func (r *Registry) IsResolved(e *Entry) bool {
	return r.state(e).resolved.Load()
}

func (r *Registry) registerLocked(e *Entry, st *entryState) (schema.ID, error) {
	if st.registered.Load() {
		return st.id, nil
	}

	src, err := e.source()
	if err != nil {
		return schema.InvalidID, err
	}

	parsed, err := schema.Parse(src)
	if err != nil {
		return schema.InvalidID, errors.New(errors.PhaseRegister, errors.KindParse).
			SchemaType(e.ClassName()).
			Detail("invalid template").
			Cause(err).
			Build()
	}

	switch {
	case e.enum && !parsed.IsEnum():
		return schema.InvalidID, errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			SchemaType(parsed.Kind.String()).
			Detail("enum entry template does not declare an enum").
			Build()
	case !e.enum && !parsed.IsClass():
		return schema.InvalidID, errors.New(errors.PhaseRegister, errors.KindTypeMismatch).
			SchemaType(parsed.Kind.String()).
			Detail("entry template does not declare a class").
			Build()
	}

	id, err := r.table.Register(parsed)
	if err != nil {
		return schema.InvalidID, err
	}

	st.id = id
	if e.enum {
		st.resolvedSchema.Store(&parsed)
		st.resolved.Store(true)
	}
	st.registered.Store(true)

	r.logger.Debug("registered schema",
		zap.String("name", parsed.Key()),
		zap.Int32("id", int32(id)),
		zap.Bool("generic", e.Generic()))

	return id, nil
}

func (r *Registry) resolveLocked(e *Entry, st *entryState) (schema.ValueSchema, error) {
	if st.resolved.Load() {
		return *st.resolvedSchema.Load(), nil
	}

	id, err := r.registerLocked(e, st)
	if err != nil {
		return schema.ValueSchema{}, err
	}

	if st.resolving {
		// dependency cycle back into this entry: its registered form is
		// enough since references only need to be registered
		current, _ := r.table.Get(id)
		return current, nil
	}
	st.resolving = true
	defer func() { st.resolving = false }()

	for _, dep := range e.Dependencies() {
		if _, err := r.resolveLocked(dep, r.state(dep)); err != nil {
			return schema.ValueSchema{}, errors.WithPathPrefix(errors.PhaseResolve, err, dep.ClassName())
		}
	}

	var args []schema.ValueSchema
	if e.typeArgs != nil {
		args, err = e.typeArgs(session{r})
		if err != nil {
			return schema.ValueSchema{}, errors.New(errors.PhaseResolve, errors.KindUnresolvedReference).
				SchemaType(e.ClassName()).
				Detail("resolve type arguments").
				Cause(err).
				Build()
		}
	}

	registered, _ := r.table.Get(id)
	resolved, err := r.resolver.Resolve(registered, args)
	if err != nil {
		return schema.ValueSchema{}, err
	}

	// generic instantiations share the declaration's table slot
	if !e.Generic() {
		if err := r.table.Update(id, resolved); err != nil {
			return schema.ValueSchema{}, err
		}
	}

	st.resolvedSchema.Store(&resolved)
	st.resolved.Store(true)

	r.logger.Debug("resolved schema",
		zap.String("name", e.ClassName()),
		zap.Stringer("schema", resolved))

	return resolved, nil
}

// session is handed to type-argument callbacks while r.mu is held
type session struct {
	r *Registry
}

func (s session) Resolved(e *Entry) (schema.ValueSchema, error) {
	return s.r.resolveLocked(e, s.r.state(e))
}

func (s session) Reference(e *Entry) (schema.ValueSchema, error) {
	if _, err := s.r.registerLocked(e, s.r.state(e)); err != nil {
		return schema.ValueSchema{}, err
	}
	return schema.RefTo(e.ClassName()), nil
}

type lockingResolver struct {
	r *Registry
}

func (l lockingResolver) Resolved(e *Entry) (schema.ValueSchema, error) {
	return l.r.ResolvedSchema(e)
}

func (l lockingResolver) Reference(e *Entry) (schema.ValueSchema, error) {
	return l.r.Reference(e)
}
