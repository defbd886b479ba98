package proxy

import (
	"sync"
	"weak"

	"go.uber.org/zap"

	"github.com/wippyai/marshal-bridge/value"
)

// Store maps proxy handles to weakly referenced native instances. It
// never extends the lifetime of a native instance or of a proxy object:
// once every strong owner is gone the entry reads as empty and the next
// marshal creates a fresh pairing.
//
// Store methods never call back into marshalling while holding the lock,
// so callers build proxy objects outside the store and publish them with
// Attach, which keeps the first pairing when two callers race.
type Store struct {
	logger    *zap.Logger
	natives   map[uint64]weak.Pointer[Object]
	observers []Observer
	mu        sync.Mutex
	obsMu     sync.RWMutex
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogger sets the store logger
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithObserver subscribes o at construction
func WithObserver(o Observer) StoreOption {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// NewStore creates an empty store
func NewStore(opts ...StoreOption) *Store {
	s := &Store{natives: make(map[uint64]weak.Pointer[Object])}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = Logger()
	}
	return s
}

// Lookup returns the live native instance paired with handle
func (s *Store) Lookup(handle uint64) (Native, bool) {
	s.mu.Lock()
	wp, ok := s.natives[handle]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	o := wp.Value()
	if o == nil {
		return nil, false
	}
	n := o.Native()
	return n, n != nil
}

// ProxyFor returns the live proxy object paired with n in this store
func (s *Store) ProxyFor(n Native) (*value.ProxyObject, bool) {
	o := n.BridgeObject()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveProxyLocked(o)
}

func (s *Store) liveProxyLocked(o *Object) (*value.ProxyObject, bool) {
	e, ok := o.entry(s)
	if !ok {
		return nil, false
	}
	if e.owned != nil {
		return e.owned, true
	}
	p := e.proxy.Value()
	return p, p != nil
}

// Attach pairs n with p. If n already has a live proxy in this store,
// that proxy is returned and p is discarded. The store holds p weakly,
// so the pairing lasts while the boundary side keeps p.
func (s *Store) Attach(n Native, p *value.ProxyObject) *value.ProxyObject {
	return s.attach(n, p, false)
}

// Adopt pairs n with p like Attach, but n keeps p alive. It is used for
// natives synthesized over a boundary object, which must marshal back
// to that object for as long as they live.
func (s *Store) Adopt(n Native, p *value.ProxyObject) *value.ProxyObject {
	return s.attach(n, p, true)
}

func (s *Store) attach(n Native, p *value.ProxyObject, owned bool) *value.ProxyObject {
	o := n.BridgeObject()
	var events []Event

	s.mu.Lock()
	if live, ok := s.liveProxyLocked(o); ok {
		s.mu.Unlock()
		return live
	}

	if stale, ok := o.entry(s); ok {
		delete(s.natives, stale.handle)
		events = append(events, Event{Type: EventReplaced, Handle: stale.handle, Native: n})
		s.logger.Debug("stale proxy replaced",
			zap.Uint64("old_handle", stale.handle),
			zap.Uint64("handle", p.ID))
	}

	e := objectEntry{handle: p.ID, proxy: weak.Make(p)}
	if owned {
		e.owned = p
	}
	o.setEntry(s, n, e)
	s.natives[p.ID] = weak.Make(o)
	events = append(events, Event{Type: EventCreated, Handle: p.ID, Native: n, Proxy: p})
	s.mu.Unlock()

	s.logger.Debug("proxy attached",
		zap.Uint64("handle", p.ID),
		zap.String("class", className(p)),
		zap.Bool("owned", owned))

	for _, e := range events {
		s.notify(e)
	}
	return p
}

// Detach removes the pairing of n in this store, if any
func (s *Store) Detach(n Native) bool {
	o := n.BridgeObject()
	s.mu.Lock()
	e, ok := o.entry(s)
	if ok {
		delete(s.natives, e.handle)
		o.dropEntry(s, e.handle)
	}
	s.mu.Unlock()
	return ok
}

// Sweep drops entries whose native instance has been collected and
// returns how many were removed. Lookups already treat such entries as
// empty; Sweep only reclaims map space.
func (s *Store) Sweep() int {
	var swept []uint64

	s.mu.Lock()
	for h, wp := range s.natives {
		if wp.Value() == nil {
			delete(s.natives, h)
			swept = append(swept, h)
		}
	}
	s.mu.Unlock()

	for _, h := range swept {
		s.notify(Event{Type: EventSwept, Handle: h})
	}
	if len(swept) > 0 {
		s.logger.Debug("swept collected proxies", zap.Int("count", len(swept)))
	}
	return len(swept)
}

// Len returns the number of entries, including ones not yet swept
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.natives)
}

// Subscribe adds an observer for lifecycle events.
func (s *Store) Subscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// Unsubscribe removes an observer.
func (s *Store) Unsubscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	for i, obs := range s.observers {
		if obs == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Store) notify(e Event) {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	for _, o := range s.observers {
		o.OnProxyEvent(e)
	}
}

func className(p *value.ProxyObject) string {
	if p.Object == nil || p.Object.Class == nil {
		return ""
	}
	return p.Object.Class.Name
}
