package proxy

import (
	"sync"
	"weak"

	"github.com/wippyai/marshal-bridge/value"
)

// Native is implemented by every native interface instance that can
// cross the boundary. Embedding Object provides the implementation:
//
//	type calculator struct {
//		proxy.Object
//	}
type Native interface {
	BridgeObject() *Object
}

// Object anchors the identity of a native instance across the boundary.
// It records, per Store, the proxy object currently standing in for the
// instance. The zero value is ready to use; an Object must not be copied
// after first use.
type Object struct {
	self    Native
	entries map[*Store]objectEntry
	mu      sync.Mutex
}

type objectEntry struct {
	proxy  weak.Pointer[value.ProxyObject]
	owned  *value.ProxyObject // strong for natives standing in for a boundary object
	handle uint64
}

// BridgeObject returns o, so that embedding Object satisfies Native.
func (o *Object) BridgeObject() *Object { return o }

// Native returns the instance o was attached for, or nil before the
// instance first crossed the boundary.
func (o *Object) Native() Native {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.self
}

func (o *Object) entry(s *Store) (objectEntry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entries[s]
	return e, ok
}

func (o *Object) setEntry(s *Store, n Native, e objectEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.self == nil {
		o.self = n
	}
	if o.entries == nil {
		o.entries = make(map[*Store]objectEntry)
	}
	o.entries[s] = e
}

func (o *Object) dropEntry(s *Store, handle uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.entries[s]; ok && e.handle == handle {
		delete(o.entries, s)
	}
}

// Ref is a weak reference to a native instance. It never keeps the
// instance alive.
type Ref struct {
	ptr weak.Pointer[Object]
}

// WeakRef returns a weak reference to n
func WeakRef(n Native) Ref {
	o := n.BridgeObject()
	o.mu.Lock()
	if o.self == nil {
		o.self = n
	}
	o.mu.Unlock()
	return Ref{ptr: weak.Make(o)}
}

// Get returns the referenced instance, or false once it has been collected.
func (r Ref) Get() (Native, bool) {
	o := r.ptr.Value()
	if o == nil {
		return nil, false
	}
	n := o.Native()
	return n, n != nil
}
