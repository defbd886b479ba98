package proxy

import "github.com/wippyai/marshal-bridge/value"

// EventType identifies a proxy lifecycle notification.
type EventType uint8

const (
	// EventCreated fires when a native instance is paired with a new proxy object.
	EventCreated EventType = iota
	// EventReplaced fires when a stale pairing is dropped in favour of a new proxy.
	EventReplaced
	// EventSwept fires when Sweep removes an entry whose native was collected.
	EventSwept
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventReplaced:
		return "replaced"
	case EventSwept:
		return "swept"
	}
	return "unknown"
}

// Event represents a proxy lifecycle event.
type Event struct {
	Native Native
	Proxy  *value.ProxyObject
	Handle uint64
	Type   EventType
}

// Observer receives notifications about proxy lifecycle events.
// Observers are called without the store lock held.
type Observer interface {
	OnProxyEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnProxyEvent calls f(e).
func (f ObserverFunc) OnProxyEvent(e Event) { f(e) }
