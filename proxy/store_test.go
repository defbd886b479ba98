package proxy

import (
	"runtime"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/value"
)

type widget struct {
	Object
	name string
}

var widgetClass = &schema.ClassSchema{Name: "Widget", Interface: true}

func newProxy() *value.ProxyObject {
	return value.NewProxyObject(value.NewTypedObject(widgetClass))
}

func collect() {
	runtime.GC()
	runtime.GC()
}

type recorder struct {
	mu     sync.Mutex
	events []EventType
}

func (r *recorder) OnProxyEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.Type)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventType(nil), r.events...)
}

func TestStore_AttachAndLookup(t *testing.T) {
	rec := &recorder{}
	s := NewStore(WithObserver(rec))
	w := &widget{name: "a"}

	if _, ok := s.ProxyFor(w); ok {
		t.Fatal("fresh native should have no proxy")
	}

	p := s.Attach(w, newProxy())
	got, ok := s.ProxyFor(w)
	if !ok || got != p {
		t.Fatalf("ProxyFor = %v, %v; want attached proxy", got, ok)
	}

	n, ok := s.Lookup(p.ID)
	if !ok || n != Native(w) {
		t.Fatalf("Lookup = %v, %v; want the widget", n, ok)
	}

	if types := rec.types(); len(types) != 1 || types[0] != EventCreated {
		t.Errorf("events = %v, want [created]", types)
	}
}

func TestStore_FirstAttachWins(t *testing.T) {
	s := NewStore()
	w := &widget{}

	first := s.Attach(w, newProxy())
	second := s.Attach(w, newProxy())
	if first != second {
		t.Error("second Attach should return the live proxy")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestStore_ConcurrentAttach(t *testing.T) {
	s := NewStore()
	w := &widget{}

	const workers = 16
	got := make([]*value.ProxyObject, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = s.Attach(w, newProxy())
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if got[i] != got[0] {
			t.Fatalf("worker %d got a different proxy", i)
		}
	}
}

func TestStore_StaleProxyIsReplaced(t *testing.T) {
	rec := &recorder{}
	s := NewStore(WithObserver(rec))
	w := &widget{}

	oldHandle := attachAndDrop(s, w)
	collect()

	if _, ok := s.ProxyFor(w); ok {
		t.Fatal("proxy should have been collected")
	}

	p := s.Attach(w, newProxy())
	if p.ID == oldHandle {
		t.Error("replacement should carry a new handle")
	}
	if _, ok := s.Lookup(oldHandle); ok {
		t.Error("old handle should no longer resolve")
	}

	types := rec.types()
	want := []EventType{EventCreated, EventReplaced, EventCreated}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, types[i], want[i])
		}
	}
}

func attachAndDrop(s *Store, w *widget) uint64 {
	p := s.Attach(w, newProxy())
	return p.ID
}

func TestStore_DoesNotRetainNative(t *testing.T) {
	s := NewStore()
	p := newProxy()
	handle, ref := attachTemporary(s, p)

	collect()

	if _, ok := s.Lookup(handle); ok {
		t.Error("store kept the native alive")
	}
	if _, ok := ref.Get(); ok {
		t.Error("weak ref kept the native alive")
	}
	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep = %d, want 1", n)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after sweep", s.Len())
	}
	runtime.KeepAlive(p)
}

func attachTemporary(s *Store, p *value.ProxyObject) (uint64, Ref) {
	w := &widget{name: "temp"}
	s.Attach(w, p)
	return p.ID, WeakRef(w)
}

func TestStore_IndependentStores(t *testing.T) {
	a, b := NewStore(), NewStore()
	w := &widget{}

	pa := a.Attach(w, newProxy())
	if _, ok := b.ProxyFor(w); ok {
		t.Fatal("pairing leaked into another store")
	}
	pb := b.Attach(w, newProxy())
	if pa == pb {
		t.Error("stores should hold distinct proxies")
	}
	if n, ok := b.Lookup(pb.ID); !ok || n != Native(w) {
		t.Error("second store lookup failed")
	}
}

func TestStore_Detach(t *testing.T) {
	s := NewStore()
	w := &widget{}
	p := s.Attach(w, newProxy())

	if !s.Detach(w) {
		t.Fatal("Detach should report an existing pairing")
	}
	if _, ok := s.Lookup(p.ID); ok {
		t.Error("handle still resolves after Detach")
	}
	if s.Detach(w) {
		t.Error("second Detach should report nothing to remove")
	}
}

func TestWeakRef(t *testing.T) {
	w := &widget{name: "ref"}
	r := WeakRef(w)

	n, ok := r.Get()
	if !ok || n.(*widget).name != "ref" {
		t.Fatalf("Get = %v, %v", n, ok)
	}
	runtime.KeepAlive(w)
}

func adoptDropped(s *Store, w *widget) uint64 {
	return s.Adopt(w, newProxy()).ID
}

func TestStore_AdoptKeepsProxyAlive(t *testing.T) {
	s := NewStore()
	w := &widget{name: "local"}

	handle := adoptDropped(s, w)
	collect()

	p, ok := s.ProxyFor(w)
	if !ok {
		t.Fatal("adopted proxy was collected while its native lives")
	}
	if p.ID != handle {
		t.Errorf("ProxyFor handle = %d, want %d", p.ID, handle)
	}
	if again := s.Attach(w, newProxy()); again != p {
		t.Error("Attach replaced an adopted proxy")
	}
	runtime.KeepAlive(w)
}

func TestStore_SubscribeUnsubscribe(t *testing.T) {
	tests := []struct {
		name        string
		unsubscribe bool
		want        []EventType
	}{
		{"subscribed", false, []EventType{EventCreated, EventCreated}},
		{"unsubscribed after first attach", true, []EventType{EventCreated}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			rec, other := &recorder{}, &recorder{}
			s.Subscribe(rec)
			s.Subscribe(other)

			s.Attach(&widget{name: "a"}, newProxy())
			if tt.unsubscribe {
				s.Unsubscribe(rec)
			}
			s.Attach(&widget{name: "b"}, newProxy())

			if diff := cmp.Diff(tt.want, rec.types()); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]EventType{EventCreated, EventCreated}, other.types()); diff != "" {
				t.Errorf("other observer events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_UnsubscribeUnknownObserver(t *testing.T) {
	s := NewStore()
	rec := &recorder{}
	s.Subscribe(rec)
	s.Unsubscribe(&recorder{})

	s.Attach(&widget{}, newProxy())
	if diff := cmp.Diff([]EventType{EventCreated}, rec.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
