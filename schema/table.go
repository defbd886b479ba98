package schema

import (
	"fmt"
	"sync"

	"github.com/wippyai/marshal-bridge/errors"
)

// ID identifies a schema registered in a Table
type ID int32

// InvalidID is returned alongside errors
const InvalidID ID = -1

type tableEntry struct {
	schema ValueSchema
	source string // rendering at registration time
}

// Table is the deduplicated store of named class and enum schemas.
// It is safe for concurrent use.
type Table struct {
	byKey   map[string]ID
	entries []tableEntry
	mu      sync.RWMutex
}

// NewTable creates an empty schema table
func NewTable() *Table {
	return &Table{byKey: make(map[string]ID)}
}

// Register adds a class or enum schema keyed by its name. Registering
// an identical schema again returns the existing ID; a different schema
// under the same name is a registration error.
func (t *Table) Register(s ValueSchema) (ID, error) {
	key := s.Key()
	if key == "" || (s.Kind != KindClass && s.Kind != KindEnum) {
		return InvalidID, errors.InvalidInput(errors.PhaseRegister,
			fmt.Sprintf("only named classes and enums can be registered, got %s", s.Kind))
	}
	return t.RegisterAs(key, s)
}

// RegisterAs adds s under an explicit key, used for generic instantiations
func (t *Table) RegisterAs(key string, s ValueSchema) (ID, error) {
	source := s.String()

	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.byKey[key]; ok {
		if t.entries[id].source == source {
			return id, nil
		}
		return InvalidID, errors.Registration(errors.PhaseRegister, key,
			fmt.Errorf("conflicting schema: have %s, got %s", t.entries[id].source, source))
	}

	id := ID(len(t.entries))
	t.entries = append(t.entries, tableEntry{schema: s, source: source})
	t.byKey[key] = id
	return id, nil
}

// Lookup returns the ID registered under key
func (t *Table) Lookup(key string) (ID, bool) {
	t.mu.RLock()
	id, ok := t.byKey[key]
	t.mu.RUnlock()
	return id, ok
}

// Get returns the current schema for id
func (t *Table) Get(id ID) (ValueSchema, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id < 0 || int(id) >= len(t.entries) {
		return ValueSchema{}, false
	}
	return t.entries[id].schema, true
}

// Find returns the current schema registered under key
func (t *Table) Find(key string) (ValueSchema, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byKey[key]
	if !ok {
		return ValueSchema{}, false
	}
	return t.entries[id].schema, true
}

// Update replaces the schema stored for id, typically with its resolved form.
// The registration source is kept so re-registering the original text still
// deduplicates.
func (t *Table) Update(id ID, s ValueSchema) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || int(id) >= len(t.entries) {
		return errors.NotFound(errors.PhaseRegister, "schema id", fmt.Sprint(id))
	}
	t.entries[id].schema = s
	return nil
}

// Keys returns registered keys in registration order
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, len(t.entries))
	for k, id := range t.byKey {
		keys[id] = k
	}
	return keys
}

// Len returns the number of registered schemas
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
