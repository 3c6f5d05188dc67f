package schema

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
)

var (
	ErrUnknownEventType = errors.New("event type not negotiated")
	ErrUnknownField     = errors.New("field not in negotiated schema")
)

// NotFoundError names the event type (and field) a lookup failed for.
type NotFoundError struct {
	EventType string
	Field     string
	Err       error
}

func (e *NotFoundError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.EventType, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.EventType, e.Field, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string][]string
	indexes map[string]map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string][]string),
		indexes: make(map[string]map[string]int),
	}
}

// Negotiate records fields for eventType. It returns false, leaving the stored
// list untouched, when fields is empty or the event type was already
// negotiated.
func (r *Registry) Negotiate(eventType string, fields []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(fields) == 0 {
		return false
	}
	if _, ok := r.schemas[eventType]; ok {
		return false
	}

	stored := slices.Clone(fields)
	index := make(map[string]int, len(stored))
	for i, f := range stored {
		if _, dup := index[f]; !dup {
			index[f] = i
		}
	}
	r.schemas[eventType] = stored
	r.indexes[eventType] = index
	return true
}

// Fields returns a copy of the negotiated field list.
func (r *Registry) Fields(eventType string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields, ok := r.schemas[eventType]
	if !ok {
		return nil, false
	}
	return slices.Clone(fields), true
}

func (r *Registry) Has(eventType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.schemas[eventType]
	return ok
}

// FieldIndex returns the column position of field within eventType's rows.
func (r *Registry) FieldIndex(eventType, field string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, ok := r.indexes[eventType]
	if !ok {
		return 0, &NotFoundError{EventType: eventType, Err: ErrUnknownEventType}
	}
	i, ok := index[field]
	if !ok {
		return 0, &NotFoundError{EventType: eventType, Field: field, Err: ErrUnknownField}
	}
	return i, nil
}

// EventTypes returns the negotiated event types in sorted order.
func (r *Registry) EventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Len returns the number of negotiated event types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// Reset forgets every schema.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.schemas = make(map[string][]string)
	r.indexes = make(map[string]map[string]int)
}
