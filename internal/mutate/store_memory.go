package mutate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation used as the test double
// for entity persistence. Entity packages wrap it with hooks for id
// assignment, filter matching and timestamp maintenance.
//
// Not intended for production use.

type MemoryHooks[T Record] struct {
	// AssignID keys a new record when its RecordID is empty.
	AssignID func(T) T
	// Match reports whether rec satisfies the filter.
	Match func(rec T, f Filter) bool
	// Clone deep-copies reference fields so callers only ever see value
	// copies. Optional when T has value semantics throughout.
	Clone func(T) T
	// Touch maintains the store-owned timestamps.
	Touch func(rec T, now time.Time, created bool) T
}

type MemoryStore[T Record] struct {
	mu    sync.Mutex
	recs  map[string]T
	hooks MemoryHooks[T]
	clock func() time.Time
}

func NewMemoryStore[T Record](hooks MemoryHooks[T]) *MemoryStore[T] {
	return &MemoryStore[T]{
		recs:  make(map[string]T),
		hooks: hooks,
		clock: time.Now,
	}
}

// SetClock makes timestamps deterministic in tests.
func (m *MemoryStore[T]) SetClock(clock func() time.Time) { m.clock = clock }

func (m *MemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m.clone(rec), nil
}

func (m *MemoryStore[T]) FindBy(ctx context.Context, f Filter) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []T
	for _, rec := range m.recs {
		if m.hooks.Match != nil && m.hooks.Match(rec, f) {
			out = append(out, m.clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID() < out[j].RecordID() })
	return out, nil
}

func (m *MemoryStore[T]) Create(ctx context.Context, rec T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.RecordID() == "" && m.hooks.AssignID != nil {
		rec = m.hooks.AssignID(rec)
	}
	id := rec.RecordID()
	if id == "" {
		var zero T
		return zero, fmt.Errorf("record id is required")
	}
	if _, exists := m.recs[id]; exists {
		var zero T
		return zero, fmt.Errorf("record %s already exists", id)
	}
	if m.hooks.Touch != nil {
		rec = m.hooks.Touch(rec, m.clock().UTC(), true)
	}
	m.recs[id] = m.clone(rec)
	return m.clone(rec), nil
}

func (m *MemoryStore[T]) Update(ctx context.Context, rec T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := rec.RecordID()
	if _, ok := m.recs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if m.hooks.Touch != nil {
		rec = m.hooks.Touch(rec, m.clock().UTC(), false)
	}
	m.recs[id] = m.clone(rec)
	return nil
}

func (m *MemoryStore[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.recs, id)
	return nil
}

func (m *MemoryStore[T]) clone(rec T) T {
	if m.hooks.Clone != nil {
		return m.hooks.Clone(rec)
	}
	return rec
}
