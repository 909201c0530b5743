// Package statefield implements the process-wide (class, field) -> Value
// store described by spec.md §3, plus the initialized-classes set the class
// loader gates <clinit> execution on (spec.md §4.6).
//
// Grounded on original_source/dalvik_vm/vm.py's self.static_fields dict and
// memory.py's module-level store, generalized per SPEC_FULL.md §9's "Global
// state" note: this module owns the store as explicit session state (one
// per internal/session.Session) instead of a process-wide singleton.
package statefield

import "sync"

type key struct {
	class, field string
}

// Store is a mutex-guarded map shared across every frame of one emulation
// (spec.md §5 "Shared mutable state"); the lock exists for reuse hygiene
// across sequential emulations, not because the VM itself is concurrent.
type Store struct {
	mu          sync.RWMutex
	fields      map[key]any
	initialized map[string]bool
}

func New() *Store {
	return &Store{
		fields:      map[key]any{},
		initialized: map[string]bool{},
	}
}

func (s *Store) Get(class, field string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.fields[key{class, field}]
	return v, ok
}

func (s *Store) Set(class, field string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[key{class, field}] = v
}

func (s *Store) Has(class, field string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.fields[key{class, field}]
	return ok
}

// Reset clears all field values and the initialized-classes set together,
// since spec.md §3 ties their reset intervals ("at most once per reset
// interval (between two calls to reset of the static-field store and the
// initialized-classes set that tracks it)").
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = map[key]any{}
	s.initialized = map[string]bool{}
}

// IsClassInitialized reports whether class's <clinit> has already run (or
// been marked as running) since the last Reset.
func (s *Store) IsClassInitialized(class string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized[class]
}

// MarkClassInitialized records class as initialized. Per spec.md §4.6/§7
// item 5 the class loader calls this BEFORE running <clinit>, diverging from
// original_source/dalvik_vm/class_loader.py's _run_clinit (which marks
// after execution) in order to break <clinit> call cycles: a class whose
// static initializer indirectly reads one of its own not-yet-set fields
// observes the partially-initialized state instead of recursing forever.
func (s *Store) MarkClassInitialized(class string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized[class] = true
}
