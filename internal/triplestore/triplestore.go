// Package triplestore implements the in-memory derived-triple container
// (spec §4.8): add(triple) and match(s?, p?, o?, g?) over an unordered,
// insert-idempotent set of (subject, predicate, object) tuples.
//
// The shape is grounded on the graph.Triple accessor pattern from the
// Cayley reference (per-field Get by direction, s/p/o/c), adapted from a
// single global struct into a store type so each evaluation can own an
// isolated instance (spec §4.12: "each evaluation owns its triple
// store... no process-wide mutable state is required by the core").
package triplestore

import "sync"

// Triple is a derived fact: subject and predicate are IRI strings, object
// is the string encoding of a scalar or quantity (spec §4.7). Graph is an
// optional context label; the core never populates it today, but match
// accepts a wildcard or exact filter on it so adapters can layer named
// graphs on top without changing the store's shape.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
	Graph     string
}

// Store is an unordered, duplicate-tolerant set of triples with
// wildcard pattern matching. The zero value is ready to use. A Store is
// owned by a single evaluation; it is safe for concurrent read/write
// only incidentally (the evaluator itself is single-threaded), the
// mutex exists so a host embedding the evaluator in a worker pool can't
// corrupt it by accident.
type Store struct {
	mu   sync.RWMutex
	all  []Triple
	seen map[Triple]bool
}

// New returns an empty triple store.
func New() *Store {
	return &Store{seen: make(map[Triple]bool)}
}

// Add inserts t. Logical duplicates (equal on all four fields) are
// tolerated at insert but stored once (spec §4.7: "stores them
// idempotently by tuple equality").
func (s *Store) Add(t Triple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[Triple]bool)
	}
	if s.seen[t] {
		return
	}
	s.seen[t] = true
	s.all = append(s.all, t)
}

// Pattern is a match query. A zero-value field ("") on Subject,
// Predicate, or Object is a wildcard; Graph is matched only when
// MatchGraph is true, so callers can distinguish "any graph" from
// "the default empty graph" without a sentinel string.
type Pattern struct {
	Subject    string
	Predicate  string
	Object     string
	Graph      string
	MatchGraph bool
}

// Match returns every stored triple consistent with p, in insertion
// order. An empty Pattern matches every triple in the store.
func (s *Store) Match(p Pattern) []Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Triple
	for _, t := range s.all {
		if p.Subject != "" && t.Subject != p.Subject {
			continue
		}
		if p.Predicate != "" && t.Predicate != p.Predicate {
			continue
		}
		if p.Object != "" && t.Object != p.Object {
			continue
		}
		if p.MatchGraph && t.Graph != p.Graph {
			continue
		}
		out = append(out, t)
	}
	return out
}

// All returns every triple currently in the store, in insertion order.
// The slice is a copy; mutating it does not affect the store.
func (s *Store) All() []Triple {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Triple, len(s.all))
	copy(out, s.all)
	return out
}

// Len reports how many distinct triples are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.all)
}
