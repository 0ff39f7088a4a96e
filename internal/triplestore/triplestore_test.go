package triplestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddDeduplicates(t *testing.T) {
	s := New()
	tr := Triple{Subject: "https://ex/a", Predicate: "https://ex/p", Object: "1"}
	s.Add(tr)
	s.Add(tr)
	assert.Equal(t, 1, s.Len())
}

func TestMatchWildcards(t *testing.T) {
	s := New()
	s.Add(Triple{Subject: "https://ex/a", Predicate: "https://ex/p", Object: "1"})
	s.Add(Triple{Subject: "https://ex/a", Predicate: "https://ex/q", Object: "2"})
	s.Add(Triple{Subject: "https://ex/b", Predicate: "https://ex/p", Object: "3"})

	bySubject := s.Match(Pattern{Subject: "https://ex/a"})
	assert.Len(t, bySubject, 2)

	byPredicate := s.Match(Pattern{Predicate: "https://ex/p"})
	assert.Len(t, byPredicate, 2)

	exact := s.Match(Pattern{Subject: "https://ex/a", Predicate: "https://ex/q"})
	assert.Len(t, exact, 1)
	assert.Equal(t, "2", exact[0].Object)

	assert.Len(t, s.Match(Pattern{}), 3)
}

func TestMatchGraphIsOptIn(t *testing.T) {
	s := New()
	s.Add(Triple{Subject: "https://ex/a", Predicate: "https://ex/p", Object: "1", Graph: "g1"})
	s.Add(Triple{Subject: "https://ex/a", Predicate: "https://ex/p", Object: "1", Graph: ""})

	// Without MatchGraph, both rows are distinct triples (Graph differs)
	// but a pattern that never mentions Graph matches both.
	assert.Len(t, s.Match(Pattern{Subject: "https://ex/a"}), 2)

	filtered := s.Match(Pattern{MatchGraph: true, Graph: "g1"})
	assert.Len(t, filtered, 1)
}
