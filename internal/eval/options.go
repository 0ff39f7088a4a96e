package eval

import (
	"time"

	"github.com/roach88/ldc/internal/composer"
	"github.com/roach88/ldc/internal/units"
)

// Options is the host-to-core contract of spec §6: everything the façade
// needs from its caller beyond the document bytes themselves. Every field
// is optional; a zero Options evaluates a document with no sibling
// relations, the stock unit registry, and the current wall-clock time.
type Options struct {
	// Units resolves unit/quantity names (§4.2). A nil value falls back
	// to units.NewRegistry().
	Units *units.Registry

	// Now is the timestamp $now() observes, for reproducible evaluation.
	// A zero Now uses time.Now() — callers that need byte-identical
	// reruns (the determinism property in spec §8) must set this.
	Now time.Time

	// Loader fetches a sibling document for a `@relations` alias.
	// Required only when the document declares `@relations`.
	Loader composer.Loader

	// Caps is the opaque set of effective capability scopes, threaded
	// through to the signable payload but otherwise unused by the core
	// (spec §6: "opaque to the core; used only by host-owned functions").
	Caps map[string]bool

	// RelationCache, if set together with RawLoader, wraps RawLoader in
	// a SQLite-backed cache keyed by (alias, path) so repeated
	// evaluations against the same sibling documents skip re-fetching
	// (spec §6, composer.Cache). When set, it takes priority over Loader.
	RelationCache *composer.Cache

	// RawLoader is the uncached transport backing RelationCache: it
	// returns a sibling document's raw JSON bytes rather than an already
	// -decoded Value, so the cache can store and replay them verbatim.
	RawLoader composer.RawFetch

	// AbortCheck is polled before each ordered layer and once before the
	// fixpoint layer (spec §5 "Cancellation"); the fixpoint layer's
	// iterations are not polled once it starts. A nil AbortCheck disables
	// cancellation entirely.
	AbortCheck func() bool
}

func (o Options) unitsOrDefault() *units.Registry {
	if o.Units != nil {
		return o.Units
	}
	return units.NewRegistry()
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now
}

func (o Options) loader() composer.Loader {
	if o.RelationCache != nil && o.RawLoader != nil {
		return composer.CachingLoader(o.RelationCache, o.RawLoader)
	}
	return o.Loader
}

func (o Options) aborted() bool {
	return o.AbortCheck != nil && o.AbortCheck()
}
